package backend

import (
	"time"

	"otter/model"
	"otter/timecode"
	"otter/utils/log"
)

// 백엔드는 naive ISO 8601(타임존 없는 로컬 시각)로 주고받음
const timeLayout = "2006-01-02T15:04:05"

// {success, data} 엔벨로프 (원래 백엔드 응답 형식)
type candlesEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Timeframe   string          `json:"timeframe"`
		Candles     []candlePayload `json:"candles"`
		DataMissing bool            `json:"data_missing"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

type candlePayload struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Partial   bool    `json:"partial,omitempty"`
}

// toCandle : 파싱 실패한 봉은 버리고 로그만 남김 (nil 반환)
func (p candlePayload) toCandle() *model.Candle {
	t, err := time.Parse(timeLayout, p.Timestamp)
	if err != nil {
		log.Warnf("[Backend] unparsable candle timestamp %q: %v", p.Timestamp, err)
		return nil
	}
	return &model.Candle{
		Timestamp: timecode.Encode(t),
		Time:      t,
		Open:      p.Open,
		High:      p.High,
		Low:       p.Low,
		Close:     p.Close,
		Volume:    p.Volume,
		Partial:   p.Partial,
	}
}

type ordersEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Orders []orderPayload `json:"orders"`
	} `json:"data"`
}

type orderPayload struct {
	ExecutedAt string  `json:"executed_at"`
	Side       string  `json:"side"`
	LotSize    float64 `json:"lot_size"`
	EntryPrice float64 `json:"entry_price"`
}

func (p orderPayload) toEvent() *model.BusinessEvent {
	t, err := time.Parse(timeLayout, p.ExecutedAt)
	if err != nil {
		log.Warnf("[Backend] unparsable order time %q: %v", p.ExecutedAt, err)
		return nil
	}
	return &model.BusinessEvent{
		Time:  t,
		Kind:  model.EventKindEntry,
		Side:  model.SideType(p.Side),
		Price: p.EntryPrice,
	}
}

type tradesEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Trades []tradePayload `json:"trades"`
	} `json:"data"`
}

type tradePayload struct {
	Side        string  `json:"side"`
	EntryPrice  float64 `json:"entry_price"`
	ExitPrice   float64 `json:"exit_price"`
	RealizedPnl float64 `json:"realized_pnl"`
	OpenedAt    string  `json:"opened_at"`
	ClosedAt    string  `json:"closed_at"`
}

func (p tradePayload) toEvent() *model.BusinessEvent {
	t, err := time.Parse(timeLayout, p.ClosedAt)
	if err != nil {
		log.Warnf("[Backend] unparsable trade close time %q: %v", p.ClosedAt, err)
		return nil
	}
	return &model.BusinessEvent{
		Time:   t,
		Kind:   model.EventKindExit,
		Side:   model.SideType(p.Side),
		Price:  p.ExitPrice,
		Profit: p.RealizedPnl,
	}
}

type advanceEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		SimulationID string `json:"simulation_id"`
		CurrentTime  string `json:"current_time"`
		Skipped      bool   `json:"skipped"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

type dateRangeEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		StartDate  string `json:"start_date"`
		EndDate    string `json:"end_date"`
		Timeframes map[string]struct {
			Start string `json:"start"`
			End   string `json:"end"`
			Count int    `json:"count"`
		} `json:"timeframes"`
	} `json:"data"`
}
