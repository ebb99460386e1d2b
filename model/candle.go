package model

import "time"

// Candle : canonical timestamp(초)를 키로 하는 OHLC 레코드.
// Timestamp는 timecode.Encode가 만든 fake-UTC 초 단위 값이고,
// Time은 표시용으로 같이 들고 다님 (비교/저장 키는 항상 Timestamp)
type Candle struct {
	Timestamp int64     `json:"timestamp"`
	Time      time.Time `json:"time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`

	// 아직 진행중인 구간을 부분 합성한 봉인지 여부
	Partial bool `json:"partial,omitempty"`
}

// CandleBatch : fetch 한 번의 결과. DataMissing은 백엔드가 이 구간에
// 데이터가 없다고 답한 경우 (빈 결과와 구분해 세션당 한 번만 알림)
type CandleBatch struct {
	Candles     []Candle `json:"candles"`
	DataMissing bool     `json:"dataMissing"`
}

// AdvanceResult : 백엔드 시각 전진 결과. 주말 등 데이터 공백이면
// 백엔드가 다음 데이터 시각으로 건너뛰고 Skipped를 세움
type AdvanceResult struct {
	CurrentTime time.Time `json:"currentTime"`
	Skipped     bool      `json:"skipped"`
}

// DataRange : 시간축 하나의 데이터 보유 구간
type DataRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Count int       `json:"count"`
}

// DateRange : 전체 + 시간축별 데이터 범위 (세션 시작 시각 검증용)
type DateRange struct {
	Start      time.Time               `json:"start"`
	End        time.Time               `json:"end"`
	Timeframes map[Timeframe]DataRange `json:"timeframes"`
}

// ChartPayload : 프레젠테이션 레이어에 넘기는 시간축별 렌더 데이터
type ChartPayload struct {
	Timeframe Timeframe `json:"timeframe"`
	Candles   []Candle  `json:"candles"`
	Markers   []Marker  `json:"markers,omitempty"`

	// 갱신은 구간 경계를 넘었을 때만 일어나므로 항상 true.
	// 프런트 호환을 위해 와이어 포맷에 남겨둠 (차트 오토스크롤 판단용)
	BoundaryCrossed bool `json:"boundaryCrossed"`
	DataMissing     bool `json:"dataMissing"`
}
