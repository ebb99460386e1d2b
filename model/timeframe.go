package model

import (
	"fmt"
	"time"
)

type Timeframe string

// 차트에 표시하는 시간축. 이름은 백엔드 API와 동일 (M10, H1, D1, W1)
const (
	TimeframeM10 Timeframe = "M10" // 10분봉
	TimeframeH1  Timeframe = "H1"  // 1시간봉
	TimeframeD1  Timeframe = "D1"  // 일봉
	TimeframeW1  Timeframe = "W1"  // 주봉
)

// Timeframes : 세밀한 순서. 마커는 가장 세밀한 시간축(M10)에만 계산함
var Timeframes = []Timeframe{TimeframeM10, TimeframeH1, TimeframeD1, TimeframeW1}

const FinestTimeframe = TimeframeM10

func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case TimeframeM10, TimeframeH1, TimeframeD1, TimeframeW1:
		return Timeframe(s), nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", s)
	}
}

func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TimeframeM10:
		return 10 * time.Minute
	case TimeframeH1:
		return time.Hour
	case TimeframeD1:
		return 24 * time.Hour
	case TimeframeW1:
		return 7 * 24 * time.Hour
	}
	return 0
}

// PeriodStart : 해당 시간축에서 t가 속한 집계 구간의 시작 시각.
// time.Truncate는 UTC 절대시간 기준이라서 달력 필드 기준으로 직접 계산함
func (tf Timeframe) PeriodStart(t time.Time) time.Time {
	y, m, d := t.Date()
	switch tf {
	case TimeframeM10:
		return time.Date(y, m, d, t.Hour(), t.Minute()-t.Minute()%10, 0, 0, t.Location())
	case TimeframeH1:
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location())
	case TimeframeD1:
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	case TimeframeW1:
		// ISO 주의 시작(월요일 00:00)
		midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
		offset := (int(midnight.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -offset)
	}
	return t
}
