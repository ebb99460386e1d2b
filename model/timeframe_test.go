package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTimeframe(t *testing.T) {
	tf, err := ParseTimeframe("H1")
	require.NoError(t, err)
	require.Equal(t, TimeframeH1, tf)

	_, err = ParseTimeframe("M5")
	require.Error(t, err)
}

func TestPeriodStart(t *testing.T) {
	// 2024-01-17은 수요일
	at := time.Date(2024, 1, 17, 14, 37, 22, 0, time.UTC)

	cases := []struct {
		tf   Timeframe
		want time.Time
	}{
		{TimeframeM10, time.Date(2024, 1, 17, 14, 30, 0, 0, time.UTC)},
		{TimeframeH1, time.Date(2024, 1, 17, 14, 0, 0, 0, time.UTC)},
		{TimeframeD1, time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)},
		// 주봉은 월요일 00:00 시작
		{TimeframeW1, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.tf.PeriodStart(at), "timeframe %s", c.tf)
	}
}

func TestPeriodStartSundayBelongsToPreviousWeek(t *testing.T) {
	// 일요일은 그 주 월요일로 내려가야 함
	sunday := time.Date(2024, 1, 21, 10, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		TimeframeW1.PeriodStart(sunday))
}

func TestPeriodStartIsIdempotent(t *testing.T) {
	at := time.Date(2024, 1, 17, 14, 37, 0, 0, time.UTC)
	for _, tf := range Timeframes {
		start := tf.PeriodStart(at)
		require.Equal(t, start, tf.PeriodStart(start), "timeframe %s", tf)
	}
}
