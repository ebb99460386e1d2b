package marker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"otter/candlestore"
	"otter/model"
	"otter/timecode"
)

func m10Candle(t *testing.T, hh, mm int) model.Candle {
	t.Helper()
	moment := time.Date(2024, 3, 15, hh, mm, 0, 0, time.UTC)
	return model.Candle{
		Timestamp: timecode.Encode(moment),
		Time:      moment,
		Open:      150.0, High: 150.4, Low: 149.8, Close: 150.2,
	}
}

func storeWith(t *testing.T, candles ...model.Candle) *candlestore.Store {
	t.Helper()
	store := candlestore.New(model.TimeframeM10)
	require.NoError(t, store.ReplaceAll(candles))
	return store
}

// 09:07 체결 주문, 09:00/09:10 봉 존재
// -> 09:00으로 내림, exact 매칭
func TestResolve_Exact(t *testing.T) {
	store := storeWith(t, m10Candle(t, 9, 0), m10Candle(t, 9, 10))
	r := NewResolver()

	events := []model.BusinessEvent{{
		Time:  time.Date(2024, 3, 15, 9, 7, 0, 0, time.UTC),
		Kind:  model.EventKindEntry,
		Side:  model.SideTypeBuy,
		Price: 150.1,
	}}

	markers, stats := r.Resolve(events, store)
	require.Equal(t, Stats{Exact: 1}, stats)
	require.Len(t, markers, 1)
	require.Equal(t, model.MarkerMatchExact, markers[0].Match)
	require.Equal(t, m10Candle(t, 9, 0).Timestamp, markers[0].Timestamp)
	require.Equal(t, int64(0), markers[0].OffsetSec)
}

// 09:28 청산, 봉은 09:00만 존재
// -> 타깃 09:20, exact 실패, nearest 거리 1200초 >= 900초 허용오차 -> failed
func TestResolve_FailedBeyondTolerance(t *testing.T) {
	store := storeWith(t, m10Candle(t, 9, 0))
	r := NewResolver()

	events := []model.BusinessEvent{{
		Time:   time.Date(2024, 3, 15, 9, 28, 0, 0, time.UTC),
		Kind:   model.EventKindExit,
		Side:   model.SideTypeSell,
		Price:  150.3,
		Profit: 1200,
	}}

	markers, stats := r.Resolve(events, store)
	require.Equal(t, Stats{Failed: 1}, stats)
	require.Empty(t, markers, "failed events are dropped from the rendered set")
}

func TestResolve_Fallback(t *testing.T) {
	// 타깃 09:20 봉이 빠져 있고 09:10 봉만 있음 -> 거리 600초 < 900초
	store := storeWith(t, m10Candle(t, 9, 10))
	r := NewResolver()

	events := []model.BusinessEvent{{
		Time:  time.Date(2024, 3, 15, 9, 28, 0, 0, time.UTC),
		Kind:  model.EventKindExit,
		Side:  model.SideTypeSell,
		Price: 150.3,
	}}

	markers, stats := r.Resolve(events, store)
	require.Equal(t, Stats{Fallback: 1}, stats)
	require.Len(t, markers, 1)
	require.Equal(t, model.MarkerMatchFallback, markers[0].Match)
	require.Equal(t, int64(-600), markers[0].OffsetSec, "signed offset for diagnostics")
}

// 분류 완전성: 모든 이벤트는 exact/fallback/failed 중 정확히 하나
func TestResolve_ClassificationCompleteness(t *testing.T) {
	store := storeWith(t, m10Candle(t, 9, 0), m10Candle(t, 9, 10), m10Candle(t, 9, 40))
	r := NewResolver()

	events := []model.BusinessEvent{
		{Time: time.Date(2024, 3, 15, 9, 5, 0, 0, time.UTC), Kind: model.EventKindEntry, Side: model.SideTypeBuy, Price: 150},
		{Time: time.Date(2024, 3, 15, 9, 15, 0, 0, time.UTC), Kind: model.EventKindExit, Side: model.SideTypeSell, Price: 150},
		{Time: time.Date(2024, 3, 15, 9, 25, 0, 0, time.UTC), Kind: model.EventKindEntry, Side: model.SideTypeBuy, Price: 150},
		{Time: time.Date(2024, 3, 15, 11, 0, 0, 0, time.UTC), Kind: model.EventKindExit, Side: model.SideTypeSell, Price: 150},
	}

	markers, stats := r.Resolve(events, store)
	require.Equal(t, len(events), stats.Total())
	require.Equal(t, stats.Exact+stats.Fallback, len(markers))
}

func TestResolve_OrderedByTime(t *testing.T) {
	store := storeWith(t, m10Candle(t, 9, 0), m10Candle(t, 9, 10), m10Candle(t, 9, 20))
	r := NewResolver()

	events := []model.BusinessEvent{
		{Time: time.Date(2024, 3, 15, 9, 25, 0, 0, time.UTC), Kind: model.EventKindExit, Side: model.SideTypeSell, Price: 150},
		{Time: time.Date(2024, 3, 15, 9, 5, 0, 0, time.UTC), Kind: model.EventKindEntry, Side: model.SideTypeBuy, Price: 150},
	}

	markers, _ := r.Resolve(events, store)
	require.Len(t, markers, 2)
	require.True(t, markers[0].Timestamp < markers[1].Timestamp)
}
