// marker : 주문/청산 이벤트를 M10 차트의 봉 위에 올리는 매핑.
// 마커는 가장 세밀한 시간축에서만 의미가 있음
package marker

import (
	"sort"
	"time"

	"otter/candlestore"
	"otter/model"
	"otter/timecode"
	"otter/utils/log"
)

// FallbackTolerance : exact 매칭 실패 시 근접 매칭 허용 거리
const FallbackTolerance = 15 * time.Minute

// Stats : exact + fallback + failed == 입력 이벤트 수 (항상)
type Stats struct {
	Exact    int `json:"exact"`
	Fallback int `json:"fallback"`
	Failed   int `json:"failed"`
}

func (s Stats) Total() int { return s.Exact + s.Fallback + s.Failed }

type Resolver struct {
	timeframe model.Timeframe
}

func NewResolver() *Resolver {
	return &Resolver{timeframe: model.FinestTimeframe}
}

// Resolve : 이벤트 전량을 매번 다시 계산함. store가 ReplaceAll 될 때마다
// 이전 결과는 무효라서 증분 갱신은 안 함
//
// 이벤트별 절차:
//  1. eventTime을 구간 시작(10분 경계)으로 내림
//  2. canonical timestamp로 인코딩
//  3. exact 조회 → 성공 시 exact
//  4. 실패 시 nearest(15분) → 성공 시 fallback (부호 있는 오프셋 기록)
//  5. 둘 다 실패 → failed. 렌더 대상에서 빠지고 카운트만 남김
func (r *Resolver) Resolve(events []model.BusinessEvent, store *candlestore.Store) ([]model.Marker, Stats) {
	var stats Stats
	markers := make([]model.Marker, 0, len(events))

	for _, ev := range events {
		target := timecode.Encode(r.timeframe.PeriodStart(ev.Time))

		if c, ok := store.Exact(target); ok {
			stats.Exact++
			markers = append(markers, makeMarker(ev, c, model.MarkerMatchExact, 0))
			continue
		}

		if c, ok := store.Nearest(target, FallbackTolerance); ok {
			stats.Fallback++
			markers = append(markers, makeMarker(ev, c, model.MarkerMatchFallback, c.Timestamp-target))
			continue
		}

		stats.Failed++
		log.Debugf("[Marker] unresolved %s event at %s (target=%d)", ev.Kind, ev.Time, target)
	}

	sort.Slice(markers, func(i, j int) bool {
		return markers[i].Timestamp < markers[j].Timestamp
	})
	return markers, stats
}

func makeMarker(ev model.BusinessEvent, c model.Candle, match model.MarkerMatch, offsetSec int64) model.Marker {
	return model.Marker{
		Timestamp: c.Timestamp,
		Time:      c.Time,
		Kind:      ev.Kind,
		Side:      ev.Side,
		Price:     ev.Price,
		Profit:    ev.Profit,
		Match:     match,
		OffsetSec: offsetSec,
		Candle:    c,
	}
}
