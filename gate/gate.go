// gate : 시간축별 집계 구간 경계 감지.
//
// 시뮬레이션 시계는 10분 단위로 똑딱거리지만, 거친 시간축(H1/D1/W1)은
// 구간 경계를 넘을 때만 refetch하면 된다. 그 판단을 여기서 함
package gate

import (
	"time"

	"otter/model"
	"otter/timecode"
)

// BoundaryGate : 상태 두 개짜리 상태기계.
//   - Idle  : 이전 시각 기록 없음. 첫 관측은 무조건 "crossed" (최초 fetch 강제)
//   - Armed : 이전 시각 기록 있음. 구간 시작이 달라졌을 때만 "crossed"
type BoundaryGate struct {
	timeframe model.Timeframe
	armed     bool
	prev      time.Time
}

func New(timeframe model.Timeframe) *BoundaryGate {
	return &BoundaryGate{timeframe: timeframe}
}

func (g *BoundaryGate) Timeframe() model.Timeframe { return g.timeframe }

// Armed : 첫 관측을 이미 소비했는지
func (g *BoundaryGate) Armed() bool { return g.armed }

// Observe : 새 시뮬레이션 시각을 관측하고 경계를 넘었는지 보고.
// 호출할 때마다 prev가 current로 전진하므로, 같은 구간 안의 연속 틱은
// 두 번째부터 전부 false가 됨
func (g *BoundaryGate) Observe(current time.Time) bool {
	if !g.armed {
		g.armed = true
		g.prev = current
		return true
	}

	crossed := g.crossed(g.prev, current)
	g.prev = current
	return crossed
}

func (g *BoundaryGate) crossed(prev, current time.Time) bool {
	if g.timeframe == model.TimeframeW1 {
		// 주봉은 ISO 주 id 비교 (연말연시 경계에서 단순 7일 절단과 달라짐)
		return timecode.ISOWeekID(current) != timecode.ISOWeekID(prev)
	}
	return !g.timeframe.PeriodStart(current).Equal(g.timeframe.PeriodStart(prev))
}

// Reset : Idle로 복귀. 세션 리셋 때 코디네이터가 호출
func (g *BoundaryGate) Reset() {
	g.armed = false
	g.prev = time.Time{}
}
