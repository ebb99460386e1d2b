// chartview/store.go
package chartview

import (
	"sync"

	"otter/model"
)

// ViewStore : 조율자가 밀어주는 시간축별 최신 페이로드 + 포커스를 들고
// 있는 렌더링용 저장소. ChartConsumer 구현체
type ViewStore struct {
	mu sync.Mutex

	payloads map[model.Timeframe]model.ChartPayload

	focus       model.FocusPoint
	focusActive bool
}

func NewViewStore() *ViewStore {
	return &ViewStore{
		payloads: make(map[model.Timeframe]model.ChartPayload),
	}
}

// OnChartPayload : 시간축별로 마지막 페이로드만 유지 (전체 교체 방식이라
// 누적할 필요 없음)
func (s *ViewStore) OnChartPayload(payload model.ChartPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payloads[payload.Timeframe] = payload
}

func (s *ViewStore) OnFocusPoint(focus model.FocusPoint, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.focus = focus
	s.focusActive = active
}

// Payload : 시간축 하나의 최신 페이로드 복사 반환
func (s *ViewStore) Payload(tf model.Timeframe) (model.ChartPayload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payloads[tf]
	if !ok {
		return model.ChartPayload{}, false
	}

	out := p
	out.Candles = make([]model.Candle, len(p.Candles))
	copy(out.Candles, p.Candles)
	out.Markers = make([]model.Marker, len(p.Markers))
	copy(out.Markers, p.Markers)
	return out, true
}

func (s *ViewStore) Focus() (model.FocusPoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.focus, s.focusActive
}

// CloseSeries : 종가 시계열 (지표 오버레이 계산용)
func (s *ViewStore) CloseSeries(tf model.Timeframe) model.Series[float64] {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payloads[tf]
	if !ok {
		return nil
	}
	closes := make(model.Series[float64], len(p.Candles))
	for i, c := range p.Candles {
		closes[i] = c.Close
	}
	return closes
}
