package chartsync

import (
	"sync"

	"otter/model"
	"otter/timecode"
)

// Viewport : 차트 한 장의 픽셀 <-> 데이터 좌표 변환. 시간은 canonical
// timestamp(초), 가격은 y축 위가 PriceMax
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	TimeMin  int64   `json:"timeMin"`
	TimeMax  int64   `json:"timeMax"`
	PriceMin float64 `json:"priceMin"`
	PriceMax float64 `json:"priceMax"`
}

func (v Viewport) TimeAt(x float64) int64 {
	if v.Width <= 0 {
		return v.TimeMin
	}
	return v.TimeMin + int64(x/v.Width*float64(v.TimeMax-v.TimeMin))
}

func (v Viewport) XOf(ts int64) float64 {
	if v.TimeMax == v.TimeMin {
		return 0
	}
	return float64(ts-v.TimeMin) / float64(v.TimeMax-v.TimeMin) * v.Width
}

func (v Viewport) PriceAt(y float64) float64 {
	if v.Height <= 0 {
		return v.PriceMin
	}
	return v.PriceMax - y/v.Height*(v.PriceMax-v.PriceMin)
}

func (v Viewport) YOf(price float64) float64 {
	if v.PriceMax == v.PriceMin {
		return 0
	}
	return (v.PriceMax - price) / (v.PriceMax - v.PriceMin) * v.Height
}

func (v Viewport) timeInRange(ts int64) bool {
	return ts >= v.TimeMin && ts <= v.TimeMax
}

func (v Viewport) priceInRange(price float64) bool {
	return price >= v.PriceMin && price <= v.PriceMax
}

// Projection : 수동(passive) 차트 하나에 투영된 크로스헤어 위치.
// InRange=false면 수직선 없이 값 표시만 한다
type Projection struct {
	Timeframe model.Timeframe `json:"timeframe"`
	Timestamp int64           `json:"timestamp"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	InRange   bool            `json:"inRange"`
}

// CrosshairHub : 활성 차트의 커서 위치를 (time, price)로 바꿔 나머지
// 차트에 투영함. 뷰포트는 프런트가 리사이즈/스크롤 때마다 갱신
type CrosshairHub struct {
	mu sync.Mutex

	coordinator *Coordinator
	viewports   map[model.Timeframe]Viewport
}

func NewCrosshairHub(coordinator *Coordinator) *CrosshairHub {
	return &CrosshairHub{
		coordinator: coordinator,
		viewports:   make(map[model.Timeframe]Viewport),
	}
}

func (h *CrosshairHub) SetViewport(tf model.Timeframe, vp Viewport) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.viewports[tf] = vp
}

// MoveCursor : 활성 차트(origin)의 커서 픽셀 좌표를 받아 포커스를
// 브로드캐스트하고, 시간축별 투영 결과를 돌려줌.
// 투영 대상 봉은 해당 축의 구간 시작 봉을 정확히 찾고, 없으면
// 범위 제한 없이 가장 가까운 봉으로 떨어진다
func (h *CrosshairHub) MoveCursor(origin model.Timeframe, x, y float64) (model.FocusPoint, []Projection) {
	h.mu.Lock()
	vp, ok := h.viewports[origin]
	if !ok {
		h.mu.Unlock()
		return model.FocusPoint{}, nil
	}

	focus := model.FocusPoint{
		Timestamp: vp.TimeAt(x),
		Price:     vp.PriceAt(y),
		Origin:    string(origin),
	}
	focusTime := timecode.ToTime(focus.Timestamp)

	projections := make([]Projection, 0, len(model.Timeframes))
	for _, tf := range model.Timeframes {
		target, ok := h.viewports[tf]
		if !ok {
			continue
		}

		store := h.coordinator.Store(tf)
		periodTS := timecode.Encode(tf.PeriodStart(focusTime))
		candle, found := store.Exact(periodTS)
		if !found {
			candle, found = store.NearestUnbounded(focus.Timestamp)
		}
		if !found {
			continue
		}

		projections = append(projections, Projection{
			Timeframe: tf,
			Timestamp: candle.Timestamp,
			X:         target.XOf(candle.Timestamp),
			Y:         target.YOf(focus.Price),
			// 시간이나 가격 어느 한 축이라도 보이는 범위를 벗어나면 선 생략
			InRange: target.timeInRange(candle.Timestamp) && target.priceInRange(focus.Price),
		})
	}
	h.mu.Unlock()

	h.coordinator.broadcastFocus(focus, true)
	return focus, projections
}

// ClearCursor : 커서가 차트를 떠났을 때. 모든 차트의 크로스헤어를 지움
func (h *CrosshairHub) ClearCursor(origin model.Timeframe) {
	h.coordinator.broadcastFocus(model.FocusPoint{Origin: string(origin)}, false)
}
