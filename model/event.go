package model

import "time"

type SideType string
type EventKind string
type MarkerMatch string

// side (주문 방향)
const (
	SideTypeBuy  SideType = "buy"
	SideTypeSell SideType = "sell"
)

// kind (이벤트 종류)
const (
	EventKindEntry EventKind = "entry" // 주문 체결 (진입)
	EventKindExit  EventKind = "exit"  // 포지션 청산
)

// 마커가 봉에 매칭된 방식
const (
	MarkerMatchExact    MarkerMatch = "exact"
	MarkerMatchFallback MarkerMatch = "fallback"
)

// BusinessEvent : 백엔드의 주문/트레이드 기록에서 만든 일회성 이벤트.
// 마커 갱신 때마다 백엔드에서 다시 받아오고 로컬에는 저장하지 않음
type BusinessEvent struct {
	Time   time.Time `json:"time"`
	Kind   EventKind `json:"kind"`
	Side   SideType  `json:"side"`
	Price  float64   `json:"price"`
	Profit float64   `json:"profit"` // exit 이벤트만 의미 있음
}

// Marker : M10 차트 위에 찍는 주문/청산 표시
type Marker struct {
	Timestamp int64       `json:"timestamp"`
	Time      time.Time   `json:"time"`
	Kind      EventKind   `json:"kind"`
	Side      SideType    `json:"side"`
	Price     float64     `json:"price"`
	Profit    float64     `json:"profit"`
	Match     MarkerMatch `json:"match"`

	// fallback 매칭일 때 실제 봉과의 부호 있는 거리(초). 진단용
	OffsetSec int64 `json:"offsetSec,omitempty"`

	// Internal use (Plot)
	Candle Candle `json:"-"`
}

// FocusPoint : 활성 차트 호버 중에 브로드캐스트되는 (time, price) 쌍
type FocusPoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
	Origin    string  `json:"origin"` // 활성 차트 id
}
