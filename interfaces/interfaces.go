package interfaces

import (
	"context"
	"errors"
	"time"

	"otter/model"
)

// ErrEndOfData : TimeKeeper 구현이 보유 데이터 끝에 도달했을 때
// 반환(또는 래핑)해야 하는 센티널. 세션은 이걸 보고 스스로 멈춤
var ErrEndOfData = errors.New("no more data available")

// Backend : 차트 엔진이 의존하는 외부 협력자 (주문 매칭/포지션 계산/영속화는
// 전부 백엔드 소관이고, 여기서는 조회와 시각 통지만 함)
type Backend interface {
	MarketData
	EventSource
	TimeKeeper
}

type MarketData interface {
	// CandlesBefore : 가장 세밀한 시간축용. asOf 이전 봉을 limit개
	CandlesBefore(ctx context.Context, timeframe model.Timeframe, asOf time.Time, limit int) (model.CandleBatch, error)
	// CandlesPartial : 거친 시간축용. 진행중인 구간을 asOf 이전 데이터만으로
	// 부분 합성해서 마지막 봉으로 붙여줌 (미래 봉 노출 금지)
	CandlesPartial(ctx context.Context, timeframe model.Timeframe, asOf time.Time, limit int) (model.CandleBatch, error)
	// DateRange : 데이터 보유 구간 (세션 시작 시각 검증)
	DateRange(ctx context.Context) (model.DateRange, error)
}

type EventSource interface {
	// Events : 주문 체결(entry) + 트레이드 청산(exit) 이벤트, 시간 오름차순
	Events(ctx context.Context, limit int) ([]model.BusinessEvent, error)
}

type TimeKeeper interface {
	// AdvanceTime : 새 시뮬레이션 시각을 백엔드에 통지. 백엔드 쪽 가격 조회가
	// UI 시계와 어긋나지 않게 유지함
	AdvanceTime(ctx context.Context, newTime time.Time) (model.AdvanceResult, error)
}

// ChartConsumer : 렌더 페이로드/포커스를 받아가는 프레젠테이션 구독자
type ChartConsumer interface {
	OnChartPayload(payload model.ChartPayload)
	OnFocusPoint(focus model.FocusPoint, active bool)
}
