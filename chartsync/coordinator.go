// chartsync : 여러 시간축 차트를 한 시뮬레이션 시각에 묶어주는 조율자.
// 시계 틱마다 시간축별로 봉을 다시 받아오고, 구간 경계 통과 여부와
// 마커를 붙여 프레젠테이션 구독자에게 뿌린다
package chartsync

import (
	"context"
	"sync"
	"time"

	"github.com/StudioSol/set"
	"github.com/google/uuid"

	"otter/candlestore"
	"otter/gate"
	"otter/interfaces"
	"otter/marker"
	"otter/model"
	"otter/utils/log"
)

const (
	DefaultCandleLimit = 200
	DefaultEventLimit  = 500
)

// chartState : 시간축 하나의 틱 처리 상태. Coordinator 락 아래에서만 만짐
type chartState struct {
	timeframe model.Timeframe
	store     *candlestore.Store
	gate      *gate.BoundaryGate

	// 직전 fetch가 아직 안 끝났으면 이번 틱은 건너뜀 (겹침 방지)
	inFlight bool
}

type Coordinator struct {
	mu sync.Mutex

	backend  interfaces.Backend
	resolver *marker.Resolver

	sessionID string
	charts    map[model.Timeframe]*chartState
	consumers []interfaces.ChartConsumer

	// data_missing 알림은 세션당 시간축별 한 번만
	missingNotified *set.LinkedHashSetString

	candleLimit int
	eventLimit  int
}

type Option func(*Coordinator)

func WithCandleLimit(n int) Option {
	return func(c *Coordinator) { c.candleLimit = n }
}

func WithEventLimit(n int) Option {
	return func(c *Coordinator) { c.eventLimit = n }
}

func NewCoordinator(backend interfaces.Backend, opts ...Option) *Coordinator {
	c := &Coordinator{
		backend:         backend,
		resolver:        marker.NewResolver(),
		charts:          make(map[model.Timeframe]*chartState),
		missingNotified: set.NewLinkedHashSetString(),
		candleLimit:     DefaultCandleLimit,
		eventLimit:      DefaultEventLimit,
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, tf := range model.Timeframes {
		c.charts[tf] = &chartState{
			timeframe: tf,
			store:     candlestore.New(tf),
			gate:      gate.New(tf),
		}
	}
	return c
}

// AddConsumer : 페이로드 구독자 등록 (웹서버, 차트 렌더러 등)
func (c *Coordinator) AddConsumer(consumer interfaces.ChartConsumer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consumers = append(c.consumers, consumer)
}

// StartSession : 새 세션 시작. 이전 세션의 늦게 도착한 fetch 결과는
// 세션 id가 달라져 전부 버려진다
func (c *Coordinator) StartSession() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessionID = uuid.NewString()
	c.missingNotified = set.NewLinkedHashSetString()
	for _, st := range c.charts {
		st.store.Clear()
		st.gate.Reset()
		st.inFlight = false
	}

	log.Infof("[ChartSync] session started: %s", c.sessionID)
	return c.sessionID
}

// EndSession : 세션 종료. 세션 id를 비워 진행중이던 fetch 결과가 전부
// 버려지게 하고, 게이트/저장소를 초기 상태로 되돌린다
func (c *Coordinator) EndSession() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID == "" {
		return
	}

	log.Infof("[ChartSync] session ended: %s", c.sessionID)
	c.sessionID = ""
	c.missingNotified = set.NewLinkedHashSetString()
	for _, st := range c.charts {
		st.store.Clear()
		st.gate.Reset()
		st.inFlight = false
	}
}

// OnTick : 시계 구독 콜백. 시간축마다 경계 통과를 먼저 판정하고,
// 경계를 넘은 시간축만 비동기 갱신을 건다. M10은 틱마다 구간이 바뀌어
// 매번 갱신되고, H1/D1/W1은 자기 구간이 넘어갈 때만 refetch함
// (fetch 성공 여부와 무관하게 게이트는 틱 순서대로 전진해야 함)
func (c *Coordinator) OnTick(now time.Time) {
	c.mu.Lock()
	sid := c.sessionID
	if sid == "" {
		c.mu.Unlock()
		return
	}

	var jobs []*chartState
	for _, tf := range model.Timeframes {
		st := c.charts[tf]
		if !st.gate.Observe(now) {
			continue
		}
		if st.inFlight {
			log.Debugf("[ChartSync] %s refresh still in flight, skipping tick %s",
				tf, now.Format("15:04"))
			continue
		}
		st.inFlight = true
		jobs = append(jobs, st)
	}
	c.mu.Unlock()

	for _, st := range jobs {
		go c.refresh(sid, st, now)
	}
}

// refresh : 시간축 하나 갱신. 가장 세밀한 축은 확정 봉 + 마커,
// 나머지는 진행중 구간을 부분 합성한 봉을 받아온다
func (c *Coordinator) refresh(sid string, st *chartState, now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		batch  model.CandleBatch
		events []model.BusinessEvent
		err    error
	)

	if st.timeframe == model.FinestTimeframe {
		batch, err = c.backend.CandlesBefore(ctx, st.timeframe, now, c.candleLimit)
		if err == nil {
			events, err = c.backend.Events(ctx, c.eventLimit)
		}
	} else {
		batch, err = c.backend.CandlesPartial(ctx, st.timeframe, now, c.candleLimit)
	}

	c.mu.Lock()
	st.inFlight = false

	if sid != c.sessionID {
		// 세션이 바뀐 뒤에 도착한 결과. 새 세션 상태를 오염시키면 안 됨
		c.mu.Unlock()
		log.Debugf("[ChartSync] stale result for %s discarded (session %s)", st.timeframe, sid)
		return
	}
	if err != nil {
		c.mu.Unlock()
		log.Errorf("[ChartSync] %s refresh failed: %v", st.timeframe, err)
		return
	}

	// 빈 배치는 저장소를 건드리지 않음 (마지막으로 본 봉을 유지한 채
	// data_missing만 알림)
	if len(batch.Candles) > 0 {
		if replaceErr := st.store.ReplaceAll(batch.Candles); replaceErr != nil {
			c.mu.Unlock()
			log.Warnf("[ChartSync] %s: %v", st.timeframe, replaceErr)
			return
		}
	}

	payload := model.ChartPayload{
		Timeframe:       st.timeframe,
		Candles:         st.store.Candles(),
		BoundaryCrossed: true,
		DataMissing:     c.claimMissingNotice(st.timeframe, batch.DataMissing),
	}

	if st.timeframe == model.FinestTimeframe {
		markers, stats := c.resolver.Resolve(events, st.store)
		payload.Markers = markers
		if stats.Failed > 0 {
			log.Warnf("[ChartSync] %d of %d markers unresolved", stats.Failed, stats.Total())
		}
	}

	consumers := make([]interfaces.ChartConsumer, len(c.consumers))
	copy(consumers, c.consumers)
	c.mu.Unlock()

	for _, consumer := range consumers {
		consumer.OnChartPayload(payload)
	}
}

// claimMissingNotice : data_missing 플래그를 세션당 한 번만 통과시킴.
// 호출자는 c.mu를 잡고 있어야 함
func (c *Coordinator) claimMissingNotice(tf model.Timeframe, missing bool) bool {
	if !missing {
		return false
	}
	key := string(tf)
	if c.missingNotified.InArray(key) {
		return false
	}
	c.missingNotified.Add(key)
	log.Warnf("[ChartSync] no data for %s around current time", tf)
	return true
}

// Store : 시간축별 봉 저장소 접근 (크로스헤어 해석, 렌더러에서 사용)
func (c *Coordinator) Store(tf model.Timeframe) *candlestore.Store {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st, ok := c.charts[tf]; ok {
		return st.store
	}
	return nil
}

// broadcastFocus : 포커스를 모든 구독자에게 전달.
// active=false는 커서가 차트를 떠나 크로스헤어를 지워야 한다는 뜻
func (c *Coordinator) broadcastFocus(focus model.FocusPoint, active bool) {
	c.mu.Lock()
	consumers := make([]interfaces.ChartConsumer, len(c.consumers))
	copy(consumers, c.consumers)
	c.mu.Unlock()

	for _, consumer := range consumers {
		consumer.OnFocusPoint(focus, active)
	}
}

// SessionID : 현재 세션 id. 세션 시작 전이면 빈 문자열
func (c *Coordinator) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sessionID
}
