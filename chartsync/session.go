package chartsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"otter/clock"
	"otter/interfaces"
	"otter/utils/log"
)

var (
	ErrStartOutOfRange = errors.New("start time is outside the available data range")
	ErrSessionStopped  = errors.New("session already stopped")
)

// Session : 시뮬레이션 한 판. 시계를 소유하고, 틱마다 백엔드 시각을
// 전진시킨 뒤 차트 갱신을 돌림. 시계 구독자는 세션 하나뿐이라
// "백엔드 먼저, 차트 나중" 순서가 항상 지켜진다
type Session struct {
	backend     interfaces.Backend
	coordinator *Coordinator
	clock       *clock.SimulationClock

	id string

	// 데이터 끝에 도달해 스스로 멈췄을 때 알림 (웹서버가 상태 표시에 씀)
	onEnd func()
}

type SessionOption func(*sessionConfig)

type sessionConfig struct {
	clockOpts []clock.Option
	onEnd     func()
}

// WithClockOptions : 속도/틱 간격 등 시계 옵션 전달
func WithClockOptions(opts ...clock.Option) SessionOption {
	return func(c *sessionConfig) { c.clockOpts = append(c.clockOpts, opts...) }
}

func WithOnEnd(fn func()) SessionOption {
	return func(c *sessionConfig) { c.onEnd = fn }
}

// NewSession : 시작 시각을 데이터 범위와 대조해 검증하고 Created 상태의
// 세션을 만든다. Resume을 불러야 시간이 흐르기 시작함
func NewSession(ctx context.Context, backend interfaces.Backend, coordinator *Coordinator, start time.Time, opts ...SessionOption) (*Session, error) {
	cfg := &sessionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	dateRange, err := backend.DateRange(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load data range: %w", err)
	}
	if start.Before(dateRange.Start) || !start.Before(dateRange.End) {
		return nil, fmt.Errorf("%w: %s not in [%s, %s)", ErrStartOutOfRange,
			start.Format("2006-01-02 15:04"),
			dateRange.Start.Format("2006-01-02 15:04"),
			dateRange.End.Format("2006-01-02 15:04"))
	}

	s := &Session{
		backend:     backend,
		coordinator: coordinator,
		onEnd:       cfg.onEnd,
	}
	s.id = coordinator.StartSession()
	s.clock = clock.New(start, cfg.clockOpts...)
	s.clock.Subscribe(s.onTick)

	log.Infof("[Session] created %s at %s", s.id, start.Format("2006-01-02 15:04"))
	return s, nil
}

// onTick : 1) 백엔드에 새 시각 통지 2) 주말 스킵이면 시계 시각 채택
// 3) 그 시각으로 차트 갱신. 데이터 끝이면 세션 종료
func (s *Session) onTick(now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	effective := now
	result, err := s.backend.AdvanceTime(ctx, now)
	switch {
	case errors.Is(err, interfaces.ErrEndOfData):
		log.Infof("[Session] reached end of data at %s", now.Format("2006-01-02 15:04"))
		s.Stop()
		if s.onEnd != nil {
			s.onEnd()
		}
		return
	case err != nil:
		// 백엔드가 잠깐 죽어도 틱은 계속감. 다음 틱에서 재시도되는 셈
		log.Errorf("[Session] advance-time failed: %v", err)
	default:
		if result.Skipped {
			log.Infof("[Session] gap skipped: %s -> %s",
				now.Format("2006-01-02 15:04"), result.CurrentTime.Format("2006-01-02 15:04"))
			s.clock.SetTime(result.CurrentTime)
			effective = result.CurrentTime
		}
	}

	s.coordinator.OnTick(effective)
}

func (s *Session) ID() string { return s.id }

func (s *Session) Resume() error { return s.clock.Resume() }
func (s *Session) Pause() error  { return s.clock.Pause() }

// Stop : 시계를 멈추고 세션을 닫는다. 진행중이던 fetch 결과는
// 조율자 세션 종료로 전부 무효가 됨
func (s *Session) Stop() {
	s.clock.Stop()
	s.coordinator.EndSession()
	log.Infof("[Session] %s stopped", s.id)
}

func (s *Session) SetSpeed(speed float64) error { return s.clock.SetSpeed(speed) }

func (s *Session) Speed() float64 { return s.clock.Speed() }

func (s *Session) CurrentTime() time.Time { return s.clock.Now() }

func (s *Session) Status() clock.Status { return s.clock.Status() }

// Coordinator : 세션이 쓰는 조율자 (크로스헤어 허브 구성용)
func (s *Session) Coordinator() *Coordinator { return s.coordinator }
