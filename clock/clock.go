// clock : 시뮬레이션 시계. 실제 시간 간격(baseInterval / speed)마다
// 시뮬레이션 시각을 고정 퀀텀만큼 전진시키고 구독자에게 알림.
// 속도는 틱 빈도만 바꾸고 전진 폭은 안 바꿈
package clock

import (
	"errors"
	"sync"
	"time"

	"otter/utils/log"
)

type Status string

const (
	StatusCreated Status = "created" // 시각은 정해졌지만 아직 틱 시작 전
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
	StatusStopped Status = "stopped" // 종료 상태. 새 시뮬레이션은 새 시계로
)

const (
	// BaseQuantum : 틱당 시뮬레이션 시간 전진 폭 (가장 세밀한 시간축과 동일)
	BaseQuantum = 10 * time.Minute

	DefaultBaseInterval = time.Second
	MinSpeed            = 0.5
	MaxSpeed            = 10.0
)

var (
	ErrNotRunning   = errors.New("simulation is not running")
	ErrNotPausable  = errors.New("simulation must be running to pause")
	ErrNotResumable = errors.New("simulation must be created or paused to resume")
	ErrInvalidSpeed = errors.New("speed out of range")
)

type TickFunc func(now time.Time)

type SimulationClock struct {
	mu sync.Mutex

	status  Status
	current time.Time
	speed   float64

	baseInterval time.Duration
	quantum      time.Duration

	subscribers []TickFunc

	done chan struct{}
	wake chan struct{} // 상태 전이 알림 (타이머 재평가)
}

type Option func(*SimulationClock)

// WithBaseInterval : 1x 속도에서의 실제 틱 간격 (테스트에서 짧게 줄일 때 사용)
func WithBaseInterval(d time.Duration) Option {
	return func(c *SimulationClock) { c.baseInterval = d }
}

func WithQuantum(d time.Duration) Option {
	return func(c *SimulationClock) { c.quantum = d }
}

func WithSpeed(speed float64) Option {
	return func(c *SimulationClock) { c.speed = clampSpeed(speed) }
}

// New : Created 상태의 시계 생성. Resume을 불러야 틱이 시작됨
func New(start time.Time, opts ...Option) *SimulationClock {
	c := &SimulationClock{
		status:       StatusCreated,
		current:      start,
		speed:        1.0,
		baseInterval: DefaultBaseInterval,
		quantum:      BaseQuantum,
		done:         make(chan struct{}),
		wake:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.run()
	return c
}

// Subscribe : 틱 구독 등록. 등록 순서대로 동기 호출됨
func (c *SimulationClock) Subscribe(fn TickFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subscribers = append(c.subscribers, fn)
}

// Resume : Created|Paused -> Running
func (c *SimulationClock) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != StatusCreated && c.status != StatusPaused {
		return ErrNotResumable
	}
	c.status = StatusRunning
	c.signal()
	return nil
}

// Pause : Running -> Paused. 이미 예약된 타이머가 있어도 다음 발화 때
// 상태를 다시 확인하므로 일시정지 이후에는 시각이 전진하지 않음
func (c *SimulationClock) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != StatusRunning {
		return ErrNotPausable
	}
	c.status = StatusPaused
	c.signal()
	return nil
}

// Stop : 종료. Stopped는 터미널 상태
func (c *SimulationClock) Stop() {
	c.mu.Lock()
	if c.status == StatusStopped {
		c.mu.Unlock()
		return
	}
	c.status = StatusStopped
	close(c.done)
	c.mu.Unlock()

	log.Infof("[Clock] stopped at %s", c.Now().Format("2006-01-02 15:04"))
}

// SetSpeed : 재생 속도 변경. 이미 예약된 틱은 그대로 두고 다음 틱부터 반영됨
func (c *SimulationClock) SetSpeed(speed float64) error {
	if speed < MinSpeed || speed > MaxSpeed {
		return ErrInvalidSpeed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.speed = speed
	return nil
}

// SetTime : 시뮬레이션 시각 강제 이동 (주말 스킵처럼 백엔드가 시각을
// 건너뛰었을 때 채택). 뒤로는 못 감
func (c *SimulationClock) SetTime(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.After(c.current) {
		c.current = t
	}
}

func (c *SimulationClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}

func (c *SimulationClock) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.speed
}

func (c *SimulationClock) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

func (c *SimulationClock) Quantum() time.Duration { return c.quantum }

// run : 틱 루프. Running일 때만 타이머를 걸고, 틱 전파가 끝난 뒤에야
// 다음 타이머를 예약함 (구독자 알림은 항상 틱 순서대로)
func (c *SimulationClock) run() {
	timer := time.NewTimer(time.Hour)
	stopTimer(timer)

	for {
		c.mu.Lock()
		status := c.status
		interval := time.Duration(float64(c.baseInterval) / c.speed)
		c.mu.Unlock()

		switch status {
		case StatusStopped:
			return

		case StatusRunning:
			timer.Reset(interval)
			select {
			case <-c.done:
				stopTimer(timer)
				return
			case <-c.wake:
				// 일시정지 등 상태 전이 → 타이머 버리고 재평가
				stopTimer(timer)
			case <-timer.C:
				c.tick()
			}

		default: // Created, Paused : 틱 없음
			select {
			case <-c.done:
				return
			case <-c.wake:
			}
		}
	}
}

func (c *SimulationClock) tick() {
	c.mu.Lock()
	// 타이머 발화와 Pause가 경합했을 수 있음. 전진 전에 상태 재확인
	if c.status != StatusRunning {
		c.mu.Unlock()
		return
	}
	c.current = c.current.Add(c.quantum)
	now := c.current
	subs := make([]TickFunc, len(c.subscribers))
	copy(subs, c.subscribers)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(now)
	}
}

func (c *SimulationClock) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func clampSpeed(s float64) float64 {
	if s < MinSpeed {
		return MinSpeed
	}
	if s > MaxSpeed {
		return MaxSpeed
	}
	return s
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
