package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func collectTicks(c *SimulationClock) chan time.Time {
	ticks := make(chan time.Time, 100)
	c.Subscribe(func(now time.Time) {
		ticks <- now
	})
	return ticks
}

func waitTick(t *testing.T, ticks chan time.Time) time.Time {
	t.Helper()
	select {
	case now := <-ticks:
		return now
	case <-time.After(2 * time.Second):
		t.Fatal("no tick within the expected time")
		return time.Time{}
	}
}

func TestClock_CreatedDoesNotTick(t *testing.T) {
	c := New(testStart, WithBaseInterval(5*time.Millisecond))
	defer c.Stop()

	ticks := collectTicks(c)
	require.Equal(t, StatusCreated, c.Status())

	select {
	case <-ticks:
		t.Fatal("created clock must not tick before Resume")
	case <-time.After(50 * time.Millisecond):
	}
	require.Equal(t, testStart, c.Now())
}

// Running 동안 틱마다 정확히 퀀텀만큼 단조 증가해야 함
func TestClock_MonotonicQuantum(t *testing.T) {
	c := New(testStart, WithBaseInterval(5*time.Millisecond))
	defer c.Stop()

	ticks := collectTicks(c)
	require.NoError(t, c.Resume())

	prev := testStart
	for i := 0; i < 6; i++ {
		now := waitTick(t, ticks)
		require.Equal(t, prev.Add(BaseQuantum), now)
		prev = now
	}
	// 09:00 시작 + 6틱 = 10:00
	require.Equal(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC), prev)
}

func TestClock_PauseSuppressesTicks(t *testing.T) {
	c := New(testStart, WithBaseInterval(5*time.Millisecond))
	defer c.Stop()

	ticks := collectTicks(c)
	require.NoError(t, c.Resume())
	waitTick(t, ticks)

	require.NoError(t, c.Pause())
	require.Equal(t, StatusPaused, c.Status())

	// pause 직전에 이미 발화한 틱이 남아있을 수 있으니 잠깐 비움
	drainUntil := time.After(20 * time.Millisecond)
drain:
	for {
		select {
		case <-ticks:
		case <-drainUntil:
			break drain
		}
	}

	frozen := c.Now()
	select {
	case now := <-ticks:
		t.Fatalf("paused clock advanced to %s", now)
	case <-time.After(60 * time.Millisecond):
	}
	require.Equal(t, frozen, c.Now())

	// 재개하면 이어서 전진
	require.NoError(t, c.Resume())
	now := waitTick(t, ticks)
	require.Equal(t, frozen.Add(BaseQuantum), now)
}

func TestClock_StopIsTerminal(t *testing.T) {
	c := New(testStart, WithBaseInterval(5*time.Millisecond))
	ticks := collectTicks(c)
	require.NoError(t, c.Resume())
	waitTick(t, ticks)

	c.Stop()
	require.Equal(t, StatusStopped, c.Status())
	require.ErrorIs(t, c.Resume(), ErrNotResumable)
	require.ErrorIs(t, c.Pause(), ErrNotPausable)

	// 중복 Stop은 no-op
	c.Stop()
}

func TestClock_SpeedValidation(t *testing.T) {
	c := New(testStart)
	defer c.Stop()

	require.ErrorIs(t, c.SetSpeed(0.1), ErrInvalidSpeed)
	require.ErrorIs(t, c.SetSpeed(11), ErrInvalidSpeed)
	require.NoError(t, c.SetSpeed(2.0))
	require.Equal(t, 2.0, c.Speed())
}

func TestClock_SetTimeForwardOnly(t *testing.T) {
	c := New(testStart)
	defer c.Stop()

	skipped := testStart.Add(48 * time.Hour)
	c.SetTime(skipped)
	require.Equal(t, skipped, c.Now())

	// 뒤로는 못 감
	c.SetTime(testStart)
	require.Equal(t, skipped, c.Now())
}
