package chartsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"otter/clock"
	"otter/interfaces"
	"otter/model"
)

func newTestSession(t *testing.T, backend *fakeBackend, opts ...SessionOption) *Session {
	t.Helper()
	c := NewCoordinator(backend)
	opts = append(opts, WithClockOptions(clock.WithBaseInterval(5*time.Millisecond)))
	s, err := NewSession(context.Background(), backend, c,
		time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), opts...)
	require.NoError(t, err)
	t.Cleanup(s.Stop)
	return s
}

func TestSessionRejectsStartOutsideRange(t *testing.T) {
	backend := newFakeBackend()
	c := NewCoordinator(backend)

	_, err := NewSession(context.Background(), backend, c,
		time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))

	require.ErrorIs(t, err, ErrStartOutOfRange)
}

func TestSessionAdvancesBackendBeforeCharts(t *testing.T) {
	var mu sync.Mutex
	var notified []time.Time

	backend := newFakeBackend()
	backend.advanceFn = func(newTime time.Time) (model.AdvanceResult, error) {
		mu.Lock()
		notified = append(notified, newTime)
		mu.Unlock()
		return model.AdvanceResult{CurrentTime: newTime}, nil
	}

	s := newTestSession(t, backend)
	consumer := newRecordingConsumer()
	s.Coordinator().AddConsumer(consumer)

	require.NoError(t, s.Resume())
	consumer.collect(t, len(model.Timeframes))
	s.Stop()

	// 세션 종료 후에는 조율자 세션도 닫혀야 함
	require.Empty(t, s.Coordinator().SessionID())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, notified)
	// 첫 틱은 시작 시각 + 퀀텀
	require.Equal(t, time.Date(2024, 1, 15, 9, 10, 0, 0, time.UTC), notified[0])
}

func TestSessionAdoptsSkippedTime(t *testing.T) {
	// 금요일 장 마감 후 -> 백엔드가 월요일로 건너뜀
	monday := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	backend := newFakeBackend()
	var once sync.Once
	skipped := make(chan struct{})
	backend.advanceFn = func(newTime time.Time) (model.AdvanceResult, error) {
		if newTime.Before(monday) {
			once.Do(func() { close(skipped) })
			return model.AdvanceResult{CurrentTime: monday, Skipped: true}, nil
		}
		return model.AdvanceResult{CurrentTime: newTime}, nil
	}

	c := NewCoordinator(backend)
	s, err := NewSession(context.Background(), backend, c,
		time.Date(2024, 1, 12, 23, 50, 0, 0, time.UTC),
		WithClockOptions(clock.WithBaseInterval(5*time.Millisecond)))
	require.NoError(t, err)
	t.Cleanup(s.Stop)

	require.NoError(t, s.Resume())

	select {
	case <-skipped:
	case <-time.After(2 * time.Second):
		t.Fatal("backend never reported a skip")
	}

	require.Eventually(t, func() bool {
		return !s.CurrentTime().Before(monday)
	}, 2*time.Second, 5*time.Millisecond, "clock did not adopt the skipped time")
}

func TestSessionStopsAtEndOfData(t *testing.T) {
	backend := newFakeBackend()
	backend.advanceFn = func(newTime time.Time) (model.AdvanceResult, error) {
		return model.AdvanceResult{}, interfaces.ErrEndOfData
	}

	ended := make(chan struct{})
	s := newTestSession(t, backend, WithOnEnd(func() { close(ended) }))

	require.NoError(t, s.Resume())

	select {
	case <-ended:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop at end of data")
	}
	require.Eventually(t, func() bool {
		return s.Status() == clock.StatusStopped
	}, time.Second, 5*time.Millisecond)
}

func TestSessionPauseAndResume(t *testing.T) {
	backend := newFakeBackend()
	s := newTestSession(t, backend)

	require.Equal(t, clock.StatusCreated, s.Status())
	require.NoError(t, s.Resume())
	require.NoError(t, s.Pause())

	paused := s.CurrentTime()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, paused, s.CurrentTime(), "time must not advance while paused")

	require.NoError(t, s.Resume())
	require.Eventually(t, func() bool {
		return s.CurrentTime().After(paused)
	}, 2*time.Second, 5*time.Millisecond)
}
