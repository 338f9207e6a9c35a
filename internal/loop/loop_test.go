package loop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New(16)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return l
}

func TestLoop_DoRunsInOrder(t *testing.T) {
	l := startLoop(t)
	ctx := context.Background()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		require.True(t, l.Post(func() { order = append(order, i) }))
	}
	require.NoError(t, l.Do(ctx, func() { order = append(order, 5) }))

	require.Equal(t, []int{0, 1, 2, 3, 4, 5}, order)
}

func TestLoop_AfterFuncFiresOnLoop(t *testing.T) {
	l := startLoop(t)
	ctx := context.Background()

	fired := make(chan struct{})
	require.NoError(t, l.Do(ctx, func() {
		l.AfterFunc(5*time.Millisecond, func() { close(fired) })
	}))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestLoop_CancelledTimerNeverRuns(t *testing.T) {
	l := startLoop(t)
	ctx := context.Background()

	ran := false
	var h Handle
	require.NoError(t, l.Do(ctx, func() {
		h = l.AfterFunc(10*time.Millisecond, func() { ran = true })
	}))
	require.NoError(t, l.Do(ctx, func() {
		h.Cancel()
		h.Cancel()
	}))

	time.Sleep(50 * time.Millisecond)
	var sawRun bool
	require.NoError(t, l.Do(ctx, func() {
		sawRun = ran
		h.Cancel()
	}))
	require.False(t, sawRun)
}

func TestLoop_DoAfterStop(t *testing.T) {
	l := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = l.Run(ctx)
	}()
	cancel()
	<-stopped

	require.ErrorIs(t, l.Do(context.Background(), func() {}), ErrStopped)
	require.False(t, l.Post(func() {}))
}

func TestManual_AdvanceFiresInOrder(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)

	var fired []string
	m.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	m.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	c := m.AfterFunc(3*time.Second, func() { fired = append(fired, "c") })
	require.Equal(t, 3, m.Pending())

	m.Advance(1500 * time.Millisecond)
	require.Equal(t, []string{"a"}, fired)
	require.Equal(t, start.Add(1500*time.Millisecond), m.Now())

	c.Cancel()
	c.Cancel()
	m.Advance(10 * time.Second)
	require.Equal(t, []string{"a", "b"}, fired)
	require.Equal(t, 0, m.Pending())
}

func TestManual_CallbackSeesDueTime(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)

	var seen time.Time
	m.AfterFunc(time.Second, func() {
		seen = m.Now()
		m.AfterFunc(time.Second, func() {})
	})

	m.Advance(5 * time.Second)
	require.Equal(t, start.Add(time.Second), seen)
	require.Equal(t, 0, m.Pending())
}
