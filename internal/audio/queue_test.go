package audio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsInOrder(t *testing.T) {
	t.Parallel()

	q := &sessionQueue{}

	var mtx sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		q.push(&job{
			ctx: context.Background(),
			run: func(context.Context, uint64) {
				defer wg.Done()
				mtx.Lock()
				order = append(order, i)
				mtx.Unlock()
			},
			drop: func() { wg.Done() },
		}, false)
	}
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Eventually(t, q.idle, time.Second, 5*time.Millisecond)
}

func TestQueuePreemptDropsQueued(t *testing.T) {
	t.Parallel()

	q := &sessionQueue{}

	started := make(chan struct{})
	cancelled := make(chan struct{})
	q.push(&job{
		ctx: context.Background(),
		run: func(ctx context.Context, gen uint64) {
			close(started)
			<-ctx.Done()
			close(cancelled)
		},
		drop: func() { t.Error("running job dropped") },
	}, false)
	<-started

	dropped := make(chan struct{})
	q.push(&job{
		ctx:  context.Background(),
		run:  func(context.Context, uint64) { t.Error("queued job ran") },
		drop: func() { close(dropped) },
	}, false)

	ran := make(chan uint64, 1)
	q.push(&job{
		ctx:  context.Background(),
		run:  func(_ context.Context, gen uint64) { ran <- gen },
		drop: func() { t.Error("preempting job dropped") },
	}, true)

	<-dropped
	<-cancelled
	select {
	case gen := <-ran:
		assert.Equal(t, uint64(1), gen)
		assert.Equal(t, uint64(1), q.generation())
	case <-time.After(time.Second):
		require.Fail(t, "preempting job did not run")
	}
}

func TestQueueClear(t *testing.T) {
	t.Parallel()

	q := &sessionQueue{}
	q.clear()
	q.clear()
	assert.Equal(t, uint64(2), q.generation())
	assert.True(t, q.idle())

	qs := newQueues()
	assert.Same(t, qs.get(testCode), qs.get(testCode))
	qs.forget(testCode)
	assert.Empty(t, qs.sessions)
}

func TestAutoPauseArm(t *testing.T) {
	t.Parallel()

	a := newAutoPauses()
	valid := func() bool { return true }

	fired := make(chan string, 2)
	require.True(t, a.arm(testCode, 20*time.Millisecond, valid, func() { fired <- "first" }))
	require.True(t, a.arm(testCode, 20*time.Millisecond, valid, func() { fired <- "second" }))

	select {
	case name := <-fired:
		assert.Equal(t, "second", name)
	case <-time.After(time.Second):
		require.Fail(t, "auto-pause did not fire")
	}
	assert.False(t, a.isArmed(testCode))

	select {
	case name := <-fired:
		assert.Fail(t, "replaced timer fired", name)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAutoPauseCancelAndInvalid(t *testing.T) {
	t.Parallel()

	a := newAutoPauses()
	assert.False(t, a.arm(testCode, time.Millisecond, func() bool { return false }, func() { t.Error("fired") }))

	require.True(t, a.arm(testCode, 20*time.Millisecond, func() bool { return true }, func() { t.Error("fired") }))
	assert.True(t, a.isArmed(testCode))
	assert.True(t, a.cancel(testCode))
	assert.False(t, a.cancel(testCode))

	time.Sleep(50 * time.Millisecond)
}
