package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcksResolve(t *testing.T) {
	t.Parallel()

	acks := NewAcks()
	p := acks.register(testCode, "host", "cmd-1")

	assert.False(t, acks.Resolve(testCode, "host", Ack{CommandID: "unknown"}))
	assert.False(t, acks.Resolve("OTHER", "host", Ack{CommandID: "cmd-1"}))
	assert.False(t, acks.Resolve(testCode, "intruder", Ack{CommandID: "cmd-1"}))
	assert.Equal(t, 1, acks.Pending(testCode))

	require.True(t, acks.Resolve(testCode, "host", Ack{CommandID: "cmd-1", Status: AckOK, PositionMs: 1200}))
	assert.Equal(t, 0, acks.Pending(testCode))

	ack, err := acks.wait(context.Background(), p, time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), ack.PositionMs)

	assert.False(t, acks.Resolve(testCode, "host", Ack{CommandID: "cmd-1"}), "a second ACK is stale")
}

func TestAcksTimeoutKeepsPending(t *testing.T) {
	t.Parallel()

	acks := NewAcks()
	p := acks.register(testCode, "host", "cmd-1")

	_, err := acks.wait(context.Background(), p, 10*time.Millisecond)
	require.True(t, errors.Is(err, errAckTimeout))
	assert.Equal(t, 1, acks.Pending(testCode))

	require.True(t, acks.Resolve(testCode, "host", Ack{CommandID: "cmd-1", Status: AckOK}))
	_, err = acks.wait(context.Background(), p, time.Second)
	require.NoError(t, err)
}

func TestAcksClear(t *testing.T) {
	t.Parallel()

	acks := NewAcks()
	assert.Equal(t, int64(1), acks.NextSeq(testCode))
	assert.Equal(t, int64(2), acks.NextSeq(testCode))

	p1 := acks.register(testCode, "host", "cmd-1")
	p2 := acks.register(testCode, "host", "cmd-2")
	other := acks.register("OTHER", "host", "cmd-3")

	assert.Equal(t, 2, acks.Clear(testCode))
	assert.Equal(t, 0, acks.Pending(testCode))
	assert.Equal(t, 1, acks.Pending("OTHER"))
	assert.Equal(t, int64(1), acks.NextSeq(testCode))

	for _, p := range []*pending{p1, p2} {
		_, err := acks.wait(context.Background(), p, time.Second)
		assert.True(t, errors.Is(err, ErrCleared))
	}
	assert.False(t, acks.Resolve(testCode, "host", Ack{CommandID: "cmd-1"}))

	_, err := acks.wait(context.Background(), other, 10*time.Millisecond)
	assert.True(t, errors.Is(err, errAckTimeout))
}

func TestAcksFail(t *testing.T) {
	t.Parallel()

	acks := NewAcks()
	p := acks.register(testCode, "host", "cmd-1")
	acks.register(testCode, "tv", "cmd-2")

	failure := errors.New("gone")
	assert.Equal(t, 1, acks.Fail(testCode, "host", failure))
	assert.Equal(t, 1, acks.Pending(testCode))

	_, err := acks.wait(context.Background(), p, time.Second)
	assert.True(t, errors.Is(err, failure))
}

func TestAcksWaitCancelled(t *testing.T) {
	t.Parallel()

	acks := NewAcks()
	p := acks.register(testCode, "host", "cmd-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := acks.wait(ctx, p, time.Second)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, acks.Pending(testCode))
}
