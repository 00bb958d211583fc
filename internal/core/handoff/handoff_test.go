package handoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDeliversInOrder(t *testing.T) {
	queue := NewQueue()
	first, _ := NewStart()
	second, _ := NewStart()
	require.NoError(t, queue.Send(first))
	require.NoError(t, queue.Send(second))
	assert.Equal(t, 2, queue.Len())

	ctx := context.Background()
	got, err := queue.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	got, err = queue.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestQueueReceiveBlocksUntilSend(t *testing.T) {
	queue := NewQueue()
	start, _ := NewStart()

	received := make(chan Start, 1)
	go func() {
		got, err := queue.Receive(context.Background())
		if err == nil {
			received <- got
		}
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, queue.Send(start))

	select {
	case got := <-received:
		assert.Equal(t, start.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("receive did not observe the send")
	}
}

func TestQueueReceiveHonoursContext(t *testing.T) {
	queue := NewQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := queue.Receive(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueueCloseDrainsThenFails(t *testing.T) {
	queue := NewQueue()
	start, _ := NewStart()
	require.NoError(t, queue.Send(start))
	queue.Close()
	queue.Close()

	require.ErrorIs(t, queue.Send(start), ErrClosed)

	got, err := queue.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, start.ID, got.ID)

	_, err = queue.Receive(context.Background())
	require.ErrorIs(t, err, ErrClosed)
}

func TestCancellerFiresOnce(t *testing.T) {
	start, canceller := NewStart()
	assert.False(t, start.Cancelled())
	assert.NotEmpty(t, start.ID)

	canceller.Cancel()
	canceller.Cancel()
	assert.True(t, start.Cancelled())
}

func TestCancelWithoutReceiverDoesNotBlock(t *testing.T) {
	_, canceller := NewStart()
	done := make(chan struct{})
	go func() {
		canceller.Cancel()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cancel blocked without a receiver")
	}
}
