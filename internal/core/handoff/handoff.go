// Package handoff carries begin-countdown requests from the idle watcher to the
// countdown controller. Each request owns a one-shot cancellation signal that
// belongs to exactly one countdown instance.
package handoff

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrClosed is returned by Receive once the queue is closed and drained.
var ErrClosed = errors.New("handoff queue closed")

// Start asks the controller to begin one countdown.
type Start struct {
	ID     string
	Cancel <-chan struct{}
}

// Cancelled reports whether the cancellation for this countdown already fired.
func (start Start) Cancelled() bool {
	select {
	case <-start.Cancel:
		return true
	default:
		return false
	}
}

// Canceller is the sending half of a Start's cancellation signal.
type Canceller struct {
	ch   chan struct{}
	once sync.Once
}

// NewStart creates a Start together with the Canceller that ends it.
func NewStart() (Start, *Canceller) {
	ch := make(chan struct{})
	return Start{ID: uuid.NewString(), Cancel: ch}, &Canceller{ch: ch}
}

// Cancel fires the signal. It never blocks and later calls are no-ops, so a
// cancel that races with an expired countdown is simply dropped.
func (canceller *Canceller) Cancel() {
	canceller.once.Do(func() {
		close(canceller.ch)
	})
}

// Queue is an ordered single-consumer channel of Start messages. Send never blocks.
type Queue struct {
	mu      sync.Mutex
	pending []Start
	ready   chan struct{}
	closed  bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Send appends a Start. Sends after Close are dropped and reported as ErrClosed.
func (queue *Queue) Send(start Start) error {
	queue.mu.Lock()
	defer queue.mu.Unlock()
	if queue.closed {
		return ErrClosed
	}
	queue.pending = append(queue.pending, start)
	queue.signalLocked()
	return nil
}

// Receive blocks until a Start is available, the queue is closed, or ctx ends.
func (queue *Queue) Receive(ctx context.Context) (Start, error) {
	for {
		queue.mu.Lock()
		if len(queue.pending) > 0 {
			start := queue.pending[0]
			queue.pending = queue.pending[1:]
			if len(queue.pending) > 0 {
				queue.signalLocked()
			}
			queue.mu.Unlock()
			return start, nil
		}
		if queue.closed {
			queue.mu.Unlock()
			return Start{}, ErrClosed
		}
		queue.mu.Unlock()

		select {
		case <-ctx.Done():
			return Start{}, ctx.Err()
		case <-queue.ready:
		}
	}
}

// Len returns the number of undelivered messages.
func (queue *Queue) Len() int {
	queue.mu.Lock()
	defer queue.mu.Unlock()
	return len(queue.pending)
}

// Close stops accepting messages. Already queued messages can still be received.
func (queue *Queue) Close() {
	queue.mu.Lock()
	defer queue.mu.Unlock()
	if queue.closed {
		return
	}
	queue.closed = true
	queue.signalLocked()
}

func (queue *Queue) signalLocked() {
	select {
	case queue.ready <- struct{}{}:
	default:
	}
}
