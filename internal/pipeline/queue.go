package pipeline

import (
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Push after the queue has been closed
var ErrQueueClosed = errors.New("playback queue is closed")

// PlaybackQueue is the ordered hand-off point between the dispatcher
// and the player. It is unbounded, FIFO, and closeable; Pop blocks
// until an artifact arrives or the queue is closed
type PlaybackQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*Artifact
	closed bool
}

// NewPlaybackQueue creates an empty open queue
func NewPlaybackQueue() *PlaybackQueue {
	q := &PlaybackQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends an artifact to the queue
func (q *PlaybackQueue) Push(a *Artifact) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.items = append(q.items, a)
	q.cond.Signal()
	return nil
}

// Pop removes and returns the oldest artifact, blocking while the
// queue is open and empty. The second return is false once the queue
// is closed and drained
func (q *PlaybackQueue) Pop() (*Artifact, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}

	if len(q.items) == 0 {
		return nil, false
	}

	a := q.items[0]
	q.items = q.items[1:]
	return a, true
}

// Drain removes and returns everything currently queued without
// blocking
func (q *PlaybackQueue) Drain() []*Artifact {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

// Len returns the number of queued artifacts
func (q *PlaybackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close marks the queue closed and wakes all blocked consumers
func (q *PlaybackQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}
