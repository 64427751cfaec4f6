package bus

import "sync/atomic"

// Queue is a bounded message queue with a single consumer. Any context may
// push.
//
// Overflow policy: drop-oldest. When the producer outruns the consumer the
// oldest queued record is discarded to make room, on the grounds that a stale
// configuration or statistics snapshot always loses to a fresh one. Every
// discard is counted and reported through Dropped.
type Queue struct {
	ch      chan Message
	wake    chan struct{}
	dropped atomic.Uint64
}

// NewQueue creates a queue holding at most capacity records.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		ch:   make(chan Message, capacity),
		wake: make(chan struct{}, 1),
	}
}

// Push enqueues a record, discarding the oldest queued record when full.
// It never blocks.
func (q *Queue) Push(m Message) {
	for {
		select {
		case q.ch <- m:
			q.notify()
			return
		default:
		}
		select {
		case <-q.ch:
			q.dropped.Add(1)
		default:
		}
	}
}

// Pop dequeues the next record without blocking.
func (q *Queue) Pop() (Message, bool) {
	select {
	case m := <-q.ch:
		return m, true
	default:
		return nil, false
	}
}

// Wake returns an edge-triggered readiness signal: one token is pending after
// any number of pushes since the last receive. The consumer must drain the
// queue with Pop after each wake-up.
func (q *Queue) Wake() <-chan struct{} {
	return q.wake
}

// Dropped returns the number of records discarded by the overflow policy.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

func (q *Queue) notify() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
