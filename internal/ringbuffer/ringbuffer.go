// Package ringbuffer provides the multi-slot hand-off ring that couples the
// sample producer to the processing context. Each slot holds one fixed-size
// raw IQ frame; a slot has exactly one owner at any instant, and ownership of
// a filled slot transfers to the consumer for the duration of one processing
// pass.
package ringbuffer

import (
	"fmt"
	"sync"
)

// FrameRing is a bounded ring of fixed-size byte frames for one producer and
// one consumer. The producer blocks when every slot is filled; the consumer
// blocks when none is. There are no timeouts: waits are indefinite.
type FrameRing struct {
	slots     [][]byte
	frameSize int

	mu     sync.Mutex
	cond   *sync.Cond
	read   int
	write  int
	filled int
	closed bool
}

// NewFrameRing creates a ring of `slots` frames of `frameSize` bytes each.
func NewFrameRing(slots, frameSize int) (*FrameRing, error) {
	if slots < 2 {
		return nil, fmt.Errorf("ringbuffer: need at least 2 slots, got %d", slots)
	}
	if frameSize < 1 {
		return nil, fmt.Errorf("ringbuffer: frame size must be positive, got %d", frameSize)
	}

	r := &FrameRing{
		slots:     make([][]byte, slots),
		frameSize: frameSize,
	}
	for i := range r.slots {
		r.slots[i] = make([]byte, frameSize)
	}
	r.cond = sync.NewCond(&r.mu)
	return r, nil
}

// FrameSize returns the fixed frame size in bytes.
func (r *FrameRing) FrameSize() int {
	return r.frameSize
}

// Write copies one frame into the next free slot, blocking while all slots
// are filled. The frame must be exactly FrameSize bytes. Writing to a closed
// ring is a programming error.
func (r *FrameRing) Write(frame []byte) {
	if len(frame) != r.frameSize {
		panic(fmt.Errorf("ringbuffer: frame length %d, want %d", len(frame), r.frameSize))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		panic("ringbuffer: write to closed ring")
	}

	// The slot the consumer currently owns is kept out of reach: the ring is
	// "full" one slot early so a pass in flight is never overwritten.
	for r.filled == len(r.slots)-1 {
		r.cond.Wait()
		if r.closed {
			panic("ringbuffer: write to closed ring")
		}
	}

	copy(r.slots[r.write], frame)
	r.write = (r.write + 1) % len(r.slots)
	r.filled++
	r.cond.Broadcast()
}

// Next blocks until a filled frame is available and returns the slot's
// backing array. The returned view is owned by the caller until the following
// Next call, which releases the slot back to the producer. It returns nil
// once the ring is closed and drained.
func (r *FrameRing) Next() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	for !r.closed && r.filled == 0 {
		r.cond.Wait()
	}

	if r.filled == 0 {
		return nil
	}

	frame := r.slots[r.read]
	r.read = (r.read + 1) % len(r.slots)
	r.filled--
	r.cond.Broadcast()
	return frame
}

// Close marks the ring as closed: no more writes will occur. It wakes any
// blocked consumer so it can drain the remaining frames and observe the end
// of the stream.
func (r *FrameRing) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cond.Broadcast()
}
