// ABOUTME: Lock-free bounded SPSC ring buffer of float32 samples
// ABOUTME: Power-of-two indexed, cache-line-padded atomic head/tail counters
package audioqueue

import "sync/atomic"

// RingBuffer is a bounded single-producer/single-consumer queue of
// float32. TryEnqueue/TryDequeue are wait-free, O(1), and allocate
// nothing. Concurrent pushes from more than one producer are not
// safe — callers must serialize producers externally (see
// AudioQueue.Push).
type RingBuffer struct {
	data []float32
	mask uint32

	// Cache-line padding keeps the producer's writeIdx and the
	// consumer's readIdx on separate cache lines so the two sides
	// don't thrash each other's cache line on every push/pop.
	_pad0    [64]byte
	writeIdx atomic.Uint32
	_pad1    [64]byte
	readIdx  atomic.Uint32
	_pad2    [64]byte
}

// NewRingBuffer returns a ring buffer with capacity for at least
// minCapacity float32 samples, rounded up to the next power of two.
func NewRingBuffer(minCapacity int) *RingBuffer {
	if minCapacity <= 0 {
		minCapacity = 1
	}
	size := 1
	for size < minCapacity {
		size <<= 1
		if size <= 0 {
			panic("audioqueue: ring buffer capacity overflow")
		}
	}
	return &RingBuffer{
		data: make([]float32, size),
		mask: uint32(size - 1),
	}
}

// Cap returns the actual (power-of-two-rounded) capacity.
func (r *RingBuffer) Cap() int {
	return len(r.data)
}

// Len returns the number of samples currently queued. Safe to call
// from either side; the result may be stale by the time it's read.
func (r *RingBuffer) Len() int {
	w := r.writeIdx.Load()
	rd := r.readIdx.Load()
	return int(w - rd)
}

// TryEnqueue publishes one sample. Returns false only if the buffer
// is full.
func (r *RingBuffer) TryEnqueue(x float32) bool {
	w := r.writeIdx.Load()
	rd := r.readIdx.Load()
	if w-rd >= uint32(len(r.data)) {
		return false
	}
	r.data[w&r.mask] = x
	r.writeIdx.Store(w + 1)
	return true
}

// TryDequeue consumes one sample into *out. Returns false only if the
// buffer is empty.
func (r *RingBuffer) TryDequeue(out *float32) bool {
	rd := r.readIdx.Load()
	w := r.writeIdx.Load()
	if rd == w {
		return false
	}
	*out = r.data[rd&r.mask]
	r.readIdx.Store(rd + 1)
	return true
}
