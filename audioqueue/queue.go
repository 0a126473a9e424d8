// ABOUTME: AudioQueue orchestrates convert->resample->remap->enqueue on push
// ABOUTME: and dequeue->mix->clamp->convert on pop
package audioqueue

import "log"

const defaultLatencyMs = 200

// AudioQueue is the real-time audio mixing queue. It is fixed to one
// expected output AudioContext for its entire lifetime; producers may
// push in any context, the consumer must pop in exactly expected_ctx.
//
// An AudioQueue is neither copyable nor movable once constructed:
// always hold it by pointer, and never assign through a dereferenced
// value. Producers and the consumer hold stable references to the
// same *AudioQueue for the life of the session.
type AudioQueue[T Sample] struct {
	expectedCtx AudioContext
	ring        *RingBuffer
	latencyMs   uint32

	conv      Converters[T]
	resampler Resampler

	// scratch is the consumer's pre-allocated pop-side working
	// buffer, owned exclusively by the consumer. Pop never
	// allocates as long as a single call never requests more
	// samples than fit here.
	scratch []float32
}

// New constructs a queue fixed to ctx, with ring capacity for
// latencyMs worth of ctx's frames. latencyMs of 0 uses the 200ms
// default.
func New[T Sample](ctx AudioContext, latencyMs uint32) *AudioQueue[T] {
	if latencyMs == 0 {
		latencyMs = defaultLatencyMs
	}
	capacity := ctx.Channels() * int(ctx.Rate.Hz()) * int(latencyMs) / 1000

	return &AudioQueue[T]{
		expectedCtx: ctx,
		ring:        NewRingBuffer(capacity),
		latencyMs:   latencyMs,
		conv:        MakeConverters[T](),
		resampler:   NewResampler(),
		scratch:     make([]float32, capacity),
	}
}

// ExpectedContext returns the context the queue was constructed with.
func (q *AudioQueue[T]) ExpectedContext() AudioContext {
	return q.expectedCtx
}

// Capacity returns the ring buffer's total sample capacity (frames *
// channels), for monitoring and diagnostics.
func (q *AudioQueue[T]) Capacity() int {
	return q.ring.Cap()
}

// Depth returns the number of samples currently queued, for
// monitoring and diagnostics.
func (q *AudioQueue[T]) Depth() int {
	return q.ring.Len()
}

// Push converts, resamples and remaps data (frameCount frames in
// inputCtx) into the queue's context and enqueues every resulting
// sample. It allocates working buffers as needed — there is no
// real-time constraint on the push path.
//
// Returns false, with a diagnostic line on stderr, if data's length
// doesn't match frameCount*inputCtx.Channels(), if resampling fails,
// or if the ring buffer saturates partway through. On a partial
// enqueue, the samples that fit remain queued; the caller should
// treat false as "investigate", not "retry this exact call".
//
// Push is not safe for concurrent use: the ring buffer is
// single-producer, so producers sharing one queue must serialize their
// Push calls externally.
func (q *AudioQueue[T]) Push(inputCtx AudioContext, data []T, frameCount int) bool {
	inputChannels := inputCtx.Channels()
	if len(data) != frameCount*inputChannels {
		log.Printf("audioqueue: push: size mismatch: got %d samples, want %d (frames=%d, channels=%d)",
			len(data), frameCount*inputChannels, frameCount, inputChannels)
		return false
	}

	working := make([]float32, len(data))
	for i, s := range data {
		working[i] = q.conv.ToFloat(s)
	}
	workingFrames := frameCount
	workingChannels := inputChannels

	if ratio, ok := q.expectedCtx.NeedsResample(inputCtx); ok {
		resampled, err := q.resampler.Resample(working, workingChannels, ratio)
		if err != nil {
			log.Printf("audioqueue: push: %v", err)
			return false
		}
		working = resampled
		workingFrames = len(working) / workingChannels
	}

	if m, ok := q.expectedCtx.NeedsRemap(inputCtx); ok {
		remapped := make([]float32, workingFrames*q.expectedCtx.Channels())
		RemapFrames(working, workingFrames, m, remapped)
		working = remapped
	}

	dropped := 0
	for _, s := range working {
		if !q.ring.TryEnqueue(s) {
			dropped++
		}
	}
	if dropped > 0 {
		log.Printf("audioqueue: push: dropped %d samples (queue full)", dropped)
		return false
	}
	return true
}

// Pop fills buffer (frameCount frames in outputCtx, which must equal
// the queue's expected context) by additively mixing whatever is
// queued onto buffer's existing contents, clamped to [-1, +1]. It
// never blocks. It does not allocate unless a single call requests
// more samples than the latency budget given to New holds; the
// scratch buffer then grows to fit that request.
//
// Returns false if outputCtx doesn't match the queue's context
// (buffer is left completely unmodified), or if the queue underflows
// partway through (buffer's dequeued prefix is mixed in per the usual
// rule; the rest is round-tripped through the sample converters
// unchanged). The pop path emits no diagnostics — it must stay
// real-time safe.
func (q *AudioQueue[T]) Pop(outputCtx AudioContext, buffer []T, frameCount int) bool {
	if !outputCtx.Equal(q.expectedCtx) {
		return false
	}

	total := frameCount * q.expectedCtx.Channels()
	if cap(q.scratch) < total {
		q.scratch = make([]float32, total)
	}
	scratch := q.scratch[:total]

	for i := 0; i < total; i++ {
		scratch[i] = q.conv.ToFloat(buffer[i])
	}

	popped := 0
	var s float32
	for popped < total && q.ring.TryDequeue(&s) {
		scratch[popped] = clampf(scratch[popped]+s, -1, 1)
		popped++
	}

	for i := 0; i < total; i++ {
		buffer[i] = q.conv.FromFloat(scratch[i])
	}

	return popped == total
}
