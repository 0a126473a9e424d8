// ABOUTME: Real-time audio mixing queue package
// ABOUTME: Defines ChannelLayout, SampleRate, AudioContext and the AudioQueue itself
// Package audioqueue implements a real-time audio mixing queue: many
// producers push heterogeneous-format audio frames, one consumer pops
// them back mixed additively into a single output context.
//
// A queue is built for one fixed AudioContext (sample rate + channel
// layout). Producers push in whatever context they have; the queue
// converts sample type, resamples, and remaps channels on the way in.
// The consumer must pop in the queue's own context; the hot pop path
// never blocks, and does not allocate unless a single pop requests more
// samples than the queue's latency budget holds.
//
// Example:
//
//	ctx := audioqueue.NewContext(audioqueue.SR48000, audioqueue.Stereo)
//	q := audioqueue.New[float32](ctx, 200)
//	q.Push(ctx, rampSamples, frames)
//	q.Pop(ctx, outBuf, frames)
package audioqueue
