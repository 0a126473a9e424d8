// ABOUTME: Tests for AudioQueue push/pop pipelines and concrete mixing scenarios
package audioqueue

import (
	"math"
	"testing"
)

func rms(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(a)))
}

// S1: float stereo passthrough.
func TestQueueFloatStereoPassthrough(t *testing.T) {
	ctx := NewContext(SR48000, Stereo)
	q := New[float32](ctx, 200)

	const frames = 256
	in := make([]float32, frames*2)
	for i := range in {
		in[i] = float32(i) * 0.001
	}
	if !q.Push(ctx, in, frames) {
		t.Fatal("push failed")
	}

	out := make([]float32, frames*2)
	if !q.Pop(ctx, out, frames) {
		t.Fatal("pop should have fully satisfied the request")
	}

	if d := rms(in, out); d >= 1e-6 {
		t.Errorf("RMS difference %v exceeds 1e-6", d)
	}
}

// S2: int16 mono passthrough.
func TestQueueInt16MonoPassthrough(t *testing.T) {
	ctx := NewContext(SR44100, Mono)
	q := New[int16](ctx, 200)

	const frames = 256
	in := make([]int16, frames)
	for i := range in {
		in[i] = int16(i * 10)
	}
	if !q.Push(ctx, in, frames) {
		t.Fatal("push failed")
	}

	out := make([]int16, frames)
	ok := q.Pop(ctx, out, frames)
	if !ok {
		t.Fatal("pop should return true")
	}

	var sum float64
	for i := range in {
		d := float64(out[i] - in[i])
		sum += d * d
	}
	if r := math.Sqrt(sum / float64(len(in))); r >= 2.0 {
		t.Errorf("RMS difference %v exceeds 2.0", r)
	}
}

// S3: underfill + mix.
func TestQueueUnderfillMix(t *testing.T) {
	ctx := NewContext(SR48000, Stereo)
	q := New[float32](ctx, 200)

	const pushFrames = 64
	pushed := make([]float32, pushFrames*2)
	for i := range pushed {
		pushed[i] = float32(i) * 0.001
	}
	if !q.Push(ctx, pushed, pushFrames) {
		t.Fatal("push failed")
	}

	const popFrames = 128
	total := popFrames * 2
	buf := make([]float32, total)
	for i := range buf {
		buf[i] = 0.1
	}

	if q.Pop(ctx, buf, popFrames) {
		t.Fatal("expected pop to return false on underflow")
	}

	for i := 0; i < len(pushed); i++ {
		want := clampf(0.1+pushed[i], -1, 1)
		if d := buf[i] - want; d > 1e-5 || d < -1e-5 {
			t.Errorf("buf[%d] = %v, want %v", i, buf[i], want)
		}
	}
	for i := len(pushed); i < total; i++ {
		if d := buf[i] - 0.1; d > 1e-5 || d < -1e-5 {
			t.Errorf("buf[%d] = %v, want unchanged 0.1", i, buf[i])
		}
	}
}

// S4: mix clamp — every popped sample stays <= 1.0.
func TestQueueMixClamp(t *testing.T) {
	ctx := NewContext(SR48000, Stereo)
	q := New[float32](ctx, 200)

	const frames = 64
	pushed := make([]float32, frames*2)
	for i := range pushed {
		pushed[i] = float32(i) * 0.02
	}
	if !q.Push(ctx, pushed, frames) {
		t.Fatal("push failed")
	}

	buf := make([]float32, frames*2)
	for i := range buf {
		buf[i] = 0.5
	}
	q.Pop(ctx, buf, frames)

	for i, v := range buf {
		if v > 1.0 {
			t.Errorf("buf[%d] = %v exceeds clamp ceiling 1.0", i, v)
		}
	}
}

// S7: Mono->Stereo upmix through the full queue pipeline.
func TestQueueMonoToStereoUpmix(t *testing.T) {
	outCtx := NewContext(SR44100, Stereo)
	q := New[float32](outCtx, 200)

	monoCtx := NewContext(SR44100, Mono)
	in := []float32{0.5, -0.25, 0.75, -1.0}
	if !q.Push(monoCtx, in, 4) {
		t.Fatal("push failed")
	}

	out := make([]float32, 8)
	if !q.Pop(outCtx, out, 4) {
		t.Fatal("pop should have fully satisfied the request")
	}

	want := []float32{0.5, 0.5, -0.25, -0.25, 0.75, 0.75, -1.0, -1.0}
	for i := range want {
		if d := out[i] - want[i]; d > 1e-6 || d < -1e-6 {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestQueuePushSizeMismatch(t *testing.T) {
	ctx := NewContext(SR48000, Stereo)
	q := New[float32](ctx, 200)

	bad := make([]float32, 10) // not a multiple matching frameCount*channels
	if q.Push(ctx, bad, 6) {
		t.Fatal("expected push to reject a mismatched buffer length")
	}
}

func TestQueuePopContextMismatch(t *testing.T) {
	ctx := NewContext(SR48000, Stereo)
	q := New[float32](ctx, 200)

	wrong := NewContext(SR44100, Stereo)
	buf := make([]float32, 4)
	if q.Pop(wrong, buf, 2) {
		t.Fatal("expected pop to reject a mismatched context")
	}
}
