// ABOUTME: Tests for the SINC resampler wrapper
package audioqueue

import (
	"math"
	"testing"
)

func TestResampleProducesApproximateFrameCount(t *testing.T) {
	r := NewResampler()

	const channels = 2
	const frames = 1000
	input := make([]float32, frames*channels)
	for i := range input {
		input[i] = float32(math.Sin(float64(i) * 0.01))
	}

	ratio := float64(SR48000) / float64(SR44100)
	out, err := r.Resample(input, channels, ratio)
	if err != nil {
		t.Fatalf("resample failed: %v", err)
	}

	outFrames := len(out) / channels
	want := int(float64(frames) * ratio)
	if diff := outFrames - want; diff < -5 || diff > 5 {
		t.Errorf("output frames = %d, want ~%d", outFrames, want)
	}
}

func TestResampleInvalidChannels(t *testing.T) {
	r := NewResampler()
	_, err := r.Resample([]float32{0, 1, 2, 3}, 0, 1.5)
	if err == nil {
		t.Fatal("expected an error for channels <= 0")
	}
}

func TestResampleEmptyInput(t *testing.T) {
	r := NewResampler()
	out, err := r.Resample(nil, 2, 1.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Errorf("expected nil output for empty input, got %v", out)
	}
}
