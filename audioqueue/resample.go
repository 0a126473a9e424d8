// ABOUTME: Stateless SINC resampler wrapper for one push
// ABOUTME: Backed by libsamplerate (SRC_SINC_BEST_QUALITY) via dh1tw/gosamplerate
package audioqueue

import (
	"fmt"

	"github.com/dh1tw/gosamplerate"
)

// Resampler wraps a single band-limited SINC resampling call. Quality
// is fixed at construction (best SINC). A Resampler value is stateless
// across pushes: each call to Resample creates and tears down its own
// libsamplerate converter state, so it is safe to call from any
// producer thread without cross-call continuity.
type Resampler struct{}

// NewResampler returns a Resampler at the fixed best-SINC quality.
func NewResampler() Resampler {
	return Resampler{}
}

// Resample converts interleaved input (frameCount frames of channels
// samples each) by ratio = outputRate/inputRate, returning interleaved
// output of the same channel count. The returned frame count is
// approximately floor(frameCount*ratio) but may vary by a few frames;
// callers must use len(output)/channels, not a precomputed size.
//
// A failure in either converter setup or processing is surfaced as a
// single error wrapping the backend's message — this is the
// ResampleFailed case from the push-path error taxonomy.
func (Resampler) Resample(input []float32, channels int, ratio float64) ([]float32, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("audioqueue: resample: invalid channel count %d", channels)
	}
	if len(input) == 0 {
		return nil, nil
	}

	output, err := gosamplerate.Simple(input, ratio, channels, gosamplerate.SRC_SINC_BEST_QUALITY)
	if err != nil {
		return nil, fmt.Errorf("audioqueue: resample failed: %w", err)
	}
	return output, nil
}
