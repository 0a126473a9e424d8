// ABOUTME: Sample rate enumeration with canonical name parsing
// ABOUTME: Six fixed rates from 44.1kHz to 192kHz
package audioqueue

import "fmt"

// SampleRate is one of the six supported sample rates. Its numeric
// value equals the rate in Hz.
type SampleRate uint32

const (
	SR44100  SampleRate = 44100
	SR48000  SampleRate = 48000
	SR88200  SampleRate = 88200
	SR96000  SampleRate = 96000
	SR176400 SampleRate = 176400
	SR192000 SampleRate = 192000
)

// NewSampleRate parses a canonical rate name: "SR44100" .. "SR192000".
func NewSampleRate(name string) (SampleRate, error) {
	switch name {
	case "SR44100":
		return SR44100, nil
	case "SR48000":
		return SR48000, nil
	case "SR88200":
		return SR88200, nil
	case "SR96000":
		return SR96000, nil
	case "SR176400":
		return SR176400, nil
	case "SR192000":
		return SR192000, nil
	default:
		return 0, fmt.Errorf("audioqueue: invalid sample rate name %q", name)
	}
}

// Hz returns the sample rate in Hz.
func (r SampleRate) Hz() uint32 {
	return uint32(r)
}

func (r SampleRate) String() string {
	return fmt.Sprintf("SR%d", uint32(r))
}
