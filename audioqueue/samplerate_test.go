// ABOUTME: Tests for SampleRate parsing and numeric access
package audioqueue

import "testing"

func TestNewSampleRate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SampleRate
		wantErr bool
	}{
		{"44100", "SR44100", SR44100, false},
		{"48000", "SR48000", SR48000, false},
		{"88200", "SR88200", SR88200, false},
		{"96000", "SR96000", SR96000, false},
		{"176400", "SR176400", SR176400, false},
		{"192000", "SR192000", SR192000, false},
		{"unknown", "SR8000", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSampleRate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSampleRateHz(t *testing.T) {
	if SR48000.Hz() != 48000 {
		t.Errorf("SR48000.Hz() = %d, want 48000", SR48000.Hz())
	}
}
