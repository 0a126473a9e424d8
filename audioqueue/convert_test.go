// ABOUTME: Tests for generic sample <-> float32 conversion tables
package audioqueue

import "testing"

// P1: round-trip identity within tolerance, per type.
func TestInt16RoundTrip(t *testing.T) {
	tests := []int16{0, 1, -1, 16384, -16384, 32767, -32768, 200}
	for _, x := range tests {
		f := ToFloat(x)
		back := FromFloat[int16](f)
		diff := int(back) - int(x)
		if diff < -2 || diff > 2 {
			t.Errorf("int16 round-trip(%d) = %d, diff %d exceeds tolerance", x, back, diff)
		}
	}
}

// S5: to_float(16384) then from_float differs from 16384 by <= 2.
func TestInt16RoundTripS5(t *testing.T) {
	f := ToFloat(int16(16384))
	back := FromFloat[int16](f)
	if diff := int(back) - 16384; diff < -2 || diff > 2 {
		t.Errorf("round-trip(16384) = %d, diff %d", back, diff)
	}
}

func TestInt32RoundTrip(t *testing.T) {
	tests := []int32{0, 1, -1, 1 << 20, -(1 << 20), 2147483647, -2147483648}
	for _, x := range tests {
		f := ToFloat(x)
		back := FromFloat[int32](f)
		diff := int64(back) - int64(x)
		if diff < -2 || diff > 2 {
			t.Errorf("int32 round-trip(%d) = %d, diff %d exceeds tolerance", x, back, diff)
		}
	}
}

// S6: to_float(200) then from_float differs from 200 by <= 2.
func TestUint8RoundTripS6(t *testing.T) {
	f := ToFloat(uint8(200))
	back := FromFloat[uint8](f)
	diff := int(back) - 200
	if diff < -2 || diff > 2 {
		t.Errorf("round-trip(200) = %d, diff %d", back, diff)
	}
}

func TestUint8RoundTrip(t *testing.T) {
	for x := 0; x <= 255; x++ {
		f := ToFloat(uint8(x))
		back := FromFloat[uint8](f)
		diff := int(back) - x
		if diff < -2 || diff > 2 {
			t.Errorf("uint8 round-trip(%d) = %d, diff %d exceeds tolerance", x, back, diff)
		}
	}
}

func TestFloat32Identity(t *testing.T) {
	for _, x := range []float32{0, 0.5, -0.5, 1, -1} {
		if ToFloat(x) != x {
			t.Errorf("float32 ToFloat(%v) = %v, want identity", x, ToFloat(x))
		}
		if FromFloat[float32](x) != x {
			t.Errorf("float32 FromFloat(%v) = %v, want identity", x, FromFloat[float32](x))
		}
	}
}

func TestFloat64ClampedCast(t *testing.T) {
	if got := ToFloat(float64(2.0)); got != 1.0 {
		t.Errorf("ToFloat(2.0) = %v, want clamped to 1.0", got)
	}
	if got := ToFloat(float64(-2.0)); got != -1.0 {
		t.Errorf("ToFloat(-2.0) = %v, want clamped to -1.0", got)
	}
}

func TestInt16SaturatesAtPositiveOne(t *testing.T) {
	got := FromFloat[int16](1.0)
	if got != 32767 {
		t.Errorf("FromFloat[int16](1.0) = %d, want 32767 (saturated max)", got)
	}
}

func TestMakeConverters(t *testing.T) {
	c := MakeConverters[int16]()
	if c.ToFloat(0) != 0 {
		t.Errorf("expected 0 to map to 0.0")
	}
	if c.FromFloat(0) != 0 {
		t.Errorf("expected 0.0 to map to 0")
	}
}
