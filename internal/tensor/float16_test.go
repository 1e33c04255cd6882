package tensor

import (
	"math"
	"testing"
)

func TestFloat16RoundTripExact(t *testing.T) {
	// Values exactly representable in half precision must survive a
	// round trip through the 16-bit encoding.
	exact := []float32{0, 1, -1, 0.5, -0.5, 2, 1024, 65504, -65504, 0.000030517578125}
	for _, v := range exact {
		got := Float16ToFloat32(Float32ToFloat16(v))
		if got != v {
			t.Errorf("round trip %g: got %g", v, got)
		}
	}
}

func TestFloat16SpecialValues(t *testing.T) {
	inf := float32(math.Inf(1))
	if got := Float16ToFloat32(Float32ToFloat16(inf)); got != inf {
		t.Errorf("+inf: got %g", got)
	}
	if got := Float16ToFloat32(Float32ToFloat16(-inf)); got != -inf {
		t.Errorf("-inf: got %g", got)
	}
	nan := float32(math.NaN())
	if got := Float16ToFloat32(Float32ToFloat16(nan)); !math.IsNaN(float64(got)) {
		t.Errorf("NaN did not survive: got %g", got)
	}
	// Signed zero keeps its sign bit.
	negZero := math.Float32frombits(0x80000000)
	if bits := Float32ToFloat16(negZero); bits != 0x8000 {
		t.Errorf("-0: got bits %#04x", bits)
	}
}

func TestFloat16OverflowAndUnderflow(t *testing.T) {
	// Beyond the half-precision range: saturate to infinity.
	if bits := Float32ToFloat16(70000); bits != 0x7C00 {
		t.Errorf("70000: got bits %#04x, want +inf", bits)
	}
	if bits := Float32ToFloat16(-70000); bits != 0xFC00 {
		t.Errorf("-70000: got bits %#04x, want -inf", bits)
	}
	// Below the smallest subnormal: flush to zero.
	if bits := Float32ToFloat16(1e-9); bits != 0 {
		t.Errorf("1e-9: got bits %#04x, want 0", bits)
	}
}

func TestFloat16Subnormal(t *testing.T) {
	// Smallest positive half subnormal is 2^-24.
	small := float32(math.Ldexp(1, -24))
	bits := Float32ToFloat16(small)
	if bits != 0x0001 {
		t.Fatalf("2^-24: got bits %#04x, want 0x0001", bits)
	}
	if got := Float16ToFloat32(bits); got != small {
		t.Errorf("2^-24 round trip: got %g", got)
	}
}

func TestFloat16RoundToNearestEven(t *testing.T) {
	// 1 + 2^-11 sits exactly between 1.0 and the next half value
	// 1 + 2^-10; ties go to the even mantissa, which is 1.0.
	mid := float32(1 + math.Ldexp(1, -11))
	if got := Float16ToFloat32(Float32ToFloat16(mid)); got != 1 {
		t.Errorf("tie at 1+2^-11: got %g, want 1", got)
	}
	// Just above the midpoint rounds up.
	above := float32(1 + math.Ldexp(1, -11) + math.Ldexp(1, -20))
	want := float32(1 + math.Ldexp(1, -10))
	if got := Float16ToFloat32(Float32ToFloat16(above)); got != want {
		t.Errorf("above tie: got %g, want %g", got, want)
	}
}
