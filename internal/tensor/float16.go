package tensor

import "math"

// Float16ToFloat32 converts an IEEE 754 half-precision value to float32.
func Float16ToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1F
	mant := uint32(h) & 0x3FF

	var bits uint32
	switch exp {
	case 0:
		if mant == 0 {
			// Zero.
			bits = sign << 31
		} else {
			// Subnormal number - normalize it.
			exp = 1
			for mant&0x400 == 0 {
				mant <<= 1
				exp--
			}
			mant &= 0x3FF
			bits = (sign << 31) | ((exp + 127 - 15) << 23) | (mant << 13)
		}
	case 0x1F:
		// Inf or NaN.
		bits = (sign << 31) | 0x7F800000 | (mant << 13)
	default:
		// Normal number.
		bits = (sign << 31) | ((exp + 127 - 15) << 23) | (mant << 13)
	}

	return math.Float32frombits(bits)
}

// Float32ToFloat16 converts a float32 to IEEE 754 half precision with
// round-to-nearest-even. Values above the half-precision range become
// infinities, values below the subnormal range flush to signed zero.
func Float32ToFloat16(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int32(bits>>23) & 0xFF
	mant := bits & 0x7FFFFF

	switch {
	case exp == 0xFF:
		// Inf or NaN. Keep a nonzero mantissa for NaN.
		if mant != 0 {
			return sign | 0x7C00 | uint16(mant>>13) | 1
		}
		return sign | 0x7C00

	case exp > 127+15:
		// Overflow to infinity.
		return sign | 0x7C00

	case exp < 127-14:
		// Subnormal in half precision.
		shift := uint32(126 - exp) // at least 14 here
		if shift > 24 {
			return sign // Underflow to zero.
		}
		mant |= 0x800000 // Implicit leading bit.
		half := uint16(mant >> shift)
		// Round to nearest even on the dropped bits.
		rem := mant & ((uint32(1) << shift) - 1)
		mid := uint32(1) << (shift - 1)
		if rem > mid || (rem == mid && half&1 == 1) {
			half++
		}
		return sign | half

	default:
		half := uint16((exp-127+15)<<10) | uint16(mant>>13)
		// Round to nearest even on the 13 dropped mantissa bits.
		rem := mant & 0x1FFF
		if rem > 0x1000 || (rem == 0x1000 && half&1 == 1) {
			half++ // Carries into the exponent correctly by construction.
		}
		return sign | half
	}
}
