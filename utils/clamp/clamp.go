// Package clamp provides checked integer narrowing. Every place a length or
// size crosses a type boundary in drvlogd goes through this package, so an
// out-of-range value is clamped to the destination range instead of being
// silently truncated or sign-flipped by a bare conversion.
package clamp

import "unsafe"

// Integer matches any built-in integer type, including named types whose
// underlying type is an integer.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// MaxVal returns the maximal value representable by T.
func MaxVal[T Integer]() T {
	var zero T
	all := ^zero // -1 for signed types, all-ones for unsigned types
	if all > zero {
		return all
	}
	bits := unsafe.Sizeof(zero) * 8
	return all ^ (all << (bits - 1))
}

// Clamp converts v to type D, clamping it into [lo, hi]. Values below lo
// map to lo and values above hi map to hi; everything in between converts
// exactly. The comparison is performed in a widened domain, so mixing
// signednesses between S and D is safe.
//
// The range must satisfy lo < hi; violating that is a caller bug and
// panics.
func Clamp[S Integer, D Integer](v S, lo, hi D) D {
	if lo >= hi {
		panic("clamp: invalid range")
	}
	if lessThan(v, lo) {
		return lo
	}
	if lessThan(hi, v) {
		return hi
	}
	// In range for D, so the conversion below cannot truncate.
	return D(v)
}

// lessThan reports a < b across possibly different integer types without
// overflow. Negative values compare below every non-negative value; within
// one sign class the comparison widens to 64 bits.
func lessThan[A Integer, B Integer](a A, b B) bool {
	aNeg := a < 0
	bNeg := b < 0
	switch {
	case aNeg && !bNeg:
		return true
	case !aNeg && bNeg:
		return false
	case aNeg && bNeg:
		return int64(a) < int64(b)
	default:
		return uint64(a) < uint64(b)
	}
}
