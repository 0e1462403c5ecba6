package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// AlignUp rounds value up to the next multiple of alignment.
// Alignment must be a power of two.
//
// Parameters:
//   - value: the value to align
//   - alignment: the required alignment (must be a power of two)
//
// Returns:
//   - uint64: value rounded up to the next multiple of alignment
func AlignUp(value, alignment uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// CeilDiv divides numerator by denominator, rounding up. A zero denominator
// returns zero rather than panicking so callers can treat unset dispatch
// dimensions as "nothing to cover".
//
// Parameters:
//   - numerator: the value to divide
//   - denominator: the divisor
//
// Returns:
//   - uint32: ceil(numerator / denominator), or 0 when denominator is 0
func CeilDiv(numerator, denominator uint32) uint32 {
	if denominator == 0 {
		return 0
	}
	return (numerator + denominator - 1) / denominator
}
