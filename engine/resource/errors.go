package resource

import (
	"errors"
	"fmt"
)

// ErrInvalidDescriptor indicates a resource descriptor that fails validation,
// such as a zero dimension, an empty usage set, or a format that does not
// support the requested usage combination. Construction either succeeds or
// fails deterministically; there is no retry path.
var ErrInvalidDescriptor = errors.New("invalid resource descriptor")

// SizeMismatchError indicates that the byte length of initial buffer contents
// does not equal the product of element count and element stride.
type SizeMismatchError struct {
	// Want is the expected byte length (element count times element stride).
	Want uint64

	// Got is the actual byte length of the provided contents.
	Got uint64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("contents size mismatch: want %d bytes, got %d", e.Want, e.Got)
}
