package pipeline

import "fmt"

// IncompatibleBindingError indicates that two shader stages, or a bind group
// and the pipeline's reflected layout, disagree on the shape of a binding.
// This is a construction-time programmer error with no runtime recovery.
type IncompatibleBindingError struct {
	// Group is the bind group index the disagreement occurred in.
	Group int

	// Binding is the binding index within the group.
	Binding uint32

	// Reason describes the disagreement.
	Reason string
}

func (e *IncompatibleBindingError) Error() string {
	return fmt.Sprintf("incompatible binding at group %d binding %d: %s", e.Group, e.Binding, e.Reason)
}
