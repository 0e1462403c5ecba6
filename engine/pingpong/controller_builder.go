package pingpong

// Option is a functional option for configuring a Controller.
type Option func(*controllerImpl)

// WithObserver sets the callback each iteration's observed frame is handed
// to. The frame bytes are an independent copy, safe for the observer to
// retain.
//
// Parameters:
//   - fn: the observer, called with the iteration index and packed frame
//
// Returns:
//   - Option: a function that applies the observer
func WithObserver(fn func(iteration uint64, pixels []byte) error) Option {
	return func(c *controllerImpl) {
		c.observer = fn
	}
}

// WithObserveOutput makes each Step copy the iteration's own output slot
// instead of its input slot. The default observes the input slot, so the
// frame sequence trails the grid by one iteration; with this option the
// observed frame reflects the pass that was just dispatched.
//
// Returns:
//   - Option: a function that switches observation to the output slot
func WithObserveOutput() Option {
	return func(c *controllerImpl) {
		c.observeOutput = true
	}
}

// WithObserverWorkers runs observers on a dynamic worker pool of the given
// size, so slow observers overlap with subsequent GPU iterations instead of
// stalling them. Frames may reach observers out of iteration order.
//
// Parameters:
//   - workers: the worker pool size; values below 1 keep observers inline
//
// Returns:
//   - Option: a function that sets the observer worker count
func WithObserverWorkers(workers int) Option {
	return func(c *controllerImpl) {
		if workers > 0 {
			c.observerWorkers = workers
		}
	}
}
