package present

// WindowOption is a functional option for configuring a Window.
type WindowOption func(*windowImpl)

// WithTitle sets the window title.
//
// Parameters:
//   - title: the title shown in the title bar
//
// Returns:
//   - WindowOption: the option function
func WithTitle(title string) WindowOption {
	return func(w *windowImpl) {
		w.title = title
	}
}

// WithSize sets the requested window size. The actual framebuffer size may
// differ on high-DPI displays.
//
// Parameters:
//   - width: the requested width in screen coordinates
//   - height: the requested height in screen coordinates
//
// Returns:
//   - WindowOption: the option function
func WithSize(width, height int) WindowOption {
	return func(w *windowImpl) {
		w.width = width
		w.height = height
	}
}
