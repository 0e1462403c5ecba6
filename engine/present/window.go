package present

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// windowImpl is the implementation of the Window interface.
type windowImpl struct {
	title  string
	width  int
	height int

	window *glfw.Window

	onResize func(width, height int)
}

// Window is a minimal presentation window: it exists to supply a surface
// descriptor and a poll loop, not an input system. Escape closes it.
type Window interface {
	// SurfaceDescriptor returns a platform-appropriate wgpu.SurfaceDescriptor
	// created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform surface descriptor
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// SetResizeCallback sets the function called when the framebuffer is
	// resized, with pixel dimensions.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// IsRunning returns true while the window is open.
	//
	// Returns:
	//   - bool: false once the window was closed or escape was pressed
	IsRunning() bool

	// PollEvents processes pending window events without blocking. Must be
	// called regularly from the thread the window was created on.
	PollEvents()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int

	// Close destroys the window and terminates the windowing library.
	//
	// Returns:
	//   - error: an error if the window was not initialized
	Close() error
}

var _ Window = &windowImpl{}

// NewWindow creates a window suitable for WebGPU presentation. The calling
// goroutine is locked to its OS thread; all later window calls must happen on
// it.
//
// Parameters:
//   - opts: a variadic list of WindowOption functions
//
// Returns:
//   - Window: the opened window
//   - error: an error if the windowing library or window creation failed
func NewWindow(opts ...WindowOption) (Window, error) {
	runtime.LockOSThread()

	w := &windowImpl{
		title:  "caldera",
		width:  1280,
		height: 720,
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %v", err)
	}

	// WebGPU provides its own graphics API, so disable OpenGL context creation.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create GLFW window: %v", err)
	}
	w.window = win

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			win.SetShouldClose(true)
		}
	})

	// Framebuffer size, not window size: high-DPI displays report them
	// differently and the surface wants pixels.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	w.width = fbWidth
	w.height = fbHeight

	return w, nil
}

func (w *windowImpl) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w.window)
}

func (w *windowImpl) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *windowImpl) IsRunning() bool {
	return w.window != nil && !w.window.ShouldClose()
}

func (w *windowImpl) PollEvents() {
	glfw.PollEvents()
}

func (w *windowImpl) Width() int {
	return w.width
}

func (w *windowImpl) Height() int {
	return w.height
}

func (w *windowImpl) Close() error {
	if w.window == nil {
		return fmt.Errorf("window is not initialized")
	}
	w.window.Destroy()
	w.window = nil
	glfw.Terminate()
	return nil
}
