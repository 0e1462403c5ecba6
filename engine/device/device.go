package device

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// CommandSequence is the consumable handle produced by a sequence builder.
// Submit takes ownership of the underlying command buffer; a sequence can be
// submitted exactly once.
type CommandSequence interface {
	// Take consumes the sequence and returns its finished command buffer.
	// A second Take fails, which is how single-use submission is enforced.
	//
	// Returns:
	//   - *wgpu.CommandBuffer: the finished command buffer
	//   - error: an error if the sequence was already consumed
	Take() (*wgpu.CommandBuffer, error)
}

// contextImpl is the implementation of the Context interface.
// It owns the adapter, logical device, and queue for the lifetime of the process.
type contextImpl struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	// Acquisition preferences, set by builder options before negotiation.
	powerPreference      wgpu.PowerPreference
	forceFallbackAdapter bool
	label                string
	requiredLimits       *wgpu.RequiredLimits
	surfaceDescriptor    *wgpu.SurfaceDescriptor

	released bool
}

// Context is the exclusive owner of the GPU connection: the adapter, the
// logical device, and its submission queue. It is acquired once at startup and
// shared by reference with every component that creates resources or submits
// work. All submission is ordered through the single queue; completion must be
// observed explicitly by driving Poll.
type Context interface {
	// Device returns the underlying logical device.
	//
	// Returns:
	//   - *wgpu.Device: the logical device handle
	Device() *wgpu.Device

	// Queue returns the device's command submission queue.
	//
	// Returns:
	//   - *wgpu.Queue: the submission queue
	Queue() *wgpu.Queue

	// Adapter returns the physical adapter the device was negotiated from.
	//
	// Returns:
	//   - *wgpu.Adapter: the adapter handle
	Adapter() *wgpu.Adapter

	// AdapterInfo returns the identifying information of the selected adapter.
	//
	// Returns:
	//   - wgpu.AdapterInfo: name, vendor, backend, and driver details
	AdapterInfo() wgpu.AdapterInfo

	// Surface returns the presentation surface the context was acquired
	// against, or nil for a headless context.
	//
	// Returns:
	//   - *wgpu.Surface: the surface, or nil
	Surface() *wgpu.Surface

	// Submit consumes the given command sequence and places it on the queue.
	// Submission is fire-and-forget: it returns as soon as the sequence is
	// queued, and sequences execute in submission order on the device.
	//
	// Parameters:
	//   - seq: the finished, not-yet-submitted command sequence
	//
	// Returns:
	//   - error: an error if the sequence was already consumed
	Submit(seq CommandSequence) error

	// Poll drives the device's internal progress. With wait set, it blocks
	// until the device has processed all outstanding work, firing any pending
	// map callbacks along the way. With wait unset it performs a single
	// non-blocking progress check. Map completion never fires without the
	// host calling Poll.
	//
	// Parameters:
	//   - wait: whether to block until the device queue is empty
	//
	// Returns:
	//   - bool: true if the device queue was empty after polling
	Poll(wait bool) bool

	// Release tears down the queue, device, adapter, and instance.
	// The context must not be used afterwards.
	Release()
}

var _ Context = &contextImpl{}

// Acquire negotiates a connection with the GPU: it enumerates the available
// adapters under the configured power preference, selects one, and requests a
// logical device and queue from it. It fails with ErrNoCompatibleDevice if no
// adapter satisfies the requested feature and limit set.
//
// Parameters:
//   - opts: a variadic list of AcquireOption functions configuring the negotiation
//
// Returns:
//   - Context: the acquired device context
//   - error: ErrNoCompatibleDevice (wrapped) if negotiation fails
func Acquire(opts ...AcquireOption) (Context, error) {
	runtime.LockOSThread()

	c := &contextImpl{
		label: "Main Device",
	}
	for _, opt := range opts {
		opt(c)
	}

	c.instance = wgpu.CreateInstance(nil)

	// A surface descriptor makes adapter selection surface-compatible; the
	// default is a headless context.
	if c.surfaceDescriptor != nil {
		c.surface = c.instance.CreateSurface(c.surfaceDescriptor)
	}

	adapter, err := c.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference:      c.powerPreference,
		ForceFallbackAdapter: c.forceFallbackAdapter,
		CompatibleSurface:    c.surface,
	})
	if err != nil {
		c.instance.Release()
		return nil, fmt.Errorf("%w: no adapter available: %v", ErrNoCompatibleDevice, err)
	}
	c.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          c.label,
		RequiredLimits: c.requiredLimits,
	})
	if err != nil {
		adapter.Release()
		c.instance.Release()
		return nil, fmt.Errorf("%w: adapter rejected device request: %v", ErrNoCompatibleDevice, err)
	}
	c.device = device
	c.queue = device.GetQueue()

	return c, nil
}

func (c *contextImpl) Device() *wgpu.Device {
	return c.device
}

func (c *contextImpl) Queue() *wgpu.Queue {
	return c.queue
}

func (c *contextImpl) Adapter() *wgpu.Adapter {
	return c.adapter
}

func (c *contextImpl) AdapterInfo() wgpu.AdapterInfo {
	return c.adapter.GetInfo()
}

func (c *contextImpl) Surface() *wgpu.Surface {
	return c.surface
}

func (c *contextImpl) Submit(seq CommandSequence) error {
	buf, err := seq.Take()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue.Submit(buf)
	buf.Release()
	return nil
}

func (c *contextImpl) Poll(wait bool) bool {
	return c.device.Poll(wait, nil)
}

func (c *contextImpl) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return
	}
	c.released = true

	c.queue.Release()
	c.device.Release()
	c.adapter.Release()
	if c.surface != nil {
		c.surface.Release()
	}
	c.instance.Release()
}
