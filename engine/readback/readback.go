package readback

import (
	"fmt"
	"sync"

	"github.com/calderagpu/caldera/engine/device"
	"github.com/calderagpu/caldera/engine/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// State is the synchronizer's position in the map/read/release protocol.
type State int

const (
	// StateUnmapped means the buffer is device-owned and may receive copies.
	StateUnmapped State = iota

	// StateMapRequested means a map is in flight: the buffer may not be read,
	// written, or released until the device confirms the mapping.
	StateMapRequested

	// StateMapped means the buffer is host-visible: it may be read, and must
	// be released before it can receive copies again.
	StateMapped
)

func (s State) String() string {
	switch s {
	case StateUnmapped:
		return "Unmapped"
	case StateMapRequested:
		return "MapRequested"
	case StateMapped:
		return "Mapped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// mapper is the mapping surface of a staging buffer. It exists so the state
// machine can be exercised against a fake in tests.
type mapper interface {
	requestMap(size uint64, callback func(wgpu.BufferMapAsyncStatus)) error
	mappedRange(size uint64) []byte
	unmap()
}

// poller drives device progress so pending map callbacks can fire.
type poller interface {
	Poll(wait bool) bool
}

// wgpuMapper adapts a raw buffer to the mapper seam.
type wgpuMapper struct {
	buf *wgpu.Buffer
}

func (m wgpuMapper) requestMap(size uint64, callback func(wgpu.BufferMapAsyncStatus)) error {
	return m.buf.MapAsync(wgpu.MapModeRead, 0, size, callback)
}

func (m wgpuMapper) mappedRange(size uint64) []byte {
	return m.buf.GetMappedRange(0, uint(size))
}

func (m wgpuMapper) unmap() {
	m.buf.Unmap()
}

// stagingImpl is the implementation of the Staging interface.
type stagingImpl struct {
	mu     sync.Mutex
	state  State
	buf    resource.Buffer
	layout resource.StagingLayout
	m      mapper
	p      poller

	// result carries the map completion status from the device callback to
	// Wait. Buffered so the callback never blocks inside a poll.
	result chan wgpu.BufferMapAsyncStatus
}

// Staging is a host-readable staging buffer governed by the
// Unmapped -> MapRequested -> Mapped -> Unmapped protocol. There is exactly
// one writer (a recorded copy) and one reader (the host) active on the buffer
// at a time, serialized by this state machine rather than a lock around the
// data.
//
// Map completion is driven by the host: Wait polls the device until the
// pending callback fires. A host that blocks without polling will never
// observe the transition.
type Staging interface {
	// State returns the current protocol state.
	//
	// Returns:
	//   - State: StateUnmapped, StateMapRequested, or StateMapped
	State() State

	// Layout returns the padded row layout the buffer was sized with.
	//
	// Returns:
	//   - resource.StagingLayout: the row layout
	Layout() resource.StagingLayout

	// Raw returns the underlying buffer handle.
	//
	// Returns:
	//   - *wgpu.Buffer: the staging buffer
	Raw() *wgpu.Buffer

	// Size returns the buffer size in bytes.
	//
	// Returns:
	//   - uint64: the size in bytes
	Size() uint64

	// Writable reports whether the buffer may be recorded as a copy
	// destination. It fails with ErrBufferBusy outside StateUnmapped.
	//
	// Returns:
	//   - error: nil when unmapped, ErrBufferBusy (wrapped) otherwise
	Writable() error

	// RequestMap registers a read-only map request and returns immediately
	// without blocking. The transition to Mapped happens in Wait, once the
	// device confirms all prior writes to the buffer have completed.
	//
	// Returns:
	//   - error: ErrBufferBusy (wrapped) if a map is in flight or committed
	RequestMap() error

	// Wait drives device progress until the pending map request resolves.
	// On success the buffer is Mapped. On failure the buffer returns to
	// Unmapped; a lost device connection resolves to device.ErrDeviceLost.
	// There is no cancellation: a caller that issued RequestMap must Wait
	// before it may do anything else with the buffer.
	//
	// Returns:
	//   - error: nil once mapped, ErrNoPendingMap if no request is in
	//     flight, device.ErrDeviceLost (wrapped) on connection loss
	Wait() error

	// Read passes the mapped bytes to fn. The view is valid only for the
	// duration of the call and must not be retained; it is invalidated by
	// Release. Read fails with ErrBufferBusy unless the buffer is Mapped.
	//
	// Parameters:
	//   - fn: the reader; its error is returned unchanged
	//
	// Returns:
	//   - error: ErrBufferBusy (wrapped) outside StateMapped, else fn's error
	Read(fn func(data []byte) error) error

	// ReadPixels copies the mapped contents out with row padding removed,
	// yielding tightly packed rows of UnpaddedBytesPerRow * RowsPerImage
	// bytes. The returned slice is an independent copy, safe to retain.
	//
	// Returns:
	//   - []byte: the tightly packed contents
	//   - error: ErrBufferBusy (wrapped) outside StateMapped
	ReadPixels() ([]byte, error)

	// Release unmaps the buffer, returning it to Unmapped so it can receive
	// copies again. Releasing while a map request is in flight fails: the
	// device has not committed the transfer yet.
	//
	// Returns:
	//   - error: ErrBufferBusy (wrapped) in StateMapRequested, nil otherwise
	Release() error

	// Destroy frees the underlying buffer. The staging buffer must be
	// Unmapped and unreferenced by in-flight sequences.
	Destroy()
}

var _ Staging = &stagingImpl{}

// NewStagingForTexture creates a staging buffer sized to receive full copies
// of the given texture, wrapped in the readback protocol.
//
// Parameters:
//   - ctx: the device context that drives map completion
//   - builder: the resource builder the buffer is created with
//   - tex: the texture the buffer will receive copies of
//
// Returns:
//   - Staging: the staging buffer in StateUnmapped
//   - error: an error if the buffer could not be created
func NewStagingForTexture(ctx device.Context, builder resource.Builder, tex resource.Texture) (Staging, error) {
	buf, layout, err := builder.CreateStagingFor(tex)
	if err != nil {
		return nil, err
	}
	return newStaging(buf, layout, wgpuMapper{buf: buf.Raw()}, ctx), nil
}

// NewStagingForBuffer creates a staging buffer sized to receive full copies
// of the given source buffer. The layout is a single row of the buffer's
// size, so ReadPixels returns the bytes unchanged.
//
// Parameters:
//   - ctx: the device context that drives map completion
//   - builder: the resource builder the buffer is created with
//   - src: the buffer whose contents will be read back
//
// Returns:
//   - Staging: the staging buffer in StateUnmapped
//   - error: an error if the buffer could not be created
func NewStagingForBuffer(ctx device.Context, builder resource.Builder, src resource.Buffer) (Staging, error) {
	buf, err := builder.CreateBuffer(resource.BufferSpec{
		Label: src.Spec().Label + " staging",
		Size:  src.Size(),
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return nil, err
	}
	layout := resource.StagingLayout{
		BytesPerRow:         uint32(src.Size()),
		UnpaddedBytesPerRow: uint32(src.Size()),
		RowsPerImage:        1,
		Size:                src.Size(),
	}
	return newStaging(buf, layout, wgpuMapper{buf: buf.Raw()}, ctx), nil
}

func newStaging(buf resource.Buffer, layout resource.StagingLayout, m mapper, p poller) *stagingImpl {
	return &stagingImpl{
		state:  StateUnmapped,
		buf:    buf,
		layout: layout,
		m:      m,
		p:      p,
		result: make(chan wgpu.BufferMapAsyncStatus, 1),
	}
}

func (s *stagingImpl) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *stagingImpl) Layout() resource.StagingLayout {
	return s.layout
}

func (s *stagingImpl) Raw() *wgpu.Buffer {
	return s.buf.Raw()
}

func (s *stagingImpl) Size() uint64 {
	return s.buf.Size()
}

func (s *stagingImpl) Writable() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnmapped {
		return fmt.Errorf("%w: cannot write while %s", ErrBufferBusy, s.state)
	}
	return nil
}

func (s *stagingImpl) RequestMap() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUnmapped {
		return fmt.Errorf("%w: map requested while %s", ErrBufferBusy, s.state)
	}

	err := s.m.requestMap(s.buf.Size(), func(status wgpu.BufferMapAsyncStatus) {
		s.result <- status
	})
	if err != nil {
		return fmt.Errorf("readback: map request failed: %w", err)
	}

	s.state = StateMapRequested
	return nil
}

func (s *stagingImpl) Wait() error {
	s.mu.Lock()
	if s.state == StateMapped {
		s.mu.Unlock()
		return nil
	}
	if s.state != StateMapRequested {
		s.mu.Unlock()
		return ErrNoPendingMap
	}
	s.mu.Unlock()

	// The callback only fires while the device is being polled; keep
	// driving progress until it does.
	var status wgpu.BufferMapAsyncStatus
	for {
		select {
		case status = <-s.result:
		default:
			s.p.Poll(true)
			continue
		}
		break
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if status != wgpu.BufferMapAsyncStatusSuccess {
		s.state = StateUnmapped
		if status == wgpu.BufferMapAsyncStatusDeviceLost {
			return fmt.Errorf("%w: map request aborted", device.ErrDeviceLost)
		}
		return fmt.Errorf("readback: map failed with status %v", status)
	}

	s.state = StateMapped
	return nil
}

func (s *stagingImpl) Read(fn func(data []byte) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateMapped {
		return fmt.Errorf("%w: read while %s", ErrBufferBusy, s.state)
	}
	return fn(s.m.mappedRange(s.buf.Size()))
}

func (s *stagingImpl) ReadPixels() ([]byte, error) {
	var out []byte
	err := s.Read(func(data []byte) error {
		out = resource.UnpadRows(data, s.layout)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *stagingImpl) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateMapRequested:
		return fmt.Errorf("%w: release before the device committed the mapping", ErrBufferBusy)
	case StateMapped:
		s.m.unmap()
		s.state = StateUnmapped
	}
	return nil
}

func (s *stagingImpl) Destroy() {
	s.buf.Release()
}
