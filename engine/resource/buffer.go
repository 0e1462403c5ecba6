package resource

import "github.com/cogentcore/webgpu/wgpu"

// BufferSpec is an immutable description of a linear buffer to create.
type BufferSpec struct {
	// Label is the debug label attached to the buffer.
	Label string

	// Size is the buffer size in bytes. Must be greater than zero.
	Size uint64

	// Usage is the set of usages the buffer will be bound with. Must be
	// non-empty.
	Usage wgpu.BufferUsage
}

// ContentsSpec describes a buffer initialized from host bytes. The contents
// length must equal ElementCount * ElementStride exactly.
type ContentsSpec struct {
	// Label is the debug label attached to the buffer.
	Label string

	// ElementCount is the number of elements the contents hold.
	ElementCount uint64

	// ElementStride is the byte stride of one element.
	ElementStride uint64

	// Usage is the set of usages the buffer will be bound with.
	Usage wgpu.BufferUsage
}

// buffer is the implementation of the Buffer interface.
type buffer struct {
	spec BufferSpec
	raw  *wgpu.Buffer
}

// Buffer is a created linear buffer. The creator owns it for at least as long
// as any submitted sequence references it.
type Buffer interface {
	// Spec returns the descriptor the buffer was created from. Buffers
	// created with contents report the derived size and the requested usage.
	//
	// Returns:
	//   - BufferSpec: the creation descriptor
	Spec() BufferSpec

	// Raw returns the underlying buffer handle.
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer handle
	Raw() *wgpu.Buffer

	// Size returns the buffer size in bytes.
	//
	// Returns:
	//   - uint64: the size in bytes
	Size() uint64

	// Release frees the buffer. It must not be referenced by any in-flight
	// sequence when released.
	Release()
}

var _ Buffer = &buffer{}

func (b *buffer) Spec() BufferSpec {
	return b.spec
}

func (b *buffer) Raw() *wgpu.Buffer {
	return b.raw
}

func (b *buffer) Size() uint64 {
	return b.spec.Size
}

func (b *buffer) Release() {
	b.raw.Release()
}
