package sequence

import (
	"errors"
	"fmt"
	"sync"

	"github.com/calderagpu/caldera/common"
	"github.com/calderagpu/caldera/engine/device"
	"github.com/calderagpu/caldera/engine/pipeline"
	"github.com/calderagpu/caldera/engine/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrSequenceConsumed indicates that a command sequence was submitted or
// taken more than once. Sequences are single-use by contract.
var ErrSequenceConsumed = errors.New("command sequence already consumed")

// ErrSequenceFinished indicates that a pass was added to a builder after
// Finish was called.
var ErrSequenceFinished = errors.New("sequence builder already finished")

// CopyDst is the destination side of a copy into a buffer. Implementations
// may refuse the write while the buffer is unavailable, such as a staging
// buffer that is mapped or awaiting a map.
type CopyDst interface {
	// Raw returns the underlying buffer handle.
	//
	// Returns:
	//   - *wgpu.Buffer: the destination buffer
	Raw() *wgpu.Buffer

	// Size returns the destination size in bytes.
	//
	// Returns:
	//   - uint64: the size in bytes
	Size() uint64

	// Writable reports whether the buffer may be recorded as a copy
	// destination right now.
	//
	// Returns:
	//   - error: nil if writable, otherwise the reason it is busy
	Writable() error
}

// plainDst adapts a plain buffer into an always-writable copy destination.
type plainDst struct {
	buf resource.Buffer
}

func (d plainDst) Raw() *wgpu.Buffer { return d.buf.Raw() }
func (d plainDst) Size() uint64      { return d.buf.Size() }
func (d plainDst) Writable() error   { return nil }

// PlainDst wraps a buffer that carries no host-read gating as a copy
// destination.
//
// Parameters:
//   - buf: the destination buffer
//
// Returns:
//   - CopyDst: an always-writable destination view of the buffer
func PlainDst(buf resource.Buffer) CopyDst {
	return plainDst{buf: buf}
}

// RenderPassSpec describes one render pass to record: the pipeline, its
// color target (always cleared to ClearColor before drawing), an optional
// depth target (cleared to 1.0), the bind groups by group index, vertex
// buffers by slot, an optional index buffer, and the draw extent.
type RenderPassSpec struct {
	Label       string
	Pipeline    pipeline.Pipeline
	ColorTarget *wgpu.TextureView
	ClearColor  wgpu.Color
	DepthTarget *wgpu.TextureView

	BindGroups    []*wgpu.BindGroup
	VertexBuffers []resource.Buffer

	IndexBuffer resource.Buffer
	IndexFormat wgpu.IndexFormat

	// DrawCount is the index count when IndexBuffer is set, otherwise the
	// vertex count.
	DrawCount uint32

	// InstanceCount defaults to 1 when zero.
	InstanceCount uint32
}

// ComputePassSpec describes one compute pass to record.
type ComputePassSpec struct {
	Label     string
	Pipeline  pipeline.Pipeline
	BindGroup *wgpu.BindGroup

	// WorkgroupCounts is the dispatch extent. See WorkgroupCounts for the
	// covering computation.
	WorkgroupCounts [3]uint32
}

// builderImpl is the implementation of the Builder interface.
type builderImpl struct {
	label    string
	encoder  *wgpu.CommandEncoder
	finished bool
}

// Builder records passes and copies into an ordered command sequence.
// Recording is synchronous and non-blocking; passes execute on the device in
// recorded order once the finished sequence is submitted. A builder is used
// from a single goroutine and becomes inert after Finish.
type Builder interface {
	// AddRenderPass records a render pass. The color target is cleared to
	// the spec's clear color, the optional depth target to 1.0, then the
	// draw is issued with the spec's bind groups and buffers.
	//
	// Parameters:
	//   - spec: the render pass description
	//
	// Returns:
	//   - error: an error if the spec is malformed or the builder is finished
	AddRenderPass(spec RenderPassSpec) error

	// AddComputePass records a compute pass dispatching the spec's workgroup
	// counts.
	//
	// Parameters:
	//   - spec: the compute pass description
	//
	// Returns:
	//   - error: an error if the spec is malformed or the builder is finished
	AddComputePass(spec ComputePassSpec) error

	// AddCopyTextureToBuffer records a full copy of the texture into a
	// staging destination using the given padded row layout. The destination
	// is asked whether it is writable; a busy destination fails the call
	// without recording anything.
	//
	// Parameters:
	//   - src: the texture to copy from
	//   - dst: the destination buffer
	//   - layout: the padded row layout the destination was sized with
	//
	// Returns:
	//   - error: the destination's busy error, a size error, or a finished-builder error
	AddCopyTextureToBuffer(src resource.Texture, dst CopyDst, layout resource.StagingLayout) error

	// AddCopyBufferToBuffer records a copy of size bytes from the start of
	// src to the start of dst.
	//
	// Parameters:
	//   - src: the source buffer
	//   - dst: the destination buffer
	//   - size: the byte count to copy
	//
	// Returns:
	//   - error: the destination's busy error, a size error, or a finished-builder error
	AddCopyBufferToBuffer(src resource.Buffer, dst CopyDst, size uint64) error

	// Finish closes the builder and returns the single-use command sequence.
	// The builder must not be used afterwards.
	//
	// Returns:
	//   - Sequence: the finished sequence, ready for submission
	//   - error: an error if encoding failed or the builder was already finished
	Finish() (Sequence, error)
}

// sequenceImpl is the implementation of the Sequence interface.
type sequenceImpl struct {
	mu  sync.Mutex
	buf *wgpu.CommandBuffer
}

// Sequence is a finished, single-use ordered list of passes. Submitting it
// consumes it; a consumed sequence cannot be resubmitted or mutated.
type Sequence interface {
	device.CommandSequence
}

var (
	_ Builder  = &builderImpl{}
	_ Sequence = &sequenceImpl{}
)

// Begin opens a sequence builder on the given device context.
//
// Parameters:
//   - ctx: the device context commands are recorded against
//   - label: the debug label for the sequence
//
// Returns:
//   - Builder: the sequence builder
//   - error: an error if the command encoder could not be created
func Begin(ctx device.Context, label string) (Builder, error) {
	encoder, err := ctx.Device().CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{
		Label: label,
	})
	if err != nil {
		return nil, fmt.Errorf("sequence %q: failed to create command encoder: %w", label, err)
	}
	return &builderImpl{label: label, encoder: encoder}, nil
}

func (b *builderImpl) AddRenderPass(spec RenderPassSpec) error {
	if b.finished {
		return ErrSequenceFinished
	}
	if spec.Pipeline == nil || spec.Pipeline.Type() != pipeline.PipelineTypeRender {
		return fmt.Errorf("sequence %q: render pass %q requires a render pipeline", b.label, spec.Label)
	}
	if spec.ColorTarget == nil {
		return fmt.Errorf("sequence %q: render pass %q requires a color target", b.label, spec.Label)
	}

	desc := &wgpu.RenderPassDescriptor{
		Label: spec.Label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       spec.ColorTarget,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: spec.ClearColor,
			},
		},
	}
	if spec.DepthTarget != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            spec.DepthTarget,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		}
	}

	pass := b.encoder.BeginRenderPass(desc)
	pass.SetPipeline(spec.Pipeline.RenderPipeline())
	for group, bg := range spec.BindGroups {
		pass.SetBindGroup(uint32(group), bg, nil)
	}
	for slot, vb := range spec.VertexBuffers {
		pass.SetVertexBuffer(uint32(slot), vb.Raw(), 0, wgpu.WholeSize)
	}

	instances := common.Coalesce(spec.InstanceCount, 1)
	if spec.IndexBuffer != nil {
		pass.SetIndexBuffer(spec.IndexBuffer.Raw(), spec.IndexFormat, 0, wgpu.WholeSize)
		pass.DrawIndexed(spec.DrawCount, instances, 0, 0, 0)
	} else {
		pass.Draw(spec.DrawCount, instances, 0, 0)
	}
	pass.End()
	pass.Release()

	return nil
}

func (b *builderImpl) AddComputePass(spec ComputePassSpec) error {
	if b.finished {
		return ErrSequenceFinished
	}
	if spec.Pipeline == nil || spec.Pipeline.Type() != pipeline.PipelineTypeCompute {
		return fmt.Errorf("sequence %q: compute pass %q requires a compute pipeline", b.label, spec.Label)
	}

	pass := b.encoder.BeginComputePass(&wgpu.ComputePassDescriptor{
		Label: spec.Label,
	})
	pass.SetPipeline(spec.Pipeline.ComputePipeline())
	if spec.BindGroup != nil {
		pass.SetBindGroup(0, spec.BindGroup, nil)
	}
	pass.DispatchWorkgroups(spec.WorkgroupCounts[0], spec.WorkgroupCounts[1], spec.WorkgroupCounts[2])
	pass.End()
	pass.Release()

	return nil
}

func (b *builderImpl) AddCopyTextureToBuffer(src resource.Texture, dst CopyDst, layout resource.StagingLayout) error {
	if b.finished {
		return ErrSequenceFinished
	}
	if err := dst.Writable(); err != nil {
		return err
	}
	if dst.Size() < layout.Size {
		return fmt.Errorf("sequence %q: destination holds %d bytes, copy needs %d", b.label, dst.Size(), layout.Size)
	}

	spec := src.Spec()
	b.encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  src.Raw(),
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: dst.Raw(),
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  layout.BytesPerRow,
				RowsPerImage: layout.RowsPerImage,
			},
		},
		&wgpu.Extent3D{
			Width:              spec.Width,
			Height:             spec.Height,
			DepthOrArrayLayers: 1,
		},
	)

	return nil
}

func (b *builderImpl) AddCopyBufferToBuffer(src resource.Buffer, dst CopyDst, size uint64) error {
	if b.finished {
		return ErrSequenceFinished
	}
	if err := dst.Writable(); err != nil {
		return err
	}
	if size > src.Size() || size > dst.Size() {
		return fmt.Errorf("sequence %q: copy of %d bytes exceeds source (%d) or destination (%d)", b.label, size, src.Size(), dst.Size())
	}

	b.encoder.CopyBufferToBuffer(src.Raw(), 0, dst.Raw(), 0, size)

	return nil
}

func (b *builderImpl) Finish() (Sequence, error) {
	if b.finished {
		return nil, ErrSequenceFinished
	}
	b.finished = true

	buf, err := b.encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("sequence %q: failed to finish encoding: %w", b.label, err)
	}
	b.encoder.Release()
	b.encoder = nil

	return &sequenceImpl{buf: buf}, nil
}

func (s *sequenceImpl) Take() (*wgpu.CommandBuffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buf == nil {
		return nil, ErrSequenceConsumed
	}
	buf := s.buf
	s.buf = nil
	return buf, nil
}

// WorkgroupCounts computes the dispatch extent covering a width by height
// domain with the given workgroup footprint. Counts round up, so a domain
// that is not an exact multiple of the footprint is fully covered by a
// partial workgroup at the edge; shaders are expected to bounds-check
// invocations against the domain.
//
// Parameters:
//   - domainWidth: the domain width in elements
//   - domainHeight: the domain height in elements
//   - footprint: the workgroup size declared by the shader
//
// Returns:
//   - [3]uint32: the workgroup counts as [x, y, 1]
func WorkgroupCounts(domainWidth, domainHeight uint32, footprint [3]uint32) [3]uint32 {
	return [3]uint32{
		common.CeilDiv(domainWidth, footprint[0]),
		common.CeilDiv(domainHeight, footprint[1]),
		1,
	}
}
