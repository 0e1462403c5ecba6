package resource

import (
	"fmt"

	"github.com/calderagpu/caldera/common"
	"github.com/calderagpu/caldera/engine/device"
	"github.com/cogentcore/webgpu/wgpu"
)

// StagingLayout describes how texture rows are laid out inside a staging
// buffer. Copies into a buffer must pad each row to the device's minimum row
// alignment, so readers need both the padded and the unpadded row widths to
// recover tightly packed pixels.
type StagingLayout struct {
	// BytesPerRow is the padded row stride, a multiple of
	// wgpu.CopyBytesPerRowAlignment.
	BytesPerRow uint32

	// UnpaddedBytesPerRow is the tight row width (texel size times width).
	UnpaddedBytesPerRow uint32

	// RowsPerImage is the number of rows, equal to the texture height.
	RowsPerImage uint32

	// Size is the total staging buffer size in bytes.
	Size uint64
}

// builderImpl is the implementation of the Builder interface.
type builderImpl struct {
	ctx device.Context
}

// Builder constructs validated textures and buffers on a device context.
// All creation calls are synchronous and either succeed or fail
// deterministically for a given descriptor.
type Builder interface {
	// CreateTexture creates a 2D texture and its default view from the given
	// descriptor. The descriptor is validated before any device call: both
	// dimensions must be positive, the usage set non-empty, and the format
	// must support every requested usage.
	//
	// Parameters:
	//   - spec: the texture descriptor
	//
	// Returns:
	//   - Texture: the created texture
	//   - error: ErrInvalidDescriptor (wrapped) on validation failure
	CreateTexture(spec TextureSpec) (Texture, error)

	// CreateBuffer creates an uninitialized buffer from the given descriptor.
	//
	// Parameters:
	//   - spec: the buffer descriptor
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: ErrInvalidDescriptor (wrapped) on validation failure
	CreateBuffer(spec BufferSpec) (Buffer, error)

	// CreateBufferWithContents creates a buffer initialized with the given
	// bytes. The contents length must equal ElementCount * ElementStride
	// exactly.
	//
	// Parameters:
	//   - spec: the contents descriptor
	//   - contents: the initial bytes
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: a *SizeMismatchError if the contents length disagrees with
	//     the descriptor, or ErrInvalidDescriptor (wrapped) on other
	//     validation failures
	CreateBufferWithContents(spec ContentsSpec, contents []byte) (Buffer, error)

	// CreateStagingFor creates a host-readable staging buffer sized to
	// receive a full copy of the given texture, with rows padded to the
	// device's minimum row alignment. The returned layout describes the
	// padding so readers can recover tight rows.
	//
	// Parameters:
	//   - t: the texture the staging buffer will receive copies of
	//
	// Returns:
	//   - Buffer: the staging buffer (copy-destination + host-readable usage)
	//   - StagingLayout: the padded row layout of the buffer
	//   - error: an error if the buffer could not be created
	CreateStagingFor(t Texture) (Buffer, StagingLayout, error)
}

var _ Builder = &builderImpl{}

// NewBuilder creates a resource builder on the given device context.
//
// Parameters:
//   - ctx: the device context resources are created on
//
// Returns:
//   - Builder: the resource builder
func NewBuilder(ctx device.Context) Builder {
	if ctx == nil {
		panic("resource: builder requires a device context")
	}
	return &builderImpl{ctx: ctx}
}

func (b *builderImpl) CreateTexture(spec TextureSpec) (Texture, error) {
	if err := validateTextureSpec(spec); err != nil {
		return nil, err
	}
	texelSize, err := TexelSize(spec.Format)
	if err != nil {
		return nil, err
	}

	raw, err := b.ctx.Device().CreateTexture(&wgpu.TextureDescriptor{
		Label: spec.Label,
		Size: wgpu.Extent3D{
			Width:              spec.Width,
			Height:             spec.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        spec.Format,
		Usage:         spec.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("resource: failed to create texture %q: %w", spec.Label, err)
	}

	view, err := raw.CreateView(nil)
	if err != nil {
		raw.Release()
		return nil, fmt.Errorf("resource: failed to create view for %q: %w", spec.Label, err)
	}

	return &texture{
		spec:      spec,
		raw:       raw,
		view:      view,
		texelSize: texelSize,
	}, nil
}

func (b *builderImpl) CreateBuffer(spec BufferSpec) (Buffer, error) {
	if err := validateBufferSpec(spec); err != nil {
		return nil, err
	}

	raw, err := b.ctx.Device().CreateBuffer(&wgpu.BufferDescriptor{
		Label: spec.Label,
		Size:  spec.Size,
		Usage: spec.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("resource: failed to create buffer %q: %w", spec.Label, err)
	}

	return &buffer{spec: spec, raw: raw}, nil
}

func (b *builderImpl) CreateBufferWithContents(spec ContentsSpec, contents []byte) (Buffer, error) {
	if err := validateContents(spec, uint64(len(contents))); err != nil {
		return nil, err
	}

	raw, err := b.ctx.Device().CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    spec.Label,
		Contents: contents,
		Usage:    spec.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("resource: failed to create buffer %q: %w", spec.Label, err)
	}

	return &buffer{
		spec: BufferSpec{
			Label: spec.Label,
			Size:  uint64(len(contents)),
			Usage: spec.Usage,
		},
		raw: raw,
	}, nil
}

func (b *builderImpl) CreateStagingFor(t Texture) (Buffer, StagingLayout, error) {
	ts := t.Spec()
	layout := LayoutFor(ts.Width, ts.Height, t.TexelSize())

	staging, err := b.CreateBuffer(BufferSpec{
		Label: ts.Label + " staging",
		Size:  layout.Size,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return nil, StagingLayout{}, err
	}
	return staging, layout, nil
}

// LayoutFor computes the padded staging layout for a texture of the given
// dimensions and texel size. Rows are padded to wgpu.CopyBytesPerRowAlignment
// as required for texture-to-buffer copies.
//
// Parameters:
//   - width: the texture width in texels
//   - height: the texture height in texels
//   - texelSize: bytes per texel
//
// Returns:
//   - StagingLayout: the padded row layout
func LayoutFor(width, height, texelSize uint32) StagingLayout {
	unpadded := width * texelSize
	padded := uint32(common.AlignUp(uint64(unpadded), wgpu.CopyBytesPerRowAlignment))
	return StagingLayout{
		BytesPerRow:         padded,
		UnpaddedBytesPerRow: unpadded,
		RowsPerImage:        height,
		Size:                uint64(padded) * uint64(height),
	}
}

// UnpadRows copies the tight rows out of padded staging bytes. If the layout
// carries no padding the input is returned as a copy of the exact image size.
//
// Parameters:
//   - data: the raw staging buffer bytes
//   - layout: the staging layout the bytes were written with
//
// Returns:
//   - []byte: tightly packed rows, UnpaddedBytesPerRow * RowsPerImage long
func UnpadRows(data []byte, layout StagingLayout) []byte {
	out := make([]byte, uint64(layout.UnpaddedBytesPerRow)*uint64(layout.RowsPerImage))
	for row := uint32(0); row < layout.RowsPerImage; row++ {
		src := uint64(row) * uint64(layout.BytesPerRow)
		dst := uint64(row) * uint64(layout.UnpaddedBytesPerRow)
		copy(out[dst:dst+uint64(layout.UnpaddedBytesPerRow)], data[src:src+uint64(layout.UnpaddedBytesPerRow)])
	}
	return out
}

func validateTextureSpec(spec TextureSpec) error {
	if spec.Width == 0 || spec.Height == 0 {
		return fmt.Errorf("%w: texture %q has zero dimension %dx%d", ErrInvalidDescriptor, spec.Label, spec.Width, spec.Height)
	}
	if spec.Usage == wgpu.TextureUsageNone {
		return fmt.Errorf("%w: texture %q has empty usage", ErrInvalidDescriptor, spec.Label)
	}
	return validateFormatUsage(spec.Format, spec.Usage)
}

func validateBufferSpec(spec BufferSpec) error {
	if spec.Size == 0 {
		return fmt.Errorf("%w: buffer %q has zero size", ErrInvalidDescriptor, spec.Label)
	}
	if spec.Usage == wgpu.BufferUsageNone {
		return fmt.Errorf("%w: buffer %q has empty usage", ErrInvalidDescriptor, spec.Label)
	}
	return nil
}

func validateContents(spec ContentsSpec, got uint64) error {
	want := spec.ElementCount * spec.ElementStride
	if want == 0 {
		return fmt.Errorf("%w: buffer %q has zero element extent", ErrInvalidDescriptor, spec.Label)
	}
	if spec.Usage == wgpu.BufferUsageNone {
		return fmt.Errorf("%w: buffer %q has empty usage", ErrInvalidDescriptor, spec.Label)
	}
	if got != want {
		return &SizeMismatchError{Want: want, Got: got}
	}
	return nil
}
