package resource

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutForAlignedWidth(t *testing.T) {
	// 256 texels * 4 bytes = 1024, already a multiple of the row alignment
	layout := LayoutFor(256, 256, 4)

	assert.Equal(t, uint32(1024), layout.BytesPerRow)
	assert.Equal(t, uint32(1024), layout.UnpaddedBytesPerRow)
	assert.Equal(t, uint32(256), layout.RowsPerImage)
	assert.Equal(t, uint64(1024*256), layout.Size)
}

func TestLayoutForPadsOddWidth(t *testing.T) {
	// 100 texels * 4 bytes = 400, padded up to 512
	layout := LayoutFor(100, 64, 4)

	assert.Equal(t, uint32(512), layout.BytesPerRow)
	assert.Equal(t, uint32(400), layout.UnpaddedBytesPerRow)
	assert.Equal(t, uint64(512*64), layout.Size)
	assert.Zero(t, layout.BytesPerRow%wgpu.CopyBytesPerRowAlignment)
}

func TestUnpadRows(t *testing.T) {
	layout := StagingLayout{
		BytesPerRow:         8,
		UnpaddedBytesPerRow: 3,
		RowsPerImage:        2,
		Size:                16,
	}
	data := []byte{
		1, 2, 3, 0, 0, 0, 0, 0,
		4, 5, 6, 0, 0, 0, 0, 0,
	}

	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, UnpadRows(data, layout))
}

func TestTexelSize(t *testing.T) {
	size, err := TexelSize(wgpu.TextureFormatRGBA8Unorm)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), size)

	size, err = TexelSize(wgpu.TextureFormatR32Uint)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), size)

	size, err = TexelSize(wgpu.TextureFormatRGBA32Float)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), size)

	_, err = TexelSize(wgpu.TextureFormatBC1RGBAUnorm)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}

func TestValidateTextureSpec(t *testing.T) {
	valid := TextureSpec{
		Label:  "target",
		Width:  256,
		Height: 256,
		Format: wgpu.TextureFormatRGBA8Unorm,
		Usage:  wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	}
	assert.NoError(t, validateTextureSpec(valid))

	zeroDim := valid
	zeroDim.Width = 0
	assert.ErrorIs(t, validateTextureSpec(zeroDim), ErrInvalidDescriptor)

	noUsage := valid
	noUsage.Usage = wgpu.TextureUsageNone
	assert.ErrorIs(t, validateTextureSpec(noUsage), ErrInvalidDescriptor)

	depthAsStorage := valid
	depthAsStorage.Format = wgpu.TextureFormatDepth32Float
	depthAsStorage.Usage = wgpu.TextureUsageStorageBinding
	assert.ErrorIs(t, validateTextureSpec(depthAsStorage), ErrInvalidDescriptor)

	storageGrid := valid
	storageGrid.Format = wgpu.TextureFormatR32Uint
	storageGrid.Usage = wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding |
		wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst
	assert.NoError(t, validateTextureSpec(storageGrid))
}

func TestValidateBufferSpec(t *testing.T) {
	assert.NoError(t, validateBufferSpec(BufferSpec{
		Label: "vertices",
		Size:  72,
		Usage: wgpu.BufferUsageVertex,
	}))
	assert.ErrorIs(t, validateBufferSpec(BufferSpec{Label: "empty", Usage: wgpu.BufferUsageVertex}), ErrInvalidDescriptor)
	assert.ErrorIs(t, validateBufferSpec(BufferSpec{Label: "no usage", Size: 16}), ErrInvalidDescriptor)
}

func TestValidateContentsSizeMismatch(t *testing.T) {
	spec := ContentsSpec{
		Label:         "vertices",
		ElementCount:  3,
		ElementStride: 24,
		Usage:         wgpu.BufferUsageVertex,
	}

	assert.NoError(t, validateContents(spec, 72))

	err := validateContents(spec, 70)
	var mismatch *SizeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, uint64(72), mismatch.Want)
	assert.Equal(t, uint64(70), mismatch.Got)
	assert.Contains(t, mismatch.Error(), "want 72")
}
