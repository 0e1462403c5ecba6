package resource

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// texelSizeMap maps the uncompressed texture formats this engine works with
// to their per-texel byte size.
var texelSizeMap = map[wgpu.TextureFormat]uint32{
	wgpu.TextureFormatR8Unorm:      1,
	wgpu.TextureFormatR8Uint:       1,
	wgpu.TextureFormatR16Uint:      2,
	wgpu.TextureFormatR16Float:     2,
	wgpu.TextureFormatRG8Unorm:     2,
	wgpu.TextureFormatR32Uint:      4,
	wgpu.TextureFormatR32Sint:      4,
	wgpu.TextureFormatR32Float:     4,
	wgpu.TextureFormatRG16Float:    4,
	wgpu.TextureFormatRGBA8Unorm:   4,
	wgpu.TextureFormatRGBA8Snorm:   4,
	wgpu.TextureFormatRGBA8Uint:    4,
	wgpu.TextureFormatRGBA8Sint:    4,
	wgpu.TextureFormatBGRA8Unorm:   4,
	wgpu.TextureFormatDepth32Float: 4,
	wgpu.TextureFormatRG32Uint:     8,
	wgpu.TextureFormatRG32Float:    8,
	wgpu.TextureFormatRGBA16Uint:   8,
	wgpu.TextureFormatRGBA16Float:  8,
	wgpu.TextureFormatRGBA32Uint:   16,
	wgpu.TextureFormatRGBA32Float:  16,
}

// storageCapableFormats is the set of formats valid as storage texture
// bindings per the WebGPU specification.
var storageCapableFormats = map[wgpu.TextureFormat]bool{
	wgpu.TextureFormatRGBA8Unorm:  true,
	wgpu.TextureFormatRGBA8Snorm:  true,
	wgpu.TextureFormatRGBA8Uint:   true,
	wgpu.TextureFormatRGBA8Sint:   true,
	wgpu.TextureFormatRGBA16Uint:  true,
	wgpu.TextureFormatRGBA16Sint:  true,
	wgpu.TextureFormatRGBA16Float: true,
	wgpu.TextureFormatR32Uint:     true,
	wgpu.TextureFormatR32Sint:     true,
	wgpu.TextureFormatR32Float:    true,
	wgpu.TextureFormatRG32Uint:    true,
	wgpu.TextureFormatRG32Sint:    true,
	wgpu.TextureFormatRG32Float:   true,
	wgpu.TextureFormatRGBA32Uint:  true,
	wgpu.TextureFormatRGBA32Sint:  true,
	wgpu.TextureFormatRGBA32Float: true,
}

// renderableFormats is the set of color formats this engine accepts as render
// attachments.
var renderableFormats = map[wgpu.TextureFormat]bool{
	wgpu.TextureFormatRGBA8Unorm:  true,
	wgpu.TextureFormatBGRA8Unorm:  true,
	wgpu.TextureFormatRGBA16Float: true,
	wgpu.TextureFormatR32Uint:     true,
	wgpu.TextureFormatR32Float:    true,
}

// depthFormats is the set of formats usable as depth attachments.
var depthFormats = map[wgpu.TextureFormat]bool{
	wgpu.TextureFormatDepth16Unorm:        true,
	wgpu.TextureFormatDepth24Plus:         true,
	wgpu.TextureFormatDepth24PlusStencil8: true,
	wgpu.TextureFormatDepth32Float:        true,
}

// TexelSize returns the per-texel byte size of the given format.
//
// Parameters:
//   - format: the texture format to size
//
// Returns:
//   - uint32: the byte size of one texel
//   - error: ErrInvalidDescriptor (wrapped) if the format is not supported
func TexelSize(format wgpu.TextureFormat) (uint32, error) {
	size, ok := texelSizeMap[format]
	if !ok {
		return 0, fmt.Errorf("%w: no texel size for format %v", ErrInvalidDescriptor, format)
	}
	return size, nil
}

// IsDepthFormat reports whether the format is usable as a depth attachment.
//
// Parameters:
//   - format: the texture format to check
//
// Returns:
//   - bool: true for depth formats
func IsDepthFormat(format wgpu.TextureFormat) bool {
	return depthFormats[format]
}

// validateFormatUsage checks that a format supports every requested usage.
// Depth formats may not be storage bound; storage binding requires a
// storage-capable format; render attachment requires a renderable color
// format or a depth format.
func validateFormatUsage(format wgpu.TextureFormat, usage wgpu.TextureUsage) error {
	if usage&wgpu.TextureUsageStorageBinding != 0 && !storageCapableFormats[format] {
		return fmt.Errorf("%w: format %v does not support storage binding", ErrInvalidDescriptor, format)
	}
	if usage&wgpu.TextureUsageRenderAttachment != 0 && !renderableFormats[format] && !depthFormats[format] {
		return fmt.Errorf("%w: format %v is not renderable", ErrInvalidDescriptor, format)
	}
	return nil
}
