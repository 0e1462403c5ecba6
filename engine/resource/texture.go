package resource

import "github.com/cogentcore/webgpu/wgpu"

// TextureSpec is an immutable description of a 2D texture to create.
type TextureSpec struct {
	// Label is the debug label attached to the texture.
	Label string

	// Width and Height are the texture dimensions in texels. Both must be
	// greater than zero.
	Width  uint32
	Height uint32

	// Format is the texel format.
	Format wgpu.TextureFormat

	// Usage is the set of usages the texture will be bound with. Must be
	// non-empty and supported by the format.
	Usage wgpu.TextureUsage
}

// texture is the implementation of the Texture interface.
type texture struct {
	spec      TextureSpec
	raw       *wgpu.Texture
	view      *wgpu.TextureView
	texelSize uint32
}

// Texture is a created 2D texture together with a default full-resource view.
// The creator owns the texture for at least as long as any submitted sequence
// references it; the view is a non-owning reference released together with
// the texture.
type Texture interface {
	// Spec returns the descriptor the texture was created from.
	//
	// Returns:
	//   - TextureSpec: the creation descriptor
	Spec() TextureSpec

	// Raw returns the underlying texture handle.
	//
	// Returns:
	//   - *wgpu.Texture: the texture handle
	Raw() *wgpu.Texture

	// View returns the default full-resource view of the texture.
	//
	// Returns:
	//   - *wgpu.TextureView: the texture view
	View() *wgpu.TextureView

	// TexelSize returns the byte size of one texel in the texture's format.
	//
	// Returns:
	//   - uint32: bytes per texel
	TexelSize() uint32

	// Release frees the view and the texture. The texture must not be
	// referenced by any in-flight sequence when released.
	Release()
}

var _ Texture = &texture{}

func (t *texture) Spec() TextureSpec {
	return t.spec
}

func (t *texture) Raw() *wgpu.Texture {
	return t.raw
}

func (t *texture) View() *wgpu.TextureView {
	return t.view
}

func (t *texture) TexelSize() uint32 {
	return t.texelSize
}

func (t *texture) Release() {
	t.view.Release()
	t.raw.Release()
}
