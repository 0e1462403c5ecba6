package present

import (
	"errors"
	"fmt"
	"sync"

	"github.com/calderagpu/caldera/engine/device"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoSurface indicates the device context was acquired headless, without a
// surface to present to.
var ErrNoSurface = errors.New("device context has no surface")

// ErrFrameHeld indicates a frame was acquired while the previous frame had
// not been presented yet.
var ErrFrameHeld = errors.New("previous frame not yet presented")

// presenterImpl is the implementation of the Presenter interface.
type presenterImpl struct {
	mu sync.Mutex

	ctx     device.Context
	surface *wgpu.Surface
	format  wgpu.TextureFormat

	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
}

// Presenter owns the configured swapchain over a window surface. Frames are
// acquired one at a time: AcquireFrame hands out the current swapchain view,
// Present displays it and releases the acquisition.
type Presenter interface {
	// Format returns the surface texture format. Render pipelines targeting
	// the surface must be built with this color format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the configured surface format
	Format() wgpu.TextureFormat

	// Configure sizes the swapchain. Must be called before the first frame
	// and again whenever the window framebuffer is resized.
	//
	// Parameters:
	//   - width: the framebuffer width in pixels
	//   - height: the framebuffer height in pixels
	Configure(width, height int)

	// AcquireFrame takes the next swapchain image and returns its view for
	// use as a render pass color target. Only one frame may be held at a
	// time.
	//
	// Returns:
	//   - *wgpu.TextureView: the swapchain view to render into
	//   - error: ErrFrameHeld if a frame is outstanding, or an acquisition error
	AcquireFrame() (*wgpu.TextureView, error)

	// Present displays the held frame and releases it. A no-op when no frame
	// is held.
	Present()

	// Release drops any held frame. The surface itself is owned and released
	// by the device context.
	Release()
}

var _ Presenter = &presenterImpl{}

// NewPresenter wraps the device context's surface in a presenter. The context
// must have been acquired with device.WithSurfaceDescriptor.
//
// Parameters:
//   - ctx: the device context owning the surface
//
// Returns:
//   - Presenter: the presenter, not yet configured
//   - error: ErrNoSurface if the context is headless
func NewPresenter(ctx device.Context) (Presenter, error) {
	surface := ctx.Surface()
	if surface == nil {
		return nil, ErrNoSurface
	}
	return &presenterImpl{ctx: ctx, surface: surface}, nil
}

func (p *presenterImpl) Format() wgpu.TextureFormat {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.format
}

func (p *presenterImpl) Configure(width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	capabilities := p.surface.GetCapabilities(p.ctx.Adapter())
	p.format = capabilities.Formats[0]

	p.surface.Configure(p.ctx.Adapter(), p.ctx.Device(), &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      p.format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

func (p *presenterImpl) AcquireFrame() (*wgpu.TextureView, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Acquiring a second swapchain image while one is held trips wgpu-native
	// validation ("Surface image is already acquired").
	if p.frameTexture != nil {
		return nil, ErrFrameHeld
	}

	texture, err := p.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire swapchain image: %w", err)
	}

	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("failed to create swapchain view: %w", err)
	}

	p.frameTexture = texture
	p.frameView = view
	return view, nil
}

func (p *presenterImpl) Present() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frameTexture == nil {
		return
	}

	p.surface.Present()

	p.frameView.Release()
	p.frameView = nil
	p.frameTexture.Release()
	p.frameTexture = nil
}

func (p *presenterImpl) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frameView != nil {
		p.frameView.Release()
		p.frameView = nil
	}
	if p.frameTexture != nil {
		p.frameTexture.Release()
		p.frameTexture = nil
	}
}
