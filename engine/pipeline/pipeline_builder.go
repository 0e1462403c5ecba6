package pipeline

import "github.com/cogentcore/webgpu/wgpu"

// Option is a functional option used to configure a Pipeline during construction.
type Option func(*pipelineImpl)

// WithColorFormat sets the color target format for a render pipeline.
// Defaults to RGBA8Unorm.
//
// Parameters:
//   - format: the color target format
//
// Returns:
//   - Option: a function that sets the color format
func WithColorFormat(format wgpu.TextureFormat) Option {
	return func(p *pipelineImpl) {
		p.colorFormat = format
	}
}

// WithDepthFormat enables depth testing against a depth target of the given
// format. Nearer fragments win (Less comparison) and resolved depth is
// written back to the target.
//
// Parameters:
//   - format: the depth attachment format (e.g. wgpu.TextureFormatDepth32Float)
//
// Returns:
//   - Option: a function that enables depth testing with the given format
func WithDepthFormat(format wgpu.TextureFormat) Option {
	return func(p *pipelineImpl) {
		p.depthFormat = format
		p.depthEnabled = true
	}
}

// WithTopology sets the primitive topology. Defaults to triangle list.
//
// Parameters:
//   - topology: the primitive topology
//
// Returns:
//   - Option: a function that sets the topology
func WithTopology(topology wgpu.PrimitiveTopology) Option {
	return func(p *pipelineImpl) {
		p.topology = topology
	}
}

// WithCullMode sets the face culling mode. Defaults to back-face culling.
//
// Parameters:
//   - mode: the cull mode (e.g. wgpu.CullModeNone, wgpu.CullModeFront)
//
// Returns:
//   - Option: a function that sets the cull mode
func WithCullMode(mode wgpu.CullMode) Option {
	return func(p *pipelineImpl) {
		p.cullMode = mode
	}
}

// WithFrontFace sets the front face winding order. Defaults to counter-clockwise.
//
// Parameters:
//   - frontFace: the winding order (wgpu.FrontFaceCCW or wgpu.FrontFaceCW)
//
// Returns:
//   - Option: a function that sets the front face
func WithFrontFace(frontFace wgpu.FrontFace) Option {
	return func(p *pipelineImpl) {
		p.frontFace = frontFace
	}
}

// WithBlendState enables blending with the given state. By default the color
// target is written without blending.
//
// Parameters:
//   - blendState: the blend state to apply to the color target
//
// Returns:
//   - Option: a function that sets the blend state
func WithBlendState(blendState *wgpu.BlendState) Option {
	return func(p *pipelineImpl) {
		p.blendState = blendState
	}
}

// WithWriteMask sets the color write mask. Defaults to all channels.
//
// Parameters:
//   - writeMask: the color write mask
//
// Returns:
//   - Option: a function that sets the write mask
func WithWriteMask(writeMask wgpu.ColorWriteMask) Option {
	return func(p *pipelineImpl) {
		p.writeMask = writeMask
	}
}

// WithExplicitLayout overrides the reflected bind group layout for one group
// index. Reflection remains in effect for all other groups.
//
// Parameters:
//   - group: the bind group index to override
//   - desc: the layout descriptor to use for the group
//
// Returns:
//   - Option: a function that records the explicit layout
func WithExplicitLayout(group int, desc wgpu.BindGroupLayoutDescriptor) Option {
	return func(p *pipelineImpl) {
		if p.explicitLayouts == nil {
			p.explicitLayouts = make(map[int]wgpu.BindGroupLayoutDescriptor)
		}
		p.explicitLayouts[group] = desc
	}
}
