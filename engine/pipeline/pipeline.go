package pipeline

import (
	"fmt"

	"github.com/calderagpu/caldera/engine/device"
	"github.com/calderagpu/caldera/engine/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment entry points.
	PipelineTypeRender
)

// pipelineImpl is the implementation of the Pipeline interface. It holds the
// compiled pipeline object, the reflected layout table used to validate bind
// groups, and the fixed-function configuration it was built with.
type pipelineImpl struct {
	ctx          device.Context
	key          string
	pipelineType PipelineType

	renderPipeline  *wgpu.RenderPipeline
	computePipeline *wgpu.ComputePipeline

	shaderModules  []*wgpu.ShaderModule
	pipelineLayout *wgpu.PipelineLayout

	// layoutDescriptors is the capability table produced once at build time;
	// every bind group created against this pipeline is checked against it.
	layoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindGroupLayouts  map[int]*wgpu.BindGroupLayout
	workgroupSize     [3]uint32

	// fixed-function render configuration, set by options before compilation
	colorFormat     wgpu.TextureFormat
	depthFormat     wgpu.TextureFormat
	depthEnabled    bool
	topology        wgpu.PrimitiveTopology
	cullMode        wgpu.CullMode
	frontFace       wgpu.FrontFace
	writeMask       wgpu.ColorWriteMask
	blendState      *wgpu.BlendState
	explicitLayouts map[int]wgpu.BindGroupLayoutDescriptor
}

// Pipeline is a compiled, immutable combination of shader stages and
// fixed-function state. It is created once and reused across many command
// sequences. Bind groups are created through the pipeline so they can be
// validated against the layout reflected from the shaders at build time.
type Pipeline interface {
	// Key returns the unique key for this pipeline, used for labels and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	Key() string

	// Type returns the type of the pipeline.
	//
	// Returns:
	//   - PipelineType: PipelineTypeRender or PipelineTypeCompute
	Type() PipelineType

	// RenderPipeline returns the underlying render pipeline, or nil for a
	// compute pipeline.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the render pipeline object
	RenderPipeline() *wgpu.RenderPipeline

	// ComputePipeline returns the underlying compute pipeline, or nil for a
	// render pipeline.
	//
	// Returns:
	//   - *wgpu.ComputePipeline: the compute pipeline object
	ComputePipeline() *wgpu.ComputePipeline

	// WorkgroupSize returns the workgroup footprint declared by the compute
	// shader, or [0, 0, 0] for render pipelines.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// LayoutDescriptor returns the reflected bind group layout descriptor for
	// a group index.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor for the group
	//   - bool: false if the pipeline declares no such group
	LayoutDescriptor(group int) (wgpu.BindGroupLayoutDescriptor, bool)

	// CreateBindGroup creates a bind group for the given group index after
	// validating the entries against the pipeline's reflected layout: the
	// entry count and every binding index must match the shader's
	// declarations.
	//
	// Parameters:
	//   - group: the bind group index
	//   - label: the debug label for the bind group
	//   - entries: the concrete resource bindings
	//
	// Returns:
	//   - *wgpu.BindGroup: the created bind group
	//   - error: an *IncompatibleBindingError if the entries disagree with
	//     the reflected layout
	CreateBindGroup(group int, label string, entries []wgpu.BindGroupEntry) (*wgpu.BindGroup, error)

	// Release frees the pipeline and the layout objects it owns. Bind groups
	// created from the pipeline remain owned by their creators.
	Release()
}

var _ Pipeline = &pipelineImpl{}

// NewRenderPipeline compiles a render pipeline from a vertex and a fragment
// shader plus fixed-function options. Vertex buffer layouts and bind group
// layouts are derived from shader reflection; the stages' binding tables are
// merged, and a disagreement on any binding's shape fails with
// *IncompatibleBindingError. Defaults: triangle-list topology,
// counter-clockwise front face, back-face culling, an RGBA8Unorm color
// target, no blending, and no depth testing unless a depth format is supplied.
//
// Parameters:
//   - ctx: the device context to compile on
//   - key: the unique key for this pipeline
//   - vs: the vertex shader
//   - fs: the fragment shader
//   - opts: a variadic list of Option functions configuring fixed-function state
//
// Returns:
//   - Pipeline: the compiled render pipeline
//   - error: an error if reflection merging or compilation fails
func NewRenderPipeline(ctx device.Context, key string, vs, fs shader.Shader, opts ...Option) (Pipeline, error) {
	if vs == nil || vs.ShaderType() != shader.ShaderTypeVertex {
		return nil, fmt.Errorf("pipeline %q: a vertex shader is required", key)
	}
	if fs == nil || fs.ShaderType() != shader.ShaderTypeFragment {
		return nil, fmt.Errorf("pipeline %q: a fragment shader is required", key)
	}

	p := newDefaultPipeline(ctx, key, PipelineTypeRender)
	for _, opt := range opts {
		opt(p)
	}

	merged, err := mergeBindGroupLayouts(vs.BindGroupLayoutDescriptors(), fs.BindGroupLayoutDescriptors())
	if err != nil {
		return nil, err
	}
	for g, desc := range p.explicitLayouts {
		merged[g] = desc
	}
	p.layoutDescriptors = merged

	if err := p.buildLayouts(); err != nil {
		return nil, err
	}

	dev := ctx.Device()
	vsModule, err := dev.CreateShaderModule(vs.Module())
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("pipeline %q: failed to compile vertex shader: %w", key, err)
	}
	p.shaderModules = append(p.shaderModules, vsModule)
	fsModule, err := dev.CreateShaderModule(fs.Module())
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("pipeline %q: failed to compile fragment shader: %w", key, err)
	}
	p.shaderModules = append(p.shaderModules, fsModule)

	colorTarget := wgpu.ColorTargetState{
		Format:    p.colorFormat,
		WriteMask: p.writeMask,
		Blend:     p.blendState,
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  key + " Render Pipeline",
		Layout: p.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vsModule,
			EntryPoint: vs.EntryPoint(),
			Buffers:    vs.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fsModule,
			EntryPoint: fs.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{colorTarget},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
	if p.depthEnabled {
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:            p.depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := dev.CreateRenderPipeline(desc)
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("pipeline %q: failed to create render pipeline: %w", key, err)
	}
	p.renderPipeline = created

	return p, nil
}

// NewComputePipeline compiles a compute pipeline from a compute shader. The
// bind group layouts are derived from shader reflection and the workgroup
// footprint is taken from the shader's @workgroup_size declaration.
//
// Parameters:
//   - ctx: the device context to compile on
//   - key: the unique key for this pipeline
//   - cs: the compute shader
//   - opts: a variadic list of Option functions (explicit layouts only)
//
// Returns:
//   - Pipeline: the compiled compute pipeline
//   - error: an error if compilation fails
func NewComputePipeline(ctx device.Context, key string, cs shader.Shader, opts ...Option) (Pipeline, error) {
	if cs == nil || cs.ShaderType() != shader.ShaderTypeCompute {
		return nil, fmt.Errorf("pipeline %q: a compute shader is required", key)
	}

	p := newDefaultPipeline(ctx, key, PipelineTypeCompute)
	for _, opt := range opts {
		opt(p)
	}
	p.workgroupSize = cs.WorkgroupSize()

	p.layoutDescriptors = make(map[int]wgpu.BindGroupLayoutDescriptor, len(cs.BindGroupLayoutDescriptors()))
	for g, desc := range cs.BindGroupLayoutDescriptors() {
		p.layoutDescriptors[g] = desc
	}
	for g, desc := range p.explicitLayouts {
		p.layoutDescriptors[g] = desc
	}

	if err := p.buildLayouts(); err != nil {
		return nil, err
	}

	dev := ctx.Device()
	module, err := dev.CreateShaderModule(cs.Module())
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("pipeline %q: failed to compile compute shader: %w", key, err)
	}
	p.shaderModules = append(p.shaderModules, module)

	created, err := dev.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  key + " Compute Pipeline",
		Layout: p.pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: cs.EntryPoint(),
		},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("pipeline %q: failed to create compute pipeline: %w", key, err)
	}
	p.computePipeline = created

	return p, nil
}

func newDefaultPipeline(ctx device.Context, key string, pipelineType PipelineType) *pipelineImpl {
	return &pipelineImpl{
		ctx:          ctx,
		key:          key,
		pipelineType: pipelineType,
		colorFormat:  wgpu.TextureFormatRGBA8Unorm,
		topology:     wgpu.PrimitiveTopologyTriangleList,
		cullMode:     wgpu.CullModeBack,
		frontFace:    wgpu.FrontFaceCCW,
		writeMask:    wgpu.ColorWriteMaskAll,
	}
}

// buildLayouts turns the merged layout descriptors into GPU bind group layout
// objects and a pipeline layout. Group indices must be dense from zero for
// the pipeline layout slice; missing groups are an error.
func (p *pipelineImpl) buildLayouts() error {
	dev := p.ctx.Device()

	maxGroup := -1
	for g := range p.layoutDescriptors {
		if g > maxGroup {
			maxGroup = g
		}
	}

	p.bindGroupLayouts = make(map[int]*wgpu.BindGroupLayout, len(p.layoutDescriptors))
	ordered := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g := 0; g <= maxGroup; g++ {
		desc, ok := p.layoutDescriptors[g]
		if !ok {
			return fmt.Errorf("pipeline %q: bind group indices must be dense, group %d is missing", p.key, g)
		}
		layout, err := dev.CreateBindGroupLayout(&desc)
		if err != nil {
			return fmt.Errorf("pipeline %q: failed to create bind group layout for group %d: %w", p.key, g, err)
		}
		p.bindGroupLayouts[g] = layout
		ordered[g] = layout
	}

	pipelineLayout, err := dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.key,
		BindGroupLayouts: ordered,
	})
	if err != nil {
		return fmt.Errorf("pipeline %q: failed to create pipeline layout: %w", p.key, err)
	}
	p.pipelineLayout = pipelineLayout

	return nil
}

func (p *pipelineImpl) Key() string {
	return p.key
}

func (p *pipelineImpl) Type() PipelineType {
	return p.pipelineType
}

func (p *pipelineImpl) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipelineImpl) ComputePipeline() *wgpu.ComputePipeline {
	return p.computePipeline
}

func (p *pipelineImpl) WorkgroupSize() [3]uint32 {
	return p.workgroupSize
}

func (p *pipelineImpl) LayoutDescriptor(group int) (wgpu.BindGroupLayoutDescriptor, bool) {
	desc, ok := p.layoutDescriptors[group]
	return desc, ok
}

func (p *pipelineImpl) CreateBindGroup(group int, label string, entries []wgpu.BindGroupEntry) (*wgpu.BindGroup, error) {
	if err := validateBindGroupEntries(group, p.layoutDescriptors, entries); err != nil {
		return nil, err
	}

	bindGroup, err := p.ctx.Device().CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label,
		Layout:  p.bindGroupLayouts[group],
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: failed to create bind group %q: %w", p.key, label, err)
	}
	return bindGroup, nil
}

func (p *pipelineImpl) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
	for _, m := range p.shaderModules {
		m.Release()
	}
	p.shaderModules = nil
	if p.pipelineLayout != nil {
		p.pipelineLayout.Release()
		p.pipelineLayout = nil
	}
	for _, l := range p.bindGroupLayouts {
		l.Release()
	}
	p.bindGroupLayouts = nil
}

// validateBindGroupEntries checks concrete bind group entries against the
// reflected layout for a group: the group must exist, the entry count must
// match, and every entry's binding index must be declared.
func validateBindGroupEntries(group int, layouts map[int]wgpu.BindGroupLayoutDescriptor, entries []wgpu.BindGroupEntry) error {
	desc, ok := layouts[group]
	if !ok {
		return &IncompatibleBindingError{
			Group:  group,
			Reason: "pipeline declares no such bind group",
		}
	}
	if len(entries) != len(desc.Entries) {
		return &IncompatibleBindingError{
			Group:  group,
			Reason: fmt.Sprintf("expected %d entries, got %d", len(desc.Entries), len(entries)),
		}
	}

	declared := make(map[uint32]bool, len(desc.Entries))
	for _, e := range desc.Entries {
		declared[e.Binding] = true
	}
	for _, e := range entries {
		if !declared[e.Binding] {
			return &IncompatibleBindingError{
				Group:   group,
				Binding: e.Binding,
				Reason:  "binding not declared by the shader",
			}
		}
	}
	return nil
}
