package shader

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies which pipeline stage a shader provides.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex indicates a shader containing a @vertex entry point.
	ShaderTypeVertex

	// ShaderTypeFragment indicates a shader containing a @fragment entry point.
	ShaderTypeFragment
)

// shader is the implementation of the Shader interface. It holds the parsed
// reflection data required for pipeline creation and bind group validation.
type shader struct {
	key              string
	source           string
	shaderType       ShaderType
	layoutsByGroup   map[int]wgpu.BindGroupLayoutDescriptor
	bindingNames     map[int]map[int]string
	vertexLayouts    []wgpu.VertexBufferLayout
	workgroupFootprint [3]uint32
	entryPoint       string
	module           *wgpu.ShaderModuleDescriptor
}

// Shader is a parsed WGSL shader stage. Construction reflects over the source
// to extract the entry point, vertex input layouts, bind group layout
// descriptors, and (for compute shaders) the workgroup footprint, so that
// pipelines can be built without any manually written layout descriptions.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for labels and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage this shader provides.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex, ShaderTypeFragment, or ShaderTypeCompute
	ShaderType() ShaderType

	// EntryPoint returns the entry point function name for this shader's stage.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// VertexLayouts retrieves the vertex buffer layouts reflected from the
	// shader's vertex input structs, in declaration order. Empty for
	// non-vertex shaders.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: one layout per vertex input struct
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayoutDescriptors retrieves the bind group layout descriptors
	// reflected from @group/@binding declarations, keyed by group index.
	// These are CPU-side descriptors; the pipeline builder turns them into
	// wgpu.BindGroupLayout GPU objects.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindingName retrieves the declared variable name for a group and
	// binding index, or an empty string if no such declaration exists.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or "" if not declared
	BindingName(group, binding int) string

	// WorkgroupSize returns the @workgroup_size dimensions for compute
	// shaders. Omitted dimensions default to 1. Returns [0, 0, 0] for
	// non-compute shaders.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// Module returns the shader module descriptor used to create the GPU
	// shader module.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: descriptor carrying the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader parses the given WGSL source and returns a Shader carrying its
// reflection data. It panics if the source is empty or contains no entry point
// for the requested stage, as both indicate a programming error rather than a
// runtime condition.
//
// Parameters:
//   - key: a unique identifier for the shader, used for module labels
//   - shaderType: the stage this shader provides (vertex, fragment, or compute)
//   - source: the WGSL source code
//
// Returns:
//   - Shader: the parsed shader
func NewShader(key string, shaderType ShaderType, source string) Shader {
	if source == "" {
		panic(fmt.Sprintf("shader: %s must have non-empty WGSL source", key))
	}
	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
	}
	s.reflect()
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.layoutsByGroup
}

func (s *shader) BindingName(group, binding int) string {
	if s.bindingNames[group] == nil {
		return ""
	}
	return s.bindingNames[group][binding]
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workgroupFootprint
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

// reflect extracts the entry point, stage-specific layout metadata, and bind
// group layout descriptors from the WGSL source.
func (s *shader) reflect() {
	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}

	cleaned := stripComments(s.source)

	s.entryPoint = parseEntryPoint(cleaned, s.shaderType)
	if s.entryPoint == "" {
		panic(fmt.Sprintf("shader: %s has no entry point for its stage", s.key))
	}

	var visibility wgpu.ShaderStage
	switch s.shaderType {
	case ShaderTypeVertex:
		visibility = wgpu.ShaderStageVertex
		s.vertexLayouts = parseVertexLayouts(cleaned)
	case ShaderTypeFragment:
		visibility = wgpu.ShaderStageFragment
	case ShaderTypeCompute:
		visibility = wgpu.ShaderStageCompute
		s.workgroupFootprint = parseWorkgroupSize(cleaned)
	}

	s.layoutsByGroup, s.bindingNames = parseBindGroupLayouts(cleaned, visibility)
}
