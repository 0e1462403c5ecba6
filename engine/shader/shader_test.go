package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vertexSource = `
struct VertexInput {
    @location(0) position: vec3f,
    @location(1) color: vec3f,
}

struct VertexOutput {
    @builtin(position) clip_position: vec4f,
    @location(0) color: vec3f,
}

struct Camera {
    focal_length: f32,
    aspect_ratio: f32,
    near: f32,
    far: f32,
}

@group(0) @binding(0) var<uniform> camera: Camera;

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip_position = vec4f(in.position, 1.0);
    out.color = in.color;
    return out;
}
`

const fragmentSource = `
@fragment
fn fs_main(@location(0) color: vec3f) -> @location(0) vec4f {
    return vec4f(color, 1.0);
}
`

const computeSource = `
@group(0) @binding(0) var input: texture_2d<u32>;
@group(0) @binding(1) var output: texture_storage_2d<r32uint, write>;

@compute @workgroup_size(16, 16)
fn step(@builtin(global_invocation_id) id: vec3u) {
    // cells outside the grid are ignored
    let dims = textureDimensions(input);
    if (id.x >= dims.x || id.y >= dims.y) {
        return;
    }
}
`

func TestNewShaderVertexReflection(t *testing.T) {
	s := NewShader("triangle_vs", ShaderTypeVertex, vertexSource)

	assert.Equal(t, "triangle_vs", s.Key())
	assert.Equal(t, ShaderTypeVertex, s.ShaderType())
	assert.Equal(t, "vs_main", s.EntryPoint())

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 1)
	layout := layouts[0]
	assert.Equal(t, uint64(24), layout.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, layout.StepMode)
	require.Len(t, layout.Attributes, 2)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, layout.Attributes[0].Format)
	assert.Equal(t, uint64(0), layout.Attributes[0].Offset)
	assert.Equal(t, uint32(0), layout.Attributes[0].ShaderLocation)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, layout.Attributes[1].Format)
	assert.Equal(t, uint64(12), layout.Attributes[1].Offset)
	assert.Equal(t, uint32(1), layout.Attributes[1].ShaderLocation)
}

func TestNewShaderUniformBinding(t *testing.T) {
	s := NewShader("triangle_vs", ShaderTypeVertex, vertexSource)

	descs := s.BindGroupLayoutDescriptors()
	require.Contains(t, descs, 0)
	entries := descs[0].Entries
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, uint32(0), entry.Binding)
	assert.Equal(t, wgpu.ShaderStageVertex, entry.Visibility)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entry.Buffer.Type)
	assert.Equal(t, uint64(16), entry.Buffer.MinBindingSize)

	assert.Equal(t, "camera", s.BindingName(0, 0))
	assert.Equal(t, "", s.BindingName(0, 1))
	assert.Equal(t, "", s.BindingName(3, 0))
}

func TestNewShaderFragmentEntryPoint(t *testing.T) {
	s := NewShader("triangle_fs", ShaderTypeFragment, fragmentSource)

	assert.Equal(t, "fs_main", s.EntryPoint())
	assert.Empty(t, s.VertexLayouts())
	assert.Equal(t, [3]uint32{0, 0, 0}, s.WorkgroupSize())
}

func TestNewShaderComputeReflection(t *testing.T) {
	s := NewShader("life_step", ShaderTypeCompute, computeSource)

	assert.Equal(t, "step", s.EntryPoint())
	assert.Equal(t, [3]uint32{16, 16, 1}, s.WorkgroupSize())

	descs := s.BindGroupLayoutDescriptors()
	require.Contains(t, descs, 0)
	entries := descs[0].Entries
	require.Len(t, entries, 2)

	assert.Equal(t, uint32(0), entries[0].Binding)
	assert.Equal(t, wgpu.ShaderStageCompute, entries[0].Visibility)
	assert.Equal(t, wgpu.TextureSampleTypeUint, entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, entries[0].Texture.ViewDimension)

	assert.Equal(t, uint32(1), entries[1].Binding)
	assert.Equal(t, wgpu.TextureFormatR32Uint, entries[1].StorageTexture.Format)
	assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, entries[1].StorageTexture.Access)
	assert.Equal(t, wgpu.TextureViewDimension2D, entries[1].StorageTexture.ViewDimension)
}

func TestNewShaderModuleDescriptor(t *testing.T) {
	s := NewShader("life_step", ShaderTypeCompute, computeSource)

	module := s.Module()
	require.NotNil(t, module)
	assert.Equal(t, "life_step", module.Label)
	require.NotNil(t, module.WGSLDescriptor)
	assert.Equal(t, computeSource, module.WGSLDescriptor.Code)
}

func TestNewShaderPanicsOnEmptySource(t *testing.T) {
	assert.Panics(t, func() {
		NewShader("empty", ShaderTypeVertex, "")
	})
}

func TestNewShaderPanicsOnMissingEntryPoint(t *testing.T) {
	assert.Panics(t, func() {
		NewShader("wrong_stage", ShaderTypeCompute, fragmentSource)
	})
}

func TestParseWorkgroupSizeDefaults(t *testing.T) {
	assert.Equal(t, [3]uint32{1, 1, 1}, parseWorkgroupSize(`@compute fn main() {}`))
	assert.Equal(t, [3]uint32{64, 1, 1}, parseWorkgroupSize(`@compute @workgroup_size(64) fn main() {}`))
	assert.Equal(t, [3]uint32{8, 8, 2}, parseWorkgroupSize(`@compute @workgroup_size(8, 8, 2) fn main() {}`))
}

func TestStripCommentsNestedBlocks(t *testing.T) {
	source := "a /* outer /* inner */ still outer */ b // trailing\nc"
	assert.Equal(t, "a  b \nc", stripComments(source))
}

func TestComputeStructSizesNested(t *testing.T) {
	decls := parseStructDecls(`
struct Inner {
    a: vec3f,
    b: f32,
}
struct Outer {
    inner: Inner,
    scale: f32,
}
`)
	sizes := computeStructSizes(decls)

	require.Contains(t, sizes, "Inner")
	assert.Equal(t, uint64(16), sizes["Inner"].size)
	require.Contains(t, sizes, "Outer")
	assert.Equal(t, uint64(32), sizes["Outer"].size)
}
