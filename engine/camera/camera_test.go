package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/calderagpu/caldera/engine/resource"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBuffer struct {
	spec     resource.ContentsSpec
	contents []byte
}

func (b *fakeBuffer) Spec() resource.BufferSpec {
	return resource.BufferSpec{Label: b.spec.Label, Size: uint64(len(b.contents)), Usage: b.spec.Usage}
}
func (b *fakeBuffer) Raw() *wgpu.Buffer { return nil }
func (b *fakeBuffer) Size() uint64      { return uint64(len(b.contents)) }
func (b *fakeBuffer) Release()          {}

type fakeBuilder struct {
	last *fakeBuffer
}

func (f *fakeBuilder) CreateTexture(spec resource.TextureSpec) (resource.Texture, error) {
	return nil, nil
}

func (f *fakeBuilder) CreateBuffer(spec resource.BufferSpec) (resource.Buffer, error) {
	return nil, nil
}

func (f *fakeBuilder) CreateBufferWithContents(spec resource.ContentsSpec, contents []byte) (resource.Buffer, error) {
	f.last = &fakeBuffer{spec: spec, contents: append([]byte(nil), contents...)}
	return f.last, nil
}

func (f *fakeBuilder) CreateStagingFor(t resource.Texture) (resource.Buffer, resource.StagingLayout, error) {
	return nil, resource.StagingLayout{}, nil
}

var _ resource.Builder = &fakeBuilder{}

func TestNewDefaults(t *testing.T) {
	c := New(16.0 / 9.0)

	assert.Equal(t, float32(5.0), c.FocalLength())
	assert.InDelta(t, 16.0/9.0, c.Aspect(), 1e-6)
	assert.Equal(t, float32(0.45), c.Near())
	assert.Equal(t, float32(0.49), c.Far())
}

func TestNewWithOptions(t *testing.T) {
	c := New(1.0, WithFocalLength(2.5), WithClipRange(0.1, 100))

	assert.Equal(t, float32(2.5), c.FocalLength())
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(100), c.Far())
}

func TestSetAspect(t *testing.T) {
	c := New(1.0)
	c.SetAspect(2.0)
	assert.Equal(t, float32(2.0), c.Aspect())
	assert.Equal(t, float32(2.0), c.Uniform().AspectRatio)
}

func TestGPUCameraMarshalLayout(t *testing.T) {
	g := GPUCamera{FocalLength: 5, AspectRatio: 1.5, NearPlane: 0.45, FarPlane: 0.49}

	buf := g.Marshal()
	require.Len(t, buf, 16)
	assert.Equal(t, 16, g.Size())

	assert.Equal(t, float32(5), math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])))
	assert.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])))
	assert.Equal(t, float32(0.45), math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])))
	assert.Equal(t, float32(0.49), math.Float32frombits(binary.LittleEndian.Uint32(buf[12:16])))
}

func TestCreateUniformBuffer(t *testing.T) {
	builder := &fakeBuilder{}
	c := New(1.0)

	buf, err := c.CreateUniformBuffer(builder, "camera")
	require.NoError(t, err)
	require.NotNil(t, buf)

	assert.Equal(t, "camera", builder.last.spec.Label)
	assert.Equal(t, uint64(16), builder.last.spec.ElementStride)
	assert.Equal(t, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst, builder.last.spec.Usage)

	u := c.Uniform()
	assert.Equal(t, u.Marshal(), builder.last.contents)
}
