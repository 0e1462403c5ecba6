package mesh

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
	released bool
}

func (b *fakeBuffer) Spec() resource.BufferSpec {
	return resource.BufferSpec{
		Label: b.spec.Label,
		Size:  uint64(len(b.contents)),
		Usage: b.spec.Usage,
	}
}
func (b *fakeBuffer) Raw() *wgpu.Buffer { return nil }
func (b *fakeBuffer) Size() uint64      { return uint64(len(b.contents)) }
func (b *fakeBuffer) Release()          { b.released = true }

// fakeBuilder records every buffer it creates so tests can inspect uploads.
type fakeBuilder struct {
	buffers []*fakeBuffer
}

func (f *fakeBuilder) CreateTexture(spec resource.TextureSpec) (resource.Texture, error) {
	return nil, nil
}

func (f *fakeBuilder) CreateBuffer(spec resource.BufferSpec) (resource.Buffer, error) {
	return nil, nil
}

func (f *fakeBuilder) CreateBufferWithContents(spec resource.ContentsSpec, contents []byte) (resource.Buffer, error) {
	want := spec.ElementCount * spec.ElementStride
	if uint64(len(contents)) != want {
		return nil, &resource.SizeMismatchError{Want: want, Got: uint64(len(contents))}
	}
	buf := &fakeBuffer{spec: spec, contents: append([]byte(nil), contents...)}
	f.buffers = append(f.buffers, buf)
	return buf, nil
}

func (f *fakeBuilder) CreateStagingFor(t resource.Texture) (resource.Buffer, resource.StagingLayout, error) {
	return nil, resource.StagingLayout{}, nil
}

var _ resource.Builder = &fakeBuilder{}

func triangleVertices() []Vertex {
	return []Vertex{
		{Position: [3]float32{0, 0.5, 0}, Color: [3]float32{1, 0, 0}},
		{Position: [3]float32{-0.5, -0.5, 0}, Color: [3]float32{0, 1, 0}},
		{Position: [3]float32{0.5, -0.5, 0}, Color: [3]float32{0, 0, 1}},
	}
}

func TestVertexMarshalLayout(t *testing.T) {
	v := Vertex{
		Position: [3]float32{1, 2, 3},
		Color:    [3]float32{0.25, 0.5, 0.75},
	}

	buf := v.Marshal()
	require.Len(t, buf, 24)
	assert.Equal(t, 24, v.Size())

	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])))
	assert.Equal(t, float32(0.25), math.Float32frombits(binary.LittleEndian.Uint32(buf[12:16])))
	assert.Equal(t, float32(0.75), math.Float32frombits(binary.LittleEndian.Uint32(buf[20:24])))
}

func TestMarshalVerticesPacksContiguously(t *testing.T) {
	vertices := triangleVertices()
	buf := MarshalVertices(vertices)
	require.Len(t, buf, 72)
	assert.Equal(t, vertices[1].Marshal(), buf[24:48])
}

func TestNewNonIndexedMesh(t *testing.T) {
	builder := &fakeBuilder{}

	m, err := New(builder, "triangle", triangleVertices())
	require.NoError(t, err)

	assert.Equal(t, "triangle", m.Label())
	assert.Nil(t, m.IndexBuffer())
	assert.Equal(t, uint32(3), m.DrawCount())

	require.Len(t, builder.buffers, 1)
	assert.Equal(t, "triangle vertices", builder.buffers[0].spec.Label)
	assert.Equal(t, uint64(24), builder.buffers[0].spec.ElementStride)
	assert.Equal(t, wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst, builder.buffers[0].spec.Usage)
}

func TestNewIndexedMesh(t *testing.T) {
	builder := &fakeBuilder{}

	m, err := New(builder, "quad", []Vertex{{}, {}, {}, {}}, WithIndices16([]uint16{0, 1, 2, 2, 3, 0}))
	require.NoError(t, err)

	assert.NotNil(t, m.IndexBuffer())
	assert.Equal(t, wgpu.IndexFormatUint16, m.IndexFormat())
	assert.Equal(t, uint32(6), m.DrawCount())

	require.Len(t, builder.buffers, 2)
	indexUpload := builder.buffers[1]
	assert.Equal(t, uint64(2), indexUpload.spec.ElementStride)
	assert.Equal(t, wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst, indexUpload.spec.Usage)
	assert.Equal(t, []byte{0, 0, 1, 0, 2, 0, 2, 0, 3, 0, 0, 0}, indexUpload.contents)
}

func TestNewIndexedMesh32(t *testing.T) {
	builder := &fakeBuilder{}

	m, err := New(builder, "quad", []Vertex{{}, {}, {}, {}}, WithIndices32([]uint32{0, 1, 2, 2, 3, 0}))
	require.NoError(t, err)

	assert.Equal(t, wgpu.IndexFormatUint32, m.IndexFormat())
	require.Len(t, builder.buffers, 2)
	assert.Equal(t, uint64(4), builder.buffers[1].spec.ElementStride)
}

func TestNewRejectsEmptyVertices(t *testing.T) {
	_, err := New(&fakeBuilder{}, "empty", nil)
	assert.ErrorIs(t, err, ErrNoVertices)
}

func TestNewRejectsIndexOutOfRange(t *testing.T) {
	_, err := New(&fakeBuilder{}, "bad", triangleVertices(), WithIndices16([]uint16{0, 1, 3}))
	require.Error(t, err)

	var rangeErr *IndexOutOfRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, uint32(3), rangeErr.Index)
	assert.Equal(t, 3, rangeErr.VertexCount)
}

func TestNewRejectsMixedIndexWidths(t *testing.T) {
	_, err := New(&fakeBuilder{}, "mixed", triangleVertices(),
		WithIndices16([]uint16{0}), WithIndices32([]uint32{0}))
	assert.Error(t, err)
}

func TestReleaseFreesBothBuffers(t *testing.T) {
	builder := &fakeBuilder{}

	m, err := New(builder, "quad", []Vertex{{}, {}, {}, {}}, WithIndices16([]uint16{0, 1, 2}))
	require.NoError(t, err)

	m.Release()
	assert.True(t, builder.buffers[0].released)
	assert.True(t, builder.buffers[1].released)
}
