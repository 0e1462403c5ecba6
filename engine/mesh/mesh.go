package mesh

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/calderagpu/caldera/engine/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoVertices indicates a mesh was built without any vertex data.
var ErrNoVertices = errors.New("mesh has no vertices")

// IndexOutOfRangeError indicates an index referencing a vertex the mesh does
// not have.
type IndexOutOfRangeError struct {
	Index       uint32
	VertexCount int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index %d out of range for %d vertices", e.Index, e.VertexCount)
}

// Vertex is the GPU representation of a single colored vertex.
// Matches the WGSL VertexInput struct layout exactly (24 bytes, two
// vec3<f32> fields, no padding required).
type Vertex struct {
	Position [3]float32 // offset  0: vertex position in clip or model space (12 bytes)
	Color    [3]float32 // offset 12: per-vertex RGB color (12 bytes)
}

// Size returns the size of the Vertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (v *Vertex) Size() int {
	return int(unsafe.Sizeof(*v))
}

// Marshal serializes the Vertex struct into a byte buffer suitable for GPU
// upload.
//
// Returns:
//   - []byte: 24-byte buffer ready for GPU upload.
func (v *Vertex) Marshal() []byte {
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v.Color[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(v.Color[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(v.Color[2]))
	return buf
}

// MarshalVertices serializes a vertex slice into one contiguous upload
// buffer.
//
// Parameters:
//   - vertices: the vertices to serialize
//
// Returns:
//   - []byte: the packed vertex data, 24 bytes per vertex
func MarshalVertices(vertices []Vertex) []byte {
	buf := make([]byte, 0, len(vertices)*24)
	for i := range vertices {
		buf = append(buf, vertices[i].Marshal()...)
	}
	return buf
}

// meshImpl is the implementation of the Mesh interface.
type meshImpl struct {
	label        string
	vertexCount  int
	indexCount   int
	indexFormat  wgpu.IndexFormat
	vertexBuffer resource.Buffer
	indexBuffer  resource.Buffer
}

// Mesh owns the device buffers for one piece of drawable geometry. Geometry
// is immutable once uploaded; rebuilding means creating a new mesh.
type Mesh interface {
	// Label returns the mesh's debug label.
	//
	// Returns:
	//   - string: the label
	Label() string

	// VertexBuffer returns the uploaded vertex buffer.
	//
	// Returns:
	//   - resource.Buffer: the vertex buffer
	VertexBuffer() resource.Buffer

	// IndexBuffer returns the uploaded index buffer, or nil for non-indexed
	// geometry.
	//
	// Returns:
	//   - resource.Buffer: the index buffer, or nil
	IndexBuffer() resource.Buffer

	// IndexFormat returns the index element format. Only meaningful when
	// IndexBuffer is non-nil.
	//
	// Returns:
	//   - wgpu.IndexFormat: Uint16 or Uint32
	IndexFormat() wgpu.IndexFormat

	// DrawCount returns the count a draw of this mesh covers: the index
	// count for indexed geometry, otherwise the vertex count.
	//
	// Returns:
	//   - uint32: the draw extent
	DrawCount() uint32

	// Release frees the mesh's device buffers.
	Release()
}

var _ Mesh = &meshImpl{}

// New uploads the given geometry and returns a mesh over the resulting
// buffers. Indices are optional; when provided via WithIndices16 or
// WithIndices32 every index must reference an existing vertex.
//
// Parameters:
//   - builder: the resource builder the buffers are created with
//   - label: the debug label for the mesh's buffers
//   - vertices: the vertex data; must not be empty
//   - opts: a variadic list of Option functions
//
// Returns:
//   - Mesh: the uploaded mesh
//   - error: an error if validation or buffer creation failed
func New(builder resource.Builder, label string, vertices []Vertex, opts ...Option) (Mesh, error) {
	if len(vertices) == 0 {
		return nil, fmt.Errorf("mesh %q: %w", label, ErrNoVertices)
	}

	cfg := &meshConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(len(vertices)); err != nil {
		return nil, fmt.Errorf("mesh %q: %w", label, err)
	}

	m := &meshImpl{
		label:       label,
		vertexCount: len(vertices),
		indexCount:  cfg.indexCount(),
		indexFormat: cfg.indexFormat,
	}

	vb, err := builder.CreateBufferWithContents(resource.ContentsSpec{
		Label:         label + " vertices",
		ElementCount:  uint64(len(vertices)),
		ElementStride: 24,
		Usage:         wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	}, MarshalVertices(vertices))
	if err != nil {
		return nil, err
	}
	m.vertexBuffer = vb

	if indexData := cfg.marshalIndices(); indexData != nil {
		ib, ibErr := builder.CreateBufferWithContents(resource.ContentsSpec{
			Label:         label + " indices",
			ElementCount:  uint64(m.indexCount),
			ElementStride: uint64(cfg.indexStride()),
			Usage:         wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		}, indexData)
		if ibErr != nil {
			vb.Release()
			return nil, ibErr
		}
		m.indexBuffer = ib
	}

	return m, nil
}

func (m *meshImpl) Label() string {
	return m.label
}

func (m *meshImpl) VertexBuffer() resource.Buffer {
	return m.vertexBuffer
}

func (m *meshImpl) IndexBuffer() resource.Buffer {
	return m.indexBuffer
}

func (m *meshImpl) IndexFormat() wgpu.IndexFormat {
	return m.indexFormat
}

func (m *meshImpl) DrawCount() uint32 {
	if m.indexBuffer != nil {
		return uint32(m.indexCount)
	}
	return uint32(m.vertexCount)
}

func (m *meshImpl) Release() {
	if m.vertexBuffer != nil {
		m.vertexBuffer.Release()
		m.vertexBuffer = nil
	}
	if m.indexBuffer != nil {
		m.indexBuffer.Release()
		m.indexBuffer = nil
	}
}
