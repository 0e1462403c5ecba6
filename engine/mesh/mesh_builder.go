package mesh

import (
	"encoding/binary"
	"errors"

	"github.com/cogentcore/webgpu/wgpu"
)

// meshConfig carries the optional index data collected by Options.
type meshConfig struct {
	indices16   []uint16
	indices32   []uint32
	indexFormat wgpu.IndexFormat
}

// Option is a functional option for configuring a Mesh.
type Option func(*meshConfig)

// WithIndices16 makes the mesh indexed with 16-bit indices.
//
// Parameters:
//   - indices: the index data; each index must reference an existing vertex
//
// Returns:
//   - Option: a function that applies the index data
func WithIndices16(indices []uint16) Option {
	return func(cfg *meshConfig) {
		cfg.indices16 = indices
		cfg.indexFormat = wgpu.IndexFormatUint16
	}
}

// WithIndices32 makes the mesh indexed with 32-bit indices.
//
// Parameters:
//   - indices: the index data; each index must reference an existing vertex
//
// Returns:
//   - Option: a function that applies the index data
func WithIndices32(indices []uint32) Option {
	return func(cfg *meshConfig) {
		cfg.indices32 = indices
		cfg.indexFormat = wgpu.IndexFormatUint32
	}
}

func (cfg *meshConfig) validate(vertexCount int) error {
	if cfg.indices16 != nil && cfg.indices32 != nil {
		return errors.New("both 16-bit and 32-bit indices supplied")
	}
	for _, idx := range cfg.indices16 {
		if int(idx) >= vertexCount {
			return &IndexOutOfRangeError{Index: uint32(idx), VertexCount: vertexCount}
		}
	}
	for _, idx := range cfg.indices32 {
		if int(idx) >= vertexCount {
			return &IndexOutOfRangeError{Index: idx, VertexCount: vertexCount}
		}
	}
	return nil
}

func (cfg *meshConfig) indexCount() int {
	if cfg.indices16 != nil {
		return len(cfg.indices16)
	}
	return len(cfg.indices32)
}

func (cfg *meshConfig) indexStride() int {
	if cfg.indices16 != nil {
		return 2
	}
	return 4
}

// marshalIndices serializes the configured indices for upload, or returns nil
// for non-indexed geometry.
func (cfg *meshConfig) marshalIndices() []byte {
	switch {
	case cfg.indices16 != nil:
		buf := make([]byte, len(cfg.indices16)*2)
		for i, idx := range cfg.indices16 {
			binary.LittleEndian.PutUint16(buf[i*2:], idx)
		}
		return buf
	case cfg.indices32 != nil:
		buf := make([]byte, len(cfg.indices32)*4)
		for i, idx := range cfg.indices32 {
			binary.LittleEndian.PutUint32(buf[i*4:], idx)
		}
		return buf
	default:
		return nil
	}
}
