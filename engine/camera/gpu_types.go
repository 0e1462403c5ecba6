package camera

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCamera is the GPU-aligned representation of the camera's projection
// parameters. Matches the WGSL Camera struct layout exactly (16 bytes, four
// f32 fields, no padding required).
type GPUCamera struct {
	FocalLength float32 // offset  0: projection focal length (4 bytes)
	AspectRatio float32 // offset  4: width / height (4 bytes)
	NearPlane   float32 // offset  8: near clip distance (4 bytes)
	FarPlane    float32 // offset 12: far clip distance (4 bytes)
}

// Size returns the size of the GPUCamera struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUCamera) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCamera struct into a byte buffer suitable for
// GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUCamera) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.FocalLength))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.AspectRatio))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.NearPlane))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.FarPlane))
	return buf
}
