package camera

import (
	"sync"

	"github.com/calderagpu/caldera/engine/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

type cameraImpl struct {
	mu *sync.Mutex

	focalLength float32
	aspect      float32
	near        float32
	far         float32
}

// Camera holds the perspective projection parameters consumed by vertex
// shaders through a uniform buffer. The projection is focal-length based:
// the shader divides view-space x and y by z scaled with the focal length,
// and maps z into the near/far range.
type Camera interface {
	// FocalLength returns the projection focal length.
	//
	// Returns:
	//   - float32: the focal length
	FocalLength() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// SetAspect sets the aspect ratio, typically on surface resize.
	//
	// Parameters:
	//   - aspect: the new aspect ratio (width / height)
	SetAspect(aspect float32)

	// Uniform returns the GPU representation of the current parameters.
	//
	// Returns:
	//   - GPUCamera: the packed uniform contents
	Uniform() GPUCamera

	// CreateUniformBuffer uploads the current parameters into a uniform
	// buffer. The buffer is a snapshot; it does not track later setter
	// calls.
	//
	// Parameters:
	//   - builder: the resource builder the buffer is created with
	//   - label: the debug label for the buffer
	//
	// Returns:
	//   - resource.Buffer: the uploaded uniform buffer
	//   - error: an error if buffer creation failed
	CreateUniformBuffer(builder resource.Builder, label string) (resource.Buffer, error)
}

var _ Camera = &cameraImpl{}

// New creates a camera with the given aspect ratio. The remaining parameters
// default to a focal length of 5.0 and a 0.45 to 0.49 clip range unless
// overridden by options.
//
// Parameters:
//   - aspect: the aspect ratio (width / height)
//   - opts: a variadic list of Option functions
//
// Returns:
//   - Camera: the configured camera
func New(aspect float32, opts ...Option) Camera {
	c := &cameraImpl{
		mu:          &sync.Mutex{},
		focalLength: 5.0,
		aspect:      aspect,
		near:        0.45,
		far:         0.49,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *cameraImpl) FocalLength() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focalLength
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
}

func (c *cameraImpl) Uniform() GPUCamera {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GPUCamera{
		FocalLength: c.focalLength,
		AspectRatio: c.aspect,
		NearPlane:   c.near,
		FarPlane:    c.far,
	}
}

func (c *cameraImpl) CreateUniformBuffer(builder resource.Builder, label string) (resource.Buffer, error) {
	u := c.Uniform()
	return builder.CreateBufferWithContents(resource.ContentsSpec{
		Label:         label,
		ElementCount:  1,
		ElementStride: uint64(u.Size()),
		Usage:         wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	}, u.Marshal())
}
