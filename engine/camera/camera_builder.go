package camera

// Option is a functional option for configuring a Camera.
type Option func(*cameraImpl)

// WithFocalLength sets the projection focal length.
//
// Parameters:
//   - focalLength: the focal length; larger values narrow the view
//
// Returns:
//   - Option: a function that applies the focal length
func WithFocalLength(focalLength float32) Option {
	return func(c *cameraImpl) {
		c.focalLength = focalLength
	}
}

// WithClipRange sets the near and far clipping plane distances.
//
// Parameters:
//   - near: the near plane distance
//   - far: the far plane distance; must be greater than near
//
// Returns:
//   - Option: a function that applies the clip range
func WithClipRange(near, far float32) Option {
	return func(c *cameraImpl) {
		c.near = near
		c.far = far
	}
}
