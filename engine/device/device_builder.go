package device

import "github.com/cogentcore/webgpu/wgpu"

// AcquireOption configures device negotiation before the adapter and device
// are requested.
type AcquireOption func(*contextImpl)

// WithPowerPreference sets the adapter power preference used during
// negotiation.
//
// Parameters:
//   - pref: the power preference (low-power or high-performance)
//
// Returns:
//   - AcquireOption: the option function
func WithPowerPreference(pref wgpu.PowerPreference) AcquireOption {
	return func(c *contextImpl) {
		c.powerPreference = pref
	}
}

// WithForceFallbackAdapter forces selection of the fallback (software)
// adapter. Useful on machines without a hardware GPU.
//
// Returns:
//   - AcquireOption: the option function
func WithForceFallbackAdapter() AcquireOption {
	return func(c *contextImpl) {
		c.forceFallbackAdapter = true
	}
}

// WithLabel sets the debug label attached to the logical device.
//
// Parameters:
//   - label: the device label
//
// Returns:
//   - AcquireOption: the option function
func WithLabel(label string) AcquireOption {
	return func(c *contextImpl) {
		c.label = label
	}
}

// WithDefaultLimits requests the WebGPU default limit set from the adapter
// instead of the adapter's native limits.
//
// Returns:
//   - AcquireOption: the option function
func WithDefaultLimits() AcquireOption {
	return func(c *contextImpl) {
		limits := wgpu.DefaultLimits()
		c.requiredLimits = &wgpu.RequiredLimits{Limits: limits}
	}
}

// WithSurfaceDescriptor acquires the context against a presentation surface.
// The surface is created before adapter negotiation so the selected adapter
// is guaranteed to be able to present to it.
//
// Parameters:
//   - desc: the platform surface descriptor, typically from a window
//
// Returns:
//   - AcquireOption: the option function
func WithSurfaceDescriptor(desc *wgpu.SurfaceDescriptor) AcquireOption {
	return func(c *contextImpl) {
		c.surfaceDescriptor = desc
	}
}

// WithRequiredLimits requests an explicit limit set from the adapter.
// Negotiation fails with ErrNoCompatibleDevice if the adapter cannot satisfy
// the limits.
//
// Parameters:
//   - limits: the required device limits
//
// Returns:
//   - AcquireOption: the option function
func WithRequiredLimits(limits wgpu.Limits) AcquireOption {
	return func(c *contextImpl) {
		c.requiredLimits = &wgpu.RequiredLimits{Limits: limits}
	}
}
