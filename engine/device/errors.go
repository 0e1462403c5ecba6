package device

import "errors"

// ErrNoCompatibleDevice indicates that adapter or device negotiation failed:
// either no adapter matched the requested preferences, or the selected adapter
// could not satisfy the required limits.
var ErrNoCompatibleDevice = errors.New("no compatible device")

// ErrDeviceLost indicates that the device connection was lost while work was
// outstanding. Operations that were in flight when the loss occurred will
// never complete.
var ErrDeviceLost = errors.New("device lost")
