package readback

import "errors"

// ErrBufferBusy indicates a protocol violation on a staging buffer: reading
// before the mapping is committed, or handing the buffer to a new copy while
// it is mapped or awaiting a map. It signals a scheduling bug in the caller,
// not a transient condition.
var ErrBufferBusy = errors.New("staging buffer busy")

// ErrNoPendingMap indicates a wait or release with no map request in flight.
var ErrNoPendingMap = errors.New("no map request pending")
