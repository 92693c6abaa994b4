package serial

import "errors"

// ErrTransport is the root of all serial I/O failures (open, write, read).
// Callers use errors.Is(err, ErrTransport) to decide whether an operation is
// worth retrying: transport faults are transient by nature.
var ErrTransport = errors.New("serial transport failure")
