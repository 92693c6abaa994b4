package run

import "errors"

// ErrSequenceAbort indicates a hardware status check failed during a run:
// the bath reported faults or the mixer reported low feed pressure. It is
// never retried; it triggers the fail-safe shutdown path.
var ErrSequenceAbort = errors.New("run: calibration sequence abort")
