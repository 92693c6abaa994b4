package waterbath

import "errors"

var (
	// ErrInvalidResponse indicates response bytes that cannot be interpreted as
	// a well-formed packet (bad length, bad fixed fields, bad checksum).
	// A common cause is the bath not being in serial communication mode.
	ErrInvalidResponse = errors.New("invalid water bath response")

	// ErrErrorResponse indicates the bath explicitly answered with its error
	// response packet (command 0x0F), reporting a bad command or bad checksum.
	ErrErrorResponse = errors.New("water bath error response")

	// ErrPrecisionMismatch indicates the precision reported by the bath does not
	// match the precision the driver is configured to send. The bath silently
	// reverts its precision setting in some fault conditions; run Initialize to
	// assert the desired precision.
	ErrPrecisionMismatch = errors.New("water bath precision mismatch")

	// ErrBadStatus indicates one or more fault or warning flags are raised in
	// the bath's status registers.
	ErrBadStatus = errors.New("water bath status not OK")

	// ErrSettingsRejected indicates the settings echoed by the bath after an
	// initialize do not match the requested settings.
	ErrSettingsRejected = errors.New("water bath settings rejected")
)
