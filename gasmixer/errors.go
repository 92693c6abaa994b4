package gasmixer

import "errors"

var (
	// ErrUnexpectedResponse indicates the mixer answered, but not with what
	// the issued command demands: a mismatched echo, a wrong run state, or
	// no reply at all.
	ErrUnexpectedResponse = errors.New("gasmixer: unexpected mixer response")

	// ErrInvalidResponse indicates a status reply too malformed to trust:
	// wrong field count, unparseable numbers, or unit codes other than the
	// ones the rig is calibrated for.
	ErrInvalidResponse = errors.New("gasmixer: invalid mixer response")

	// ErrInvalidMix indicates a requested mix that the rig's MFCs cannot
	// deliver. This is a deterministic configuration error, never retried.
	ErrInvalidMix = errors.New("gasmixer: invalid mix request")

	// ErrLowFeedPressure indicates a feed-pressure alarm on the mixer or one
	// of its channels, usually an exhausted or disconnected cylinder.
	ErrLowFeedPressure = errors.New("gasmixer: low feed pressure alarm")
)
