package ysi

import "errors"

// ErrInvalidResponse indicates a sensor reply that failed framing or payload
// checks: missing initiator, missing terminator, or a payload that does not
// parse as the type the command demands.
var ErrInvalidResponse = errors.New("ysi: invalid sensor response")
