package gasmixer

import (
	"fmt"
	"math"
	"strconv"
)

// oneBillion is the denominator of the controller's fixed-point fraction
// encoding (parts per billion).
const oneBillion = 1_000_000_000

// FractionToPPB converts a fraction in [0, 1] to the controller's
// parts-per-billion integer encoding.
func FractionToPPB(fraction float64) int64 {
	return int64(math.Round(fraction * oneBillion))
}

// ComplementPPB returns the ppb value of the other channel. The controller
// rejects fraction pairs that do not sum to exactly one billion, so the
// complement is derived by subtraction, never rounded independently.
func ComplementPPB(ppb int64) int64 {
	return oneBillion - ppb
}

// ppbToFraction converts a ppb field from a status reply back to a fraction.
func ppbToFraction(field string) (float64, error) {
	ppb, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: fraction field %q: %w", ErrInvalidResponse, field, err)
	}

	return float64(ppb) / oneBillion, nil
}

// parseFlowFraction decodes a totalFraction status field. A field of all
// dashes means the channel has not run since the controller restarted; the
// rig treats that as zero rather than a parse failure.
func parseFlowFraction(field string) (float64, error) {
	if isAllDashes(field) {
		return 0, nil
	}

	return ppbToFraction(field)
}

func isAllDashes(field string) bool {
	if field == "" {
		return false
	}

	for _, r := range field {
		if r != '-' {
			return false
		}
	}

	return true
}

// parseStatusFloat decodes a signed numeric status field such as "+05.00".
func parseStatusFloat(field string) (float64, error) {
	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: numeric field %q: %w", ErrInvalidResponse, field, err)
	}

	return value, nil
}

// parseStatusBits decodes an alarm/status bitfield such as "2199568".
func parseStatusBits(field string) (uint32, error) {
	bits, err := strconv.ParseUint(field, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bitfield %q: %w", ErrInvalidResponse, field, err)
	}

	return uint32(bits), nil
}

// formatFlow renders a flow rate the way the controller wants it on a
// command line: no trailing zeros, so 5.0 goes out as "5".
func formatFlow(flowRateSLPM float64) string {
	return strconv.FormatFloat(flowRateSLPM, 'f', -1, 64)
}
