package waterbath

import "fmt"

// The bath itself operates from -24 C to 150 C; the rig's working fluid is
// water, so setpoints are restricted to the range where water is liquid.
const (
	LowTemperatureLimit  = 0.0
	HighTemperatureLimit = 100.0
)

// TemperatureValidationErrors checks whether a setpoint temperature is
// attainable, returning one message per violated limit. Validation failures
// are deterministic configuration errors: they are never retried.
func TemperatureValidationErrors(setpointTemperature float64) []string {
	var errs []string

	if setpointTemperature < LowTemperatureLimit {
		errs = append(errs, fmt.Sprintf("temperature < %v C", LowTemperatureLimit))
	}
	if setpointTemperature > HighTemperatureLimit {
		errs = append(errs, fmt.Sprintf("temperature > %v C", HighTemperatureLimit))
	}

	return errs
}
