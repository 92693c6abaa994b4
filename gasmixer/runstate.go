package gasmixer

import (
	"fmt"
	"strconv"
	"strings"
)

// RunState is a mixer run-state code, as commanded with and reported by the
// MXRS ("mixer run state") command.
type RunState uint8

const (
	// RunStateEMO means the emergency motion off switch is active.
	RunStateEMO RunState = 0
	// RunStateStoppedInvalidConfig means mixing is stopped and cannot start,
	// usually because of an invalid mix fraction.
	RunStateStoppedInvalidConfig RunState = 1
	// RunStateMixing means the device is mixing.
	RunStateMixing RunState = 2
	// RunStateStoppedOK means mixing is stopped and can be started.
	RunStateStoppedOK RunState = 3
	// RunStateStoppedAlarmSilenced means at least one alarm is active but
	// external indicators have been quieted.
	RunStateStoppedAlarmSilenced RunState = 4
	// RunStateStoppedAlarm means at least one alarm is active and triggering
	// external indicators.
	RunStateStoppedAlarm RunState = 5
)

// String returns the manual's description of the run state.
func (s RunState) String() string {
	switch s {
	case RunStateEMO:
		return "Emergency Motion Off (EMO) is active."
	case RunStateStoppedInvalidConfig:
		return "Mixing is stopped and cannot be started because of an invalid configuration, usually an invalid mix fraction."
	case RunStateMixing:
		return "Device is mixing."
	case RunStateStoppedOK:
		return "Mixing is stopped but can be started when desired."
	case RunStateStoppedAlarmSilenced:
		return "At least one alarm is active, but external indicators have been quieted."
	case RunStateStoppedAlarm:
		return "At least one alarm is active and triggering external indicators."
	default:
		return fmt.Sprintf("Unknown run state code %d.", uint8(s))
	}
}

// Stopped reports whether the state counts as "not flowing". Stopping a
// mixer that is alarming still stops it, so every stopped variant counts.
func (s RunState) Stopped() bool {
	switch s {
	case RunStateStoppedInvalidConfig, RunStateStoppedOK,
		RunStateStoppedAlarmSilenced, RunStateStoppedAlarm:
		return true
	default:
		return false
	}
}

// parseRunState decodes a run-state reply of the form "A <code>".
func parseRunState(response string) (RunState, error) {
	fields := strings.Fields(response)
	if len(fields) != 2 || fields[0] != deviceID {
		return 0, fmt.Errorf("%w: run state reply %q is not %q followed by one code",
			ErrUnexpectedResponse, response, deviceID)
	}

	code, err := strconv.ParseUint(fields[1], 10, 8)
	if err != nil || code > uint64(RunStateStoppedAlarm) {
		return 0, fmt.Errorf("%w: run state code %q out of range", ErrUnexpectedResponse, fields[1])
	}

	return RunState(code), nil
}
