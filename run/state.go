package run

import (
	"fmt"

	"github.com/kwahlman/calrig/setpoints"
)

// State is one phase of the per-setpoint cycle.
type State uint8

const (
	// StateSetTemperature commands the bath setpoint.
	StateSetTemperature State = iota
	// StateWaitTemperatureEquilibration waits for bath temperature to
	// stabilize.
	StateWaitTemperatureEquilibration
	// StateSetGasMix commands the mixer flow and fraction.
	StateSetGasMix
	// StateWaitDOEquilibration waits for dissolved oxygen to stabilize.
	StateWaitDOEquilibration
	// StateHoldAndCollect holds at the setpoint and collects data rows.
	StateHoldAndCollect
)

func (s State) String() string {
	switch s {
	case StateSetTemperature:
		return "set temperature"
	case StateWaitTemperatureEquilibration:
		return "wait for temperature equilibration"
	case StateSetGasMix:
		return "set gas mix"
	case StateWaitDOEquilibration:
		return "wait for DO equilibration"
	case StateHoldAndCollect:
		return "hold and collect"
	default:
		return fmt.Sprintf("unknown state %d", uint8(s))
	}
}

// equilibrationStatus labels every collected data row with what the run was
// waiting on when the row was taken.
func (s State) equilibrationStatus() string {
	switch s {
	case StateWaitTemperatureEquilibration:
		return "waiting for temperature"
	case StateWaitDOEquilibration:
		return "waiting for do"
	default:
		return "equilibrated"
	}
}

// Snapshot is the orchestrator's current position, published for the
// background poller. It crosses the goroutine boundary through a
// single-slot latest-value cell, so the poller never sees a half-written
// update and never blocks the control loop.
type Snapshot struct {
	State    State
	Setpoint setpoints.Setpoint
	Pass     int
}
