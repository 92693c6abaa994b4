package gasmixer

import (
	"fmt"
	"strings"
)

// In status bitfields this bit flags low feed pressure, which generally
// means a cylinder is exhausted, not connected, or the line is kinked.
const lowFeedPressureAlarmBit = 0x008000

// The controller reports unit codes alongside its measurements. The rig is
// calibrated for pressure in mmHg (code 14) and flow in SLPM (code 7); any
// other code means someone reconfigured the mixer and no numeric field can
// be trusted.
const (
	pressureUnitMmHg = "14"
	flowUnitSLPM     = "7"
)

// A QMXS ("query mixer status") reply carries exactly this many
// space-separated fields for a two-MFC controller.
const statusFieldCount = 24

// Positional indices into the QMXS reply.
const (
	fieldDeviceID = iota
	fieldVersion
	fieldMixStatus
	fieldMixAlarm
	fieldPressureUnits
	fieldFlowUnits
	fieldVolumeUnits
	fieldNumPorts
	fieldMixAlarmEnable
	fieldGasAnalyzerAlarmEnable
	fieldMixPressure
	fieldMixFlow
	fieldMixVolume
	fieldGasAnalyzer
	fieldStatus1
	fieldPressure1
	fieldFlow1
	fieldTotalVolume1
	fieldTotalFraction1
	fieldStatus2
	fieldPressure2
	fieldFlow2
	fieldTotalVolume2
	fieldTotalFraction2
)

// Status is the subset of mixer telemetry the calibration run monitors.
//
// The channel fractions are the share each MFC contributes to the mix, not
// gas volume fractions: the O2 source gas may itself be a premixed blend.
type Status struct {
	FlowRateSLPM    float64
	MixPressureMmHg float64

	LowFeedPressureAlarm         bool
	LowFeedPressureAlarmN2       bool
	LowFeedPressureAlarmO2Source bool

	N2FractionInMix       float64
	O2SourceFractionInMix float64
}

// CheckAlarms returns ErrLowFeedPressure naming every channel with a
// feed-pressure alarm, or nil when none is set.
func (s Status) CheckAlarms() error {
	var channels []string

	if s.LowFeedPressureAlarmN2 {
		channels = append(channels, "N2")
	}
	if s.LowFeedPressureAlarmO2Source {
		channels = append(channels, "O2 source gas")
	}
	if len(channels) == 0 && s.LowFeedPressureAlarm {
		channels = append(channels, "mixer")
	}

	if len(channels) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrLowFeedPressure, strings.Join(channels, ", "))
}

// parseStatus decodes a QMXS reply. Unit codes are validated before any
// numeric field is read.
func parseStatus(response string) (Status, error) {
	fields := strings.Fields(response)
	if len(fields) != statusFieldCount {
		return Status{}, fmt.Errorf("%w: status reply has %d fields, want %d (reply: %q)",
			ErrInvalidResponse, len(fields), statusFieldCount, response)
	}

	if fields[fieldDeviceID] != deviceID {
		return Status{}, fmt.Errorf("%w: status reply from device %q, want %q",
			ErrInvalidResponse, fields[fieldDeviceID], deviceID)
	}

	if fields[fieldPressureUnits] != pressureUnitMmHg || fields[fieldFlowUnits] != flowUnitSLPM {
		return Status{}, fmt.Errorf(
			"%w: mixer units are misconfigured: pressure unit code %s (want %s for mmHg), flow unit code %s (want %s for SLPM)",
			ErrInvalidResponse, fields[fieldPressureUnits], pressureUnitMmHg, fields[fieldFlowUnits], flowUnitSLPM)
	}

	var (
		status Status
		err    error
	)

	if status.FlowRateSLPM, err = parseStatusFloat(fields[fieldMixFlow]); err != nil {
		return Status{}, err
	}
	if status.MixPressureMmHg, err = parseStatusFloat(fields[fieldMixPressure]); err != nil {
		return Status{}, err
	}

	mixAlarm, err := parseStatusBits(fields[fieldMixAlarm])
	if err != nil {
		return Status{}, err
	}
	status1, err := parseStatusBits(fields[fieldStatus1])
	if err != nil {
		return Status{}, err
	}
	status2, err := parseStatusBits(fields[fieldStatus2])
	if err != nil {
		return Status{}, err
	}

	status.LowFeedPressureAlarm = mixAlarm&lowFeedPressureAlarmBit != 0
	status.LowFeedPressureAlarmN2 = status1&lowFeedPressureAlarmBit != 0
	status.LowFeedPressureAlarmO2Source = status2&lowFeedPressureAlarmBit != 0

	if status.N2FractionInMix, err = parseFlowFraction(fields[fieldTotalFraction1]); err != nil {
		return Status{}, err
	}
	if status.O2SourceFractionInMix, err = parseFlowFraction(fields[fieldTotalFraction2]); err != nil {
		return Status{}, err
	}

	return status, nil
}
