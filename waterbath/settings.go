package waterbath

import (
	"fmt"
	"strings"
)

// Toggle is one tri-state field of the on/off array: a setting can be turned
// off, turned on, or left as it is.
type Toggle byte

const (
	Off      Toggle = 0
	On       Toggle = 1
	NoChange Toggle = 2
)

func (t Toggle) String() string {
	switch t {
	case Off:
		return "off"
	case On:
		return "on"
	case NoChange:
		return "no change"
	default:
		return fmt.Sprintf("invalid toggle %d", byte(t))
	}
}

// OnOffArraySettings is the payload of the Set On/Off Array command: eight
// tri-state settings packed one per data byte, in wire order.
//
// In a command, NoChange leaves the bath's current value alone. In the
// bath's echoed response every field is On or Off, reflecting the state
// after the command took effect.
type OnOffArraySettings struct {
	UnitOnOff            Toggle // Whether the bath is running.
	ExternalSensorEnable Toggle // On: external probe feedback. Off: internal sensor.
	FaultsEnabled        Toggle // On: shut down on faults. Off: keep running.
	Mute                 Toggle
	AutoRestart          Toggle
	HighPrecisionEnable  Toggle // On: 0.01 C reporting. Off: 0.1 C.
	FullRangeCoolEnable  Toggle
	SerialCommEnable     Toggle // On: serial control. Off: local buttons.
}

// dataBytes packs the settings into the eight command data bytes.
func (s OnOffArraySettings) dataBytes() []byte {
	return []byte{
		byte(s.UnitOnOff),
		byte(s.ExternalSensorEnable),
		byte(s.FaultsEnabled),
		byte(s.Mute),
		byte(s.AutoRestart),
		byte(s.HighPrecisionEnable),
		byte(s.FullRangeCoolEnable),
		byte(s.SerialCommEnable),
	}
}

// parseSettingsData unpacks the bath's echoed settings.
func parseSettingsData(data []byte) (OnOffArraySettings, error) {
	if len(data) != 8 {
		return OnOffArraySettings{}, fmt.Errorf("%w: settings data is %d bytes, want 8 (data: % X)",
			ErrInvalidResponse, len(data), data)
	}

	for i, b := range data {
		if b > byte(NoChange) {
			return OnOffArraySettings{}, fmt.Errorf("%w: settings byte %d has invalid toggle value %d (data: % X)",
				ErrInvalidResponse, i, b, data)
		}
	}

	return OnOffArraySettings{
		UnitOnOff:            Toggle(data[0]),
		ExternalSensorEnable: Toggle(data[1]),
		FaultsEnabled:        Toggle(data[2]),
		Mute:                 Toggle(data[3]),
		AutoRestart:          Toggle(data[4]),
		HighPrecisionEnable:  Toggle(data[5]),
		FullRangeCoolEnable:  Toggle(data[6]),
		SerialCommEnable:     Toggle(data[7]),
	}, nil
}

// validateInitializedSettings checks the settings echoed after Initialize.
// Every mismatched field is reported, not just the first.
func validateInitializedSettings(settings OnOffArraySettings, precision float64) error {
	wantHighPrecision := Off
	if precision == highPrecision {
		wantHighPrecision = On
	}

	checks := []struct {
		problem string
		ok      bool
	}{
		{"water bath isn't turned on", settings.UnitOnOff == On},
		{"internal sensor isn't enabled", settings.ExternalSensorEnable == Off},
		{fmt.Sprintf("precision isn't %v", precision), settings.HighPrecisionEnable == wantHighPrecision},
		{"serial comms aren't enabled", settings.SerialCommEnable == On},
	}

	var problems []string
	for _, check := range checks {
		if !check.ok {
			problems = append(problems, check.problem)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrSettingsRejected, strings.Join(problems, "; "))
	}

	return nil
}
