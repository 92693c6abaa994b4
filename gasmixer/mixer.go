package gasmixer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kwahlman/calrig/logger"
	"github.com/kwahlman/calrig/serial"
)

const (
	// DefaultBaudRate is the controller's factory serial configuration.
	DefaultBaudRate = 19200

	// deviceID is the controller's configured device ID, echoed back in
	// every response.
	deviceID = "A"

	// lineEnding terminates every command and response.
	lineEnding = "\r"

	// The longest reply is a 24-field status line well under this bound.
	maxResponseBytes = 256
)

// Mixer is a client for one gas mix controller on a serial line.
type Mixer struct {
	port     serial.Commander
	channels Channels
	logger   logger.Logger
}

// NewMixer creates a Mixer speaking over port.
func NewMixer(port serial.Commander, opts ...MixerOption) (*Mixer, error) {
	mixer := &Mixer{
		port:     port,
		channels: DefaultChannels(),
		logger:   logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(mixer); err != nil {
			return nil, err
		}
	}

	return mixer, nil
}

// MixerOption is a functional option for configuring a Mixer.
type MixerOption interface {
	apply(*Mixer) error
}

type mixerOptFunc func(*Mixer) error

func (f mixerOptFunc) apply(m *Mixer) error { return f(m) }

// WithChannels overrides the MFC ratings used for mix validation.
func WithChannels(channels Channels) MixerOption {
	return mixerOptFunc(func(m *Mixer) error {
		if channels.N2.FullScaleSLPM <= 0 || channels.O2Source.FullScaleSLPM <= 0 {
			return errors.New("gasmixer: MFC full scales must be positive")
		}
		m.channels = channels

		return nil
	})
}

// WithMixerLogger sets the logger for the mixer client.
func WithMixerLogger(l logger.Logger) MixerOption {
	return mixerOptFunc(func(m *Mixer) error {
		if l == nil {
			return errors.New("gasmixer: logger must not be nil")
		}
		m.logger = l

		return nil
	})
}

// Channels returns the MFC ratings the mixer validates against.
func (m *Mixer) Channels() Channels { return m.channels }

// roundTrip sends one command line and returns the response with the line
// ending stripped. An empty reply is an error: the controller echoes
// something for every command it hears.
func (m *Mixer) roundTrip(ctx context.Context, command string) (string, error) {
	raw, err := m.port.RoundTrip(ctx, []byte(command+lineEnding), serial.ReadBound{
		MaxBytes:   maxResponseBytes,
		Terminator: []byte(lineEnding),
	})
	if err != nil {
		return "", err
	}

	response := strings.TrimSuffix(string(raw), lineEnding)
	if response == "" {
		return "", fmt.Errorf("%w: no response to %q", ErrUnexpectedResponse, command)
	}

	return response, nil
}

// sendSequence issues each command in order and checks its echo against the
// exact expected string, aborting on the first mismatch.
func (m *Mixer) sendSequence(ctx context.Context, steps [][2]string) error {
	for _, step := range steps {
		command, want := step[0], step[1]

		got, err := m.roundTrip(ctx, command)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("%w: %q answered %q, want %q", ErrUnexpectedResponse, command, got, want)
		}
	}

	return nil
}

// GetStatus queries mixer telemetry with QMXS ("query mixer status").
func (m *Mixer) GetStatus(ctx context.Context) (Status, error) {
	response, err := m.roundTrip(ctx, deviceID+" QMXS")
	if err != nil {
		return Status{}, err
	}

	return parseStatus(response)
}

// CheckFeedPressure queries status and returns ErrLowFeedPressure if any
// feed-pressure alarm is set.
func (m *Mixer) CheckFeedPressure(ctx context.Context) error {
	status, err := m.GetStatus(ctx)
	if err != nil {
		return err
	}

	return status.CheckAlarms()
}

// GasIDs identifies the gas number loaded on each MFC.
type GasIDs struct {
	N2          int64
	O2SourceGas int64
}

// GetGasIDs queries the gas number configured on each channel. The IDs are
// recorded alongside collected data so a run can be traced back to the
// cylinders that fed it.
func (m *Mixer) GetGasIDs(ctx context.Context) (GasIDs, error) {
	response, err := m.roundTrip(ctx, deviceID+" MXFG")
	if err != nil {
		return GasIDs{}, err
	}

	fields := strings.Fields(response)
	if len(fields) != 3 || fields[0] != deviceID {
		return GasIDs{}, fmt.Errorf("%w: gas ID reply %q is not %q followed by two IDs",
			ErrUnexpectedResponse, response, deviceID)
	}

	n2, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return GasIDs{}, fmt.Errorf("%w: gas ID %q: %w", ErrUnexpectedResponse, fields[1], err)
	}
	o2Source, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return GasIDs{}, fmt.Errorf("%w: gas ID %q: %w", ErrUnexpectedResponse, fields[2], err)
	}

	return GasIDs{N2: n2, O2SourceGas: o2Source}, nil
}

// StartConstantFlowMix commands a constant flow rate mix, resetting any
// alarms. A total flow of exactly zero delegates to StopFlow because the
// controller rejects an explicit zero-flow start.
//
// The fraction is set before the flow rate. The controller clamps the flow
// rate to whatever the configured fraction allows, so setting the flow
// first would let a stale fraction silently reject the new one.
func (m *Mixer) StartConstantFlowMix(ctx context.Context, totalFlowSLPM, o2SourceGasO2Fraction, targetO2Fraction float64) error {
	if errs := m.channels.MixValidationErrors(totalFlowSLPM, o2SourceGasO2Fraction, targetO2Fraction); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidMix, strings.Join(errs, "; "))
	}

	if totalFlowSLPM == 0 {
		return m.StopFlow(ctx)
	}

	o2SourcePPB := FractionToPPB(targetO2Fraction / o2SourceGasO2Fraction)
	n2PPB := ComplementPPB(o2SourcePPB)

	m.logger.Info("starting constant flow mix",
		"flowRateSLPM", totalFlowSLPM,
		"targetO2Fraction", targetO2Fraction,
		"n2PPB", n2PPB,
		"o2SourcePPB", o2SourcePPB,
	)

	return m.sendSequence(ctx, [][2]string{
		// Run mode 3 is constant flow.
		{deviceID + " MXRM 3", deviceID + " 3"},
		{
			fmt.Sprintf("%s MXMF %d %d", deviceID, n2PPB, o2SourcePPB),
			fmt.Sprintf("%s %d %d", deviceID, n2PPB, o2SourcePPB),
		},
		{
			fmt.Sprintf("%s MXRFF %s", deviceID, formatFlow(totalFlowSLPM)),
			fmt.Sprintf("%s %.2f %s SLPM", deviceID, totalFlowSLPM, flowUnitSLPM),
		},
		// Run state 1 starts mixing; the echo reports the new state.
		{deviceID + " MXRS 1", fmt.Sprintf("%s %d", deviceID, RunStateMixing)},
	})
}

// StopFlow commands the mixer to stop. Any stopped state counts as success:
// a mixer that stopped into an alarm state has still stopped.
func (m *Mixer) StopFlow(ctx context.Context) error {
	m.logger.Info("stopping gas mixer flow")

	response, err := m.roundTrip(ctx, deviceID+" MXRS 2")
	if err != nil {
		return err
	}

	state, err := parseRunState(response)
	if err != nil {
		return err
	}
	if !state.Stopped() {
		return fmt.Errorf("%w: mixer did not stop: %s", ErrUnexpectedResponse, state)
	}

	return nil
}
