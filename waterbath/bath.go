package waterbath

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kwahlman/calrig/logger"
	"github.com/kwahlman/calrig/serial"
)

// The bath reports with either 0.1 or 0.01 precision; the rig wants the high
// precision option.
const (
	highPrecision = 0.01
	lowPrecision  = 0.1

	// DefaultReportingPrecision is asserted on the bath by Initialize.
	DefaultReportingPrecision = highPrecision

	// DefaultBaudRate is the bath's factory serial configuration.
	DefaultBaudRate = 19200

	// The longest response is 14 bytes and the bath sends no terminator, so
	// reads listen for more than enough bytes and let the timeout end them.
	maxResponseBytes = 20
)

// Bath is a client for one water bath on a serial line.
type Bath struct {
	port      serial.Commander
	precision float64
	logger    logger.Logger
}

// NewBath creates a Bath speaking over port.
func NewBath(port serial.Commander, opts ...BathOption) (*Bath, error) {
	bath := &Bath{
		port:      port,
		precision: DefaultReportingPrecision,
		logger:    logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(bath); err != nil {
			return nil, err
		}
	}

	return bath, nil
}

// BathOption is a functional option for configuring a Bath.
type BathOption interface {
	apply(*Bath) error
}

type bathOptFunc func(*Bath) error

func (f bathOptFunc) apply(b *Bath) error { return f(b) }

// WithReportingPrecision selects the fixed-point precision used to encode set
// commands and expected in responses. Must be 0.1 or 0.01.
func WithReportingPrecision(precision float64) BathOption {
	return bathOptFunc(func(b *Bath) error {
		if precision != highPrecision && precision != lowPrecision {
			return fmt.Errorf("waterbath: reporting precision %v must be %v or %v", precision, lowPrecision, highPrecision)
		}
		b.precision = precision

		return nil
	})
}

// WithBathLogger sets the logger for the bath client.
func WithBathLogger(l logger.Logger) BathOption {
	return bathOptFunc(func(b *Bath) error {
		if l == nil {
			return errors.New("waterbath: logger must not be nil")
		}
		b.logger = l

		return nil
	})
}

// roundTrip sends one packet and parses the bath's reply, surfacing explicit
// error responses.
func (b *Bath) roundTrip(ctx context.Context, pkt *Packet) (*Packet, error) {
	raw, err := b.port.RoundTrip(ctx, pkt.Bytes(), serial.ReadBound{MaxBytes: maxResponseBytes})
	if err != nil {
		return nil, err
	}

	response, err := ParsePacket(raw)
	if err != nil {
		return nil, err
	}

	if err := checkErrorResponse(response); err != nil {
		return nil, err
	}

	return response, nil
}

// readValue issues a read command (no data bytes) and decodes the qualified
// response value.
func (b *Bath) readValue(ctx context.Context, cmd Command) (float64, error) {
	pkt, err := NewCommandPacket(cmd, nil)
	if err != nil {
		return 0, err
	}

	response, err := b.roundTrip(ctx, pkt)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", cmd, err)
	}

	return parseQualifiedData(response.Data, b.precision)
}

// setValue issues a set command carrying value at the configured precision
// and decodes the echoed value.
func (b *Bath) setValue(ctx context.Context, cmd Command, value float64) (float64, error) {
	pkt, err := NewCommandPacket(cmd, encodeFixedPoint(value, b.precision))
	if err != nil {
		return 0, err
	}

	response, err := b.roundTrip(ctx, pkt)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", cmd, err)
	}

	return parseQualifiedData(response.Data, b.precision)
}

// ReadInternalTemperature reads the bath's internal probe in degrees C.
func (b *Bath) ReadInternalTemperature(ctx context.Context) (float64, error) {
	return b.readValue(ctx, CmdReadInternalTemperature)
}

// ReadExternalSensor reads the external probe in degrees C.
func (b *Bath) ReadExternalSensor(ctx context.Context) (float64, error) {
	return b.readValue(ctx, CmdReadExternalSensor)
}

// ReadSetpoint reads the active temperature setpoint in degrees C.
func (b *Bath) ReadSetpoint(ctx context.Context) (float64, error) {
	return b.readValue(ctx, CmdReadSetpoint)
}

// SetSetpoint commands the bath to temperature (degrees C) and returns the
// echoed setpoint. The temperature is validated against the working range
// first; range violations are deterministic and must not be retried.
func (b *Bath) SetSetpoint(ctx context.Context, temperature float64) (float64, error) {
	if errs := TemperatureValidationErrors(temperature); len(errs) > 0 {
		return 0, fmt.Errorf("waterbath: setpoint %v C rejected: %s", temperature, strings.Join(errs, "; "))
	}

	b.logger.Info("setting water bath setpoint", "temperatureC", temperature)

	return b.setValue(ctx, CmdSetSetpoint, temperature)
}

// ApplySettings sends a Set On/Off Array command and returns the settings the
// bath echoes back.
func (b *Bath) ApplySettings(ctx context.Context, settings OnOffArraySettings) (OnOffArraySettings, error) {
	pkt, err := NewCommandPacket(CmdSetOnOffArray, settings.dataBytes())
	if err != nil {
		return OnOffArraySettings{}, err
	}

	response, err := b.roundTrip(ctx, pkt)
	if err != nil {
		return OnOffArraySettings{}, fmt.Errorf("%s: %w", CmdSetOnOffArray, err)
	}

	return parseSettingsData(response.Data)
}

// Initialize turns the bath on and asserts the settings the driver depends
// on: internal sensor feedback and the configured reporting precision.
// Serial comms must already be enabled for any of this to work, so that
// field is left unchanged and only verified in the echo.
//
// The echoed settings are validated and every mismatched field is reported.
func (b *Bath) Initialize(ctx context.Context) (OnOffArraySettings, error) {
	wantHighPrecision := Off
	if b.precision == highPrecision {
		wantHighPrecision = On
	}

	b.logger.Info("initializing water bath", "precision", b.precision)

	settings, err := b.ApplySettings(ctx, OnOffArraySettings{
		UnitOnOff:            On,
		ExternalSensorEnable: Off,
		FaultsEnabled:        NoChange,
		Mute:                 NoChange,
		AutoRestart:          NoChange,
		HighPrecisionEnable:  wantHighPrecision,
		FullRangeCoolEnable:  NoChange,
		SerialCommEnable:     NoChange,
	})
	if err != nil {
		return OnOffArraySettings{}, err
	}

	if err := validateInitializedSettings(settings, b.precision); err != nil {
		return settings, err
	}

	return settings, nil
}

// PowerOff turns the bath unit off, leaving every other setting unchanged.
func (b *Bath) PowerOff(ctx context.Context) error {
	b.logger.Info("powering off water bath")

	settings, err := b.ApplySettings(ctx, OnOffArraySettings{
		UnitOnOff:            Off,
		ExternalSensorEnable: NoChange,
		FaultsEnabled:        NoChange,
		Mute:                 NoChange,
		AutoRestart:          NoChange,
		HighPrecisionEnable:  NoChange,
		FullRangeCoolEnable:  NoChange,
		SerialCommEnable:     NoChange,
	})
	if err != nil {
		return err
	}

	if settings.UnitOnOff != Off {
		return fmt.Errorf("%w: bath still reports unit on after power off", ErrSettingsRejected)
	}

	return nil
}

// ReadStatus reads and decodes the bath's status registers.
func (b *Bath) ReadStatus(ctx context.Context) (Status, error) {
	pkt, err := NewCommandPacket(CmdReadStatus, nil)
	if err != nil {
		return Status{}, err
	}

	response, err := b.roundTrip(ctx, pkt)
	if err != nil {
		return Status{}, fmt.Errorf("%s: %w", CmdReadStatus, err)
	}

	return parseStatusData(response.Data)
}

// AssertStatusOK reads the status registers and fails with ErrBadStatus if
// any fault or warning flag is raised.
func (b *Bath) AssertStatusOK(ctx context.Context) error {
	status, err := b.ReadStatus(ctx)
	if err != nil {
		return err
	}

	return status.Validate()
}
