package ysi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kwahlman/calrig/logger"
	"github.com/kwahlman/calrig/serial"
)

const (
	// DefaultBaudRate is the sonde's factory serial configuration.
	DefaultBaudRate = 57600

	responseInitiator  = "$"
	responseTerminator = "\r\n$ACK\r\n"

	requestLineEnding = "\r\n"

	// Payloads are one number or a short unit ID string.
	maxResponseBytes = 128
)

// Fraction of O2 in dry air, used to derive DO partial pressure from
// percent saturation.
const atmosphericO2Fraction = 0.2095

// Sensor channel names understood by the "$ADC Get Normal" request.
const (
	channelBarometricMmHg = "SENSOR_BAR_MMHG"
	channelBarometricKPa  = "SENSOR_BAR_KPA"
	channelDOPercentSat   = "SENSOR_DO_PERCENT_SAT"
	channelDOMgL          = "SENSOR_DO_MG_L"
	channelTemperatureC   = "SENSOR_TEMP_C"
)

// Sensor is a client for one YSI sonde on a serial line.
type Sensor struct {
	port   serial.Commander
	logger logger.Logger
}

// NewSensor creates a Sensor speaking over port.
func NewSensor(port serial.Commander, opts ...SensorOption) (*Sensor, error) {
	sensor := &Sensor{
		port:   port,
		logger: logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(sensor); err != nil {
			return nil, err
		}
	}

	return sensor, nil
}

// SensorOption is a functional option for configuring a Sensor.
type SensorOption interface {
	apply(*Sensor) error
}

type sensorOptFunc func(*Sensor) error

func (f sensorOptFunc) apply(s *Sensor) error { return f(s) }

// WithSensorLogger sets the logger for the sensor client.
func WithSensorLogger(l logger.Logger) SensorOption {
	return sensorOptFunc(func(s *Sensor) error {
		if l == nil {
			return errors.New("ysi: logger must not be nil")
		}
		s.logger = l

		return nil
	})
}

// roundTrip sends one request line and returns the framed payload.
func (s *Sensor) roundTrip(ctx context.Context, request string) (string, error) {
	raw, err := s.port.RoundTrip(ctx, []byte(request+requestLineEnding), serial.ReadBound{
		MaxBytes:   maxResponseBytes,
		Terminator: []byte(responseTerminator),
	})
	if err != nil {
		return "", err
	}

	return parseResponse(raw)
}

// parseResponse strips the initiator and terminator from a reply, naming
// whichever framing check failed.
func parseResponse(raw []byte) (string, error) {
	response := string(raw)

	if !strings.HasSuffix(response, responseTerminator) {
		return "", fmt.Errorf("%w: %q is missing the response terminator %q",
			ErrInvalidResponse, response, responseTerminator)
	}
	if !strings.HasPrefix(response, responseInitiator) {
		return "", fmt.Errorf("%w: %q is missing the response initiator %q",
			ErrInvalidResponse, response, responseInitiator)
	}

	return response[len(responseInitiator) : len(response)-len(responseTerminator)], nil
}

// readChannel reads one sensor channel as a float.
func (s *Sensor) readChannel(ctx context.Context, channel string) (float64, error) {
	payload, err := s.roundTrip(ctx, "$ADC Get Normal "+channel)
	if err != nil {
		return 0, err
	}

	value, err := strconv.ParseFloat(payload, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: payload %q for channel %s is not a float",
			ErrInvalidResponse, payload, channel)
	}

	return value, nil
}

// BarometricPressureMmHg reads barometric pressure in mmHg.
func (s *Sensor) BarometricPressureMmHg(ctx context.Context) (float64, error) {
	return s.readChannel(ctx, channelBarometricMmHg)
}

// BarometricPressureKPa reads barometric pressure in kPa.
func (s *Sensor) BarometricPressureKPa(ctx context.Context) (float64, error) {
	return s.readChannel(ctx, channelBarometricKPa)
}

// DOPercentSaturation reads dissolved oxygen as percent of saturation.
func (s *Sensor) DOPercentSaturation(ctx context.Context) (float64, error) {
	return s.readChannel(ctx, channelDOPercentSat)
}

// DOMgL reads dissolved oxygen in mg/L.
func (s *Sensor) DOMgL(ctx context.Context) (float64, error) {
	return s.readChannel(ctx, channelDOMgL)
}

// TemperatureC reads water temperature in degrees C.
func (s *Sensor) TemperatureC(ctx context.Context) (float64, error) {
	return s.readChannel(ctx, channelTemperatureC)
}

// UnitID reads the sonde's unit identifier. The sonde URL-encodes the ID,
// so it is percent-decoded before being returned.
func (s *Sensor) UnitID(ctx context.Context) (string, error) {
	payload, err := s.roundTrip(ctx, "$INFO Get UnitID")
	if err != nil {
		return "", err
	}

	unitID, err := url.PathUnescape(payload)
	if err != nil {
		return "", fmt.Errorf("%w: unit ID %q is not URL-encoded", ErrInvalidResponse, payload)
	}

	return unitID, nil
}

// Readings is the standard complement of sensor values collected each tick.
type Readings struct {
	BarometricPressureMmHg float64
	DOMgL                  float64
	DOPercentSaturation    float64
	TemperatureC           float64
}

// DOPartialPressureMmHg derives the dissolved oxygen partial pressure from
// percent saturation and barometric pressure.
func (r Readings) DOPartialPressureMmHg() float64 {
	return r.DOPercentSaturation / 100 * atmosphericO2Fraction * r.BarometricPressureMmHg
}

// ReadStandardValues reads the standard complement of sensor channels.
func (s *Sensor) ReadStandardValues(ctx context.Context) (Readings, error) {
	var (
		readings Readings
		err      error
	)

	if readings.BarometricPressureMmHg, err = s.BarometricPressureMmHg(ctx); err != nil {
		return Readings{}, err
	}
	if readings.DOMgL, err = s.DOMgL(ctx); err != nil {
		return Readings{}, err
	}
	if readings.DOPercentSaturation, err = s.DOPercentSaturation(ctx); err != nil {
		return Readings{}, err
	}
	if readings.TemperatureC, err = s.TemperatureC(ctx); err != nil {
		return Readings{}, err
	}

	return readings, nil
}
