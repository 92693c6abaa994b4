package waterbath

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Command is a protocol command byte.
type Command byte

// Command bytes from the NC serial protocol manual.
const (
	CmdReadAcknowledge Command = 0x00
	CmdReadStatus      Command = 0x09

	// CmdErrorResponse is reserved: the bath echoes it in place of the
	// requested command when the request was bad.
	CmdErrorResponse Command = 0x0F

	CmdReadInternalTemperature  Command = 0x20
	CmdReadExternalSensor       Command = 0x21
	CmdReadLowTemperatureLimit  Command = 0x40
	CmdReadHighTemperatureLimit Command = 0x60
	CmdReadSetpoint             Command = 0x70
	CmdReadHeatProportionalBand Command = 0x71
	CmdReadHeatIntegral         Command = 0x72
	CmdReadHeatDerivative       Command = 0x73
	CmdReadCoolProportionalBand Command = 0x74
	CmdReadCoolIntegral         Command = 0x75
	CmdReadCoolDerivative       Command = 0x76

	CmdSetOnOffArray Command = 0x81

	CmdSetLowTemperatureLimit  Command = 0xC0
	CmdSetHighTemperatureLimit Command = 0xE0
	CmdSetSetpoint             Command = 0xF0
	CmdSetHeatProportionalBand Command = 0xF1
	CmdSetHeatIntegral         Command = 0xF2
	CmdSetHeatDerivative       Command = 0xF3
	CmdSetCoolProportionalBand Command = 0xF4
	CmdSetCoolIntegral         Command = 0xF5
	CmdSetCoolDerivative       Command = 0xF6
)

func (c Command) String() string {
	switch c {
	case CmdReadAcknowledge:
		return "Read Acknowledge"
	case CmdReadStatus:
		return "Read Status"
	case CmdErrorResponse:
		return "Error Response"
	case CmdReadInternalTemperature:
		return "Read Internal Temperature"
	case CmdReadExternalSensor:
		return "Read External Sensor"
	case CmdReadLowTemperatureLimit:
		return "Read Low Temperature Limit"
	case CmdReadHighTemperatureLimit:
		return "Read High Temperature Limit"
	case CmdReadSetpoint:
		return "Read Setpoint"
	case CmdReadHeatProportionalBand:
		return "Read Heat Proportional Band"
	case CmdReadHeatIntegral:
		return "Read Heat Integral"
	case CmdReadHeatDerivative:
		return "Read Heat Derivative"
	case CmdReadCoolProportionalBand:
		return "Read Cool Proportional Band"
	case CmdReadCoolIntegral:
		return "Read Cool Integral"
	case CmdReadCoolDerivative:
		return "Read Cool Derivative"
	case CmdSetOnOffArray:
		return "Set On/Off Array"
	case CmdSetLowTemperatureLimit:
		return "Set Low Temperature Limit"
	case CmdSetHighTemperatureLimit:
		return "Set High Temperature Limit"
	case CmdSetSetpoint:
		return "Set Setpoint"
	case CmdSetHeatProportionalBand:
		return "Set Heat Proportional Band"
	case CmdSetHeatIntegral:
		return "Set Heat Integral"
	case CmdSetHeatDerivative:
		return "Set Heat Derivative"
	case CmdSetCoolProportionalBand:
		return "Set Cool Proportional Band"
	case CmdSetCoolIntegral:
		return "Set Cool Integral"
	case CmdSetCoolDerivative:
		return "Set Cool Derivative"
	default:
		return fmt.Sprintf("Unknown Command 0x%02X", byte(c))
	}
}

// qualifierPrecision maps the qualifier byte the bath prepends to response
// data onto the precision the two value bytes were scaled by. The 0x1n/0x2n
// variants differ only in the units column of the manual's Table 2.
func qualifierPrecision(qualifier byte) (float64, bool) {
	switch qualifier {
	case 0x10, 0x11:
		return 0.1, true
	case 0x20, 0x21:
		return 0.01, true
	default:
		return 0, false
	}
}

// encodeFixedPoint converts value into the two-byte big-endian integer a set
// command carries: round(value / precision). Assumes the bath has already
// been configured (via Initialize) to interpret data at this precision.
func encodeFixedPoint(value, precision float64) []byte {
	scaled := uint16(math.Round(value / precision))

	data := make([]byte, 2)
	binary.BigEndian.PutUint16(data, scaled)

	return data
}

// parseQualifiedData decodes response data of the form
// [qualifier, value-MSB, value-LSB] into a float.
//
// The qualifier names the precision the bath actually used; if it disagrees
// with expectedPrecision the value would be silently off by a factor of ten,
// so a PrecisionMismatch is reported instead.
func parseQualifiedData(data []byte, expectedPrecision float64) (float64, error) {
	if len(data) != 3 {
		return 0, fmt.Errorf("%w: qualified data is %d bytes, want 3 (data: % X)", ErrInvalidResponse, len(data), data)
	}

	precision, ok := qualifierPrecision(data[0])
	if !ok {
		return 0, fmt.Errorf("%w: unknown qualifier byte 0x%02X (data: % X)", ErrInvalidResponse, data[0], data)
	}

	if precision != expectedPrecision {
		return 0, fmt.Errorf("%w: bath reported precision %v, driver configured for %v; run Initialize to assert the desired precision",
			ErrPrecisionMismatch, precision, expectedPrecision)
	}

	return float64(binary.BigEndian.Uint16(data[1:3])) * precision, nil
}

// ErrorType is the first data byte of an error response packet.
type ErrorType byte

const (
	ErrorBadCommand  ErrorType = 0x01
	ErrorBadChecksum ErrorType = 0x03
)

func (e ErrorType) String() string {
	switch e {
	case ErrorBadCommand:
		return "Bad Command"
	case ErrorBadChecksum:
		return "Bad Checksum"
	default:
		return fmt.Sprintf("Unknown Error 0x%02X", byte(e))
	}
}

// checkErrorResponse inspects a parsed response packet for the reserved error
// command and, if present, decodes the error type and the echo of the command
// byte as the bath received it.
func checkErrorResponse(pkt *Packet) error {
	if pkt.Command != CmdErrorResponse {
		return nil
	}

	if len(pkt.Data) != 2 {
		return fmt.Errorf("%w: error packet data is %d bytes, want 2 (packet: %s)", ErrInvalidResponse, len(pkt.Data), pkt)
	}

	errorType := ErrorType(pkt.Data[0])
	echoedCommand := pkt.Data[1]

	return fmt.Errorf("%w: %s, echo of command byte as received: 0x%02X",
		ErrErrorResponse, errorType, echoedCommand)
}
