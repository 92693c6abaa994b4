package waterbath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFixedPoint(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		precision float64
		expected  []byte
	}{
		{"62.5 at 0.01", 62.5, 0.01, []byte{0x18, 0x6A}},
		{"62.5 at 0.1", 62.5, 0.1, []byte{0x02, 0x71}},
		{"zero", 0, 0.01, []byte{0x00, 0x00}},
		{"rounds to nearest", 25.004, 0.01, []byte{0x09, 0xC4}}, // 2500
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, encodeFixedPoint(tt.value, tt.precision))
		})
	}
}

func TestParseQualifiedData_RoundTripsSetCommand(t *testing.T) {
	// A Set Setpoint for 62.5 C encodes the same two value bytes the bath
	// echoes back behind a qualifier.
	encoded := encodeFixedPoint(62.5, 0.01)

	value, err := parseQualifiedData(append([]byte{0x21}, encoded...), 0.01)
	require.NoError(t, err)
	assert.InDelta(t, 62.5, value, 1e-9)
}

func TestParseQualifiedData_PrecisionMismatch(t *testing.T) {
	// Qualifier 0x11 means the bath reported at 0.1 precision; the caller
	// expected 0.01 and must not trust the value.
	_, err := parseQualifiedData([]byte{0x11, 0x02, 0x71}, 0.01)
	assert.ErrorIs(t, err, ErrPrecisionMismatch)
}

func TestParseQualifiedData_Qualifiers(t *testing.T) {
	tests := []struct {
		qualifier byte
		precision float64
		expected  float64
	}{
		{0x10, 0.1, 62.5},
		{0x11, 0.1, 62.5},
		{0x20, 0.01, 6.25},
		{0x21, 0.01, 6.25},
	}

	for _, tt := range tests {
		value, err := parseQualifiedData([]byte{tt.qualifier, 0x02, 0x71}, tt.precision)
		require.NoError(t, err)
		assert.InDelta(t, tt.expected, value, 1e-9)
	}
}

func TestParseQualifiedData_Invalid(t *testing.T) {
	t.Run("unknown qualifier", func(t *testing.T) {
		_, err := parseQualifiedData([]byte{0x99, 0x02, 0x71}, 0.01)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := parseQualifiedData([]byte{0x21, 0x02}, 0.01)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})
}

func TestCheckErrorResponse(t *testing.T) {
	t.Run("bad command", func(t *testing.T) {
		pkt, err := NewCommandPacket(CmdErrorResponse, []byte{0x01, 0x99})
		require.NoError(t, err)

		err = checkErrorResponse(pkt)
		require.ErrorIs(t, err, ErrErrorResponse)
		assert.Contains(t, err.Error(), "Bad Command")
		assert.Contains(t, err.Error(), "0x99")
	})

	t.Run("bad checksum", func(t *testing.T) {
		pkt, err := NewCommandPacket(CmdErrorResponse, []byte{0x03, 0xF0})
		require.NoError(t, err)

		err = checkErrorResponse(pkt)
		require.ErrorIs(t, err, ErrErrorResponse)
		assert.Contains(t, err.Error(), "Bad Checksum")
	})

	t.Run("not an error response", func(t *testing.T) {
		pkt, err := NewCommandPacket(CmdReadInternalTemperature, nil)
		require.NoError(t, err)

		assert.NoError(t, checkErrorResponse(pkt))
	})
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "Read Internal Temperature", CmdReadInternalTemperature.String())
	assert.Equal(t, "Set Setpoint", CmdSetSetpoint.String())
	assert.Contains(t, Command(0x42).String(), "0x42")
}
