package waterbath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusData_CleanRunningBath(t *testing.T) {
	// Byte 4 = 0b00001110: unit on, pump on, compressor on.
	status, err := parseStatusData([]byte{0x00, 0x00, 0x00, 0x0E, 0x00})
	require.NoError(t, err)

	assert.True(t, status.UnitOn)
	assert.True(t, status.PumpOn)
	assert.True(t, status.CompressorOn)
	assert.False(t, status.HeaterOn)
	assert.Empty(t, status.ErrorFlags())
	assert.NoError(t, status.Validate())
}

func TestParseStatusData_Faults(t *testing.T) {
	// Byte 1 = 0b10000000: rtd1 open fault.
	// Byte 3 = 0b00001000: low level fault.
	// Byte 4 = 0b00100000: unit faulted.
	status, err := parseStatusData([]byte{0x80, 0x00, 0x08, 0x20, 0x00})
	require.NoError(t, err)

	assert.True(t, status.RTD1OpenFault)
	assert.True(t, status.LowLevelFault)
	assert.True(t, status.UnitFaulted)

	flags := status.ErrorFlags()
	assert.ElementsMatch(t, []string{"rtd1 open fault", "low level fault", "unit faulted"}, flags)

	err = status.Validate()
	require.ErrorIs(t, err, ErrBadStatus)
	assert.Contains(t, err.Error(), "rtd1 open fault")
	assert.Contains(t, err.Error(), "low level fault")
	assert.Contains(t, err.Error(), "unit faulted")
}

func TestParseStatusData_NonAlarmingFlags(t *testing.T) {
	// Byte 1 = 0b00100000: rtd1 open (informational, not a fault).
	// Byte 5 = 0b10000000: rtd2 controlling.
	status, err := parseStatusData([]byte{0x20, 0x00, 0x00, 0x00, 0x80})
	require.NoError(t, err)

	assert.True(t, status.RTD1Open)
	assert.True(t, status.RTD2Controlling)
	assert.NoError(t, status.Validate())
}

func TestParseStatusData_WrongLength(t *testing.T) {
	_, err := parseStatusData([]byte{0x00, 0x00})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}
