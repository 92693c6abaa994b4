package waterbath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum_KnownVectors(t *testing.T) {
	tests := []struct {
		name     string
		message  []byte
		expected byte
	}{
		{"read acknowledge", []byte{0x00, 0x01, 0x00, 0x00}, 0xFE},
		{"read status", []byte{0x00, 0x01, 0x09, 0x00}, 0xF5},
		{"read internal temperature", []byte{0x00, 0x01, 0x20, 0x00}, 0xDE},
		{"temperature response", []byte{0x00, 0x01, 0x20, 0x03, 0x11, 0x02, 0x71}, 0x57},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Checksum(tt.message))
		})
	}
}

func TestChecksum_SumTruncatesToOneByte(t *testing.T) {
	// 0xFF + 0xFF = 0x1FE; only the low byte (0xFE) is inverted.
	assert.Equal(t, byte(0x01), Checksum([]byte{0xFF, 0xFF}))
}

func TestNewCommandPacket(t *testing.T) {
	pkt, err := NewCommandPacket(CmdReadInternalTemperature, nil)
	require.NoError(t, err)

	assert.Equal(t, []byte{0xCA, 0x00, 0x01, 0x20, 0x00, 0xDE}, pkt.Bytes())
}

func TestNewCommandPacket_WithData(t *testing.T) {
	// Set Setpoint 62.5 C at 0.01 precision: 6250 = 0x186A.
	pkt, err := NewCommandPacket(CmdSetSetpoint, []byte{0x18, 0x6A})
	require.NoError(t, err)

	assert.Equal(t, []byte{0xCA, 0x00, 0x01, 0xF0, 0x02, 0x18, 0x6A, 0x8A}, pkt.Bytes())
}

func TestNewCommandPacket_TooMuchData(t *testing.T) {
	_, err := NewCommandPacket(CmdSetOnOffArray, make([]byte, MaxDataBytes+1))
	assert.Error(t, err)
}

func TestParsePacket_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		data []byte
	}{
		{"no data", CmdReadInternalTemperature, nil},
		{"setpoint echo", CmdSetSetpoint, []byte{0x21, 0x18, 0x6A}},
		{"settings echo", CmdSetOnOffArray, []byte{1, 0, 0, 0, 0, 1, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original, err := NewCommandPacket(tt.cmd, tt.data)
			require.NoError(t, err)

			parsed, err := ParsePacket(original.Bytes())
			require.NoError(t, err)

			assert.Equal(t, original.Bytes(), parsed.Bytes())
			assert.Equal(t, original.Command, parsed.Command)
		})
	}
}

func TestParsePacket_TemperatureResponse(t *testing.T) {
	// 62.5 C at 0.1 precision: qualifier 0x11, 625 decimal = 0x0271.
	raw := []byte{0xCA, 0x00, 0x01, 0x20, 0x03, 0x11, 0x02, 0x71, 0x57}

	pkt, err := ParsePacket(raw)
	require.NoError(t, err)

	assert.Equal(t, CmdReadInternalTemperature, pkt.Command)
	assert.Equal(t, []byte{0x11, 0x02, 0x71}, pkt.Data)
}

func TestParsePacket_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		contains []string
	}{
		{
			name:     "too short",
			raw:      []byte{0xCA, 0x00, 0x01},
			contains: []string{"at least"},
		},
		{
			name:     "wrong prefix",
			raw:      []byte{0xCC, 0x00, 0x01, 0x20, 0x00, 0xDE},
			contains: []string{"prefix"},
		},
		{
			name:     "wrong address",
			raw:      []byte{0xCA, 0x00, 0x02, 0x20, 0x00, 0xDD},
			contains: []string{"addr lsb"},
		},
		{
			name:     "bad checksum",
			raw:      []byte{0xCA, 0x00, 0x01, 0x20, 0x00, 0x00},
			contains: []string{"checksum"},
		},
		{
			name: "multiple failures all reported",
			raw:  []byte{0xCC, 0x00, 0x02, 0x20, 0x00, 0x00},
			contains: []string{
				"prefix",
				"addr lsb",
				"checksum",
			},
		},
		{
			name:     "data count mismatch",
			raw:      []byte{0xCA, 0x00, 0x01, 0x20, 0x05, 0x11, 0x02, 0x71, 0x55},
			contains: []string{"data bytes count"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePacket(tt.raw)
			require.ErrorIs(t, err, ErrInvalidResponse)
			for _, fragment := range tt.contains {
				assert.Contains(t, err.Error(), fragment)
			}
			// Raw bytes must always be present for diagnosis.
			assert.Contains(t, err.Error(), "raw:")
		})
	}
}
