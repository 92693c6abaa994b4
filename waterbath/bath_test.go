package waterbath

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kwahlman/calrig/serial"
)

func newTestBath(t *testing.T, port serial.Commander, opts ...BathOption) *Bath {
	t.Helper()

	bath, err := NewBath(port, opts...)
	require.NoError(t, err)

	return bath
}

func respondWith(port *serial.MockCommander, response []byte) *mock.Call {
	return port.On("RoundTrip", mock.Anything, mock.Anything, mock.Anything).Return(response, nil)
}

func TestBath_ReadInternalTemperature(t *testing.T) {
	port := serial.NewMockCommander()
	// 25.00 C at 0.01 precision: qualifier 0x21, 2500 = 0x09C4.
	response, err := NewCommandPacket(CmdReadInternalTemperature, []byte{0x21, 0x09, 0xC4})
	require.NoError(t, err)
	respondWith(port, response.Bytes())

	bath := newTestBath(t, port)

	temp, err := bath.ReadInternalTemperature(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 25.0, temp, 1e-9)

	// The request on the wire must be the zero-data read packet.
	sent := port.Calls[0].Arguments.Get(1).([]byte)
	assert.Equal(t, []byte{0xCA, 0x00, 0x01, 0x20, 0x00, 0xDE}, sent)
}

func TestBath_SetSetpoint_EchoesValue(t *testing.T) {
	port := serial.NewMockCommander()
	response, err := NewCommandPacket(CmdSetSetpoint, []byte{0x21, 0x18, 0x6A})
	require.NoError(t, err)
	respondWith(port, response.Bytes())

	bath := newTestBath(t, port)

	echoed, err := bath.SetSetpoint(context.Background(), 62.5)
	require.NoError(t, err)
	assert.InDelta(t, 62.5, echoed, 1e-9)
}

func TestBath_SetSetpoint_PrecisionMismatch(t *testing.T) {
	port := serial.NewMockCommander()
	// Bath echoes at 0.1 precision (qualifier 0x11) after silently reverting.
	response, err := NewCommandPacket(CmdSetSetpoint, []byte{0x11, 0x02, 0x71})
	require.NoError(t, err)
	respondWith(port, response.Bytes())

	bath := newTestBath(t, port)

	_, err = bath.SetSetpoint(context.Background(), 62.5)
	assert.ErrorIs(t, err, ErrPrecisionMismatch)
}

func TestBath_SetSetpoint_OutOfRangeNeverHitsWire(t *testing.T) {
	port := serial.NewMockCommander()
	bath := newTestBath(t, port)

	_, err := bath.SetSetpoint(context.Background(), 150)
	require.Error(t, err)

	port.AssertNotCalled(t, "RoundTrip", mock.Anything, mock.Anything, mock.Anything)
}

func TestBath_ErrorResponse(t *testing.T) {
	port := serial.NewMockCommander()
	response, err := NewCommandPacket(CmdErrorResponse, []byte{0x01, 0x20})
	require.NoError(t, err)
	respondWith(port, response.Bytes())

	bath := newTestBath(t, port)

	_, err = bath.ReadInternalTemperature(context.Background())
	require.ErrorIs(t, err, ErrErrorResponse)
	assert.Contains(t, err.Error(), "Bad Command")
}

func TestBath_GarbageResponse(t *testing.T) {
	port := serial.NewMockCommander()
	respondWith(port, []byte{0x01, 0x02, 0x03})

	bath := newTestBath(t, port)

	_, err := bath.ReadInternalTemperature(context.Background())
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestBath_Initialize(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		port := serial.NewMockCommander()
		response, err := NewCommandPacket(CmdSetOnOffArray, []byte{1, 0, 1, 0, 0, 1, 0, 1})
		require.NoError(t, err)
		respondWith(port, response.Bytes())

		bath := newTestBath(t, port)

		settings, err := bath.Initialize(context.Background())
		require.NoError(t, err)
		assert.Equal(t, On, settings.UnitOnOff)

		// Initialize must command: on, internal sensor, high precision, and
		// leave serial comm untouched (it must already be on to get here).
		sent := port.Calls[0].Arguments.Get(1).([]byte)
		parsed, err := ParsePacket(sent)
		require.NoError(t, err)
		assert.Equal(t, CmdSetOnOffArray, parsed.Command)
		assert.Equal(t, []byte{1, 0, 2, 2, 2, 1, 2, 2}, parsed.Data)
	})

	t.Run("every mismatched setting reported", func(t *testing.T) {
		port := serial.NewMockCommander()
		// Echo says: off, external sensor, low precision, serial off.
		response, err := NewCommandPacket(CmdSetOnOffArray, []byte{0, 1, 1, 0, 0, 0, 0, 0})
		require.NoError(t, err)
		respondWith(port, response.Bytes())

		bath := newTestBath(t, port)

		_, err = bath.Initialize(context.Background())
		require.ErrorIs(t, err, ErrSettingsRejected)
		assert.Contains(t, err.Error(), "turned on")
		assert.Contains(t, err.Error(), "internal sensor")
		assert.Contains(t, err.Error(), "precision")
		assert.Contains(t, err.Error(), "serial comms")
	})
}

func TestBath_PowerOff(t *testing.T) {
	port := serial.NewMockCommander()
	response, err := NewCommandPacket(CmdSetOnOffArray, []byte{0, 0, 1, 0, 0, 1, 0, 1})
	require.NoError(t, err)
	respondWith(port, response.Bytes())

	bath := newTestBath(t, port)

	require.NoError(t, bath.PowerOff(context.Background()))

	sent := port.Calls[0].Arguments.Get(1).([]byte)
	parsed, err := ParsePacket(sent)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 2, 2, 2, 2, 2, 2, 2}, parsed.Data, "only the unit field may change")
}

func TestBath_AssertStatusOK(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		port := serial.NewMockCommander()
		response, err := NewCommandPacket(CmdReadStatus, []byte{0x00, 0x00, 0x00, 0x0E, 0x00})
		require.NoError(t, err)
		respondWith(port, response.Bytes())

		bath := newTestBath(t, port)
		assert.NoError(t, bath.AssertStatusOK(context.Background()))
	})

	t.Run("faulted", func(t *testing.T) {
		port := serial.NewMockCommander()
		response, err := NewCommandPacket(CmdReadStatus, []byte{0x80, 0x00, 0x00, 0x20, 0x00})
		require.NoError(t, err)
		respondWith(port, response.Bytes())

		bath := newTestBath(t, port)
		assert.ErrorIs(t, bath.AssertStatusOK(context.Background()), ErrBadStatus)
	})
}
