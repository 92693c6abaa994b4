package gasmixer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kwahlman/calrig/serial"
)

func newTestMixer(t *testing.T, port serial.Commander) *Mixer {
	t.Helper()

	mixer, err := NewMixer(port)
	require.NoError(t, err)

	return mixer
}

func expectCommand(port *serial.MockCommander, command, response string) *mock.Call {
	return port.On("RoundTrip", mock.Anything, []byte(command+"\r"), mock.Anything).
		Return([]byte(response+"\r"), nil).Once()
}

func TestMixer_StartConstantFlowMix(t *testing.T) {
	t.Run("issues the fixed sequence with fraction before flow", func(t *testing.T) {
		port := serial.NewMockCommander()
		expectCommand(port, "A MXRM 3", "A 3")
		expectCommand(port, "A MXMF 800000000 200000000", "A 800000000 200000000")
		expectCommand(port, "A MXRFF 5", "A 5.00 7 SLPM")
		expectCommand(port, "A MXRS 1", "A 2")

		mixer := newTestMixer(t, port)

		err := mixer.StartConstantFlowMix(context.Background(), 5, 0.5, 0.1)
		require.NoError(t, err)
		port.AssertExpectations(t)

		// The fraction command must precede the flow rate command: the
		// controller clamps flow to the configured fraction.
		var commands []string
		for _, call := range port.Calls {
			commands = append(commands, string(call.Arguments.Get(1).([]byte)))
		}
		assert.Equal(t, []string{
			"A MXRM 3\r",
			"A MXMF 800000000 200000000\r",
			"A MXRFF 5\r",
			"A MXRS 1\r",
		}, commands)
	})

	t.Run("unexpected echo aborts the remaining steps", func(t *testing.T) {
		port := serial.NewMockCommander()
		expectCommand(port, "A MXRM 3", "A 3")
		expectCommand(port, "A MXMF 800000000 200000000", "A 0")

		mixer := newTestMixer(t, port)

		err := mixer.StartConstantFlowMix(context.Background(), 5, 0.5, 0.1)
		require.ErrorIs(t, err, ErrUnexpectedResponse)
		assert.Contains(t, err.Error(), `"A 0"`)

		// Two round trips, then the sequence stopped.
		assert.Len(t, port.Calls, 2)
	})

	t.Run("invalid mix never hits the wire", func(t *testing.T) {
		port := serial.NewMockCommander()
		mixer := newTestMixer(t, port)

		err := mixer.StartConstantFlowMix(context.Background(), 99, 1, 0.5)
		require.ErrorIs(t, err, ErrInvalidMix)

		port.AssertNotCalled(t, "RoundTrip", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("zero flow delegates to stop", func(t *testing.T) {
		port := serial.NewMockCommander()
		expectCommand(port, "A MXRS 2", "A 3")

		mixer := newTestMixer(t, port)

		require.NoError(t, mixer.StartConstantFlowMix(context.Background(), 0, 0.5, 0.1))
		port.AssertExpectations(t)
	})
}

func TestMixer_StopFlow(t *testing.T) {
	t.Run("any stopped state counts as success", func(t *testing.T) {
		for _, state := range []RunState{
			RunStateStoppedInvalidConfig,
			RunStateStoppedOK,
			RunStateStoppedAlarmSilenced,
			RunStateStoppedAlarm,
		} {
			port := serial.NewMockCommander()
			expectCommand(port, "A MXRS 2", fmt.Sprintf("A %d", state))

			mixer := newTestMixer(t, port)
			assert.NoError(t, mixer.StopFlow(context.Background()), "state %d", state)
		}
	})

	t.Run("still mixing is a failure naming the state", func(t *testing.T) {
		port := serial.NewMockCommander()
		expectCommand(port, "A MXRS 2", "A 2")

		mixer := newTestMixer(t, port)

		err := mixer.StopFlow(context.Background())
		require.ErrorIs(t, err, ErrUnexpectedResponse)
		assert.Contains(t, err.Error(), "Device is mixing.")
	})
}

func TestMixer_GetStatus(t *testing.T) {
	port := serial.NewMockCommander()
	expectCommand(port, "A QMXS",
		"A 0 2 4096 14 7 4 2 Y - +00.19 +05.00 +0001463 ---------- "+
			"04096 +020.6 +02.50 +923 +0500000000 04096 +017.2 +2.500 +540 +0500000000")

	mixer := newTestMixer(t, port)

	status, err := mixer.GetStatus(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 5.0, status.FlowRateSLPM, 1e-9)
	assert.InDelta(t, 0.19, status.MixPressureMmHg, 1e-9)
	assert.False(t, status.LowFeedPressureAlarm)
}

func TestMixer_GetStatus_NoResponse(t *testing.T) {
	port := serial.NewMockCommander()
	port.On("RoundTrip", mock.Anything, mock.Anything, mock.Anything).Return([]byte{}, nil)

	mixer := newTestMixer(t, port)

	_, err := mixer.GetStatus(context.Background())
	require.ErrorIs(t, err, ErrUnexpectedResponse)
	assert.Contains(t, err.Error(), "no response")
}

func TestMixer_CheckFeedPressure(t *testing.T) {
	port := serial.NewMockCommander()
	expectCommand(port, "A QMXS",
		"A 0 30 2199568 14 7 4 2 Y - -00.00 +00.00 +0001459 ---------- "+
			"2199568 +000.0 +00.00 +921 +1000000000 04096 +018.6 -0.000 +539 +0000000000")

	mixer := newTestMixer(t, port)

	err := mixer.CheckFeedPressure(context.Background())
	require.ErrorIs(t, err, ErrLowFeedPressure)
	assert.Contains(t, err.Error(), "N2")
}

func TestMixer_GetGasIDs(t *testing.T) {
	port := serial.NewMockCommander()
	expectCommand(port, "A MXFG", "A 1 4")

	mixer := newTestMixer(t, port)

	ids, err := mixer.GetGasIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, GasIDs{N2: 1, O2SourceGas: 4}, ids)
}
