package gasmixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRunState(t *testing.T) {
	state, err := parseRunState("A 3")
	require.NoError(t, err)
	assert.Equal(t, RunStateStoppedOK, state)
}

func TestParseRunState_Invalid(t *testing.T) {
	for _, response := range []string{"", "A", "B 3", "A 9", "A three", "A 3 4"} {
		_, err := parseRunState(response)
		assert.ErrorIs(t, err, ErrUnexpectedResponse, "response %q", response)
	}
}

func TestRunState_Stopped(t *testing.T) {
	stopped := map[RunState]bool{
		RunStateEMO:                  false,
		RunStateStoppedInvalidConfig: true,
		RunStateMixing:               false,
		RunStateStoppedOK:            true,
		RunStateStoppedAlarmSilenced: true,
		RunStateStoppedAlarm:         true,
	}

	for state, expected := range stopped {
		assert.Equal(t, expected, state.Stopped(), "state %d", state)
	}
}

func TestRunState_String(t *testing.T) {
	assert.Equal(t, "Device is mixing.", RunStateMixing.String())
	assert.Contains(t, RunStateStoppedAlarm.String(), "alarm")
	assert.Contains(t, RunState(42).String(), "42")
}
