package waterbath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnOffArraySettings_DataBytes(t *testing.T) {
	settings := OnOffArraySettings{
		UnitOnOff:            On,
		ExternalSensorEnable: Off,
		FaultsEnabled:        NoChange,
		Mute:                 NoChange,
		AutoRestart:          NoChange,
		HighPrecisionEnable:  On,
		FullRangeCoolEnable:  NoChange,
		SerialCommEnable:     NoChange,
	}

	assert.Equal(t, []byte{1, 0, 2, 2, 2, 1, 2, 2}, settings.dataBytes())
}

func TestParseSettingsData(t *testing.T) {
	settings, err := parseSettingsData([]byte{1, 0, 1, 0, 0, 1, 0, 1})
	require.NoError(t, err)

	assert.Equal(t, On, settings.UnitOnOff)
	assert.Equal(t, Off, settings.ExternalSensorEnable)
	assert.Equal(t, On, settings.HighPrecisionEnable)
	assert.Equal(t, On, settings.SerialCommEnable)
}

func TestParseSettingsData_Invalid(t *testing.T) {
	t.Run("wrong length", func(t *testing.T) {
		_, err := parseSettingsData([]byte{1, 0, 1})
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("invalid toggle value", func(t *testing.T) {
		_, err := parseSettingsData([]byte{1, 0, 1, 0, 0, 3, 0, 1})
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})
}

func TestValidateInitializedSettings(t *testing.T) {
	good := OnOffArraySettings{
		UnitOnOff:            On,
		ExternalSensorEnable: Off,
		HighPrecisionEnable:  On,
		SerialCommEnable:     On,
	}

	t.Run("all good", func(t *testing.T) {
		assert.NoError(t, validateInitializedSettings(good, 0.01))
	})

	t.Run("every mismatch reported", func(t *testing.T) {
		bad := OnOffArraySettings{
			UnitOnOff:            Off,
			ExternalSensorEnable: On,
			HighPrecisionEnable:  Off,
			SerialCommEnable:     Off,
		}

		err := validateInitializedSettings(bad, 0.01)
		require.ErrorIs(t, err, ErrSettingsRejected)
		assert.Contains(t, err.Error(), "turned on")
		assert.Contains(t, err.Error(), "internal sensor")
		assert.Contains(t, err.Error(), "precision")
		assert.Contains(t, err.Error(), "serial comms")
	})

	t.Run("low precision accepted when configured", func(t *testing.T) {
		lowPrec := good
		lowPrec.HighPrecisionEnable = Off

		assert.NoError(t, validateInitializedSettings(lowPrec, 0.1))
	})
}
