package serial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPortConfig_Defaults(t *testing.T) {
	cfg, err := NewPortConfig("/dev/ttyUSB0")
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Name())
	assert.Equal(t, DefaultBaudRate, cfg.BaudRate())
	assert.Equal(t, DefaultReadTimeout, cfg.ReadTimeout())
}

func TestNewPortConfig_Options(t *testing.T) {
	cfg, err := NewPortConfig("COM21",
		WithBaudRate(57600),
		WithReadTimeout(time.Second),
	)
	require.NoError(t, err)

	assert.Equal(t, 57600, cfg.BaudRate())
	assert.Equal(t, time.Second, cfg.ReadTimeout())
}

func TestNewPortConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		port string
		opts []PortOption
	}{
		{name: "empty port name", port: ""},
		{name: "zero baud rate", port: "COM21", opts: []PortOption{WithBaudRate(0)}},
		{name: "negative baud rate", port: "COM21", opts: []PortOption{WithBaudRate(-19200)}},
		{name: "timeout too short", port: "COM21", opts: []PortOption{WithReadTimeout(time.Millisecond)}},
		{name: "timeout too long", port: "COM21", opts: []PortOption{WithReadTimeout(time.Minute)}},
		{name: "nil logger", port: "COM21", opts: []PortOption{WithLogger(nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPortConfig(tt.port, tt.opts...)
			assert.Error(t, err)
		})
	}
}

func TestLockFor_SamePortSameLock(t *testing.T) {
	a := lockFor("/dev/ttyUSB7")
	b := lockFor("/dev/ttyUSB7")
	c := lockFor("/dev/ttyUSB8")

	assert.Same(t, a, b, "one physical port must map to one lock")
	assert.NotSame(t, a, c)
}
