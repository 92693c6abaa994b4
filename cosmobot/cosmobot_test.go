package cosmobot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

type fakeRunner struct {
	commands []string
	err      error
}

func (f *fakeRunner) Run(_ context.Context, command string) error {
	f.commands = append(f.commands, command)

	return f.err
}

// exitStatusError mimics the exit status reporting of ssh.ExitError, whose
// fields are unexported and cannot be set in tests.
type exitStatusError struct {
	status int
}

func (e *exitStatusError) Error() string   { return "Process exited with status" }
func (e *exitStatusError) ExitStatus() int { return e.status }

func TestCaptureCommand(t *testing.T) {
	runner := &fakeRunner{}
	client, err := NewClient("cosmobot.local", WithRunner(runner))
	require.NoError(t, err)

	require.NoError(t, client.Capture(context.Background(), "calibration_sweep_1", 10*time.Minute))

	require.Len(t, runner.commands, 1)
	assert.Equal(t,
		`/home/pi/.local/bin/run_experiment --name calibration_sweep_1 --group-results`+
			` --skip-temperature --interval 9 --duration 600 --variant "--exposure-time 0.8 -ISO 100 --led-on"`,
		runner.commands[0],
	)
}

func TestCaptureBadExitStatus(t *testing.T) {
	runner := &fakeRunner{err: &exitStatusError{status: 3}}
	client, err := NewClient("cosmobot.local", WithRunner(runner))
	require.NoError(t, err)

	err = client.Capture(context.Background(), "exp", time.Minute)
	assert.ErrorIs(t, err, ErrBadExitStatus)
	assert.ErrorContains(t, err, "3")
}

func TestCaptureConnectionLost(t *testing.T) {
	runner := &fakeRunner{err: &ssh.ExitMissingError{}}
	client, err := NewClient("cosmobot.local", WithRunner(runner))
	require.NoError(t, err)

	err = client.Capture(context.Background(), "exp", time.Minute)
	assert.ErrorIs(t, err, ErrConnectionLost)
}

func TestCaptureTransportError(t *testing.T) {
	dialErr := errors.New("dial tcp: connection refused")
	runner := &fakeRunner{err: dialErr}
	client, err := NewClient("cosmobot.local", WithRunner(runner))
	require.NoError(t, err)

	err = client.Capture(context.Background(), "exp", time.Minute)
	assert.ErrorIs(t, err, dialErr)
	assert.NotErrorIs(t, err, ErrBadExitStatus)
}

func TestNewClientRequiresKeyWithoutRunner(t *testing.T) {
	_, err := NewClient("cosmobot.local")
	assert.Error(t, err)
}
