// Package cosmobot triggers image captures on a remote camera unit over SSH.
//
// The cosmobot runs a run_experiment program that captures images for a
// given duration. The rig kicks it off for each hold phase so the camera
// data lines up with the sensor data rows.
package cosmobot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/kwahlman/calrig/logger"
)

// DefaultUser is the login on the cosmobot.
const DefaultUser = "pi"

// DefaultPort is the SSH port on the cosmobot.
const DefaultPort = 22

const (
	runExperimentPath = "/home/pi/.local/bin/run_experiment"
	variantParams     = "--exposure-time 0.8 -ISO 100 --led-on"
	captureIntervalS  = 9
)

var (
	// ErrBadExitStatus means run_experiment itself failed on the device.
	ErrBadExitStatus = errors.New("cosmobot: bad exit status from run_experiment")

	// ErrConnectionLost means the SSH connection dropped before
	// run_experiment reported an exit status, so the capture outcome is
	// unknown.
	ErrConnectionLost = errors.New("cosmobot: connection lost before run_experiment finished")
)

// CommandRunner executes one command on the cosmobot. The production
// implementation dials SSH per command; tests substitute a fake.
type CommandRunner interface {
	Run(ctx context.Context, command string) error
}

// Client triggers run_experiment captures on one cosmobot.
type Client struct {
	runner CommandRunner
	logger logger.Logger
}

type clientConfig struct {
	user           string
	port           int
	privateKeyFile string
	knownHostsFile string
	runner         CommandRunner
	logger         logger.Logger
}

// NewClient builds a Client for the cosmobot at hostname. Unless a runner
// is injected, WithPrivateKeyFile is required; host keys are checked
// against the user's known_hosts by default.
func NewClient(hostname string, opts ...Option) (*Client, error) {
	cfg := clientConfig{
		user:   DefaultUser,
		port:   DefaultPort,
		logger: logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.runner == nil {
		runner, err := newSSHRunner(hostname, cfg)
		if err != nil {
			return nil, err
		}
		cfg.runner = runner
	}

	return &Client{runner: cfg.runner, logger: cfg.logger}, nil
}

// Option is a functional option for configuring a Client.
type Option interface {
	apply(*clientConfig) error
}

type optFunc func(*clientConfig) error

func (f optFunc) apply(c *clientConfig) error { return f(c) }

// WithUser overrides the SSH login.
func WithUser(user string) Option {
	return optFunc(func(c *clientConfig) error {
		if user == "" {
			return errors.New("cosmobot: user must not be empty")
		}
		c.user = user

		return nil
	})
}

// WithPort overrides the SSH port.
func WithPort(port int) Option {
	return optFunc(func(c *clientConfig) error {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("cosmobot: invalid port %d", port)
		}
		c.port = port

		return nil
	})
}

// WithPrivateKeyFile sets the private key used to authenticate.
func WithPrivateKeyFile(path string) Option {
	return optFunc(func(c *clientConfig) error {
		c.privateKeyFile = path

		return nil
	})
}

// WithKnownHostsFile overrides the known_hosts file used for host key
// verification.
func WithKnownHostsFile(path string) Option {
	return optFunc(func(c *clientConfig) error {
		c.knownHostsFile = path

		return nil
	})
}

// WithRunner injects a command runner, mainly for tests.
func WithRunner(runner CommandRunner) Option {
	return optFunc(func(c *clientConfig) error {
		if runner == nil {
			return errors.New("cosmobot: runner must not be nil")
		}
		c.runner = runner

		return nil
	})
}

// WithClientLogger sets the logger for the client.
func WithClientLogger(l logger.Logger) Option {
	return optFunc(func(c *clientConfig) error {
		if l == nil {
			return errors.New("cosmobot: logger must not be nil")
		}
		c.logger = l

		return nil
	})
}

// Capture runs one image capture of the given duration on the cosmobot and
// waits for it to finish. Exit status 0 is success, a nonzero status means
// run_experiment failed on the device, and a missing status means the
// connection dropped mid-capture.
func (c *Client) Capture(ctx context.Context, experimentName string, duration time.Duration) error {
	command := runExperimentCommand(experimentName, duration)
	c.logger.Info("starting image capture on cosmobot", "command", command)

	err := c.runner.Run(ctx, command)
	if err == nil {
		c.logger.Info("image capture finished", "experimentName", experimentName)

		return nil
	}

	var missingErr *ssh.ExitMissingError
	if errors.As(err, &missingErr) {
		return fmt.Errorf("%w: %s", ErrConnectionLost, err)
	}

	var exitErr interface{ ExitStatus() int }
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: %d", ErrBadExitStatus, exitErr.ExitStatus())
	}

	return fmt.Errorf("cosmobot: run command: %w", err)
}

// runExperimentCommand renders the run_experiment invocation. The duration
// is passed in whole seconds.
func runExperimentCommand(experimentName string, duration time.Duration) string {
	return fmt.Sprintf(
		"%s --name %s --group-results --skip-temperature --interval %d --duration %d --variant %q",
		runExperimentPath, experimentName, captureIntervalS, int(duration.Seconds()), variantParams,
	)
}

// sshRunner dials a fresh SSH connection per command.
type sshRunner struct {
	addr   string
	config *ssh.ClientConfig
}

func newSSHRunner(hostname string, cfg clientConfig) (*sshRunner, error) {
	if cfg.privateKeyFile == "" {
		return nil, errors.New("cosmobot: private key file is required")
	}

	keyBytes, err := os.ReadFile(cfg.privateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("cosmobot: read private key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("cosmobot: parse private key: %w", err)
	}

	knownHostsFile := cfg.knownHostsFile
	if knownHostsFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cosmobot: resolve known_hosts: %w", err)
		}
		knownHostsFile = filepath.Join(home, ".ssh", "known_hosts")
	}
	hostKeyCallback, err := knownhosts.New(knownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("cosmobot: load known_hosts: %w", err)
	}

	return &sshRunner{
		addr: net.JoinHostPort(hostname, fmt.Sprintf("%d", cfg.port)),
		config: &ssh.ClientConfig{
			User:            cfg.user,
			Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
			HostKeyCallback: hostKeyCallback,
			Timeout:         30 * time.Second,
		},
	}, nil
}

func (r *sshRunner) Run(ctx context.Context, command string) error {
	client, err := ssh.Dial("tcp", r.addr, r.config)
	if err != nil {
		return fmt.Errorf("dial %s: %w", r.addr, err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case <-ctx.Done():
		// Tearing down the connection unblocks session.Run.
		_ = client.Close()
		<-done

		return ctx.Err()
	case err := <-done:
		return err
	}
}
