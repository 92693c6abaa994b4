package serial

import (
	"errors"
	"fmt"
	"time"

	"github.com/kwahlman/calrig/logger"
)

// Defaults match the rig's instruments: the bath and mixer both ship at
// 19200 baud, and per-call timeouts are hundreds of milliseconds.
const (
	DefaultBaudRate    = 19200
	DefaultReadTimeout = 100 * time.Millisecond

	MinReadTimeout = 10 * time.Millisecond
	MaxReadTimeout = 5 * time.Second
)

// PortConfig holds all configuration for one serial port.
type PortConfig struct {
	name        string
	baudRate    int
	readTimeout time.Duration
	logger      logger.Logger
}

// NewPortConfig creates a port configuration.
//
// name is the OS device name. opts are functional options applied in order;
// see With* functions.
func NewPortConfig(name string, opts ...PortOption) (*PortConfig, error) {
	if name == "" {
		return nil, errors.New("serial: port name must not be empty")
	}

	cfg := &PortConfig{
		name:        name,
		baudRate:    DefaultBaudRate,
		readTimeout: DefaultReadTimeout,
		logger:      logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Name returns the OS device name.
func (cfg *PortConfig) Name() string { return cfg.name }

// BaudRate returns the configured baud rate.
func (cfg *PortConfig) BaudRate() int { return cfg.baudRate }

// ReadTimeout returns the per-read-call timeout.
func (cfg *PortConfig) ReadTimeout() time.Duration { return cfg.readTimeout }

// PortOption is a functional option for configuring a PortConfig.
type PortOption interface {
	apply(*PortConfig) error
}

type portOptFunc func(*PortConfig) error

func (f portOptFunc) apply(cfg *PortConfig) error { return f(cfg) }

// WithBaudRate sets the line speed. Must be positive.
func WithBaudRate(rate int) PortOption {
	return portOptFunc(func(cfg *PortConfig) error {
		if rate <= 0 {
			return fmt.Errorf("serial: baud rate %d must be positive", rate)
		}
		cfg.baudRate = rate

		return nil
	})
}

// WithReadTimeout sets the per-read-call timeout. A stuck device shows up as
// a short or empty response, never as a hang.
func WithReadTimeout(d time.Duration) PortOption {
	return portOptFunc(func(cfg *PortConfig) error {
		if d < MinReadTimeout || d > MaxReadTimeout {
			return fmt.Errorf("serial: read timeout %v out of range [%v, %v]", d, MinReadTimeout, MaxReadTimeout)
		}
		cfg.readTimeout = d

		return nil
	})
}

// WithLogger sets the logger for the port.
func WithLogger(l logger.Logger) PortOption {
	return portOptFunc(func(cfg *PortConfig) error {
		if l == nil {
			return errors.New("serial: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
