package run

import (
	"errors"
	"fmt"
	"time"

	"github.com/kwahlman/calrig/equilibrate"
	"github.com/kwahlman/calrig/setpoints"
)

// Defaults for run timing.
const (
	DefaultCollectionInterval = 60 * time.Second

	// DefaultShutdownSettleTime is the pause between stopping the mixer and
	// powering off the bath. The bath cannot be powered off immediately
	// after being powered on.
	DefaultShutdownSettleTime = 5 * time.Second
)

// Config holds the immutable parameters of one calibration run. It is
// assembled once at startup and never mutated while the run executes.
type Config struct {
	// RunID tags log lines and the output data for this run.
	RunID string

	// Setpoints is the ordered sequence to walk.
	Setpoints []setpoints.Setpoint

	// O2SourceGasFraction is the O2 fraction of the gas feeding MFC 2.
	O2SourceGasFraction float64

	// Loop repeats the whole sequence until interrupted.
	Loop bool

	// CollectionInterval is the pause between data rows while holding at a
	// setpoint.
	CollectionInterval time.Duration

	// PollDelay is the pause between samples while waiting for
	// equilibration.
	PollDelay time.Duration

	// ShutdownSettleTime is the pause between stopping the mixer and
	// powering off the bath during shutdown.
	ShutdownSettleTime time.Duration

	// TemperatureCriteria and DOCriteria decide when the bath temperature
	// and DO partial pressure count as equilibrated.
	TemperatureCriteria equilibrate.Criteria
	DOCriteria          equilibrate.Criteria

	// CosmobotExperimentName, when set together with a capturer, triggers a
	// remote image capture during each hold phase.
	CosmobotExperimentName string
}

func (c *Config) applyDefaults() {
	if c.CollectionInterval == 0 {
		c.CollectionInterval = DefaultCollectionInterval
	}
	if c.PollDelay == 0 {
		c.PollDelay = equilibrate.DefaultPollDelay
	}
	if c.ShutdownSettleTime == 0 {
		c.ShutdownSettleTime = DefaultShutdownSettleTime
	}
	if c.TemperatureCriteria == (equilibrate.Criteria{}) {
		c.TemperatureCriteria = equilibrate.TemperatureCriteria
	}
	if c.DOCriteria == (equilibrate.Criteria{}) {
		c.DOCriteria = equilibrate.DOCriteria
	}
}

func (c *Config) validate() error {
	if len(c.Setpoints) == 0 {
		return errors.New("run: config needs at least one setpoint")
	}
	if c.O2SourceGasFraction <= 0 || c.O2SourceGasFraction > 1 {
		return fmt.Errorf("run: O2 source gas fraction %v must be in (0, 1]", c.O2SourceGasFraction)
	}
	if c.CollectionInterval <= 0 {
		return fmt.Errorf("run: collection interval %v must be positive", c.CollectionInterval)
	}

	return nil
}
