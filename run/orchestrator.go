package run

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kwahlman/calrig/datalog"
	"github.com/kwahlman/calrig/equilibrate"
	"github.com/kwahlman/calrig/gasmixer"
	"github.com/kwahlman/calrig/internal/latest"
	"github.com/kwahlman/calrig/logger"
	"github.com/kwahlman/calrig/retry"
	"github.com/kwahlman/calrig/serial"
	"github.com/kwahlman/calrig/setpoints"
	"github.com/kwahlman/calrig/waterbath"
	"github.com/kwahlman/calrig/ysi"
)

// DefaultRetryPredicate retries the error kinds that transient serial noise
// produces. Validation errors, invalid mixes, and status-check aborts are
// deterministic and fall through immediately.
func DefaultRetryPredicate() func(error) bool {
	return retry.OnErrors(
		serial.ErrTransport,
		waterbath.ErrInvalidResponse,
		waterbath.ErrErrorResponse,
		gasmixer.ErrInvalidResponse,
		gasmixer.ErrUnexpectedResponse,
		ysi.ErrInvalidResponse,
	)
}

// Orchestrator drives one calibration run.
type Orchestrator struct {
	bath     BathController
	mixer    MixerController
	sensor   SensorReader
	capturer ExperimentCapturer

	collector *datalog.Collector
	policy    *retry.Policy
	cfg       Config
	logger    logger.Logger

	snapshot latest.Value[Snapshot]
}

// NewOrchestrator assembles an Orchestrator. The capturer is optional; pass
// WithCapturer to trigger remote image captures during hold phases.
func NewOrchestrator(
	bath BathController,
	mixer MixerController,
	sensor SensorReader,
	collector *datalog.Collector,
	cfg Config,
	opts ...OrchestratorOption,
) (*Orchestrator, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	policy, err := retry.NewPolicy(retry.WithRetryIf(DefaultRetryPredicate()))
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		bath:      bath,
		mixer:     mixer,
		sensor:    sensor,
		collector: collector,
		policy:    policy,
		cfg:       cfg,
		logger:    logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(o); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// OrchestratorOption is a functional option for configuring an Orchestrator.
type OrchestratorOption interface {
	apply(*Orchestrator) error
}

type orchOptFunc func(*Orchestrator) error

func (f orchOptFunc) apply(o *Orchestrator) error { return f(o) }

// WithRetryPolicy overrides the retry policy used for instrument calls.
func WithRetryPolicy(policy *retry.Policy) OrchestratorOption {
	return orchOptFunc(func(o *Orchestrator) error {
		if policy == nil {
			return errors.New("run: retry policy must not be nil")
		}
		o.policy = policy

		return nil
	})
}

// WithRunLogger sets the logger for the orchestrator.
func WithRunLogger(l logger.Logger) OrchestratorOption {
	return orchOptFunc(func(o *Orchestrator) error {
		if l == nil {
			return errors.New("run: logger must not be nil")
		}
		o.logger = l

		return nil
	})
}

// WithCapturer sets the remote image capturer used during hold phases.
func WithCapturer(capturer ExperimentCapturer) OrchestratorOption {
	return orchOptFunc(func(o *Orchestrator) error {
		if capturer == nil {
			return errors.New("run: capturer must not be nil")
		}
		o.capturer = capturer

		return nil
	})
}

// Snapshot returns the orchestrator's current position. ok is false until
// the run starts.
func (o *Orchestrator) Snapshot() (Snapshot, bool) {
	return o.snapshot.Load()
}

func (o *Orchestrator) publish(state State, setpoint setpoints.Setpoint, pass int) {
	o.snapshot.Store(Snapshot{State: state, Setpoint: setpoint, Pass: pass})
}

// Run executes the calibration sequence. Every exit path, normal
// completion, error, or context cancellation, funnels through the fail-safe
// shutdown: stop the mixer, wait for the bath to settle, power it off. The
// original cause is returned after cleanup, never suppressed by a shutdown
// failure.
func (o *Orchestrator) Run(ctx context.Context) (err error) {
	o.logger.Info("starting calibration run",
		"runID", o.cfg.RunID,
		"setpoints", len(o.cfg.Setpoints),
		"loop", o.cfg.Loop,
	)

	defer func() {
		shutdownErr := o.shutDown()
		if err == nil {
			err = shutdownErr
		} else if shutdownErr != nil {
			o.logger.Error("shutdown problems after run failure", "error", shutdownErr)
		}
	}()

	if _, err := retry.Value(ctx, o.policy, "initialize water bath", o.bath.Initialize); err != nil {
		return err
	}

	previousTemperature := math.NaN()

	for pass := 0; ; pass++ {
		for i, setpoint := range o.cfg.Setpoints {
			o.logger.Info("advancing to setpoint",
				"pass", pass,
				"index", i,
				"temperature", setpoint.Temperature,
				"flowRateSLPM", setpoint.FlowRateSLPM,
				"o2TargetGasFraction", setpoint.O2TargetGasFraction,
			)

			if err := o.runSetpoint(ctx, setpoint, pass, previousTemperature); err != nil {
				return err
			}

			previousTemperature = setpoint.Temperature
		}

		if !o.cfg.Loop {
			return nil
		}
	}
}

// runSetpoint walks one setpoint through the full cycle. The context is
// checked at every state boundary so an interrupt lands between states, not
// mid-command.
func (o *Orchestrator) runSetpoint(ctx context.Context, setpoint setpoints.Setpoint, pass int, previousTemperature float64) error {
	if setpoint.Temperature == previousTemperature {
		// Same bath target as the previous setpoint: skip the temperature
		// states entirely rather than re-waiting on an already stable bath.
		o.logger.Info("temperature unchanged, skipping temperature equilibration",
			"temperature", setpoint.Temperature)
	} else {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.publish(StateSetTemperature, setpoint, pass)

		// Pause the mixer while only temperature is changing; gas is
		// expensive and the mix will be recommanded afterwards.
		if err := o.policy.Do(ctx, "pause gas mixer", o.mixer.StopFlow); err != nil {
			return err
		}

		if _, err := retry.Value(ctx, o.policy, "set bath setpoint", func(ctx context.Context) (float64, error) {
			return o.bath.SetSetpoint(ctx, setpoint.Temperature)
		}); err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		o.publish(StateWaitTemperatureEquilibration, setpoint, pass)

		if err := o.waitForEquilibration(ctx, setpoint, pass,
			StateWaitTemperatureEquilibration, o.cfg.TemperatureCriteria,
			"YSI temperature (C)",
			func(readings ysi.Readings) float64 { return readings.TemperatureC },
		); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	o.publish(StateSetGasMix, setpoint, pass)

	if err := o.policy.Do(ctx, "start gas mix", func(ctx context.Context) error {
		return o.mixer.StartConstantFlowMix(ctx,
			setpoint.FlowRateSLPM, o.cfg.O2SourceGasFraction, setpoint.O2TargetGasFraction)
	}); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	o.publish(StateWaitDOEquilibration, setpoint, pass)

	if err := o.waitForEquilibration(ctx, setpoint, pass,
		StateWaitDOEquilibration, o.cfg.DOCriteria,
		"YSI DO (mmHg)",
		func(readings ysi.Readings) float64 { return readings.DOPartialPressureMmHg() },
	); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	o.publish(StateHoldAndCollect, setpoint, pass)

	return o.holdAndCollect(ctx, setpoint, pass)
}

// waitForEquilibration polls the sensors at the configured delay, logging a
// data row per sample, until the monitored field satisfies the criteria.
func (o *Orchestrator) waitForEquilibration(
	ctx context.Context,
	setpoint setpoints.Setpoint,
	pass int,
	state State,
	criteria equilibrate.Criteria,
	field string,
	extract func(ysi.Readings) float64,
) error {
	o.logger.Info("waiting for equilibration", "field", field,
		"maxVariation", criteria.MaxVariation, "minStableTime", criteria.MinStableTime)

	log := equilibrate.NewLog(field)

	for {
		readings, err := o.collectDataRow(ctx, setpoint, pass, state.equilibrationStatus())
		if err != nil {
			return err
		}

		log.Append(time.Now(), extract(readings))

		if log.IsEquilibrated(criteria) {
			latestSample, _ := log.Latest()
			o.logger.Info("equilibrated", "field", field, "value", latestSample.Value, "samples", log.Len())

			return nil
		}

		if err := sleepCtx(ctx, o.cfg.PollDelay); err != nil {
			return err
		}
	}
}

// holdAndCollect stays at the setpoint for its hold time, writing one data
// row per collection interval and running a non-fatal hardware status check
// each tick. A failed check aborts the sequence; it is handled by the
// run-level shutdown, not inside the tick.
func (o *Orchestrator) holdAndCollect(ctx context.Context, setpoint setpoints.Setpoint, pass int) error {
	o.logger.Info("holding at setpoint", "holdTime", setpoint.HoldTime)

	captureDone := o.startCapture(ctx, setpoint.HoldTime)

	start := time.Now()

	for {
		if _, err := o.collectDataRow(ctx, setpoint, pass, StateHoldAndCollect.equilibrationStatus()); err != nil {
			return err
		}

		if err := o.checkStatus(ctx); err != nil {
			return err
		}

		if time.Since(start)+o.cfg.CollectionInterval >= setpoint.HoldTime {
			break
		}

		if err := sleepCtx(ctx, o.cfg.CollectionInterval); err != nil {
			return err
		}
	}

	if captureDone != nil {
		if err := <-captureDone; err != nil {
			return err
		}
	}

	return nil
}

// startCapture kicks off the remote image capture for the hold phase, if
// one is configured. The returned channel delivers the capture result.
func (o *Orchestrator) startCapture(ctx context.Context, duration time.Duration) <-chan error {
	if o.capturer == nil {
		return nil
	}

	done := make(chan error, 1)

	go func() {
		done <- o.capturer.Capture(ctx, o.cfg.CosmobotExperimentName, duration)
	}()

	return done
}

// checkStatus verifies both instruments are good to go, aggregating every
// failure rather than stopping at the first so the operator sees the whole
// picture.
func (o *Orchestrator) checkStatus(ctx context.Context) error {
	var problems []error

	if err := o.policy.Do(ctx, "water bath status check", o.bath.AssertStatusOK); err != nil {
		o.logger.Error("water bath status check failed", "error", err)
		problems = append(problems, err)
	}

	if err := o.policy.Do(ctx, "gas mixer status check", func(ctx context.Context) error {
		status, err := o.mixer.GetStatus(ctx)
		if err != nil {
			return err
		}

		return status.CheckAlarms()
	}); err != nil {
		o.logger.Error("gas mixer status check failed", "error", err)
		problems = append(problems, err)
	}

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrSequenceAbort, errors.Join(problems...))
}

// shutDown is the single fail-safe exit path: stop the mixer (best effort,
// failures logged and reported but never blocking the rest), wait for the
// settle time, then power off the bath. It deliberately does not take the
// run context; shutdown must complete even after cancellation.
func (o *Orchestrator) shutDown() error {
	o.logger.Info("shutting down calibration rig")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var problems []error

	if err := o.policy.Do(ctx, "stop gas mixer", o.mixer.StopFlow); err != nil {
		o.logger.Error("failed to stop gas mixer during shutdown", "error", err)
		problems = append(problems, err)
	}

	// The bath cannot be powered off immediately after being powered on.
	time.Sleep(o.cfg.ShutdownSettleTime)

	if err := o.policy.Do(ctx, "power off water bath", o.bath.PowerOff); err != nil {
		o.logger.Error("failed to power off water bath during shutdown", "error", err)
		problems = append(problems, err)
	}

	return errors.Join(problems...)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
