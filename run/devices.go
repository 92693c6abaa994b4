package run

import (
	"context"
	"time"

	"github.com/kwahlman/calrig/gasmixer"
	"github.com/kwahlman/calrig/waterbath"
	"github.com/kwahlman/calrig/ysi"
)

// BathController is the slice of the water bath driver the orchestrator
// uses. *waterbath.Bath satisfies it.
type BathController interface {
	Initialize(ctx context.Context) (waterbath.OnOffArraySettings, error)
	SetSetpoint(ctx context.Context, temperature float64) (float64, error)
	ReadInternalTemperature(ctx context.Context) (float64, error)
	ReadExternalSensor(ctx context.Context) (float64, error)
	AssertStatusOK(ctx context.Context) error
	PowerOff(ctx context.Context) error
}

// MixerController is the slice of the gas mixer driver the orchestrator
// uses. *gasmixer.Mixer satisfies it.
type MixerController interface {
	StartConstantFlowMix(ctx context.Context, totalFlowSLPM, o2SourceGasO2Fraction, targetO2Fraction float64) error
	StopFlow(ctx context.Context) error
	GetStatus(ctx context.Context) (gasmixer.Status, error)
	GetGasIDs(ctx context.Context) (gasmixer.GasIDs, error)
}

// SensorReader is the slice of the YSI driver the orchestrator uses.
// *ysi.Sensor satisfies it.
type SensorReader interface {
	ReadStandardValues(ctx context.Context) (ysi.Readings, error)
}

// ExperimentCapturer triggers a remote camera capture for the hold phase of
// a setpoint. *cosmobot.Client satisfies it.
type ExperimentCapturer interface {
	Capture(ctx context.Context, experimentName string, duration time.Duration) error
}
