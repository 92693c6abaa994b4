package setpoints

import (
	"fmt"
	"sort"
	"time"

	"github.com/kwahlman/calrig/gasmixer"
	"github.com/kwahlman/calrig/logger"
)

// DefaultFlowRateSLPM is the total flow used for generated sweeps.
const DefaultFlowRateSLPM = 2

// AverageSystemPressureMmHg is the pressure inside the bath chamber while
// the gas mixer is running, with standard atmospheric pressure outside. It
// converts target DO partial pressures into O2 fractions; measured drift
// across full calibration runs stayed within ~2 mmHg.
const AverageSystemPressureMmHg = 774

// SweepParams describes a grid of temperatures and DO partial pressures to
// sweep across.
//
// DO targets are approximate: chamber pressure fluctuates and only the O2
// fraction is actually controlled.
type SweepParams struct {
	MinTemperature   float64
	MaxTemperature   float64
	TemperatureCount int

	MinDOMmHg float64
	MaxDOMmHg float64
	DOCount   int

	HoldTime     time.Duration
	FlowRateSLPM float64

	// StartHighTemperature begins at the hottest setpoint instead of the
	// coldest.
	StartHighTemperature bool
	// StartHighDO begins each run at high DO, which equilibrates faster
	// from atmospheric conditions. Use false when the chamber is already
	// at low DO from a previous run.
	StartHighDO bool
}

// GenerateSweep creates every combination of temperature and DO in the
// grid, ordered to minimize equilibration time: temperatures change
// monotonically, and DO alternates direction at each temperature so
// consecutive setpoints stay close.
func GenerateSweep(params SweepParams) ([]Setpoint, error) {
	if params.TemperatureCount < 1 || params.DOCount < 1 {
		return nil, fmt.Errorf("setpoints: sweep needs at least one temperature and one DO target")
	}

	flowRate := params.FlowRateSLPM
	if flowRate == 0 {
		flowRate = DefaultFlowRateSLPM
	}

	temperatures := linspace(params.MinTemperature, params.MaxTemperature, params.TemperatureCount)
	sort.Float64s(temperatures)
	if params.StartHighTemperature {
		reverse(temperatures)
	}

	doForward := linspace(params.MinDOMmHg, params.MaxDOMmHg, params.DOCount)
	sort.Float64s(doForward)
	if params.StartHighDO {
		reverse(doForward)
	}
	doBackward := make([]float64, len(doForward))
	copy(doBackward, doForward)
	reverse(doBackward)

	var sweep []Setpoint

	for i, temperature := range temperatures {
		doTargets := doForward
		if i%2 == 1 {
			doTargets = doBackward
		}

		for _, doMmHg := range doTargets {
			sweep = append(sweep, Setpoint{
				Temperature:         temperature,
				FlowRateSLPM:        flowRate,
				O2TargetGasFraction: doMmHg / AverageSystemPressureMmHg,
				HoldTime:            params.HoldTime,
			})
		}
	}

	return sweep, nil
}

// RemoveInvalid returns a copy of the sweep limited to setpoints the rig
// can actually hit. Filtering is expected for many source gases; removed
// setpoints are logged so the operator knows what was dropped.
func RemoveInvalid(sweep []Setpoint, channels gasmixer.Channels, o2SourceGasO2Fraction float64, log logger.Logger) []Setpoint {
	valid := make([]Setpoint, 0, len(sweep))

	for i, setpoint := range sweep {
		errs := ValidationErrors(setpoint, channels, o2SourceGasO2Fraction)
		if len(errs) == 0 {
			valid = append(valid, setpoint)
			continue
		}

		log.Info("removed un-hittable setpoint",
			"index", i,
			"temperature", setpoint.Temperature,
			"o2TargetGasFraction", setpoint.O2TargetGasFraction,
			"problems", errs,
		)
	}

	return valid
}

func linspace(min, max float64, count int) []float64 {
	if count == 1 {
		return []float64{min}
	}

	values := make([]float64, count)
	step := (max - min) / float64(count-1)
	for i := range values {
		values[i] = min + step*float64(i)
	}

	return values
}

func reverse(values []float64) {
	for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
		values[i], values[j] = values[j], values[i]
	}
}
