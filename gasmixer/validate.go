package gasmixer

import "fmt"

// Full-scale ratings of the rig's mass flow controllers, in SLPM.
const (
	DefaultN2FullScaleSLPM       = 10.0
	DefaultO2SourceFullScaleSLPM = 2.5
)

// Below 2% of an MFC's full scale the manufacturer does not guarantee
// mixture accuracy.
const minFlowFullScaleFraction = 0.02

// MFC describes one mass flow controller channel.
type MFC struct {
	Name          string
	FullScaleSLPM float64
}

// Channels pairs the rig's two MFCs: nitrogen on channel 1 and the
// O2-bearing source gas on channel 2.
type Channels struct {
	N2       MFC
	O2Source MFC
}

// DefaultChannels returns the rig's factory MFC ratings.
func DefaultChannels() Channels {
	return Channels{
		N2:       MFC{Name: "N2", FullScaleSLPM: DefaultN2FullScaleSLPM},
		O2Source: MFC{Name: "O2 source gas", FullScaleSLPM: DefaultO2SourceFullScaleSLPM},
	}
}

// MixValidationErrors checks whether a mix is attainable, returning one
// message per violated constraint rather than stopping at the first.
// Validation failures are deterministic configuration errors: they are
// never retried.
func (c Channels) MixValidationErrors(totalFlowSLPM, o2SourceGasO2Fraction, targetO2Fraction float64) []string {
	var errs []string

	o2SourceFraction := 0.0
	if o2SourceGasO2Fraction > 0 {
		o2SourceFraction = targetO2Fraction / o2SourceGasO2Fraction
	}

	if o2SourceFraction > 1 {
		errs = append(errs, fmt.Sprintf(
			"target O2 fraction %v is not attainable with a source gas that is %v O2",
			targetO2Fraction, o2SourceGasO2Fraction))

		// Channel flows are meaningless past full source gas; check them as
		// if the source channel were wide open.
		o2SourceFraction = 1
	}

	errs = append(errs, c.N2.flowValidationErrors(totalFlowSLPM*(1-o2SourceFraction))...)
	errs = append(errs, c.O2Source.flowValidationErrors(totalFlowSLPM*o2SourceFraction)...)

	return errs
}

func (m MFC) flowValidationErrors(flowSLPM float64) []string {
	var errs []string

	if flowSLPM > m.FullScaleSLPM {
		errs = append(errs, fmt.Sprintf(
			"%s channel flow %v SLPM exceeds the MFC maximum %v SLPM",
			m.Name, flowSLPM, m.FullScaleSLPM))
	}

	minFlow := m.FullScaleSLPM * minFlowFullScaleFraction
	if flowSLPM > 0 && flowSLPM < minFlow {
		errs = append(errs, fmt.Sprintf(
			"%s channel flow %v SLPM is too low: nonzero flows below %v SLPM (2%% of full scale) are not mixed accurately",
			m.Name, flowSLPM, minFlow))
	}

	return errs
}
