// Package equilibrate detects when a monitored physical quantity has
// stabilized at a setpoint.
//
// Stability means the extremes of a trailing time window fit inside a
// tolerance. The detector keeps the full sample history (it all goes to the
// data log); only the evaluation window is restricted.
package equilibrate

import (
	"math"
	"time"
)

// DefaultPollDelay is the pause between samples while waiting for a
// quantity to stabilize.
const DefaultPollDelay = 5 * time.Second

// Criteria defines stability for one monitored quantity: its windowed
// extremes may differ by at most MaxVariation across the trailing
// MinStableTime.
type Criteria struct {
	MaxVariation  float64
	MinStableTime time.Duration
}

// Criteria for the rig's two equilibration waits. DO is judged on partial
// pressure in mmHg, the convention the rest of the rig reports in.
var (
	TemperatureCriteria = Criteria{MaxVariation: 0.1, MinStableTime: 5 * time.Minute}
	DOCriteria          = Criteria{MaxVariation: 0.5, MinStableTime: 5 * time.Minute}
)

// Sample is one timestamped reading.
type Sample struct {
	Time  time.Time
	Value float64
}

// Log is an append-only record of samples for one named quantity.
type Log struct {
	field   string
	samples []Sample
}

// NewLog creates an empty log for the named quantity.
func NewLog(field string) *Log {
	return &Log{field: field}
}

// Field returns the name of the monitored quantity.
func (l *Log) Field() string { return l.field }

// Append records one sample. Samples are kept forever; equilibration checks
// only evaluate the trailing window.
func (l *Log) Append(t time.Time, value float64) {
	l.samples = append(l.samples, Sample{Time: t, Value: value})
}

// Len returns the number of recorded samples.
func (l *Log) Len() int { return len(l.samples) }

// Latest returns the most recently appended sample.
func (l *Log) Latest() (Sample, bool) {
	if len(l.samples) == 0 {
		return Sample{}, false
	}

	return l.samples[len(l.samples)-1], true
}

// IsEquilibrated reports whether the log satisfies the criteria:
//
//  1. The log must span at least MinStableTime; otherwise there is not
//     enough history to judge.
//  2. Only samples within the trailing MinStableTime window count.
//  3. The window's extremes must differ by at most MaxVariation. The
//     difference is rounded to 5 decimal places first to absorb floating
//     point noise from repeated sensor reads.
func (l *Log) IsEquilibrated(criteria Criteria) bool {
	if len(l.samples) == 0 {
		return false
	}

	oldest := l.samples[0].Time
	newest := l.samples[0].Time
	for _, sample := range l.samples[1:] {
		if sample.Time.Before(oldest) {
			oldest = sample.Time
		}
		if sample.Time.After(newest) {
			newest = sample.Time
		}
	}

	if newest.Sub(oldest) < criteria.MinStableTime {
		return false
	}

	windowStart := newest.Add(-criteria.MinStableTime)

	first := true
	var minValue, maxValue float64
	for _, sample := range l.samples {
		if sample.Time.Before(windowStart) {
			continue
		}

		if first || sample.Value < minValue {
			minValue = sample.Value
		}
		if first || sample.Value > maxValue {
			maxValue = sample.Value
		}
		first = false
	}

	variation := round5(maxValue - minValue)

	return variation <= criteria.MaxVariation
}

func round5(value float64) float64 {
	return math.Round(value*1e5) / 1e5
}
