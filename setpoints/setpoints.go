// Package setpoints loads, validates, and generates the ordered setpoint
// sequences a calibration run walks through.
package setpoints

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kwahlman/calrig/gasmixer"
	"github.com/kwahlman/calrig/waterbath"
)

// Setpoint is one target configuration in a calibration sequence. Setpoints
// are immutable once loaded.
type Setpoint struct {
	// Temperature is the water bath target in degrees C.
	Temperature float64
	// FlowRateSLPM is the total gas mixer flow.
	FlowRateSLPM float64
	// O2TargetGasFraction is the O2 fraction wanted in the output mix.
	O2TargetGasFraction float64
	// HoldTime is how long to collect data once equilibrated.
	HoldTime time.Duration
}

// Sequence file column names.
const (
	columnTemperature  = "temperature"
	columnFlowRateSLPM = "flow_rate_slpm"
	columnO2Fraction   = "o2_fraction"
	columnHoldTime     = "hold_time"
)

// Load reads an ordered setpoint sequence from a CSV file. The file must
// carry a header row naming at least the four setpoint columns; extra
// columns are ignored. Hold times are in seconds.
func Load(path string) ([]Setpoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("setpoints: open sequence file: %w", err)
	}
	defer file.Close()

	sequence, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("setpoints: %s: %w", path, err)
	}

	return sequence, nil
}

// Read reads an ordered setpoint sequence from CSV data.
func Read(r io.Reader) ([]Setpoint, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	for _, required := range []string{columnTemperature, columnFlowRateSLPM, columnO2Fraction, columnHoldTime} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("sequence file is missing column %q", required)
		}
	}

	var sequence []Setpoint

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		setpoint, err := parseRecord(record, columns)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		sequence = append(sequence, setpoint)
	}

	if len(sequence) == 0 {
		return nil, fmt.Errorf("sequence file has no setpoints")
	}

	return sequence, nil
}

func parseRecord(record []string, columns map[string]int) (Setpoint, error) {
	field := func(name string) (float64, error) {
		raw := record[columns[name]]

		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("column %q value %q is not a number", name, raw)
		}

		return value, nil
	}

	var (
		setpoint Setpoint
		err      error
	)

	if setpoint.Temperature, err = field(columnTemperature); err != nil {
		return Setpoint{}, err
	}
	if setpoint.FlowRateSLPM, err = field(columnFlowRateSLPM); err != nil {
		return Setpoint{}, err
	}
	if setpoint.O2TargetGasFraction, err = field(columnO2Fraction); err != nil {
		return Setpoint{}, err
	}

	holdSeconds, err := field(columnHoldTime)
	if err != nil {
		return Setpoint{}, err
	}
	setpoint.HoldTime = time.Duration(holdSeconds * float64(time.Second))

	return setpoint, nil
}

// ValidationErrors checks one setpoint against the rig's physical limits:
// the water bath temperature range and the gas mixer's MFC constraints.
// Every violation is returned, not just the first.
func ValidationErrors(setpoint Setpoint, channels gasmixer.Channels, o2SourceGasO2Fraction float64) []string {
	errs := channels.MixValidationErrors(setpoint.FlowRateSLPM, o2SourceGasO2Fraction, setpoint.O2TargetGasFraction)
	errs = append(errs, waterbath.TemperatureValidationErrors(setpoint.Temperature)...)

	return errs
}

// Validate checks a whole sequence, indexing each violation by setpoint
// position.
func Validate(sequence []Setpoint, channels gasmixer.Channels, o2SourceGasO2Fraction float64) error {
	var problems []string

	for i, setpoint := range sequence {
		for _, msg := range ValidationErrors(setpoint, channels, o2SourceGasO2Fraction) {
			problems = append(problems, fmt.Sprintf("setpoint %d: %s", i, msg))
		}
	}

	if len(problems) == 0 {
		return nil
	}

	return fmt.Errorf("setpoints: %d problems:\n%s", len(problems), strings.Join(problems, "\n"))
}

// Write serializes a sequence in the format Read accepts. Hold times are
// written in seconds.
func Write(w io.Writer, sequence []Setpoint) error {
	writer := csv.NewWriter(w)

	header := []string{columnTemperature, columnFlowRateSLPM, columnO2Fraction, columnHoldTime}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("setpoints: write header: %w", err)
	}

	for _, setpoint := range sequence {
		record := []string{
			strconv.FormatFloat(setpoint.Temperature, 'f', -1, 64),
			strconv.FormatFloat(setpoint.FlowRateSLPM, 'f', -1, 64),
			strconv.FormatFloat(setpoint.O2TargetGasFraction, 'f', -1, 64),
			strconv.FormatFloat(setpoint.HoldTime.Seconds(), 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("setpoints: write record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("setpoints: flush: %w", err)
	}

	return nil
}
