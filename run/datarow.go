package run

import (
	"context"
	"strconv"
	"time"

	"github.com/kwahlman/calrig/gasmixer"
	"github.com/kwahlman/calrig/retry"
	"github.com/kwahlman/calrig/setpoints"
	"github.com/kwahlman/calrig/ysi"
)

const rowTimestampLayout = "2006-01-02 15:04:05.000000"

// SensorData is one full reading of every instrument on the rig.
type SensorData struct {
	MixerStatus gasmixer.Status
	GasIDs      gasmixer.GasIDs

	BathInternalTemperatureC float64
	BathExternalTemperatureC float64

	YSI ysi.Readings
}

// ReadAllSensors polls every instrument once, retrying each according to the
// policy. Used both by the control loop and the background poller.
func (o *Orchestrator) ReadAllSensors(ctx context.Context) (SensorData, error) {
	var data SensorData
	var err error

	data.MixerStatus, err = retry.Value(ctx, o.policy, "read gas mixer status", o.mixer.GetStatus)
	if err != nil {
		return SensorData{}, err
	}

	data.GasIDs, err = retry.Value(ctx, o.policy, "read gas IDs", o.mixer.GetGasIDs)
	if err != nil {
		return SensorData{}, err
	}

	data.BathInternalTemperatureC, err = retry.Value(ctx, o.policy,
		"read bath internal temperature", o.bath.ReadInternalTemperature)
	if err != nil {
		return SensorData{}, err
	}

	data.BathExternalTemperatureC, err = retry.Value(ctx, o.policy,
		"read bath external sensor", o.bath.ReadExternalSensor)
	if err != nil {
		return SensorData{}, err
	}

	data.YSI, err = retry.Value(ctx, o.policy, "read YSI sensor values", o.sensor.ReadStandardValues)
	if err != nil {
		return SensorData{}, err
	}

	return data, nil
}

// collectDataRow reads all sensors and appends one row to the output CSV.
// The YSI readings are returned so equilibration waits can reuse them
// without a second round of serial traffic.
func (o *Orchestrator) collectDataRow(
	ctx context.Context,
	setpoint setpoints.Setpoint,
	pass int,
	equilibrationStatus string,
) (ysi.Readings, error) {
	data, err := o.ReadAllSensors(ctx)
	if err != nil {
		return ysi.Readings{}, err
	}

	row := dataRow(setpoint, o.cfg.O2SourceGasFraction, pass, equilibrationStatus, data, time.Now())
	if err := o.collector.WriteRow(row); err != nil {
		return ysi.Readings{}, err
	}

	return data.YSI, nil
}

// dataRow flattens a sensor reading plus the setpoint context into the CSV
// column set. Column names are stable; downstream analysis keys on them.
func dataRow(
	setpoint setpoints.Setpoint,
	o2SourceGasFraction float64,
	pass int,
	equilibrationStatus string,
	data SensorData,
	now time.Time,
) map[string]string {
	return map[string]string{
		"loop count":                   strconv.Itoa(pass),
		"equilibration status":         equilibrationStatus,
		"setpoint temperature (C)":     formatValue(setpoint.Temperature),
		"setpoint hold time seconds":   formatValue(setpoint.HoldTime.Seconds()),
		"setpoint flow rate (SLPM)":    formatValue(setpoint.FlowRateSLPM),
		"setpoint target gas fraction": formatValue(setpoint.O2TargetGasFraction),
		"o2 source gas fraction":       formatValue(o2SourceGasFraction),
		"timestamp":                    now.Format(rowTimestampLayout),

		"gas mixer flow rate (SLPM)":                         formatValue(data.MixerStatus.FlowRateSLPM),
		"gas mixer mix pressure (mmHg)":                      formatValue(data.MixerStatus.MixPressureMmHg),
		"gas mixer low feed pressure alarm":                  formatBool(data.MixerStatus.LowFeedPressureAlarm),
		"gas mixer low feed pressure alarm - N2":             formatBool(data.MixerStatus.LowFeedPressureAlarmN2),
		"gas mixer low feed pressure alarm - O2 source gas":  formatBool(data.MixerStatus.LowFeedPressureAlarmO2Source),
		"gas mixer N2 fraction in mix":                       formatValue(data.MixerStatus.N2FractionInMix),
		"gas mixer O2 source gas fraction in mix":            formatValue(data.MixerStatus.O2SourceFractionInMix),

		"N2 gas ID":            strconv.FormatInt(data.GasIDs.N2, 10),
		"O2 source gas gas ID": strconv.FormatInt(data.GasIDs.O2SourceGas, 10),

		"water bath internal temperature (C)":        formatValue(data.BathInternalTemperatureC),
		"water bath external sensor temperature (C)": formatValue(data.BathExternalTemperatureC),

		"YSI barometric pressure (mmHg)": formatValue(data.YSI.BarometricPressureMmHg),
		"YSI DO (mg/L)":                  formatValue(data.YSI.DOMgL),
		"YSI DO (% sat)":                 formatValue(data.YSI.DOPercentSaturation),
		"YSI DO (mmHg)":                  formatValue(data.YSI.DOPartialPressureMmHg()),
		"YSI temperature (C)":            formatValue(data.YSI.TemperatureC),
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(v bool) string {
	return strconv.FormatBool(v)
}
