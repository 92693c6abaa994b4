package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kwahlman/calrig/logger"
	"github.com/kwahlman/calrig/setpoints"
)

var sweepFlags struct {
	minTemperature   float64
	maxTemperature   float64
	temperatureCount int

	minDOMmHg float64
	maxDOMmHg float64
	doCount   int

	holdTime     time.Duration
	flowRateSLPM float64

	startHighTemperature bool
	startHighDO          bool

	o2SourceGasFraction float64
	rigLimitsFile       string

	output string
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Generate a setpoint sequence sweeping temperature and DO",
	Long: `Generates every combination of temperature and DO in the grid, ordered
so temperatures change monotonically and DO alternates direction at each
temperature. Setpoints the rig cannot physically hit are dropped.`,
	RunE: generateSweep,
}

func init() {
	flags := sweepCmd.Flags()

	flags.Float64Var(&sweepFlags.minTemperature, "min-temperature", 15, "lowest bath temperature (C)")
	flags.Float64Var(&sweepFlags.maxTemperature, "max-temperature", 35, "highest bath temperature (C)")
	flags.IntVar(&sweepFlags.temperatureCount, "temperature-count", 5, "number of temperatures in the grid")

	flags.Float64Var(&sweepFlags.minDOMmHg, "min-do", 10, "lowest DO target (mmHg)")
	flags.Float64Var(&sweepFlags.maxDOMmHg, "max-do", 160, "highest DO target (mmHg)")
	flags.IntVar(&sweepFlags.doCount, "do-count", 5, "number of DO targets in the grid")

	flags.DurationVar(&sweepFlags.holdTime, "hold-time", 10*time.Minute, "hold time at each setpoint")
	flags.Float64Var(&sweepFlags.flowRateSLPM, "flow-rate", setpoints.DefaultFlowRateSLPM, "total flow rate (SLPM)")

	flags.BoolVar(&sweepFlags.startHighTemperature, "start-high-temperature", false,
		"start at the hottest setpoint instead of the coldest")
	flags.BoolVar(&sweepFlags.startHighDO, "start-high-do", true,
		"start each run at high DO, which equilibrates faster from atmosphere")

	flags.Float64Var(&sweepFlags.o2SourceGasFraction, "o2-source-fraction", 0,
		"O2 fraction of the source gas, used to drop un-hittable setpoints")
	flags.StringVar(&sweepFlags.rigLimitsFile, "rig-limits", "",
		"YAML file overriding MFC full scale ratings")

	flags.StringVarP(&sweepFlags.output, "output", "o", "", "output csv filepath")

	cobra.CheckErr(sweepCmd.MarkFlagRequired("o2-source-fraction"))
	cobra.CheckErr(sweepCmd.MarkFlagRequired("output"))

	rootCmd.AddCommand(sweepCmd)
}

func generateSweep(cmd *cobra.Command, args []string) error {
	channels, err := loadChannels(sweepFlags.rigLimitsFile)
	if err != nil {
		return err
	}

	sweep, err := setpoints.GenerateSweep(setpoints.SweepParams{
		MinTemperature:       sweepFlags.minTemperature,
		MaxTemperature:       sweepFlags.maxTemperature,
		TemperatureCount:     sweepFlags.temperatureCount,
		MinDOMmHg:            sweepFlags.minDOMmHg,
		MaxDOMmHg:            sweepFlags.maxDOMmHg,
		DOCount:              sweepFlags.doCount,
		HoldTime:             sweepFlags.holdTime,
		FlowRateSLPM:         sweepFlags.flowRateSLPM,
		StartHighTemperature: sweepFlags.startHighTemperature,
		StartHighDO:          sweepFlags.startHighDO,
	})
	if err != nil {
		return err
	}

	log := logger.GetLogger()
	sweep = setpoints.RemoveInvalid(sweep, channels, sweepFlags.o2SourceGasFraction, log)
	if len(sweep) == 0 {
		return fmt.Errorf("no setpoint in the grid is reachable with this rig")
	}

	file, err := os.Create(sweepFlags.output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer file.Close()

	if err := setpoints.Write(file, sweep); err != nil {
		return err
	}

	log.Info("wrote setpoint sequence", "path", sweepFlags.output, "setpoints", len(sweep))

	return nil
}
