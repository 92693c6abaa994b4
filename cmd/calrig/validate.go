package main

import (
	"github.com/spf13/cobra"

	"github.com/kwahlman/calrig/logger"
	"github.com/kwahlman/calrig/setpoints"
)

var validateFlags struct {
	sequenceFile        string
	o2SourceGasFraction float64
	rigLimitsFile       string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a setpoint sequence against the rig's physical limits",
	RunE: func(cmd *cobra.Command, args []string) error {
		channels, err := loadChannels(validateFlags.rigLimitsFile)
		if err != nil {
			return err
		}

		sequence, err := setpoints.Load(validateFlags.sequenceFile)
		if err != nil {
			return err
		}

		if err := setpoints.Validate(sequence, channels, validateFlags.o2SourceGasFraction); err != nil {
			return err
		}

		logger.Info("sequence is valid", "setpoints", len(sequence))

		return nil
	},
}

func init() {
	flags := validateCmd.Flags()

	flags.StringVarP(&validateFlags.sequenceFile, "setpoint-sequence-filepath", "s", "",
		"setpoint sequence csv filepath")
	flags.Float64Var(&validateFlags.o2SourceGasFraction, "o2-source-fraction", 0,
		"O2 fraction of the source gas connected to MFC 2")
	flags.StringVar(&validateFlags.rigLimitsFile, "rig-limits", "",
		"YAML file overriding MFC full scale ratings")

	cobra.CheckErr(validateCmd.MarkFlagRequired("setpoint-sequence-filepath"))
	cobra.CheckErr(validateCmd.MarkFlagRequired("o2-source-fraction"))

	rootCmd.AddCommand(validateCmd)
}
