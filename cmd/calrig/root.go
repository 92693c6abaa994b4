package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kwahlman/calrig/logger"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "calrig",
	Short: "Control the DO calibration rig",
	Long: `calrig walks the calibration rig through a sequence of temperature and
dissolved oxygen setpoints, logging sensor data to CSV along the way.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Secrets like the Slack token live in a local .env file.
		_ = godotenv.Load()

		if verbose {
			logger.SetLevel(logger.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
