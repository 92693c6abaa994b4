// Command calrig drives the dissolved oxygen calibration rig: a water bath,
// a gas mixer, and a YSI optical DO sensor wired to one machine over serial.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
