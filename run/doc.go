// Package run sequences a calibration run: it walks an ordered list of
// setpoints, drives the water bath and gas mixer toward each one, waits for
// the physical system to equilibrate, collects data while holding, and
// guarantees the hardware is shut down safely no matter how the run ends.
package run
