package run

import (
	"context"
	"time"

	"github.com/kwahlman/calrig/datalog"
)

// StartBackgroundPoller runs a sidecar loop that snapshots the rig at the
// given interval and appends rows to its own collector, independent of the
// control loop's cadence. Serial access is already serialized per port, so
// the poller and the control loop can share the instruments.
//
// Rows are only written once the run has published its first snapshot; read
// or write failures are logged and the tick skipped rather than killing the
// poller. The returned channel closes when the context is cancelled and the
// poller has exited.
func (o *Orchestrator) StartBackgroundPoller(ctx context.Context, interval time.Duration, collector *datalog.Collector) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			snapshot, ok := o.Snapshot()
			if !ok {
				continue
			}

			data, err := o.ReadAllSensors(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				o.logger.Warn("background poll failed", "error", err)

				continue
			}

			row := dataRow(snapshot.Setpoint, o.cfg.O2SourceGasFraction,
				snapshot.Pass, snapshot.State.equilibrationStatus(), data, time.Now())
			if err := collector.WriteRow(row); err != nil {
				o.logger.Warn("background poll row write failed", "error", err)
			}
		}
	}()

	return done
}
