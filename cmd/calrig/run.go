package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kwahlman/calrig/cosmobot"
	"github.com/kwahlman/calrig/datalog"
	"github.com/kwahlman/calrig/gasmixer"
	"github.com/kwahlman/calrig/logger"
	"github.com/kwahlman/calrig/notify"
	"github.com/kwahlman/calrig/run"
	"github.com/kwahlman/calrig/serial"
	"github.com/kwahlman/calrig/setpoints"
	"github.com/kwahlman/calrig/waterbath"
	"github.com/kwahlman/calrig/ysi"
)

const (
	defaultGasMixerPort  = "COM22"
	defaultWaterBathPort = "COM21"
	defaultYSIPort       = "COM11"
)

var runFlags struct {
	sequenceFile        string
	o2SourceGasFraction float64
	loop                bool

	gasMixerPort  string
	waterBathPort string
	ysiPort       string

	collectionInterval time.Duration
	pollInterval       time.Duration
	rigLimitsFile      string

	cosmobotHostname       string
	cosmobotKeyFile        string
	cosmobotExperimentName string

	notifySlack bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a calibration setpoint sequence",
	Long: `Walks the rig through the setpoint sequence: sets the bath temperature,
waits for it to stabilize, sets the gas mix, waits for dissolved oxygen to
stabilize, then holds and collects data rows. On any exit the mixer is
stopped and the bath is powered off.`,
	RunE: runCalibration,
}

func init() {
	flags := runCmd.Flags()

	flags.StringVarP(&runFlags.sequenceFile, "setpoint-sequence-filepath", "s", "",
		"setpoint sequence csv filepath")
	flags.Float64Var(&runFlags.o2SourceGasFraction, "o2-source-fraction", 0,
		"O2 fraction of the source gas connected to MFC 2")
	flags.BoolVar(&runFlags.loop, "loop", false,
		"loop through the setpoint sequence until stopped manually")

	flags.StringVar(&runFlags.gasMixerPort, "gas-mixer-port", defaultGasMixerPort,
		"gas mixer serial port")
	flags.StringVar(&runFlags.waterBathPort, "water-bath-port", defaultWaterBathPort,
		"water bath serial port")
	flags.StringVar(&runFlags.ysiPort, "ysi-port", defaultYSIPort,
		"YSI sensor serial port")

	flags.DurationVar(&runFlags.collectionInterval, "collection-interval", run.DefaultCollectionInterval,
		"time to wait between data rows while holding at a setpoint")
	flags.DurationVar(&runFlags.pollInterval, "poll-interval", 0,
		"when set, also sample all sensors at this interval into a sidecar csv, independent of the run state")
	flags.StringVar(&runFlags.rigLimitsFile, "rig-limits", "",
		"YAML file overriding MFC full scale ratings")

	flags.StringVar(&runFlags.cosmobotHostname, "cosmobot-hostname", "",
		"cosmobot hostname; enables image capture during hold phases")
	flags.StringVar(&runFlags.cosmobotKeyFile, "cosmobot-key", "",
		"SSH private key for the cosmobot")
	flags.StringVar(&runFlags.cosmobotExperimentName, "cosmobot-experiment-name", "",
		"experiment name passed to run_experiment on the cosmobot")

	flags.BoolVar(&runFlags.notifySlack, "notify", false,
		"post run updates to Slack")

	cobra.CheckErr(runCmd.MarkFlagRequired("setpoint-sequence-filepath"))
	cobra.CheckErr(runCmd.MarkFlagRequired("o2-source-fraction"))

	rootCmd.AddCommand(runCmd)
}

// outputFilename names the run's CSV after its start time. Colons are not
// filename-safe on Windows, so the timestamp uses dashes throughout.
func outputFilename(start time.Time) string {
	return start.Format("2006-01-02--15-04-05") + "_calibration.csv"
}

// pollFilename names the background poller's sidecar CSV for the same run.
func pollFilename(start time.Time) string {
	return start.Format("2006-01-02--15-04-05") + "_calibration_poll.csv"
}

func runCalibration(cmd *cobra.Command, args []string) error {
	log := logger.GetLogger()
	runID := uuid.NewString()

	channels, err := loadChannels(runFlags.rigLimitsFile)
	if err != nil {
		return err
	}

	sequence, err := setpoints.Load(runFlags.sequenceFile)
	if err != nil {
		return err
	}
	if err := setpoints.Validate(sequence, channels, runFlags.o2SourceGasFraction); err != nil {
		return err
	}

	bath, mixer, sensor, closePorts, err := openInstruments(channels)
	if err != nil {
		return err
	}
	defer closePorts()

	start := time.Now()

	collector, err := datalog.NewCollector(outputFilename(start))
	if err != nil {
		return err
	}
	defer collector.Close()

	log.Info("writing calibration data", "path", collector.Path(), "runID", runID)

	cfg := run.Config{
		RunID:                  runID,
		Setpoints:              sequence,
		O2SourceGasFraction:    runFlags.o2SourceGasFraction,
		Loop:                   runFlags.loop,
		CollectionInterval:     runFlags.collectionInterval,
		CosmobotExperimentName: runFlags.cosmobotExperimentName,
	}

	var opts []run.OrchestratorOption
	if runFlags.cosmobotHostname != "" {
		capturer, err := cosmobot.NewClient(runFlags.cosmobotHostname,
			cosmobot.WithPrivateKeyFile(runFlags.cosmobotKeyFile))
		if err != nil {
			return err
		}
		opts = append(opts, run.WithCapturer(capturer))
	}

	orchestrator, err := run.NewOrchestrator(bath, mixer, sensor, collector, cfg, opts...)
	if err != nil {
		return err
	}

	var notifier *notify.Notifier
	if runFlags.notifySlack {
		notifier, err = notify.NewNotifier()
		if err != nil {
			return err
		}
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(signalCtx)
	defer cancel()

	var pollerDone <-chan struct{}
	if runFlags.pollInterval > 0 {
		pollCollector, err := datalog.NewCollector(pollFilename(start))
		if err != nil {
			return err
		}
		defer pollCollector.Close()

		log.Info("background polling enabled",
			"path", pollCollector.Path(), "interval", runFlags.pollInterval)
		pollerDone = orchestrator.StartBackgroundPoller(ctx, runFlags.pollInterval, pollCollector)
	}

	runErr := orchestrator.Run(ctx)

	cancel()
	if pollerDone != nil {
		<-pollerDone
	}

	notifyOutcome(notifier, runID, runErr)

	return runErr
}

// notifyOutcome reports how the run ended. A manual interrupt is routine; an
// unexpected failure pings the channel so someone checks on the hardware.
func notifyOutcome(notifier *notify.Notifier, runID string, runErr error) {
	if notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch {
	case runErr == nil:
		err = notifier.Post(ctx, fmt.Sprintf("Calibration run %s completed. :tada:", runID))
	case errors.Is(runErr, context.Canceled):
		err = notifier.Post(ctx, fmt.Sprintf("Calibration run %s was stopped manually.", runID))
	default:
		err = notifier.PostMentionChannel(ctx,
			fmt.Sprintf("Calibration run %s errored: %v", runID, runErr))
	}
	if err != nil {
		logger.Error("failed to post run outcome to slack", "error", err)
	}
}

// openInstruments opens the three serial ports and wraps them in their
// drivers. The returned closer shuts all ports, logging any problems.
func openInstruments(channels gasmixer.Channels) (*waterbath.Bath, *gasmixer.Mixer, *ysi.Sensor, func(), error) {
	var ports []*serial.Port

	closePorts := func() {
		for _, port := range ports {
			if err := port.Close(); err != nil {
				logger.Error("failed to close serial port", "error", err)
			}
		}
	}

	fail := func(err error) (*waterbath.Bath, *gasmixer.Mixer, *ysi.Sensor, func(), error) {
		closePorts()

		return nil, nil, nil, nil, err
	}

	bathPort, err := serial.NewPort(runFlags.waterBathPort, serial.WithBaudRate(waterbath.DefaultBaudRate))
	if err != nil {
		return fail(err)
	}
	ports = append(ports, bathPort)

	mixerPort, err := serial.NewPort(runFlags.gasMixerPort, serial.WithBaudRate(gasmixer.DefaultBaudRate))
	if err != nil {
		return fail(err)
	}
	ports = append(ports, mixerPort)

	ysiPort, err := serial.NewPort(runFlags.ysiPort, serial.WithBaudRate(ysi.DefaultBaudRate))
	if err != nil {
		return fail(err)
	}
	ports = append(ports, ysiPort)

	bath, err := waterbath.NewBath(bathPort)
	if err != nil {
		return fail(err)
	}

	mixer, err := gasmixer.NewMixer(mixerPort, gasmixer.WithChannels(channels))
	if err != nil {
		return fail(err)
	}

	sensor, err := ysi.NewSensor(ysiPort)
	if err != nil {
		return fail(err)
	}

	return bath, mixer, sensor, closePorts, nil
}
