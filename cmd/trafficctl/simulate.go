package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/skobkin/trafficview/internal/app"
	"github.com/skobkin/trafficview/internal/config"
	"github.com/skobkin/trafficview/internal/logging"
	"github.com/skobkin/trafficview/internal/simulator"
	"github.com/skobkin/trafficview/internal/transport"
)

const (
	simulateOutStdout = "stdout"
	simulateOutSerial = "serial"
	simulateOutTCP    = "tcp"
)

type simulateOptions struct {
	profile  string
	out      string
	port     string
	baud     int
	listen   string
	duration time.Duration
	render   time.Duration
}

func newSimulateCmd() *cobra.Command {
	opts := simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a simulated traffic light controller",
		Long: `Plays the controller firmware: the Normal cycle, Blink, Red Only and
All Off modes, brightness from a simulated potentiometer and the chatter
lines printed on mode changes.

Profiles are YAML files; a bare name is looked up in the profiles
directory next to the config file.`,
		Example: `  # Print a 10 second capture for replay tests
  trafficctl simulate --render 10s > session.log

  # Act as a serial-to-TCP bridge on port 2000
  trafficctl simulate --out tcp --listen :2000

  # Drive one end of a virtual serial pair
  trafficctl simulate --out serial --port /dev/pts/5 --profile blink-demo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := loadSimulatorProfile(opts.profile)
			if err != nil {
				return err
			}

			if opts.render > 0 {
				return renderProfile(cmd.OutOrStdout(), profile, opts.render)
			}

			ctx, stop := signalContext(cmd)
			defer stop()
			if opts.duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.duration)
				defer cancel()
			}

			logMgr := logging.NewManagerWithConsole(cmd.ErrOrStderr())
			if err := logMgr.Configure(config.LoggingConfig{Level: "info", Format: config.LogFormatText}, ""); err != nil {
				return err
			}
			defer func() { _ = logMgr.Close() }()

			return runSimulator(ctx, cmd.OutOrStdout(), profile, opts, logMgr)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.profile, "profile", "", "profile name or YAML path (default: stock firmware)")
	flags.StringVar(&opts.out, "out", simulateOutStdout, "where lines go: stdout, serial or tcp")
	flags.StringVar(&opts.port, "port", "", "serial port for --out serial")
	flags.IntVar(&opts.baud, "baud", config.DefaultSerialBaud, "serial baud rate for --out serial")
	flags.StringVar(&opts.listen, "listen", fmt.Sprintf(":%d", transport.DefaultTCPPort), "listen address for --out tcp")
	flags.DurationVar(&opts.duration, "duration", 0, "stop after this long (default: until interrupted)")
	flags.DurationVar(&opts.render, "render", 0, "print this much simulated time at once and exit")

	return cmd
}

func loadSimulatorProfile(name string) (simulator.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return simulator.DefaultProfile(), nil
	}

	path := name
	if paths, err := app.ResolvePaths(); err == nil {
		path = paths.ProfilePath(name)
	}
	profile, err := simulator.LoadProfile(path)
	if err != nil {
		return simulator.Profile{}, fmt.Errorf("load profile %q: %w", name, err)
	}

	return profile, nil
}

func renderProfile(w io.Writer, profile simulator.Profile, d time.Duration) error {
	for _, line := range simulator.Lines(profile, d) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}

func runSimulator(ctx context.Context, stdout io.Writer, profile simulator.Profile, opts simulateOptions, logMgr *logging.Manager) error {
	logger := logMgr.Logger("simulator")

	switch opts.out {
	case simulateOutStdout:
		return simulator.NewRunner(profile, simulator.StreamWriter{W: stdout}, logger).Run(ctx)

	case simulateOutSerial:
		if strings.TrimSpace(opts.port) == "" {
			return fmt.Errorf("--port is required for --out serial")
		}
		tr := transport.NewSerialTransport(opts.port, opts.baud)
		if err := tr.Connect(ctx); err != nil {
			return fmt.Errorf("open %s: %w", tr.StatusTarget(), err)
		}
		defer func() { _ = tr.Close() }()

		return simulator.NewRunner(profile, tr, logger).Run(ctx)

	case simulateOutTCP:
		var lc net.ListenConfig
		ln, err := lc.Listen(ctx, "tcp", opts.listen)
		if err != nil {
			return fmt.Errorf("listen %s: %w", opts.listen, err)
		}

		return simulator.ServeTCP(ctx, ln, profile, logger)

	default:
		return fmt.Errorf("unknown output %q", opts.out)
	}
}
