package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/skobkin/trafficview/internal/tui"
)

func newWatchCmd(conn *connectionFlags) *cobra.Command {
	var noMirrors bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the animated traffic light in the terminal",
		Long: `Connects to the device and renders the three signals, the reported
mode and the brightness in a full-screen terminal view.

Logs go to the log file only while the view is open.`,
		Example: `  # Saved connection settings
  trafficctl watch

  # Specific serial port
  trafficctl watch --port /dev/ttyACM0 --baud 9600

  # Replay a capture at the firmware pace
  trafficctl watch --replay session.log --pace 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			rt, err := initRuntime(ctx, conn, nil, noMirrors)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			cfg := rt.CurrentConfig()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid connection settings: %w", err)
			}
			if err := rt.Connect(); err != nil {
				// The view shows the failed status; 'c' retries.
				slog.Warn("initial connect failed", "error", err)
			}

			return tui.Run(ctx, tui.Options{
				Animator:      rt.Animator,
				Bus:           rt.Bus,
				FrameRate:     cfg.UI.FrameRate,
				InitialStatus: rt.Session.Status(),
				Stats:         rt.Session.Stats,
				Connect:       rt.Connect,
				Disconnect:    rt.Disconnect,
			}, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&noMirrors, "no-mirrors", false, "do not start the websocket and MQTT mirrors")

	return cmd
}
