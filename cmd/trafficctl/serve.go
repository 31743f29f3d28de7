package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skobkin/trafficview/internal/app"
	"github.com/skobkin/trafficview/internal/config"
	"github.com/skobkin/trafficview/internal/connectors"
	"github.com/skobkin/trafficview/internal/notifications"
)

type serveOptions struct {
	wsAddr     string
	mqttBroker string
	mqttTopic  string
	notify     bool
}

func (o serveOptions) apply(cfg *config.AppConfig) {
	if addr := strings.TrimSpace(o.wsAddr); addr != "" {
		cfg.Mirror.WebSocketAddr = addr
	}
	if broker := strings.TrimSpace(o.mqttBroker); broker != "" {
		cfg.Mirror.MQTT.Broker = broker
	}
	if topic := strings.TrimSpace(o.mqttTopic); topic != "" {
		cfg.Mirror.MQTT.Topic = topic
	}
}

func newServeCmd(conn *connectionFlags) *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run headless and re-publish the device state",
		Long: `Keeps a session open without a window and forwards every decoded state
and connection change to the configured mirrors: a websocket endpoint for
browsers and an MQTT topic for home automation.

Desktop notifications for connection changes are optional.`,
		Example: `  # Websocket mirror on port 8080
  trafficctl serve --port /dev/ttyACM0 --ws :8080

  # Publish to a local broker
  trafficctl serve --mqtt tcp://localhost:1883 --mqtt-topic home/trafficlight`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := conn.validate(); err != nil {
				return err
			}

			ctx, stop := signalContext(cmd)
			defer stop()

			override := &combinedOverride{conn: conn, serve: opts}
			rt, err := app.InitializeWithOptions(ctx, app.Options{
				Console:  cmd.ErrOrStderr(),
				Override: override.apply,
			})
			if err != nil {
				return fmt.Errorf("initialize runtime: %w", err)
			}
			defer func() { _ = rt.Close() }()

			cfg := rt.CurrentConfig()
			if cfg.Mirror.WebSocketAddr == "" && cfg.Mirror.MQTT.Broker == "" {
				return errors.New("no mirror configured: set --ws or --mqtt")
			}
			if len(rt.Mirrors) == 0 {
				return errors.New("no mirror could be started")
			}

			if opts.notify {
				service := app.NewNotificationService(
					rt.Bus,
					rt.CurrentConfig,
					func() bool { return false },
					notifications.NewDesktopSender(rt.LogManager.Logger("notifications"), ""),
					rt.LogManager.Logger("app.notifications"),
				)
				service.Start(ctx)
			}

			if err := rt.Connect(); err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			return waitForSession(ctx, rt)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.wsAddr, "ws", "", "websocket mirror listen address, e.g. :8080")
	flags.StringVar(&opts.mqttBroker, "mqtt", "", "MQTT broker URL, e.g. tcp://localhost:1883")
	flags.StringVar(&opts.mqttTopic, "mqtt-topic", "", "MQTT topic for state messages")
	flags.BoolVar(&opts.notify, "notify", false, "show desktop notifications on connection changes")

	return cmd
}

type combinedOverride struct {
	conn  *connectionFlags
	serve serveOptions
}

func (o *combinedOverride) apply(cfg *config.AppConfig) {
	o.conn.apply(cfg)
	o.serve.apply(cfg)
}

// waitForSession returns when the stream ends or ctx is done. A failed
// session is reported as an error.
func waitForSession(ctx context.Context, rt *app.Runtime) error {
	if err := rt.Session.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	status := rt.Session.Status()
	if status.State == connectors.ConnectionStateFailed {
		return fmt.Errorf("session failed: %s", status.Err)
	}

	return nil
}
