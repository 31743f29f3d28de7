package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skobkin/trafficview/internal/config"
)

// connectionFlags are the per-run overrides shared by every command that
// opens a session. Unset flags keep the saved value.
type connectionFlags struct {
	source   string
	port     string
	baud     int
	tcp      string
	replay   string
	paceMS   int
	logLevel string
}

func (f *connectionFlags) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&f.source, "source", "", "line source: serial, tcp or replay")
	flags.StringVar(&f.port, "port", "", "serial port, e.g. /dev/ttyACM0")
	flags.IntVar(&f.baud, "baud", 0, "serial baud rate")
	flags.StringVar(&f.tcp, "tcp", "", "serial-over-TCP bridge address, host[:port]")
	flags.StringVar(&f.replay, "replay", "", "replay a captured session file ('-' for stdin)")
	flags.IntVar(&f.paceMS, "pace", -1, "delay between replayed chunks in milliseconds")
	flags.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
}

func (f *connectionFlags) validate() error {
	switch config.SourceType(strings.ToLower(strings.TrimSpace(f.source))) {
	case "", config.SourceSerial, config.SourceTCP, config.SourceReplay:
	default:
		return fmt.Errorf("unknown source %q", f.source)
	}
	if f.baud < 0 {
		return fmt.Errorf("baud must be positive, got %d", f.baud)
	}

	return nil
}

// apply edits cfg in place. A bare --port, --tcp or --replay also selects
// the matching source unless --source says otherwise.
func (f *connectionFlags) apply(cfg *config.AppConfig) {
	conn := &cfg.Connection

	if port := strings.TrimSpace(f.port); port != "" {
		conn.SerialPort = port
		conn.Source = config.SourceSerial
	}
	if f.baud > 0 {
		conn.SerialBaud = f.baud
	}
	if addr := strings.TrimSpace(f.tcp); addr != "" {
		conn.TCPAddress = addr
		conn.Source = config.SourceTCP
	}
	if path := strings.TrimSpace(f.replay); path != "" {
		conn.ReplayPath = path
		conn.Source = config.SourceReplay
	}
	if f.paceMS >= 0 {
		conn.ReplayPaceMillis = f.paceMS
	}
	if source := strings.ToLower(strings.TrimSpace(f.source)); source != "" {
		conn.Source = config.SourceType(source)
	}
	if level := strings.TrimSpace(f.logLevel); level != "" {
		cfg.Logging.Level = level
	}
}
