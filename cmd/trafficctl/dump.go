package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/skobkin/trafficview/internal/app"
	"github.com/skobkin/trafficview/internal/bus"
	"github.com/skobkin/trafficview/internal/connectors"
	"github.com/skobkin/trafficview/internal/domain"
	"github.com/skobkin/trafficview/internal/mirror"
)

const (
	dumpFormatText = "text"
	dumpFormatJSON = "json"

	maxLinePreviewLen = 64
)

type dumpOptions struct {
	format    string
	raw       bool
	count     int
	listenFor time.Duration
}

func newDumpCmd(conn *connectionFlags) *cobra.Command {
	opts := dumpOptions{}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print decoded records as they arrive",
		Long: `Connects to the device and prints one line per event: decoded states,
connection changes and rejected lines. The command ends when the stream
ends, after --count states, after --listen-for or on interrupt.`,
		Example: `  # Decode a capture file as JSON
  trafficctl dump --replay session.log --format json

  # Ten states from the bridge, with the raw lines
  trafficctl dump --tcp bridge.local --count 10 --raw`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch opts.format {
			case dumpFormatText, dumpFormatJSON:
			default:
				return fmt.Errorf("unknown format %q", opts.format)
			}

			ctx, stop := signalContext(cmd)
			defer stop()

			rt, err := initRuntime(ctx, conn, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			topics := []string{connectors.TopicConnStatus, connectors.TopicDeviceState, connectors.TopicDecodeFailure}
			if opts.raw {
				topics = append(topics, connectors.TopicRawLineIn)
			}
			sub := rt.Bus.Subscribe(topics...)
			defer bus.Release(rt.Bus, sub, topics...)

			if err := rt.Connect(); err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			var deadline <-chan time.Time
			if opts.listenFor > 0 {
				timer := time.NewTimer(opts.listenFor)
				defer timer.Stop()
				deadline = timer.C
			}

			out := cmd.OutOrStdout()
			states := 0
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-deadline:
					return nil
				case raw, ok := <-sub:
					if !ok {
						return nil
					}
					if err := writeDumpEvent(out, opts.format, raw); err != nil {
						return err
					}
					switch event := raw.(type) {
					case domain.DeviceState:
						states++
						if opts.count > 0 && states >= opts.count {
							return nil
						}
					case connectors.ConnectionStatus:
						if done, err := sessionEnded(event); done {
							return err
						}
					}
				}
			}
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", dumpFormatText, "output format (text, json)")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "also print every framed line before decoding")
	cmd.Flags().IntVar(&opts.count, "count", 0, "stop after this many decoded states")
	cmd.Flags().DurationVar(&opts.listenFor, "listen-for", 0, "stop after this long, e.g. 30s")

	return cmd
}

// sessionEnded reports whether status closes the dump. Bus order guarantees
// that every record of the stream was delivered before it.
func sessionEnded(status connectors.ConnectionStatus) (bool, error) {
	switch status.State {
	case connectors.ConnectionStateDisconnected:
		return true, nil
	case connectors.ConnectionStateFailed:
		return true, fmt.Errorf("session failed: %s", status.Err)
	default:
		return false, nil
	}
}

type dumpRecord struct {
	Type  string `json:"type"`
	Kind  string `json:"kind,omitempty"`
	Line  string `json:"line"`
	Len   int    `json:"len,omitempty"`
	Error string `json:"error,omitempty"`
}

func writeDumpEvent(w io.Writer, format string, event any) error {
	var line string
	if format == dumpFormatJSON {
		raw, err := encodeDumpEvent(event)
		if err != nil || raw == nil {
			return err
		}
		line = string(raw)
	} else {
		line = formatDumpEvent(event)
		if line == "" {
			return nil
		}
	}

	_, err := fmt.Fprintln(w, line)

	return err
}

func encodeDumpEvent(event any) ([]byte, error) {
	switch event := event.(type) {
	case domain.DeviceState:
		return mirror.StateMessage(event).Encode()
	case connectors.ConnectionStatus:
		return mirror.StatusMessage(event).Encode()
	case connectors.DecodeFailure:
		return json.Marshal(dumpRecord{Type: "reject", Kind: event.Kind, Line: event.Line, Error: event.Err})
	case connectors.RawLine:
		return json.Marshal(dumpRecord{Type: "raw", Line: event.Text, Len: event.Len})
	default:
		return nil, nil
	}
}

func formatDumpEvent(event any) string {
	switch event := event.(type) {
	case domain.DeviceState:
		text := fmt.Sprintf("state mode=%q light=%q brightness=%d", event.Mode, event.Light, event.Brightness)
		if event.Signals != nil {
			text += fmt.Sprintf(" red=%d yellow=%d blue=%d",
				boolDigit(event.Signals.Red), boolDigit(event.Signals.Yellow), boolDigit(event.Signals.Blue))
		}
		return text
	case connectors.ConnectionStatus:
		return "status " + app.ConnectionStatusText(event)
	case connectors.DecodeFailure:
		return fmt.Sprintf("reject kind=%s line=%q", event.Kind, previewLine(event.Line))
	case connectors.RawLine:
		return fmt.Sprintf("raw len=%d %q", event.Len, previewLine(event.Text))
	default:
		return ""
	}
}

// previewLine cuts on a rune boundary; serial noise that is not valid UTF-8
// is replaced rather than split mid-sequence.
func previewLine(line string) string {
	line = strings.ToValidUTF8(strings.TrimSpace(line), "\uFFFD")
	if utf8.RuneCountInString(line) <= maxLinePreviewLen {
		return line
	}

	return string([]rune(line)[:maxLinePreviewLen]) + "..."
}

func boolDigit(v bool) int {
	if v {
		return 1
	}

	return 0
}
