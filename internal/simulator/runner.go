package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/skobkin/trafficview/internal/device"
)

// LineWriter is where simulated lines go. transport.SerialTransport
// satisfies it, so the simulator can drive a real port or a pty pair.
type LineWriter interface {
	WriteLine(ctx context.Context, line string) error
}

// StreamWriter adapts an io.Writer, terminating each line with "\n".
type StreamWriter struct {
	W io.Writer
}

func (s StreamWriter) WriteLine(_ context.Context, line string) error {
	_, err := io.WriteString(s.W, line+"\n")

	return err
}

// Runner plays a Profile against a LineWriter in real time.
type Runner struct {
	profile Profile
	out     LineWriter
	logger  *slog.Logger
	now     func() time.Time
}

func NewRunner(profile Profile, out LineWriter, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default().With("component", "simulator")
	}

	return &Runner{
		profile: profile,
		out:     out,
		logger:  logger,
		now:     time.Now,
	}
}

// Run emits one record per report interval until ctx is done or a write fails.
func (r *Runner) Run(ctx context.Context) error {
	start := r.now()
	ticker := time.NewTicker(time.Duration(r.profile.ReportIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	player := newPlayer(r.profile)
	r.logger.Info("simulator started", "profile", r.profile.Name, "interval_ms", r.profile.ReportIntervalMS)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, line := range player.advance(r.now().Sub(start)) {
				if err := r.out.WriteLine(ctx, line); err != nil {
					return fmt.Errorf("write simulated line: %w", err)
				}
			}
		}
	}
}

// Lines renders the first d of a profile without waiting, one report per
// interval. Useful for fixtures and replay files.
func Lines(profile Profile, d time.Duration) []string {
	player := newPlayer(profile)
	step := time.Duration(profile.ReportIntervalMS) * time.Millisecond

	var out []string
	for at := step; at <= d; at += step {
		out = append(out, player.advance(at)...)
	}

	return out
}

// player turns elapsed time into the lines the firmware would have printed.
type player struct {
	profile  Profile
	dev      *Device
	next     int
	blueLast bool
}

func newPlayer(profile Profile) *player {
	return &player{profile: profile, dev: NewDevice(profile)}
}

func (p *player) advance(at time.Duration) []string {
	var lines []string
	for p.next < len(p.profile.Script) {
		ev := p.profile.Script[p.next]
		evAt := time.Duration(ev.AtMS) * time.Millisecond
		if evAt > at {
			break
		}
		p.next++
		chatter := p.dev.Press(ev.Mode, evAt)
		if p.profile.Chatter {
			lines = append(lines, chatter)
		}
		// The firmware reports right after a button press.
		lines = append(lines, p.record(evAt))
	}

	if p.profile.Chatter {
		if on := p.dev.BlueBlinkOn(at); on != p.blueLast {
			p.blueLast = on
			if on {
				lines = append(lines, "Blue LED ON")
			} else {
				lines = append(lines, "Blue LED OFF")
			}
		}
	}

	return append(lines, p.record(at))
}

func (p *player) record(at time.Duration) string {
	raw, err := device.Encode(p.dev.State(at))
	if err != nil {
		// Encode only fails on unsupported types; DeviceState has none.
		return ""
	}

	return string(raw)
}

// ServeTCP streams an independent simulation to every client that connects
// to ln, the way a serial-to-TCP bridge would. It returns when ctx is done.
func ServeTCP(ctx context.Context, ln net.Listener, profile Profile, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default().With("component", "simulator")
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	logger.Info("simulator listening", "addr", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept simulator client: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { _ = conn.Close() }()

			remote := conn.RemoteAddr().String()
			logger.Info("simulator client connected", "remote", remote)
			runner := NewRunner(profile, StreamWriter{W: conn}, logger.With("remote", remote))
			if err := runner.Run(ctx); err != nil {
				logger.Info("simulator client gone", "remote", remote, "error", err)
			}
		}()
	}
}
