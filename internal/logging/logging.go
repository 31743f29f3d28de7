package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/skobkin/trafficview/internal/config"
)

// Manager owns app logger configuration and optional log file lifecycle.
// Loggers handed out by Logger keep following Configure calls, so a level
// changed in settings applies to components built at startup.
type Manager struct {
	mu      sync.Mutex
	slot    *handlerSlot
	file    *os.File
	console io.Writer
}

// NewManager logs to stdout, as the desktop app does.
func NewManager() *Manager {
	return NewManagerWithConsole(os.Stdout)
}

// NewManagerWithConsole logs to console instead of stdout. A nil console
// keeps only the log file; the terminal UI uses this since it owns the screen.
func NewManagerWithConsole(console io.Writer) *Manager {
	m := &Manager{console: console}
	m.slot = newHandlerSlot(newHandler(m.consoleWriter(), config.LogFormatText, slog.LevelInfo))

	return m
}

func (m *Manager) consoleWriter() io.Writer {
	if m.console == nil {
		return io.Discard
	}

	return m.console
}

func (m *Manager) Configure(cfg config.LoggingConfig, filePath string) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	previous := m.file
	m.file = nil

	writer := m.consoleWriter()
	if cfg.LogToFile {
		cleanPath := filepath.Clean(filePath)
		// #nosec G304 -- path is resolved by app runtime and points to user config dir.
		file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			m.file = previous
			return fmt.Errorf("open log file: %w", err)
		}
		m.file = file
		if m.console == nil {
			writer = file
		} else {
			writer = newFanoutWriter(m.console, file)
		}
	}

	handler := newHandler(writer, cfg.Format, level)
	m.slot.set(handler)
	defaultSlot.set(handler)
	slog.SetDefault(slog.New(&switchHandler{slot: defaultSlot}))
	// Records in flight on the old handler may still reach the old file.
	if previous != nil {
		_ = previous.Close()
	}

	return nil
}

func (m *Manager) Logger(component string) *slog.Logger {
	return slog.New(&switchHandler{slot: m.slot}).With("component", component)
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file != nil {
		if err := m.file.Close(); err != nil {
			return err
		}
		m.file = nil
	}

	return nil
}

func newHandler(w io.Writer, format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(strings.TrimSpace(format), config.LogFormatJSON) {
		return slog.NewJSONHandler(w, opts)
	}

	return slog.NewTextHandler(w, opts)
}

// ParseLevel accepts the level names used in config files and CLI flags.
func ParseLevel(raw string) (slog.Leveler, error) {
	return parseLevel(raw)
}

func parseLevel(raw string) (slog.Leveler, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return nil, fmt.Errorf("unsupported log level: %q", raw)
	}
}

type fanoutWriter struct {
	writers []io.Writer
}

func newFanoutWriter(writers ...io.Writer) io.Writer {
	filtered := make([]io.Writer, 0, len(writers))
	for _, w := range writers {
		if w != nil {
			filtered = append(filtered, w)
		}
	}

	return &fanoutWriter{writers: filtered}
}

func (w *fanoutWriter) Write(p []byte) (int, error) {
	var (
		wroteAny bool
		firstErr error
	)

	for _, dst := range w.writers {
		n, err := dst.Write(p)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}

			continue
		}
		if n != len(p) {
			if firstErr == nil {
				firstErr = io.ErrShortWrite
			}

			continue
		}
		wroteAny = true
	}

	if wroteAny {
		return len(p), nil
	}
	if firstErr != nil {
		return 0, firstErr
	}

	return len(p), nil
}
