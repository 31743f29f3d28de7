package transport

import (
	"context"
	"log/slog"
)

// Transport delivers the device's raw character stream in chunks of arbitrary
// size. ReadChunk returns io.EOF once the stream has ended.
type Transport interface {
	Name() string
	Connect(ctx context.Context) error
	Close() error
	ReadChunk(ctx context.Context) ([]byte, error)
	WriteLine(ctx context.Context, line string) error
}

type StatusTargetResolver interface {
	StatusTarget() string
}

// sourceLogger tags records with the source kind and what it reads from, so
// a serial port and a replay file can be told apart in one log.
func sourceLogger(kind, target string) *slog.Logger {
	return slog.With("component", "transport", "source", kind, "target", target)
}
