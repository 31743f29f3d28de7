package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const defaultReplayChunkSize = 64

// OpenFunc produces the stream a ReaderTransport reads from.
type OpenFunc func() (io.ReadCloser, error)

// ReaderTransport replays a captured device stream (a file or stdin) through
// the same pipeline as a live port. Chunks are cut at ChunkSize bytes and
// optionally paced to imitate the serial line rate.
type ReaderTransport struct {
	name      string
	open      OpenFunc
	chunkSize int
	pace      time.Duration

	mu sync.Mutex
	rc io.ReadCloser
}

func NewReaderTransport(name string, open OpenFunc, chunkSize int, pace time.Duration) *ReaderTransport {
	if chunkSize <= 0 {
		chunkSize = defaultReplayChunkSize
	}

	return &ReaderTransport{
		name:      name,
		open:      open,
		chunkSize: chunkSize,
		pace:      pace,
	}
}

// NewFileTransport replays path; "-" reads standard input.
func NewFileTransport(path string, chunkSize int, pace time.Duration) *ReaderTransport {
	return NewReaderTransport(path, func() (io.ReadCloser, error) {
		if path == "-" {
			return io.NopCloser(os.Stdin), nil
		}
		// #nosec G304 -- replay path is chosen by the user on the command line.
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open replay file: %w", err)
		}
		return f, nil
	}, chunkSize, pace)
}

func (t *ReaderTransport) Name() string {
	return "replay"
}

func (t *ReaderTransport) StatusTarget() string {
	return t.name
}

func (t *ReaderTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rc != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.open == nil {
		return errors.New("replay source is not configured")
	}
	rc, err := t.open()
	if err != nil {
		return err
	}
	t.rc = rc
	sourceLogger("replay", t.name).Info("connected")

	return nil
}

func (t *ReaderTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rc == nil {
		return nil
	}
	err := t.rc.Close()
	t.rc = nil

	return err
}

func (t *ReaderTransport) ReadChunk(ctx context.Context) ([]byte, error) {
	t.mu.Lock()
	rc := t.rc
	t.mu.Unlock()
	if rc == nil {
		return nil, errNotConnected
	}

	if t.pace > 0 {
		timer := time.NewTimer(t.pace)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	buf := make([]byte, t.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := rc.Read(buf)
		if n > 0 {
			return buf[:n], nil
		}
		if err != nil {
			if errors.Is(err, os.ErrClosed) {
				return nil, io.EOF
			}
			return nil, err
		}
	}
}

// WriteLine discards output: a replayed capture has no device listening.
func (t *ReaderTransport) WriteLine(_ context.Context, line string) error {
	sourceLogger("replay", t.name).Debug("discarding write", "len", len(line))

	return nil
}
