package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skobkin/trafficview/internal/bus"
	"github.com/skobkin/trafficview/internal/connectors"
	"github.com/skobkin/trafficview/internal/domain"
	"github.com/skobkin/trafficview/internal/transport"
)

var (
	// ErrSessionActive is returned by Connect while a read loop already owns the transport.
	ErrSessionActive = errors.New("session already active")
	// ErrNotConnected is returned by operations that need a connected session.
	ErrNotConnected = errors.New("session is not connected")
)

// StateSink receives every decoded state. Implementations must not block.
type StateSink interface {
	Publish(state domain.DeviceState)
}

// Stats counts what the read loop has seen since the session was created.
type Stats struct {
	Lines        uint64
	States       uint64
	DecodeErrors uint64
}

// Session owns one transport and runs at most one read loop over it:
// chunks go through a LineFramer and the Codec, decoded states replace the
// latest-value slot and are handed to the sink and the bus.
type Session struct {
	logger    *slog.Logger
	transport transport.Transport
	codec     *Codec
	bus       bus.MessageBus
	sink      StateSink

	mu     sync.Mutex
	status connectors.ConnectionStatus
	cancel context.CancelFunc
	done   chan struct{}

	latest       atomic.Pointer[domain.DeviceState]
	lines        atomic.Uint64
	states       atomic.Uint64
	decodeErrors atomic.Uint64
}

func NewSession(logger *slog.Logger, b bus.MessageBus, tr transport.Transport, sink StateSink) *Session {
	if logger == nil {
		logger = slog.Default().With("component", "device")
	}

	s := &Session{
		logger:    logger,
		transport: tr,
		codec:     NewCodec(),
		bus:       b,
		sink:      sink,
	}
	s.status = s.statusSnapshot(connectors.ConnectionStateDisconnected, nil)

	return s
}

// Connect opens the transport and starts the read loop, which lives until
// the stream ends, a read fails, Disconnect is called or ctx is cancelled.
// A failed open leaves the session in the failed state; Connect may be
// called again afterwards.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return ErrSessionActive
	}
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	s.setStatus(connectors.ConnectionStateConnecting, nil)
	if err := s.transport.Connect(ctx); err != nil {
		s.logger.Error("transport connect failed", "transport", s.transport.Name(), "error", err)
		s.mu.Lock()
		s.done = nil
		s.mu.Unlock()
		close(done)
		s.setStatus(connectors.ConnectionStateFailed, err)

		return fmt.Errorf("connect %s: %w", s.transport.Name(), err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.setStatus(connectors.ConnectionStateConnected, nil)
	go s.runReader(loopCtx, cancel, done)

	return nil
}

// Disconnect stops the read loop and releases the transport. It is safe to
// call at any time, including after the loop has already exited.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil || done == nil {
		return s.transport.Close()
	}

	cancel()
	err := s.transport.Close()
	<-done

	return err
}

// Wait blocks until the current read loop exits or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runReader frees the session slot before publishing the terminal status, so
// an observer reacting to disconnected or failed can reconnect right away.
func (s *Session) runReader(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	var (
		framer transport.LineFramer
		state  connectors.ConnectionState
		err    error
	)
	for {
		chunk, readErr := s.transport.ReadChunk(ctx)
		if readErr != nil {
			state, err = s.finish(ctx, &framer, readErr)
			break
		}
		for _, line := range framer.Push(chunk) {
			s.handleLine(line)
		}
	}

	cancel()
	status := s.statusSnapshot(state, err)
	s.mu.Lock()
	if s.done == done {
		s.cancel = nil
		s.done = nil
	}
	s.status = status
	s.mu.Unlock()
	s.publishStatus(status)
	close(done)
}

func (s *Session) finish(ctx context.Context, framer *transport.LineFramer, readErr error) (connectors.ConnectionState, error) {
	var (
		state connectors.ConnectionState
		err   error
	)
	switch {
	case ctx.Err() != nil:
		s.logger.Info("read loop stopped", "reason", ctx.Err())
		state = connectors.ConnectionStateDisconnected
	case errors.Is(readErr, io.EOF):
		s.handleLine(framer.Flush())
		s.logger.Info("device stream ended")
		state = connectors.ConnectionStateDisconnected
	default:
		s.logger.Error("read from device failed", "error", readErr)
		state = connectors.ConnectionStateFailed
		err = readErr
	}

	if closeErr := s.transport.Close(); closeErr != nil {
		s.logger.Warn("close transport", "error", closeErr)
	}

	return state, err
}

func (s *Session) handleLine(line string) {
	now := time.Now()
	s.lines.Add(1)
	s.publish(connectors.TopicRawLineIn, connectors.RawLine{Text: line, Len: len(line), At: now})

	state, err := s.codec.Decode(line)
	if err != nil {
		if IsEmptyLine(err) {
			return
		}
		s.decodeErrors.Add(1)
		s.logDecodeFailure(line, err)

		var decodeErr *DecodeError
		kind := string(DecodeMalformed)
		if errors.As(err, &decodeErr) {
			kind = string(decodeErr.Kind)
		}
		s.publish(connectors.TopicDecodeFailure, connectors.DecodeFailure{Kind: kind, Line: line, Err: err.Error(), At: now})

		return
	}

	s.states.Add(1)
	s.latest.Store(&state)
	if s.sink != nil {
		s.sink.Publish(state)
	}
	s.publish(connectors.TopicDeviceState, state)
}

// logDecodeFailure keeps firmware chatter ("Blue LED ON") out of warn level.
func (s *Session) logDecodeFailure(line string, err error) {
	if strings.HasPrefix(strings.TrimSpace(line), "{") {
		s.logger.Warn("decode device line failed", "line", line, "error", err)
		return
	}
	s.logger.Debug("skipping non-record line", "line", line)
}

// Latest returns the most recently decoded state.
func (s *Session) Latest() (domain.DeviceState, bool) {
	state := s.latest.Load()
	if state == nil {
		return domain.DeviceState{}, false
	}

	return *state, true
}

func (s *Session) Stats() Stats {
	return Stats{
		Lines:        s.lines.Load(),
		States:       s.states.Load(),
		DecodeErrors: s.decodeErrors.Load(),
	}
}

func (s *Session) Status() connectors.ConnectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}

// WriteLine sends a raw line to the device. No command set is defined; this
// exists for manual debugging from the CLI.
func (s *Session) WriteLine(ctx context.Context, line string) error {
	if s.Status().State != connectors.ConnectionStateConnected {
		return ErrNotConnected
	}

	return s.transport.WriteLine(ctx, line)
}

func (s *Session) setStatus(state connectors.ConnectionState, err error) {
	status := s.statusSnapshot(state, err)
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	s.publishStatus(status)
}

func (s *Session) publishStatus(status connectors.ConnectionStatus) {
	s.logger.Debug("connection state", "state", status.State, "target", status.Target)
	s.publish(connectors.TopicConnStatus, status)
}

func (s *Session) statusSnapshot(state connectors.ConnectionState, err error) connectors.ConnectionStatus {
	status := connectors.ConnectionStatus{
		State:         state,
		TransportName: s.transport.Name(),
		Timestamp:     time.Now(),
	}
	if resolver, ok := s.transport.(transport.StatusTargetResolver); ok {
		status.Target = resolver.StatusTarget()
	}
	if err != nil {
		status.Err = err.Error()
	}

	return status
}

func (s *Session) publish(topic string, msg any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(topic, msg)
}
