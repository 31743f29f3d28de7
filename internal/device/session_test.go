package device

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/skobkin/trafficview/internal/bus"
	"github.com/skobkin/trafficview/internal/connectors"
	"github.com/skobkin/trafficview/internal/domain"
)

// fakeTransport hands out scripted chunks, then either ends the stream,
// fails, or blocks until closed.
type fakeTransport struct {
	mu         sync.Mutex
	chunks     [][]byte
	connectErr error
	endErr     error
	hold       bool
	closed     chan struct{}
	closeCalls int
	written    []string
}

func newFakeTransport(chunks ...string) *fakeTransport {
	tr := &fakeTransport{closed: make(chan struct{}), endErr: io.EOF}
	for _, c := range chunks {
		tr.chunks = append(tr.chunks, []byte(c))
	}

	return tr
}

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) StatusTarget() string { return "fake0" }

func (f *fakeTransport) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.closed = make(chan struct{})

	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	select {
	case <-f.closed:
	default:
		close(f.closed)
	}

	return nil
}

func (f *fakeTransport) ReadChunk(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	if len(f.chunks) > 0 {
		chunk := f.chunks[0]
		f.chunks = f.chunks[1:]
		f.mu.Unlock()
		return chunk, nil
	}
	hold, endErr, closed := f.hold, f.endErr, f.closed
	f.mu.Unlock()

	if !hold {
		return nil, endErr
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-closed:
		return nil, io.EOF
	}
}

func (f *fakeTransport) WriteLine(_ context.Context, line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, line)

	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	states []domain.DeviceState
}

func (r *recordingSink) Publish(state domain.DeviceState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recordingSink) snapshot() []domain.DeviceState {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]domain.DeviceState(nil), r.states...)
}

func waitForLoop(t *testing.T, s *Session) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("read loop did not finish: %v", err)
	}
}

func TestSession_ChunkedStreamPublishesStatesInOrder(t *testing.T) {
	tr := newFakeTransport(
		`{"Brightness":10,"Mode"`,
		`:"All Off","Light":"Off"}`+"\n"+`{"Bri`,
		`ghtness":99,"Mode":"Red Only","Light":"Off"}`+"\n",
	)
	sink := &recordingSink{}
	s := NewSession(nil, nil, tr, sink)

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	waitForLoop(t, s)

	got := sink.snapshot()
	want := []domain.DeviceState{
		{Brightness: 10, Mode: domain.ModeAllOff, Light: domain.LightOff},
		{Brightness: 99, Mode: domain.ModeRedOnly, Light: domain.LightOff},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d states, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("state %d: want %+v, got %+v", i, want[i], got[i])
		}
	}

	latest, ok := s.Latest()
	if !ok || !latest.Equal(want[1]) {
		t.Fatalf("expected latest to be the last decoded state, got %+v (ok=%v)", latest, ok)
	}
	if status := s.Status(); status.State != connectors.ConnectionStateDisconnected {
		t.Fatalf("expected disconnected after end of stream, got %s", status.State)
	}
	if stats := s.Stats(); stats.States != 2 || stats.DecodeErrors != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestSession_DecodeFailuresDoNotStopTheLoop(t *testing.T) {
	tr := newFakeTransport(
		"Blink Mode ON\n",
		`{"Brightness":5,"Mode":"Blink","Light":"Off"}`+"\n",
		"{garbage\n\n",
		`{"Brightness":6,"Mode":"Blink","Light":"Off"}`+"\n",
	)
	sink := &recordingSink{}
	s := NewSession(nil, nil, tr, sink)

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	waitForLoop(t, s)

	if got := len(sink.snapshot()); got != 2 {
		t.Fatalf("expected 2 states, got %d", got)
	}
	stats := s.Stats()
	if stats.DecodeErrors != 2 {
		t.Fatalf("expected 2 decode errors (chatter and garbage), got %d", stats.DecodeErrors)
	}
	// 5 delimited lines plus the empty flush remainder.
	if stats.Lines != 6 {
		t.Fatalf("expected 6 lines, got %d", stats.Lines)
	}
}

func TestSession_EndOfStreamFlushesRemainder(t *testing.T) {
	tr := newFakeTransport(`{"Brightness":77,"Mode":"Normal","Light":"Red"}`)
	sink := &recordingSink{}
	s := NewSession(nil, nil, tr, sink)

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	waitForLoop(t, s)

	got := sink.snapshot()
	if len(got) != 1 || got[0].Brightness != 77 {
		t.Fatalf("expected unterminated record to be decoded on flush, got %+v", got)
	}
	if tr.closeCalls == 0 {
		t.Fatalf("expected transport to be closed")
	}
}

func TestSession_ReadErrorMovesToFailed(t *testing.T) {
	tr := newFakeTransport(`{"Brightness":1,"Mode":"Normal","Light":"Red"}` + "\n")
	tr.endErr = errors.New("device unplugged")
	s := NewSession(nil, nil, tr, nil)

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	waitForLoop(t, s)

	status := s.Status()
	if status.State != connectors.ConnectionStateFailed {
		t.Fatalf("expected failed, got %s", status.State)
	}
	if status.Err != "device unplugged" {
		t.Fatalf("expected read error in status, got %q", status.Err)
	}
	if _, ok := s.Latest(); !ok {
		t.Fatalf("states decoded before the failure must stay available")
	}
}

func TestSession_ConnectFailure(t *testing.T) {
	tr := newFakeTransport()
	tr.connectErr = errors.New("permission denied")
	s := NewSession(nil, nil, tr, nil)

	err := s.Connect(context.Background())
	if err == nil || !errors.Is(err, tr.connectErr) {
		t.Fatalf("expected wrapped connect error, got %v", err)
	}
	if status := s.Status(); status.State != connectors.ConnectionStateFailed || status.Err != "permission denied" {
		t.Fatalf("unexpected status: %+v", status)
	}

	tr.mu.Lock()
	tr.connectErr = nil
	tr.hold = true
	tr.mu.Unlock()
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("expected reconnect after failure to succeed: %v", err)
	}
	if err := s.Disconnect(); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
}

func TestSession_RejectsSecondConnect(t *testing.T) {
	tr := newFakeTransport()
	tr.hold = true
	s := NewSession(nil, nil, tr, nil)

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := s.Connect(context.Background()); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", err)
	}

	if err := s.Disconnect(); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if status := s.Status(); status.State != connectors.ConnectionStateDisconnected {
		t.Fatalf("expected disconnected, got %s", status.State)
	}
	if err := s.Disconnect(); err != nil {
		t.Fatalf("second disconnect: %v", err)
	}
}

func TestSession_ContextCancelStopsLoop(t *testing.T) {
	tr := newFakeTransport()
	tr.hold = true
	s := NewSession(nil, nil, tr, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	cancel()
	waitForLoop(t, s)

	if status := s.Status(); status.State != connectors.ConnectionStateDisconnected {
		t.Fatalf("expected disconnected after cancel, got %s", status.State)
	}
}

func TestSession_WriteLineRequiresConnection(t *testing.T) {
	tr := newFakeTransport()
	tr.hold = true
	s := NewSession(nil, nil, tr, nil)

	if err := s.WriteLine(context.Background(), "ping"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = s.Disconnect() }()

	if err := s.WriteLine(context.Background(), "ping"); err != nil {
		t.Fatalf("write: %v", err)
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.written) != 1 || tr.written[0] != "ping" {
		t.Fatalf("unexpected writes: %v", tr.written)
	}
}

func TestSession_PublishesOnBus(t *testing.T) {
	b := bus.New(nil)
	defer b.Close()
	sub := b.Subscribe(connectors.TopicConnStatus, connectors.TopicDeviceState, connectors.TopicDecodeFailure)
	defer b.Unsubscribe(sub)

	tr := newFakeTransport("oops\n", `{"Brightness":3,"Mode":"Normal","Light":"Yellow"}`+"\n")
	s := NewSession(nil, b, tr, nil)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	waitForLoop(t, s)

	var (
		states   []connectors.ConnectionState
		decoded  int
		failures int
	)
	timeout := time.After(2 * time.Second)
	for len(states) < 3 || decoded < 1 || failures < 1 {
		select {
		case msg := <-sub:
			switch v := msg.(type) {
			case connectors.ConnectionStatus:
				states = append(states, v.State)
				if v.TransportName != "fake" || v.Target != "fake0" {
					t.Fatalf("unexpected status identity: %+v", v)
				}
			case domain.DeviceState:
				decoded++
				if v.Light != domain.LightYellow {
					t.Fatalf("unexpected state: %+v", v)
				}
			case connectors.DecodeFailure:
				failures++
				if v.Line != "oops" || v.Kind != string(DecodeMalformed) {
					t.Fatalf("unexpected failure event: %+v", v)
				}
			}
		case <-timeout:
			t.Fatalf("timed out: states=%v decoded=%d failures=%d", states, decoded, failures)
		}
	}

	want := []connectors.ConnectionState{
		connectors.ConnectionStateConnecting,
		connectors.ConnectionStateConnected,
		connectors.ConnectionStateDisconnected,
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("status %d: want %s, got %s", i, want[i], states[i])
		}
	}
}

// reconnectingBus reconnects the session from inside the publish of the
// first terminal status, like a UI reacting to a dropped cable.
type reconnectingBus struct {
	session *Session

	mu           sync.Mutex
	states       []connectors.ConnectionState
	reconnected  bool
	reconnectErr error
	terminal     int
	secondEnd    chan struct{}
}

func (b *reconnectingBus) Publish(topic string, msg any) {
	status, ok := msg.(connectors.ConnectionStatus)
	if topic != connectors.TopicConnStatus || !ok {
		return
	}

	b.mu.Lock()
	b.states = append(b.states, status.State)
	terminal := status.State == connectors.ConnectionStateDisconnected || status.State == connectors.ConnectionStateFailed
	if terminal {
		b.terminal++
	}
	first := terminal && !b.reconnected
	if first {
		b.reconnected = true
	}
	if terminal && b.terminal == 2 {
		close(b.secondEnd)
	}
	b.mu.Unlock()

	if first {
		err := b.session.Connect(context.Background())
		b.mu.Lock()
		b.reconnectErr = err
		b.mu.Unlock()
	}
}

func (b *reconnectingBus) Subscribe(...string) bus.Subscription { return make(bus.Subscription) }

func (b *reconnectingBus) Unsubscribe(bus.Subscription, ...string) {}

func (b *reconnectingBus) Close() {}

func TestSession_ReconnectFromTerminalStatus(t *testing.T) {
	tr := newFakeTransport(`{"Brightness":5,"Mode":"Normal","Light":"Red"}` + "\n")
	b := &reconnectingBus{secondEnd: make(chan struct{})}
	s := NewSession(nil, b, tr, nil)
	b.session = s

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	select {
	case <-b.secondEnd:
	case <-time.After(2 * time.Second):
		t.Fatalf("second session did not run to its end")
	}
	waitForLoop(t, s)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reconnectErr != nil {
		t.Fatalf("expected reconnect from status observer to succeed, got %v", b.reconnectErr)
	}
	want := []connectors.ConnectionState{
		connectors.ConnectionStateConnecting,
		connectors.ConnectionStateConnected,
		connectors.ConnectionStateDisconnected,
		connectors.ConnectionStateConnecting,
		connectors.ConnectionStateConnected,
		connectors.ConnectionStateDisconnected,
	}
	if len(b.states) != len(want) {
		t.Fatalf("expected states %v, got %v", want, b.states)
	}
	for i := range want {
		if b.states[i] != want[i] {
			t.Fatalf("expected states %v, got %v", want, b.states)
		}
	}
}
