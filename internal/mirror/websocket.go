package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout    = 2 * time.Second
	wsShutdownTimeout = 3 * time.Second
)

// WebSocketHub serves /ws for live updates and /state for a one-shot JSON
// snapshot. New websocket clients first receive the latest state and status.
type WebSocketHub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	last    map[string][]byte
}

func NewWebSocketHub(logger *slog.Logger) *WebSocketHub {
	if logger == nil {
		logger = slog.Default().With("component", "mirror.ws")
	}

	return &WebSocketHub{
		logger: logger,
		upgrader: websocket.Upgrader{
			// Read-only feed for local dashboards; any origin may watch.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
		last:    make(map[string][]byte),
	}
}

func (h *WebSocketHub) Name() string {
	return "websocket"
}

func (h *WebSocketHub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)
	mux.HandleFunc("/state", h.handleState)

	return mux
}

// ListenAndServe blocks until ctx is done or the listener fails.
func (h *WebSocketHub) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen websocket mirror: %w", err)
	}

	return h.Serve(ctx, ln)
}

func (h *WebSocketHub) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	h.logger.Info("websocket mirror listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), wsShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = h.Close()
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve websocket mirror: %w", err)
	}
}

func (h *WebSocketHub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	for _, typ := range []string{MessageTypeStatus, MessageTypeState} {
		if raw, ok := h.last[typ]; ok {
			if err := h.writeLocked(conn, raw); err != nil {
				h.dropLocked(conn)
				h.mu.Unlock()
				return
			}
		}
	}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("websocket client connected", "remote", r.RemoteAddr, "clients", count)

	// Drain client frames so close and ping control messages get handled.
	go func() {
		defer func() {
			h.mu.Lock()
			h.dropLocked(conn)
			h.mu.Unlock()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *WebSocketHub) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.mu.Lock()
	raw, ok := h.last[MessageTypeState]
	h.mu.Unlock()
	if !ok {
		http.Error(w, "no state received yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

// Publish remembers msg as the latest of its type and sends it to every client.
func (h *WebSocketHub) Publish(msg Message) error {
	raw, err := msg.Encode()
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last[msg.Type] = raw
	for conn := range h.clients {
		if err := h.writeLocked(conn, raw); err != nil {
			h.logger.Debug("drop websocket client", "remote", conn.RemoteAddr().String(), "error", err)
			h.dropLocked(conn)
		}
	}

	return nil
}

func (h *WebSocketHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

func (h *WebSocketHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(wsWriteTimeout),
		)
		h.dropLocked(conn)
	}

	return nil
}

func (h *WebSocketHub) writeLocked(conn *websocket.Conn, raw []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))

	return conn.WriteMessage(websocket.TextMessage, raw)
}

func (h *WebSocketHub) dropLocked(conn *websocket.Conn) {
	if _, ok := h.clients[conn]; !ok {
		return
	}
	delete(h.clients, conn)
	if err := conn.Close(); err != nil {
		h.logger.Debug("close websocket", "error", err)
	}
}
