package logging

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

// defaultSlot backs slog.Default. Loggers derived from it before the first
// Configure, such as package level slog.With vars, still follow later level
// and destination changes.
var defaultSlot = newHandlerSlot(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func init() {
	slog.SetDefault(slog.New(&switchHandler{slot: defaultSlot}))
}

type handlerBox struct {
	handler slog.Handler
}

// handlerSlot holds the handler currently in effect for every switchHandler
// sharing it.
type handlerSlot struct {
	current atomic.Pointer[handlerBox]
}

func newHandlerSlot(h slog.Handler) *handlerSlot {
	s := &handlerSlot{}
	s.set(h)

	return s
}

func (s *handlerSlot) set(h slog.Handler) {
	s.current.Store(&handlerBox{handler: h})
}

type resolvedHandler struct {
	base    *handlerBox
	handler slog.Handler
}

// switchHandler replays its attrs and groups onto whatever handler the slot
// holds. The replayed chain is cached until the slot changes.
type switchHandler struct {
	slot  *handlerSlot
	ops   []func(slog.Handler) slog.Handler
	cache atomic.Pointer[resolvedHandler]
}

func (h *switchHandler) resolve() slog.Handler {
	base := h.slot.current.Load()
	if cached := h.cache.Load(); cached != nil && cached.base == base {
		return cached.handler
	}

	handler := base.handler
	for _, op := range h.ops {
		handler = op(handler)
	}
	h.cache.Store(&resolvedHandler{base: base, handler: handler})

	return handler
}

func (h *switchHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.slot.current.Load().handler.Enabled(ctx, level)
}

func (h *switchHandler) Handle(ctx context.Context, record slog.Record) error {
	return h.resolve().Handle(ctx, record)
}

func (h *switchHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	return h.with(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *switchHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	return h.with(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *switchHandler) with(op func(slog.Handler) slog.Handler) *switchHandler {
	ops := make([]func(slog.Handler) slog.Handler, 0, len(h.ops)+1)
	ops = append(ops, h.ops...)

	return &switchHandler{slot: h.slot, ops: append(ops, op)}
}
