package mirror

import (
	"context"
	"log/slog"

	"github.com/skobkin/trafficview/internal/bus"
	"github.com/skobkin/trafficview/internal/connectors"
	"github.com/skobkin/trafficview/internal/domain"
)

// Publisher is a mirror destination.
type Publisher interface {
	Name() string
	Publish(msg Message) error
	Close() error
}

// Forward copies device states and connection statuses from the bus to every
// publisher until ctx is done or the bus closes. A failing publisher is logged
// and skipped; it never stalls the others.
func Forward(ctx context.Context, b bus.MessageBus, logger *slog.Logger, publishers ...Publisher) {
	if logger == nil {
		logger = slog.Default().With("component", "mirror")
	}
	if b == nil || len(publishers) == 0 {
		return
	}

	sub := b.Subscribe(connectors.TopicDeviceState, connectors.TopicConnStatus)
	defer bus.Release(b, sub, connectors.TopicDeviceState, connectors.TopicConnStatus)

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-sub:
			if !ok {
				return
			}
			var msg Message
			switch v := raw.(type) {
			case domain.DeviceState:
				msg = StateMessage(v)
			case connectors.ConnectionStatus:
				msg = StatusMessage(v)
			default:
				continue
			}
			for _, p := range publishers {
				if err := p.Publish(msg); err != nil {
					logger.Warn("mirror publish failed", "publisher", p.Name(), "type", msg.Type, "error", err)
				}
			}
		}
	}
}
