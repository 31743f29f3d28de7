package bus

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/cskr/pubsub"
)

// DefaultCapacity is the per-subscriber buffer used by New.
const DefaultCapacity = 128

type Subscription chan any

type MessageBus interface {
	Publish(topic string, msg any)
	Subscribe(topics ...string) Subscription
	Unsubscribe(ch Subscription, topics ...string)
	Close()
}

// PubSubBus fans session events out to the renderers and mirrors.
type PubSubBus struct {
	ps     *pubsub.PubSub
	logger *slog.Logger
	closed atomic.Bool
}

func New(logger *slog.Logger) *PubSubBus {
	return NewWithCapacity(logger, DefaultCapacity)
}

func NewWithCapacity(logger *slog.Logger, capacity int) *PubSubBus {
	if logger == nil {
		logger = slog.Default().With("component", "bus")
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &PubSubBus{
		ps:     pubsub.New(capacity),
		logger: logger,
	}
}

// Publish is a no-op once the bus is closed.
func (b *PubSubBus) Publish(topic string, msg any) {
	if b.closed.Load() {
		b.logger.Debug("drop publish on closed bus", "topic", topic)
		return
	}
	b.logger.Debug("publish", "topic", topic, "payload_type", fmt.Sprintf("%T", msg))
	b.ps.Pub(msg, topic)
}

func (b *PubSubBus) Subscribe(topics ...string) Subscription {
	ch := b.ps.Sub(topics...)
	b.logger.Debug("subscribe", "topics", topics)
	return ch
}

func (b *PubSubBus) Unsubscribe(ch Subscription, topics ...string) {
	if b.closed.Load() {
		return
	}
	if len(topics) == 0 {
		b.ps.Unsub(ch)
		b.logger.Debug("unsubscribe", "mode", "all")
		return
	}
	b.ps.Unsub(ch, topics...)
	b.logger.Debug("unsubscribe", "topics", topics)
}

// Release unsubscribes sub from every topic it was subscribed to. The
// channel is drained meanwhile: a publisher blocked on its full buffer would
// otherwise hold up the unsubscribe. The drain ends once the channel closes,
// so topics must cover the whole subscription.
func Release(b MessageBus, sub Subscription, topics ...string) {
	if b == nil || sub == nil {
		return
	}
	go func() {
		for range sub {
		}
	}()
	b.Unsubscribe(sub, topics...)
}

// Close shuts the bus down and closes every subscription channel.
func (b *PubSubBus) Close() {
	if b.closed.Swap(true) {
		return
	}
	b.ps.Shutdown()
}
