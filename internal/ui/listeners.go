package ui

import (
	"fmt"
	"sync"

	"github.com/skobkin/trafficview/internal/bus"
	"github.com/skobkin/trafficview/internal/connectors"
)

func startUIEventListeners(
	messageBus bus.MessageBus,
	onConnStatus func(connectors.ConnectionStatus),
	onDecodeFailure func(connectors.DecodeFailure),
) func() {
	if messageBus == nil {
		appLogger.Debug("skipping UI event listeners: message bus is nil")

		return func() {}
	}

	topics := []string{connectors.TopicConnStatus, connectors.TopicDecodeFailure}
	sub := messageBus.Subscribe(topics...)
	appLogger.Debug("subscribed to UI bus topics", "topics", topics)
	done := make(chan struct{})
	var stopOnce sync.Once

	go func() {
		for {
			select {
			case <-done:
				return
			case raw, ok := <-sub:
				if !ok {
					appLogger.Debug("UI subscription closed")

					return
				}
				select {
				case <-done:
					return
				default:
				}
				switch event := raw.(type) {
				case connectors.ConnectionStatus:
					if onConnStatus != nil {
						onConnStatus(event)
					}
				case connectors.DecodeFailure:
					if onDecodeFailure != nil {
						onDecodeFailure(event)
					}
				default:
					appLogger.Debug("ignoring unexpected UI payload", "payload_type", fmt.Sprintf("%T", raw))
				}
			}
		}
	}()

	return func() {
		stopOnce.Do(func() {
			appLogger.Debug("stopping UI event listeners")
			close(done)
			messageBus.Unsubscribe(sub, topics...)
		})
	}
}
