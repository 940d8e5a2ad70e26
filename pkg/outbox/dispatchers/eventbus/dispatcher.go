// Package eventbus adapts the outbox relay to the in-process event bus.
package eventbus

import (
	"context"
	"encoding/json"

	"github.com/iota-uz/staffimport/pkg/eventbus"
	"github.com/iota-uz/staffimport/pkg/outbox"
)

type Dispatcher struct {
	bus eventbus.EventBus
}

func New(bus eventbus.EventBus) *Dispatcher {
	return &Dispatcher{bus: bus}
}

// Dispatch re-publishes the durable message on the in-process bus.
// Subscriber signature: func(meta *outbox.Meta, topic string, payload json.RawMessage).
func (d *Dispatcher) Dispatch(ctx context.Context, msg outbox.DispatchedMessage) error {
	_ = ctx
	var payload json.RawMessage = msg.Payload
	d.bus.Publish(&msg.Meta, msg.Meta.Topic, payload)
	return nil
}
