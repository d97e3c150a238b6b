package hub

import (
	"github.com/otakit/ota-agent/internal/agent/core"
	"github.com/otakit/ota-agent/internal/pkg/mqtt/paths"
)

var events = make(map[core.EventType]string)

// Register routes the inbound topic of event to handler. It must be called before Start.
func (b *Hub) Register(event core.EventType, handler core.HandlerFunc) error {
	topic, err := b.Topic(event)
	if err != nil {
		return err
	}
	b.routes[topic] = handler
	return nil
}

func init() {
	events[core.EventStatus] = paths.Status
	events[core.EventProgress] = paths.Progress
	events[core.EventCheck] = paths.Check
}
