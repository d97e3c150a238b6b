package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/otakit/ota-agent/internal/agent/core"
	"github.com/otakit/ota-agent/internal/pkg/metrics"
	"github.com/otakit/ota-agent/pkg/log"
	"github.com/otakit/ota-agent/pkg/mqtt"
	mqtttopic "github.com/otakit/ota-agent/pkg/mqtt/topic"
)

// Hub connects the agent to the broker: events go out as retained JSON
// messages, inbound topics are dispatched to registered handlers.
type Hub struct {
	deviceID string

	mc     mqtt.Client
	topics *mqtttopic.Builder
	routes map[string]core.HandlerFunc
}

var _ core.Sender = (*Hub)(nil)

func New(deviceID string, client mqtt.Client, topicbuilder *mqtttopic.Builder) *Hub {
	return &Hub{
		deviceID: deviceID,
		mc:       client,
		topics:   topicbuilder,
		routes:   make(map[string]core.HandlerFunc),
	}
}

// Topic returns the full topic of event for this device.
func (b *Hub) Topic(event core.EventType) (string, error) {
	segment, ok := events[event]
	if !ok {
		return "", fmt.Errorf("unmapped event: %s", event)
	}
	return b.topics.Build(segment, b.deviceID), nil
}

func (b *Hub) Send(ctx context.Context, event core.EventType, payload []byte) error {
	topic, err := b.Topic(event)
	if err != nil {
		return err
	}
	if !b.mc.IsConnected() {
		return fmt.Errorf("broker not connected, dropping %s", event)
	}
	return b.mc.Publish(ctx, topic, 1, true, payload)
}

func (b *Hub) SendJSON(ctx context.Context, event core.EventType, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Send(ctx, event, payload)
}

func (b *Hub) IsConnected() bool {
	return b.mc.IsConnected()
}

// Start connects to the broker and subscribes every registered route. It
// blocks until the first connection is up or ctx is done.
func (b *Hub) Start(ctx context.Context) error {
	if err := b.mc.Start(ctx); err != nil {
		return err
	}

	if err := b.mc.AwaitConnection(ctx); err != nil {
		return err
	}
	metrics.BrokerConnected.Set(1)

	for topic, handler := range b.routes {
		err := b.mc.Subscribe(ctx, topic, 1, func(c context.Context, _ string, p []byte) {
			if handleErr := handler(c, p); handleErr != nil {
				log.Error(handleErr, "Handler execution failed", "topic", topic)
			}
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Run keeps the broker session for the lifetime of ctx. A broker that
// cannot be reached is logged and does not stop the agent.
func (b *Hub) Run(ctx context.Context) error {
	if err := b.Start(ctx); err != nil && ctx.Err() == nil {
		log.Error(err, "Status reporting disabled, broker unavailable")
	}
	<-ctx.Done()
	b.Stop()
	return nil
}

func (b *Hub) Stop() {
	log.Info("Disconnecting MQTT client...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b.mc.Disconnect(ctx)
	metrics.BrokerConnected.Set(0)
}
