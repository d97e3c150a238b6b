package mqtt

import (
	"context"
)

// MessageHandler processes one received message. It runs on its own goroutine.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Client is the small MQTT surface the agent needs: publish reports and
// receive check requests on a connection that heals itself.
type Client interface {
	// Start initiates the connection to the broker.
	// It is non-blocking and returns immediately. Use AwaitConnection to wait.
	Start(ctx context.Context) error

	// Disconnect cleanly closes the connection.
	Disconnect(ctx context.Context)

	// Publish sends a message to the specified topic.
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// Subscribe routes messages matching the topic filter to handler. The
	// subscription is restored after every reconnect.
	Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error

	// AwaitConnection blocks until the client is connected to the broker.
	AwaitConnection(ctx context.Context) error

	// IsConnected returns true if the client is currently connected.
	IsConnected() bool
}
