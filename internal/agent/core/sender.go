package core

import (
	"context"
)

// Sender publishes agent events upstream.
type Sender interface {
	Send(ctx context.Context, event EventType, payload []byte) error
	SendJSON(ctx context.Context, event EventType, v any) error
}

// NopSender drops every event. Used when no broker is configured.
type NopSender struct{}

var _ Sender = NopSender{}

func (NopSender) Send(context.Context, EventType, []byte) error { return nil }

func (NopSender) SendJSON(context.Context, EventType, any) error { return nil }
