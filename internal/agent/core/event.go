package core

import "context"

type EventType string

const (
	EventStatus   EventType = "ota.status"
	EventProgress EventType = "ota.progress"
	EventCheck    EventType = "ota.check"
)

// HandlerFunc processes an inbound event payload.
type HandlerFunc func(ctx context.Context, payload []byte) error
