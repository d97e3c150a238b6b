package topic

import (
	"strings"
)

// Builder encapsulates the logic for constructing MQTT topic strings.
// Pattern: {root}/{segment}/{identifier}
type Builder struct {
	// root is the base namespace for all topics (e.g., "ota/v1").
	root string
}

// NewBuilder creates a new Builder with the specified root namespace.
// Leading and trailing slashes of root are dropped.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.Trim(root, "/")}
}

// Build returns the topic for a segment and an identifier.
func (b *Builder) Build(segment, id string) string {
	return b.root + "/" + strings.Trim(segment, "/") + "/" + id
}

// Wildcard returns the filter matching a segment for every identifier.
func (b *Builder) Wildcard(segment string) string {
	return b.Build(segment, Wildcard)
}

// Root returns the namespace of the builder.
func (b *Builder) Root() string {
	return b.root
}
