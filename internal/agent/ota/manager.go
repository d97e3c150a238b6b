package ota

import (
	"context"
	"net/http"
	"time"

	"github.com/otakit/ota-agent/internal/agent/oracle"
	"github.com/otakit/ota-agent/internal/agent/slot"
	"github.com/otakit/ota-agent/internal/agent/transfer"
)

// VersionOracle tells which firmware a device should run and where to get it.
type VersionOracle interface {
	FetchTargetVersion(ctx context.Context, deviceID string) (oracle.FirmwareVersion, error)
	ImageURL(ctx context.Context, version oracle.FirmwareVersion) (string, error)
}

// ProgressFunc is called after every chunk written to the slot.
type ProgressFunc func(transfer.Progress)

// Manager decides whether the device needs new firmware and installs it
// into the inactive slot. It never restarts the device itself.
type Manager struct {
	oracle  VersionOracle
	storage slot.Storage

	client     *http.Client
	chunkSize  int
	chunkDelay time.Duration
	onProgress ProgressFunc
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient sets the client used for the image download.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.client = c }
}

// WithChunkSize sets the largest chunk read from the image stream.
func WithChunkSize(n int) Option {
	return func(m *Manager) { m.chunkSize = n }
}

// WithChunkDelay sets the pause after each chunk.
func WithChunkDelay(d time.Duration) Option {
	return func(m *Manager) { m.chunkDelay = d }
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(m *Manager) { m.onProgress = fn }
}

func NewManager(o VersionOracle, storage slot.Storage, opts ...Option) *Manager {
	m := &Manager{
		oracle:     o,
		storage:    storage,
		client:     http.DefaultClient,
		chunkSize:  transfer.DefaultChunkSize,
		chunkDelay: 10 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Name() string {
	return "OTA"
}
