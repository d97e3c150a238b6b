package ota

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/otakit/ota-agent/internal/agent/core"
	"github.com/otakit/ota-agent/internal/agent/oracle"
	"github.com/otakit/ota-agent/internal/agent/slot"
	"github.com/otakit/ota-agent/internal/agent/transfer"
	"github.com/otakit/ota-agent/internal/pkg/metrics"
	"github.com/otakit/ota-agent/pkg/log"
)

// CheckAndApply runs one check cycle: ask the oracle, compare with current,
// and install the target image when they differ. It opens at most one
// transaction and never retries.
func (m *Manager) CheckAndApply(ctx context.Context, current oracle.FirmwareVersion, deviceID string) Decision {
	target, err := m.oracle.FetchTargetVersion(ctx, deviceID)
	if err != nil {
		return failed("", fmt.Errorf("failed to fetch target version: %w", err))
	}

	if target.Equal(current) {
		log.Debug("Firmware is up to date", "version", current)
		return Decision{Result: NoUpdateNeeded, Target: target}
	}

	log.Info("New firmware available", "current", current, "target", target)

	url, err := m.oracle.ImageURL(ctx, target)
	if err != nil {
		return failed(target, fmt.Errorf("%w: resolving image url: %w", core.ErrTransferIO, err))
	}

	if err := m.InstallImage(ctx, url); err != nil {
		return failed(target, err)
	}
	return Decision{Result: UpdateApplied, Target: target}
}

// InstallImage streams the image at url into a new transaction and commits
// it only when every declared byte arrived. Once the transaction is open the
// install runs to commit or abort even if ctx is cancelled.
func (m *Manager) InstallImage(ctx context.Context, url string) error {
	tx, err := m.storage.OpenTransaction()
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrTransactionUnavailable, err)
	}

	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	defer func() { metrics.InstallDuration.Observe(time.Since(start).Seconds()) }()

	stream, err := transfer.Open(ctx, m.client, url, m.chunkSize)
	if err != nil {
		return abort(tx, fmt.Errorf("%w: requesting image: %w", core.ErrTransferIO, err))
	}
	defer stream.Close()

	log.Info("Downloading image", "url", url, "declaredLength", stream.Progress().DeclaredLength)

	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) || errors.Is(err, transfer.ErrTruncated) {
			// A truncated stream is judged by verify.
			break
		}
		if err != nil {
			return abort(tx, fmt.Errorf("%w: reading image: %w", core.ErrTransferIO, err))
		}

		if _, err := tx.Write(chunk); err != nil {
			return abort(tx, fmt.Errorf("%w: %w", core.ErrTransferIO, err))
		}
		if m.onProgress != nil {
			m.onProgress(stream.Progress())
		}
		if m.chunkDelay > 0 {
			time.Sleep(m.chunkDelay)
		}
	}

	progress := stream.Progress()
	if err := verify(progress, stream.Ended()); err != nil {
		return abort(tx, err)
	}

	if err := tx.Commit(); err != nil {
		return abort(tx, fmt.Errorf("%w: commit: %w", core.ErrTransferIO, err))
	}

	log.Info("Image installed", "bytes", progress.BytesRead, "elapsed", time.Since(start))
	return nil
}

// verify is the gate between written bytes and a bootable slot. With a
// declared length the count must match exactly; without one the image must
// be non-empty and the stream must have ended cleanly.
func verify(p transfer.Progress, ended bool) error {
	switch {
	case p.Known() && p.BytesRead != p.DeclaredLength:
		return fmt.Errorf("%w: received %d of %d bytes", core.ErrVerificationFailed, p.BytesRead, p.DeclaredLength)
	case p.Known():
		return nil
	case p.BytesRead == 0:
		return fmt.Errorf("%w: empty image", core.ErrVerificationFailed)
	case !ended:
		return fmt.Errorf("%w: stream broke off after %d bytes", core.ErrVerificationFailed, p.BytesRead)
	}
	return nil
}

func abort(tx slot.Transaction, cause error) error {
	if err := tx.Abort(); err != nil {
		log.Error(err, "Failed to abort transaction")
	}
	return cause
}
