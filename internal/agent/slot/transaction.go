package slot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"os"

	"github.com/looplab/fsm"

	"github.com/otakit/ota-agent/internal/pkg/metrics"
	fsmutil "github.com/otakit/ota-agent/internal/pkg/util/fsm"
	"github.com/otakit/ota-agent/pkg/log"
)

// fileTransaction writes into the ".partial" file of the inactive slot.
type fileTransaction struct {
	storage *FileStorage
	slot    string
	file    *os.File
	hash    hash.Hash
	size    int64
	machine *fsm.FSM
}

var _ Transaction = (*fileTransaction)(nil)

func newFileTransaction(s *FileStorage, slot string, file *os.File) *fileTransaction {
	t := &fileTransaction{
		storage: s,
		slot:    slot,
		file:    file,
		hash:    sha256.New(),
	}

	t.machine = fsm.NewFSM(
		StateOpen,
		fsm.Events{
			{Name: eventCommit, Src: []string{StateOpen}, Dst: StateCommitted},
			{Name: eventAbort, Src: []string{StateOpen}, Dst: StateAborted},
		},
		fsm.Callbacks{
			"enter_" + StateCommitted: fsmutil.WrapEvent(t.enterCommitted),
			"enter_" + StateAborted:   fsmutil.WrapEvent(t.enterAborted),
		},
	)
	return t
}

func (t *fileTransaction) State() string {
	return t.machine.Current()
}

func (t *fileTransaction) Write(p []byte) (int, error) {
	if !t.machine.Is(StateOpen) {
		return 0, ErrTransactionClosed
	}

	n, err := t.file.Write(p)
	t.hash.Write(p[:n])
	t.size += int64(n)
	metrics.BytesWrittenTotal.Add(float64(n))
	if err != nil {
		return n, fmt.Errorf("failed to write slot %s: %w", t.slot, err)
	}
	return n, nil
}

// Commit flushes the image, moves it into place and points the next boot at it.
// A failed commit leaves the transaction aborted.
func (t *fileTransaction) Commit() error {
	if !t.machine.Can(eventCommit) {
		return ErrTransactionClosed
	}

	record := SlotRecord{
		Size:   t.size,
		SHA256: hex.EncodeToString(t.hash.Sum(nil)),
	}

	if err := t.seal(); err != nil {
		return errors.Join(fmt.Errorf("failed to seal slot %s: %w", t.slot, err), t.Abort())
	}
	if err := t.storage.commit(t, record); err != nil {
		return errors.Join(err, t.Abort())
	}

	return t.machine.Event(context.Background(), eventCommit, record)
}

// Abort removes the partial image. The committed content of the slot and
// the boot selection stay as they were.
func (t *fileTransaction) Abort() error {
	switch {
	case t.machine.Is(StateAborted):
		return nil
	case !t.machine.Can(eventAbort):
		return ErrTransactionClosed
	}

	_ = t.file.Close()
	err := os.Remove(t.storage.partialPath(t.slot))
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	t.storage.release(t)

	return errors.Join(err, t.machine.Event(context.Background(), eventAbort))
}

func (t *fileTransaction) seal() error {
	if err := t.file.Sync(); err != nil {
		_ = t.file.Close()
		return err
	}
	return t.file.Close()
}

func (t *fileTransaction) enterCommitted(_ context.Context, e *fsm.Event) error {
	record := e.Args[0].(SlotRecord)
	metrics.TransactionsTotal.WithLabelValues(StateCommitted).Inc()
	log.Info("Committed image to slot", "slot", t.slot, "size", record.Size, "sha256", record.SHA256)
	return nil
}

func (t *fileTransaction) enterAborted(_ context.Context, _ *fsm.Event) error {
	metrics.TransactionsTotal.WithLabelValues(StateAborted).Inc()
	log.Warn("Discarded partial image", "slot", t.slot, "bytes", t.size)
	return nil
}
