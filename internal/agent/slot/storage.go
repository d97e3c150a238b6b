package slot

import (
	"errors"
	"io"
)

// Transaction states.
const (
	StateOpen      = "open"
	StateCommitted = "committed"
	StateAborted   = "aborted"
)

const (
	eventCommit = "commit"
	eventAbort  = "abort"
)

var (
	// ErrTransactionInProgress is returned when a second transaction is opened on the same storage.
	ErrTransactionInProgress = errors.New("an update transaction is already open")

	// ErrTransactionClosed is returned when a committed or aborted transaction is used again.
	ErrTransactionClosed = errors.New("update transaction is closed")
)

// Storage is the device's non-volatile firmware storage.
type Storage interface {
	// OpenTransaction grants exclusive write access to the inactive slot.
	OpenTransaction() (Transaction, error)
}

// Transaction accumulates an image in the inactive slot. Nothing written
// becomes bootable until Commit succeeds; Abort discards it.
type Transaction interface {
	io.Writer

	// Commit seals the written image and selects it for the next boot. After a
	// failed Commit the caller aborts the transaction.
	Commit() error

	// Abort discards the written bytes. Aborting an aborted transaction is a no-op.
	Abort() error

	// State returns StateOpen, StateCommitted or StateAborted.
	State() string
}
