package slot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/otakit/ota-agent/pkg/log"
)

const bootControlFile = "bootctl.json"

// FileStorage is a dual-bank store kept in a directory:
//
//	slot-a.img, slot-b.img   committed images
//	slot-?.img.partial       image being written by the open transaction
//	bootctl.json             boot selection, replaced atomically
type FileStorage struct {
	dir string

	mu   sync.Mutex
	open *fileTransaction
}

var _ Storage = (*FileStorage)(nil)

// NewFileStorage opens or initialises the store in dir. Partial images left
// behind by an interrupted transaction are removed.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	s := &FileStorage{dir: dir}
	for _, name := range []string{SlotA, SlotB} {
		if err := os.Remove(s.partialPath(name)); err == nil {
			log.Warn("Removed stale partial image", "slot", name)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if _, err := readBootControl(s.bootControlPath()); errors.Is(err, os.ErrNotExist) {
		if err := writeBootControl(s.bootControlPath(), defaultBootControl()); err != nil {
			return nil, fmt.Errorf("failed to initialise %s: %w", bootControlFile, err)
		}
	} else if err != nil {
		return nil, err
	}
	return s, nil
}

// OpenTransaction opens a write transaction on the inactive slot. A switch
// still pending towards that slot is cancelled first, so a half written
// slot is never selected for boot.
func (s *FileStorage) OpenTransaction() (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open != nil {
		return nil, ErrTransactionInProgress
	}

	ctl, err := readBootControl(s.bootControlPath())
	if err != nil {
		return nil, err
	}
	inactive := ctl.Inactive()

	if ctl.Next == inactive {
		ctl.Next = ctl.Active
		ctl.Revision++
		if err := writeBootControl(s.bootControlPath(), ctl); err != nil {
			return nil, fmt.Errorf("failed to cancel pending switch: %w", err)
		}
		log.Info("Cancelled pending switch", "slot", inactive)
	}

	f, err := os.OpenFile(s.partialPath(inactive), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open slot %s: %w", inactive, err)
	}

	t := newFileTransaction(s, inactive, f)
	s.open = t
	log.Debug("Opened transaction", "slot", inactive, "revision", ctl.Revision)
	return t, nil
}

// commit moves the sealed image of t into its slot and selects it for the next boot.
func (s *FileStorage) commit(t *fileTransaction, record SlotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open != t {
		return ErrTransactionClosed
	}

	ctl, err := readBootControl(s.bootControlPath())
	if err != nil {
		return err
	}

	if err := os.Rename(s.partialPath(t.slot), s.ImagePath(t.slot)); err != nil {
		return fmt.Errorf("failed to move image into slot %s: %w", t.slot, err)
	}

	record.CommittedAt = time.Now().UTC()
	ctl.Slots[t.slot] = record
	ctl.Next = t.slot
	ctl.Revision++
	if err := writeBootControl(s.bootControlPath(), ctl); err != nil {
		return fmt.Errorf("failed to select slot %s: %w", t.slot, err)
	}

	s.open = nil
	return nil
}

func (s *FileStorage) release(t *fileTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open == t {
		s.open = nil
	}
}

// Boot does what the bootloader does at restart: the selected slot becomes
// the active one. It reports whether the active slot changed.
func (s *FileStorage) Boot() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open != nil {
		return false, ErrTransactionInProgress
	}

	ctl, err := readBootControl(s.bootControlPath())
	if err != nil {
		return false, err
	}
	if !ctl.SwitchPending() {
		return false, nil
	}

	ctl.Active = ctl.Next
	ctl.Revision++
	if err := writeBootControl(s.bootControlPath(), ctl); err != nil {
		return false, err
	}
	log.Info("Switched active slot", "slot", ctl.Active, "revision", ctl.Revision)
	return true, nil
}

// BootControl returns the persisted boot selection.
func (s *FileStorage) BootControl() (BootControl, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readBootControl(s.bootControlPath())
}

// ImagePath returns the file holding the committed image of slot.
func (s *FileStorage) ImagePath(slot string) string {
	return filepath.Join(s.dir, "slot-"+slot+".img")
}

func (s *FileStorage) partialPath(slot string) string {
	return s.ImagePath(slot) + ".partial"
}

func (s *FileStorage) bootControlPath() string {
	return filepath.Join(s.dir, bootControlFile)
}
