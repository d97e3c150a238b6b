package slot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func newStorage(t *testing.T) *FileStorage {
	t.Helper()
	s, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	return s
}

func writeImage(t *testing.T, tx Transaction, image []byte) {
	t.Helper()
	for len(image) > 0 {
		n := min(len(image), 2048)
		if _, err := tx.Write(image[:n]); err != nil {
			t.Fatalf("Write: %v", err)
		}
		image = image[n:]
	}
}

func TestNewFileStorageDefaults(t *testing.T) {
	s := newStorage(t)

	ctl, err := s.BootControl()
	if err != nil {
		t.Fatalf("BootControl: %v", err)
	}
	want := BootControl{Active: SlotA, Next: SlotA, Slots: map[string]SlotRecord{}}
	if diff := cmp.Diff(want, ctl); diff != "" {
		t.Errorf("BootControl mismatch (-want +got):\n%s", diff)
	}
}

func TestCommitSelectsInactiveSlot(t *testing.T) {
	s := newStorage(t)
	image := bytes.Repeat([]byte{0x5a}, 5000)

	tx, err := s.OpenTransaction()
	if err != nil {
		t.Fatalf("OpenTransaction: %v", err)
	}
	writeImage(t, tx, image)
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if tx.State() != StateCommitted {
		t.Errorf("State() = %q, want %q", tx.State(), StateCommitted)
	}

	got, err := os.ReadFile(s.ImagePath(SlotB))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, image) {
		t.Error("slot b does not hold the committed image")
	}

	ctl, _ := s.BootControl()
	sum := sha256.Sum256(image)
	want := BootControl{
		Revision: 1,
		Active:   SlotA,
		Next:     SlotB,
		Slots: map[string]SlotRecord{
			SlotB: {Size: 5000, SHA256: hex.EncodeToString(sum[:])},
		},
	}
	if diff := cmp.Diff(want, ctl, cmpopts.IgnoreFields(SlotRecord{}, "CommittedAt")); diff != "" {
		t.Errorf("BootControl mismatch (-want +got):\n%s", diff)
	}
	if ctl.Slots[SlotB].CommittedAt.IsZero() {
		t.Error("CommittedAt was not recorded")
	}
}

func TestAbortLeavesNothingBehind(t *testing.T) {
	s := newStorage(t)

	tx, _ := s.OpenTransaction()
	writeImage(t, tx, []byte("previous image"))
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := s.Boot(); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	before, _ := s.BootControl()

	tx, err := s.OpenTransaction()
	if err != nil {
		t.Fatalf("OpenTransaction: %v", err)
	}
	writeImage(t, tx, bytes.Repeat([]byte{1}, 800))
	if err := tx.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if err := tx.Abort(); err != nil {
		t.Errorf("second Abort: %v", err)
	}

	after, _ := s.BootControl()
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("abort changed the boot selection (-before +after):\n%s", diff)
	}
	if _, err := os.Stat(s.partialPath(SlotA)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("partial image still present: %v", err)
	}
	if _, err := os.Stat(s.ImagePath(SlotA)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("aborted bytes became a slot image: %v", err)
	}
}

func TestSingleWriter(t *testing.T) {
	s := newStorage(t)

	tx, err := s.OpenTransaction()
	if err != nil {
		t.Fatalf("OpenTransaction: %v", err)
	}
	if _, err := s.OpenTransaction(); !errors.Is(err, ErrTransactionInProgress) {
		t.Fatalf("second OpenTransaction error = %v, want ErrTransactionInProgress", err)
	}
	if _, err := s.Boot(); !errors.Is(err, ErrTransactionInProgress) {
		t.Errorf("Boot during a transaction error = %v", err)
	}

	if err := tx.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	tx, err = s.OpenTransaction()
	if err != nil {
		t.Fatalf("OpenTransaction after abort: %v", err)
	}
	_ = tx.Abort()
}

func TestClosedTransaction(t *testing.T) {
	s := newStorage(t)

	tx, _ := s.OpenTransaction()
	writeImage(t, tx, []byte("image"))
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := tx.Write([]byte("more")); !errors.Is(err, ErrTransactionClosed) {
		t.Errorf("Write after commit error = %v", err)
	}
	if err := tx.Commit(); !errors.Is(err, ErrTransactionClosed) {
		t.Errorf("second Commit error = %v", err)
	}
	if err := tx.Abort(); !errors.Is(err, ErrTransactionClosed) {
		t.Errorf("Abort after commit error = %v", err)
	}
}

func TestOpenCancelsPendingSwitch(t *testing.T) {
	s := newStorage(t)

	tx, _ := s.OpenTransaction()
	writeImage(t, tx, []byte("v2"))
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	tx, err := s.OpenTransaction()
	if err != nil {
		t.Fatalf("OpenTransaction: %v", err)
	}
	ctl, _ := s.BootControl()
	if ctl.SwitchPending() {
		t.Errorf("switch to slot %s still pending while it is rewritten", ctl.Next)
	}
	_ = tx.Abort()
}

func TestBoot(t *testing.T) {
	s := newStorage(t)

	if switched, err := s.Boot(); err != nil || switched {
		t.Fatalf("Boot() = %v, %v on a fresh store", switched, err)
	}

	tx, _ := s.OpenTransaction()
	writeImage(t, tx, []byte("v2"))
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	switched, err := s.Boot()
	if err != nil || !switched {
		t.Fatalf("Boot() = %v, %v", switched, err)
	}
	ctl, _ := s.BootControl()
	if ctl.Active != SlotB || ctl.Next != SlotB {
		t.Errorf("after boot active=%s next=%s, want b/b", ctl.Active, ctl.Next)
	}

	// The next transaction targets the slot that was active before.
	tx, _ = s.OpenTransaction()
	if got := tx.(*fileTransaction).slot; got != SlotA {
		t.Errorf("transaction slot = %s, want a", got)
	}
	_ = tx.Abort()
}

func TestNewFileStorageRemovesStalePartials(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "slot-b.img.partial")
	if err := os.WriteFile(stale, []byte("half"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStorage(dir); err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("stale partial survived: %v", err)
	}
}

func TestNewFileStorageRejectsCorruptControl(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, bootControlFile), []byte(`{"active":"c","next":"a"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStorage(dir); err == nil {
		t.Error("NewFileStorage accepted an unknown active slot")
	}
}

func TestSlots(t *testing.T) {
	s := newStorage(t)
	tx, _ := s.OpenTransaction()
	writeImage(t, tx, []byte("v2"))
	_ = tx.Commit()

	infos, err := s.Slots()
	if err != nil {
		t.Fatalf("Slots: %v", err)
	}
	want := []Info{
		{Name: SlotA, Active: true},
		{Name: SlotB, Next: true, Size: 2},
	}
	if diff := cmp.Diff(want, infos, cmpopts.IgnoreFields(Info{}, "SHA256", "CommittedAt")); diff != "" {
		t.Errorf("Slots mismatch (-want +got):\n%s", diff)
	}
}
