package slot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Slot names.
const (
	SlotA = "a"
	SlotB = "b"
)

// BootControl is the persisted boot selection, the file equivalent of a
// partition table's boot flags.
type BootControl struct {
	Revision uint64                `json:"revision"`
	Active   string                `json:"active"`
	Next     string                `json:"next"`
	Slots    map[string]SlotRecord `json:"slots,omitempty"`
}

// SlotRecord describes the image last committed to a slot.
type SlotRecord struct {
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	CommittedAt time.Time `json:"committedAt"`
}

// Inactive returns the slot that is not currently booted.
func (c BootControl) Inactive() string {
	return otherSlot(c.Active)
}

// SwitchPending reports whether the next boot changes the active slot.
func (c BootControl) SwitchPending() bool {
	return c.Next != c.Active
}

func otherSlot(name string) string {
	if name == SlotA {
		return SlotB
	}
	return SlotA
}

func defaultBootControl() BootControl {
	return BootControl{Active: SlotA, Next: SlotA, Slots: map[string]SlotRecord{}}
}

func readBootControl(path string) (BootControl, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BootControl{}, err
	}

	var ctl BootControl
	if err := json.Unmarshal(data, &ctl); err != nil {
		return BootControl{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if (ctl.Active != SlotA && ctl.Active != SlotB) || (ctl.Next != SlotA && ctl.Next != SlotB) {
		return BootControl{}, fmt.Errorf("%s names an unknown slot (active=%q next=%q)", path, ctl.Active, ctl.Next)
	}
	if ctl.Slots == nil {
		ctl.Slots = map[string]SlotRecord{}
	}
	return ctl, nil
}

// writeBootControl replaces path atomically: readers see the old or the new
// record, never a torn one.
func writeBootControl(path string, ctl BootControl) (err error) {
	data, err := json.MarshalIndent(ctl, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".bootctl-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	return syncDir(filepath.Dir(path))
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
