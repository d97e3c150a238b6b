package slot

import "time"

// Info is one row of the slot table.
type Info struct {
	Name        string
	Active      bool
	Next        bool
	Size        int64
	SHA256      string
	CommittedAt time.Time
}

// Slots lists both slots with their last committed image.
func (s *FileStorage) Slots() ([]Info, error) {
	ctl, err := s.BootControl()
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, 2)
	for _, name := range []string{SlotA, SlotB} {
		r := ctl.Slots[name]
		infos = append(infos, Info{
			Name:        name,
			Active:      ctl.Active == name,
			Next:        ctl.Next == name,
			Size:        r.Size,
			SHA256:      r.SHA256,
			CommittedAt: r.CommittedAt,
		})
	}
	return infos, nil
}
