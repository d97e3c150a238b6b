package hal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverDeviceID(t *testing.T) {
	file := filepath.Join(t.TempDir(), "device-id")
	if err := os.WriteFile(file, []byte("dev-from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	env := func(v string) func(string) string {
		return func(key string) string {
			if key == DeviceIDEnv {
				return v
			}
			return ""
		}
	}

	tests := []struct {
		name     string
		explicit string
		env      string
		file     string
		want     string
	}{
		{"explicit wins", "dev-flag", "dev-env", file, "dev-flag"},
		{"env before file", "", "dev-env", file, "dev-env"},
		{"file", "", "", file, "dev-from-file"},
		{"blank explicit is ignored", "  ", "", file, "dev-from-file"},
		{"nothing", "", "", filepath.Join(t.TempDir(), "missing"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := discoverDeviceID(tt.explicit, env(tt.env), tt.file); got != tt.want {
				t.Errorf("discoverDeviceID() = %q, want %q", got, tt.want)
			}
		})
	}
}

type fakeBooter struct {
	switched bool
	err      error
	calls    int
}

func (b *fakeBooter) Boot() (bool, error) {
	b.calls++
	return b.switched, b.err
}

func TestSimulatedReboot(t *testing.T) {
	booter := &fakeBooter{switched: true}
	h := New("dev-1", true, booter)

	sim, ok := h.(*SimulatedHAL)
	if !ok {
		t.Fatalf("New(simulate) = %T", h)
	}
	if h.GetDeviceID() != "dev-1" {
		t.Errorf("GetDeviceID() = %q", h.GetDeviceID())
	}
	if err := h.Reboot(); err != nil {
		t.Fatalf("Reboot: %v", err)
	}
	if booter.calls != 1 || sim.Reboots() != 1 {
		t.Errorf("boots = %d, reboots = %d", booter.calls, sim.Reboots())
	}

	booter.err = errors.New("bad env block")
	if err := h.Reboot(); err == nil {
		t.Error("Reboot hid the bootloader error")
	}
}
