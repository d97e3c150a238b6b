package agent

import (
	"testing"

	"github.com/otakit/ota-agent/internal/agent/slot"
	"github.com/otakit/ota-agent/pkg/options"
)

func newTestConfig(dir string) *Config {
	device := options.NewDeviceOptions()
	device.ID = "dev-1"
	device.StorageDir = dir

	httpOpts := options.NewHttpOptions()
	httpOpts.Addr = ""

	return &Config{
		OracleOptions: options.NewOracleOptions(),
		S3Options:     options.NewS3Options(),
		UpdateOptions: options.NewUpdateOptions(),
		DeviceOptions: device,
		HttpOptions:   httpOpts,
		MqttOptions:   options.NewMqttOptions(),
	}
}

func TestNewAgentPromotesCommittedSlot(t *testing.T) {
	dir := t.TempDir()

	storage, err := slot.NewFileStorage(dir)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	tx, err := storage.OpenTransaction()
	if err != nil {
		t.Fatalf("OpenTransaction: %v", err)
	}
	if _, err := tx.Write([]byte("firmware")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if _, err := newTestConfig(dir).NewAgent(); err != nil {
		t.Fatalf("NewAgent: %v", err)
	}

	reopened, err := slot.NewFileStorage(dir)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	ctl, err := reopened.BootControl()
	if err != nil {
		t.Fatalf("BootControl: %v", err)
	}
	if ctl.Active != slot.SlotB || ctl.SwitchPending() {
		t.Errorf("boot control after start = %+v, want b active with no pending switch", ctl)
	}

	// The next transaction targets the now inactive slot a and leaves b bootable.
	next, err := reopened.OpenTransaction()
	if err != nil {
		t.Fatalf("OpenTransaction: %v", err)
	}
	defer next.Abort()
	if ctl, _ := reopened.BootControl(); ctl.Active != slot.SlotB {
		t.Errorf("opening a transaction changed the active slot: %+v", ctl)
	}
}

func TestNewAgentWithoutPendingSwitch(t *testing.T) {
	dir := t.TempDir()

	if _, err := newTestConfig(dir).NewAgent(); err != nil {
		t.Fatalf("NewAgent: %v", err)
	}

	storage, err := slot.NewFileStorage(dir)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	ctl, err := storage.BootControl()
	if err != nil {
		t.Fatalf("BootControl: %v", err)
	}
	if ctl.Active != slot.SlotA {
		t.Errorf("active = %s, want a", ctl.Active)
	}
}
