package options

import (
	"errors"

	"github.com/spf13/pflag"
)

var _ IOptions = (*DeviceOptions)(nil)

// DeviceOptions describes the local device: its identity and its slot storage.
type DeviceOptions struct {
	// ID is the device identifier. Empty means discover it from the environment.
	ID string `json:"id" mapstructure:"id"`

	// StorageDir holds the slot images and the boot control record.
	StorageDir string `json:"storage-dir" mapstructure:"storage-dir"`

	// SimulateReboot replaces the reboot syscall by a simulated bootloader switch.
	SimulateReboot bool `json:"simulate-reboot" mapstructure:"simulate-reboot"`
}

func NewDeviceOptions() *DeviceOptions {
	return &DeviceOptions{
		StorageDir: "/var/lib/ota-agent/slots",
	}
}

func (o *DeviceOptions) Validate() []error {
	errs := []error{}

	if o.StorageDir == "" {
		errs = append(errs, errors.New("device storage dir must not be empty"))
	}

	return errs
}

func (o *DeviceOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.ID, "device.id", o.ID, "Device identifier. Discovered from OTA_DEVICE_ID or /etc/ota-agent/device-id when empty.")
	fs.StringVar(&o.StorageDir, "device.storage-dir", o.StorageDir, "Directory holding the slot images and the boot control record.")
	fs.BoolVar(&o.SimulateReboot, "device.simulate-reboot", o.SimulateReboot, "Simulate the reboot by switching slots in place instead of restarting the host.")
}
