package hal

import (
	"os"
	"strings"

	"github.com/otakit/ota-agent/internal/agent/core"
	"github.com/otakit/ota-agent/pkg/log"
)

const (
	// DeviceIDEnv overrides the device identity file.
	DeviceIDEnv = "OTA_DEVICE_ID"

	// DeviceIDFile is written by provisioning.
	DeviceIDFile = "/etc/ota-agent/device-id"
)

// Booter performs the slot switch a bootloader would do at restart.
type Booter interface {
	Boot() (bool, error)
}

// New returns the HAL for this device. With simulate set, Reboot switches
// slots through booter and returns instead of restarting the machine.
func New(deviceID string, simulate bool, booter Booter) core.HAL {
	if simulate {
		return &SimulatedHAL{deviceID: deviceID, booter: booter}
	}
	return newPlatformHAL(deviceID)
}

// DiscoverDeviceID resolves the device identity: the explicit value first,
// then the environment, then the provisioning file. It returns "" when none is set.
func DiscoverDeviceID(explicit string) string {
	return discoverDeviceID(explicit, os.Getenv, DeviceIDFile)
}

func discoverDeviceID(explicit string, getenv func(string) string, file string) string {
	if id := strings.TrimSpace(explicit); id != "" {
		return id
	}

	if id := strings.TrimSpace(getenv(DeviceIDEnv)); id != "" {
		log.Info("DeviceID detected from env", "id", id)
		return id
	}

	if content, err := os.ReadFile(file); err == nil {
		if id := strings.TrimSpace(string(content)); id != "" {
			log.Info("DeviceID detected from file", "id", id, "file", file)
			return id
		}
	}

	return ""
}
