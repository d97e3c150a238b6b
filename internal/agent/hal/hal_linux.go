//go:build linux

package hal

import (
	"syscall"

	"github.com/otakit/ota-agent/internal/agent/core"
	"github.com/otakit/ota-agent/pkg/log"
)

// LinuxHAL restarts the machine with reboot(2). The bootloader picks up
// the slot selected by the last commit.
type LinuxHAL struct {
	deviceID string
}

func newPlatformHAL(deviceID string) core.HAL {
	return &LinuxHAL{deviceID: deviceID}
}

func (h *LinuxHAL) GetDeviceID() string {
	return h.deviceID
}

func (h *LinuxHAL) Reboot() error {
	log.Info("System is rebooting NOW...")
	syscall.Sync()
	return syscall.Reboot(syscall.LINUX_REBOOT_CMD_RESTART)
}
