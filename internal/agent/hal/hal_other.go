//go:build !linux

package hal

import (
	"fmt"
	"runtime"

	"github.com/otakit/ota-agent/internal/agent/core"
)

type unsupportedHAL struct {
	deviceID string
}

func newPlatformHAL(deviceID string) core.HAL {
	return &unsupportedHAL{deviceID: deviceID}
}

func (h *unsupportedHAL) GetDeviceID() string {
	return h.deviceID
}

func (h *unsupportedHAL) Reboot() error {
	return fmt.Errorf("reboot is not supported on %s, run with --device.simulate-reboot", runtime.GOOS)
}
