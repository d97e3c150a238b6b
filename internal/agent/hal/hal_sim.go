package hal

import (
	"fmt"

	"github.com/otakit/ota-agent/internal/agent/core"
	"github.com/otakit/ota-agent/pkg/log"
)

// SimulatedHAL stands in for real hardware during development. Its reboot
// promotes the selected slot and returns, so the agent keeps running on
// the "new" firmware.
type SimulatedHAL struct {
	deviceID string
	booter   Booter
	reboots  int
}

var _ core.HAL = (*SimulatedHAL)(nil)

func (h *SimulatedHAL) GetDeviceID() string {
	return h.deviceID
}

func (h *SimulatedHAL) Reboot() error {
	h.reboots++
	log.Warn("[HAL-Sim] >>> REBOOT REQUESTED <<<", "device", h.deviceID, "count", h.reboots)

	if h.booter == nil {
		return nil
	}
	switched, err := h.booter.Boot()
	if err != nil {
		return fmt.Errorf("bootloader failed: %w", err)
	}
	if switched {
		log.Info("[HAL-Sim] Booted the newly committed slot", "device", h.deviceID)
	} else {
		log.Info("[HAL-Sim] Normal boot, no slot switch pending", "device", h.deviceID)
	}
	return nil
}

// Reboots returns how many reboots were requested.
func (h *SimulatedHAL) Reboots() int {
	return h.reboots
}
