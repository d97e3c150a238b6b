package core

// HAL (Hardware Abstraction Layer) is the agent's port to the device it runs on.
type HAL interface {
	// GetDeviceID returns the identifier the oracle knows this device by.
	GetDeviceID() string

	// Rebooter restarts the device so the committed slot gets booted.
	Rebooter
}

// Rebooter restarts the device. On real hardware Reboot does not return on
// success; simulated implementations return nil once the switch is done.
type Rebooter interface {
	Reboot() error
}
