package paths

// Topic segments of the OTA reporting protocol.
// These constants define the contract between the agent and whatever
// collects its reports.

// Upstream: Device -> Cloud
const (
	// Status is the topic segment for the outcome of each check cycle.
	// Payload: { "deviceID": "...", "state": "idle|applied|failed|offline", ... }
	// Pattern: {root}/ota/status/{deviceID}
	Status = "ota/status"

	// Progress is the topic segment for transfer progress.
	// Payload: { "bytesRead": 1024, "declaredLength": 4096, "percent": 25 }
	// Pattern: {root}/ota/progress/{deviceID}
	Progress = "ota/progress"
)

// Downstream: Cloud -> Device
const (
	// Check asks the agent to start a check cycle now instead of waiting for the next tick.
	// Payload is ignored.
	// Pattern: {root}/ota/check/{deviceID}
	Check = "ota/check"
)
