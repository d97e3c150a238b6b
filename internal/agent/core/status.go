package core

import "time"

// State is the coarse activity of the agent.
type State string

const (
	StateIdle       State = "idle"
	StateChecking   State = "checking"
	StateInstalling State = "installing"
	StateRebooting  State = "rebooting"
	StateFailed     State = "failed"
	StateOffline    State = "offline"
)

// Status is the report published after every change of state and served on /status.
type Status struct {
	DeviceID       string    `json:"deviceID"`
	State          State     `json:"state"`
	CurrentVersion string    `json:"currentVersion,omitempty"`
	TargetVersion  string    `json:"targetVersion,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Message        string    `json:"message,omitempty"`
	LastCheck      time.Time `json:"lastCheck,omitzero"`
	NextCheck      time.Time `json:"nextCheck,omitzero"`
}

// ProgressReport is published while an image is being written.
type ProgressReport struct {
	DeviceID       string  `json:"deviceID"`
	BytesRead      int64   `json:"bytesRead"`
	DeclaredLength int64   `json:"declaredLength,omitempty"`
	Percent        float64 `json:"percent"`
}
