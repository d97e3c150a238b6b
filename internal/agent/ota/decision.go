package ota

import (
	"fmt"

	"github.com/otakit/ota-agent/internal/agent/oracle"
)

// Result is the outcome of one check cycle.
type Result int

const (
	// NoUpdateNeeded means the device already runs the target version.
	NoUpdateNeeded Result = iota
	// UpdateApplied means a new image was committed and a restart is due.
	UpdateApplied
	// UpdateFailed means the cycle ended with an error; the active slot is untouched.
	UpdateFailed
)

func (r Result) String() string {
	switch r {
	case NoUpdateNeeded:
		return "no_update"
	case UpdateApplied:
		return "applied"
	case UpdateFailed:
		return "failed"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Decision is what CheckAndApply concluded. Err is set only for UpdateFailed.
type Decision struct {
	Result Result
	Target oracle.FirmwareVersion
	Err    error
}

// RestartRequired reports whether the device must restart to boot the new image.
func (d Decision) RestartRequired() bool {
	return d.Result == UpdateApplied
}

func (d Decision) String() string {
	if d.Err != nil {
		return fmt.Sprintf("%s: %v", d.Result, d.Err)
	}
	return d.Result.String()
}

func failed(target oracle.FirmwareVersion, err error) Decision {
	return Decision{Result: UpdateFailed, Target: target, Err: err}
}
