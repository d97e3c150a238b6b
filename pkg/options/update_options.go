package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"

	"github.com/otakit/ota-agent/pkg/version"
)

var _ IOptions = (*UpdateOptions)(nil)

// UpdateOptions tunes the check cycle and the image transfer.
type UpdateOptions struct {
	// CurrentVersion is the version of the running firmware.
	CurrentVersion string `json:"current-version" mapstructure:"current-version"`

	// Interval is the idle delay between two check cycles.
	Interval time.Duration `json:"interval" mapstructure:"interval"`

	// MaxBackoff caps the idle delay after consecutive failed cycles.
	MaxBackoff time.Duration `json:"max-backoff" mapstructure:"max-backoff"`

	// ChunkSize is the size of the transfer buffer.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`

	// ChunkDelay is slept between two chunks to yield to other device duties.
	ChunkDelay time.Duration `json:"chunk-delay" mapstructure:"chunk-delay"`

	// RebootDelay lets in-flight logs and reports flush before restarting.
	RebootDelay time.Duration `json:"reboot-delay" mapstructure:"reboot-delay"`
}

func NewUpdateOptions() *UpdateOptions {
	return &UpdateOptions{
		CurrentVersion: version.Version,
		Interval:       time.Hour,
		MaxBackoff:     6 * time.Hour,
		ChunkSize:      2048,
		ChunkDelay:     10 * time.Millisecond,
		RebootDelay:    time.Second,
	}
}

func (o *UpdateOptions) Validate() []error {
	errs := []error{}

	if o.CurrentVersion == "" {
		errs = append(errs, errors.New("current version must not be empty"))
	}
	if o.Interval <= 0 {
		errs = append(errs, errors.New("update interval must be positive"))
	}
	if o.MaxBackoff < o.Interval {
		errs = append(errs, errors.New("max backoff must not be shorter than the update interval"))
	}
	if o.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk size must be positive"))
	}
	if o.ChunkDelay < 0 || o.RebootDelay < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}

	return errs
}

func (o *UpdateOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.CurrentVersion, "update.current-version", o.CurrentVersion, "Version of the running firmware. Defaults to the build version.")
	fs.DurationVar(&o.Interval, "update.interval", o.Interval, "Idle delay between two check cycles.")
	fs.DurationVar(&o.MaxBackoff, "update.max-backoff", o.MaxBackoff, "Longest idle delay after consecutive failed cycles.")
	fs.IntVar(&o.ChunkSize, "update.chunk-size", o.ChunkSize, "Size in bytes of a single transfer chunk.")
	fs.DurationVar(&o.ChunkDelay, "update.chunk-delay", o.ChunkDelay, "Pause between two transfer chunks.")
	fs.DurationVar(&o.RebootDelay, "update.reboot-delay", o.RebootDelay, "Pause between a committed update and the restart.")
}
