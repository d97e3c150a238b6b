package options

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*OracleOptions)(nil)

const (
	// SourceHTTP resolves oracle and image URLs from BaseURL and the path templates.
	SourceHTTP = "http"
	// SourceS3 resolves them as presigned GETs against the S3 bucket.
	SourceS3 = "s3"
)

// OracleOptions describes where the target version and the firmware images are published.
type OracleOptions struct {
	// Source selects how URLs are resolved: "http" or "s3".
	Source string `json:"source" mapstructure:"source"`

	// BaseURL is the scheme and host of the publishing service.
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// TargetPath is the oracle path template; "{device}" is replaced by the device identifier.
	TargetPath string `json:"target-path" mapstructure:"target-path"`

	// ImagePath is the firmware image path template; "{version}" is replaced by the target version.
	ImagePath string `json:"image-path" mapstructure:"image-path"`

	// Timeout bounds a whole request including the body. Zero means no timeout.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// CAFile is an optional PEM bundle used instead of the system roots.
	CAFile string `json:"ca-file" mapstructure:"ca-file"`

	// InsecureSkipVerify disables server certificate verification. Testing only.
	InsecureSkipVerify bool `json:"insecure-skip-verify" mapstructure:"insecure-skip-verify"`
}

// NewOracleOptions creates OracleOptions with the default publishing layout.
func NewOracleOptions() *OracleOptions {
	return &OracleOptions{
		Source:     SourceHTTP,
		BaseURL:    "https://storage.googleapis.com",
		TargetPath: "/devices/{device}/target",
		ImagePath:  "/devices/images/{version}/image.bin",
		Timeout:    10 * time.Minute,
	}
}

func (o *OracleOptions) Validate() []error {
	errs := []error{}

	switch o.Source {
	case SourceHTTP:
		u, err := url.Parse(o.BaseURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid oracle base url: %w", err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Errorf("oracle base url %q must be http or https", o.BaseURL))
		}
	case SourceS3:
	default:
		errs = append(errs, fmt.Errorf("unknown oracle source %q, must be %q or %q", o.Source, SourceHTTP, SourceS3))
	}

	if !strings.Contains(o.TargetPath, "{device}") {
		errs = append(errs, fmt.Errorf("oracle target path %q has no {device} placeholder", o.TargetPath))
	}
	if !strings.Contains(o.ImagePath, "{version}") {
		errs = append(errs, fmt.Errorf("oracle image path %q has no {version} placeholder", o.ImagePath))
	}
	if o.Timeout < 0 {
		errs = append(errs, fmt.Errorf("oracle timeout must not be negative"))
	}

	return errs
}

func (o *OracleOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Source, "oracle.source", o.Source, "How oracle and image URLs are resolved: 'http' or 's3'.")
	fs.StringVar(&o.BaseURL, "oracle.base-url", o.BaseURL, "Scheme and host of the publishing service.")
	fs.StringVar(&o.TargetPath, "oracle.target-path", o.TargetPath, "Target version path template, {device} is substituted.")
	fs.StringVar(&o.ImagePath, "oracle.image-path", o.ImagePath, "Firmware image path template, {version} is substituted.")
	fs.DurationVar(&o.Timeout, "oracle.timeout", o.Timeout, "Timeout of a single HTTP request including the body. 0 disables it.")
	fs.StringVar(&o.CAFile, "oracle.ca-file", o.CAFile, "PEM file with CA certificates to trust instead of the system roots.")
	fs.BoolVar(&o.InsecureSkipVerify, "oracle.insecure-skip-verify", o.InsecureSkipVerify, "If true, skips the TLS certificate verification.")
}
