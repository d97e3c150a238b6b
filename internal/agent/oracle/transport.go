package oracle

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	"github.com/otakit/ota-agent/pkg/options"
)

// NewHTTPClient builds the HTTP client shared by the oracle and the image download.
func NewHTTPClient(opts *options.OracleOptions) (*http.Client, error) {
	tlsCfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: opts.InsecureSkipVerify,
	}

	if opts.CAFile != "" {
		pem, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", opts.CAFile)
		}
		tlsCfg.RootCAs = pool
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsCfg

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}, nil
}

// NewLocator returns the locator selected by opts.Source.
func NewLocator(opts *options.OracleOptions, s3 *options.S3Options) (Locator, error) {
	switch opts.Source {
	case options.SourceS3:
		return NewS3Locator(s3, opts)
	case options.SourceHTTP, "":
		return NewTemplateLocator(opts.BaseURL, opts.TargetPath, opts.ImagePath)
	default:
		return nil, fmt.Errorf("unknown oracle source %q", opts.Source)
	}
}
