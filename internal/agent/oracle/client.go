package oracle

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/otakit/ota-agent/internal/agent/core"
	"github.com/otakit/ota-agent/pkg/log"
)

// Client asks the version oracle which firmware a device should run.
// It keeps no state between calls.
type Client struct {
	httpClient *http.Client
	locator    Locator
}

// NewClient creates an oracle client. A nil httpClient means http.DefaultClient.
func NewClient(httpClient *http.Client, locator Locator) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		locator:    locator,
	}
}

// FetchTargetVersion returns the version currently published for deviceID.
func (c *Client) FetchTargetVersion(ctx context.Context, deviceID string) (FirmwareVersion, error) {
	target, err := c.locator.TargetURL(ctx, deviceID)
	if err != nil {
		return "", fmt.Errorf("%w: resolving target url: %v", core.ErrOracleUnreachable, err)
	}

	log.Debug("Requesting target version", "device", deviceID, "url", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrOracleUnreachable, err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrOracleUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &core.OracleRejectedError{StatusCode: resp.StatusCode}
	}

	// One byte over the limit tells a long payload from one that fits exactly.
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxVersionLength+1))
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", core.ErrOracleUnreachable, err)
	}
	if len(body) > MaxVersionLength {
		return "", fmt.Errorf("%w: payload exceeds %d bytes", core.ErrMalformedVersion, MaxVersionLength)
	}

	return ParseVersion(body)
}

// ImageURL resolves where the image for version can be downloaded.
func (c *Client) ImageURL(ctx context.Context, version FirmwareVersion) (string, error) {
	return c.locator.ImageURL(ctx, version)
}
