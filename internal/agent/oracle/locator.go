package oracle

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const (
	devicePlaceholder  = "{device}"
	versionPlaceholder = "{version}"
)

// Locator resolves where the oracle token and the firmware images live.
type Locator interface {
	// TargetURL returns the oracle URL for a device.
	TargetURL(ctx context.Context, deviceID string) (string, error)

	// ImageURL returns the firmware image URL for a version.
	ImageURL(ctx context.Context, version FirmwareVersion) (string, error)
}

// TemplateLocator substitutes identifiers into fixed path templates below a base URL.
type TemplateLocator struct {
	base       string
	targetPath string
	imagePath  string
}

var _ Locator = (*TemplateLocator)(nil)

// NewTemplateLocator returns a locator for baseURL. targetPath must contain
// "{device}" and imagePath "{version}".
func NewTemplateLocator(baseURL, targetPath, imagePath string) (*TemplateLocator, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q needs a scheme and a host", baseURL)
	}
	if !strings.Contains(targetPath, devicePlaceholder) {
		return nil, fmt.Errorf("target path %q has no %s placeholder", targetPath, devicePlaceholder)
	}
	if !strings.Contains(imagePath, versionPlaceholder) {
		return nil, fmt.Errorf("image path %q has no %s placeholder", imagePath, versionPlaceholder)
	}

	return &TemplateLocator{
		base:       strings.TrimRight(u.String(), "/"),
		targetPath: targetPath,
		imagePath:  imagePath,
	}, nil
}

func (l *TemplateLocator) TargetURL(_ context.Context, deviceID string) (string, error) {
	if deviceID == "" {
		return "", fmt.Errorf("empty device id")
	}
	return l.base + "/" + objectKey(l.targetPath, devicePlaceholder, url.PathEscape(deviceID)), nil
}

func (l *TemplateLocator) ImageURL(_ context.Context, version FirmwareVersion) (string, error) {
	if version == "" {
		return "", fmt.Errorf("empty version")
	}
	return l.base + "/" + objectKey(l.imagePath, versionPlaceholder, url.PathEscape(version.String())), nil
}

// objectKey substitutes value into template and drops the leading slash.
func objectKey(template, placeholder, value string) string {
	p := strings.ReplaceAll(template, placeholder, value)
	return strings.TrimLeft(p, "/")
}
