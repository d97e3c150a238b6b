package oracle

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/otakit/ota-agent/internal/agent/core"
)

// MaxVersionLength bounds the oracle response. The token is short text, never a stream.
const MaxVersionLength = 64

// FirmwareVersion is an opaque firmware identifier such as "1.2.3" or a build tag.
// Two versions are equal when their normalized forms are byte-equal.
type FirmwareVersion string

// NewVersion returns the normalized version for s.
func NewVersion(s string) FirmwareVersion {
	return FirmwareVersion(trimLineTerminator(s))
}

// ParseVersion decodes an oracle payload. The payload must be valid UTF-8 and
// non-empty once its trailing line terminator is removed.
func ParseVersion(raw []byte) (FirmwareVersion, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: payload is not valid UTF-8", core.ErrMalformedVersion)
	}
	v := NewVersion(string(raw))
	if v == "" {
		return "", fmt.Errorf("%w: empty version token", core.ErrMalformedVersion)
	}
	return v, nil
}

// Equal reports whether v and other identify the same firmware. Both sides
// are expected to come from NewVersion or ParseVersion and are compared byte for byte.
func (v FirmwareVersion) Equal(other FirmwareVersion) bool {
	return v == other
}

func (v FirmwareVersion) String() string {
	return string(v)
}

// trimLineTerminator removes exactly one trailing "\r\n", "\n" or "\r".
func trimLineTerminator(s string) string {
	switch {
	case strings.HasSuffix(s, "\r\n"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "\n"), strings.HasSuffix(s, "\r"):
		return s[:len(s)-1]
	}
	return s
}
