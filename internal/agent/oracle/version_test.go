package oracle

import (
	"errors"
	"testing"

	"github.com/otakit/ota-agent/internal/agent/core"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		want    FirmwareVersion
		wantErr error
	}{
		{"plain", []byte("1.2.3"), "1.2.3", nil},
		{"newline", []byte("1.2.3\n"), "1.2.3", nil},
		{"crlf", []byte("1.2.3\r\n"), "1.2.3", nil},
		{"carriage return", []byte("1.2.3\r"), "1.2.3", nil},
		{"only one terminator stripped", []byte("1.2.3\n\n"), "1.2.3\n", nil},
		{"build tag", []byte("build-2024.06.01+esp32"), "build-2024.06.01+esp32", nil},
		{"empty", []byte(""), "", core.ErrMalformedVersion},
		{"only newline", []byte("\n"), "", core.ErrMalformedVersion},
		{"invalid utf8", []byte{0xff, 0xfe, 0x31}, "", core.ErrMalformedVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVersion(tt.raw)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseVersion() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFirmwareVersionEqual(t *testing.T) {
	tests := []struct {
		a, b FirmwareVersion
		want bool
	}{
		{"1.2.3", "1.2.3", true},
		{NewVersion("1.2.3\n"), "1.2.3", true},
		{"1.2.3", NewVersion("1.2.3\r\n"), true},
		{NewVersion("1.2.3\n\n"), NewVersion("1.2.3"), false},
		{"1.2.3", "1.2.4", false},
		{"1.2.3", " 1.2.3", false},
		{"v1.2.3", "1.2.3", false},
	}

	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%q.Equal(%q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got := tt.b.Equal(tt.a); got != tt.want {
			t.Errorf("%q.Equal(%q) = %v, want %v", tt.b, tt.a, got, tt.want)
		}
	}
}

func TestParsedVersionNormalizedOnce(t *testing.T) {
	target, err := ParseVersion([]byte("1.9.0\n\n"))
	if err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}
	if target.Equal(NewVersion("1.9.0")) {
		t.Errorf("%q equals 1.9.0, a second terminator must survive normalization", target)
	}
}
