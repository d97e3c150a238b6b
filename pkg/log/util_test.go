package log

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestToFields(t *testing.T) {
	tests := []struct {
		name string
		args []any
		keys []string
	}{
		{"empty", nil, nil},
		{"pairs", []any{"device", "dev-1", "bytes", int64(2048), "ok", true}, []string{"device", "bytes", "ok"}},
		{"bare error", []any{errors.New("boom"), "slot", "b"}, []string{"error", "slot"}},
		{"zap field", []any{zap.String("x", "y"), "n", 1}, []string{"x", "n"}},
		{"dangling value", []any{"k", "v", "orphan"}, []string{"k", badKey}},
		{"non string key", []any{42, "v"}, []string{badKey + "(42)"}},
		{"nil value", []any{"a", nil}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var keys []string
			for _, f := range toFields(tt.args...) {
				keys = append(keys, f.Key)
			}
			if diff := cmp.Diff(tt.keys, keys); diff != "" {
				t.Errorf("keys mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToFieldsEncoding(t *testing.T) {
	fields := toFields("wait", 3*time.Second, "at", time.Unix(0, 0))

	if fields[0].Type != zapcore.DurationType {
		t.Errorf("wait encoded as %v, want duration", fields[0].Type)
	}
	if fields[1].Type != zapcore.TimeType && fields[1].Type != zapcore.TimeFullType {
		t.Errorf("at encoded as %v, want time", fields[1].Type)
	}
}
