package log

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr int
	}{
		{"defaults", func(o *Options) {}, 0},
		{"json format", func(o *Options) { o.Format = "json" }, 0},
		{"bad level", func(o *Options) { o.Level = "loud" }, 1},
		{"bad format", func(o *Options) { o.Format = "xml" }, 1},
		{"both bad", func(o *Options) { o.Level = "loud"; o.Format = "xml" }, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions()
			tt.mutate(o)
			if got := len(o.Validate()); got != tt.wantErr {
				t.Errorf("Validate() returned %d errors, want %d", got, tt.wantErr)
			}
		})
	}
}

func TestLoggerLevelIsShared(t *testing.T) {
	opts := NewOptions()
	opts.Format = "json"
	opts.OutputPaths = []string{filepath.Join(t.TempDir(), "agent.log")}

	l := NewLogger(opts).(*zapLogger)
	child := l.WithName("ota").WithValues("device", "dev-1").(*zapLogger)

	if !l.core.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info should be enabled by default")
	}

	if err := l.level.UnmarshalText([]byte("error")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}

	if child.core.Core().Enabled(zapcore.InfoLevel) {
		t.Error("derived logger still logs at info after the level was raised")
	}
	if !child.core.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("derived logger does not log at error")
	}
}

func TestSetLevelOnNop(t *testing.T) {
	if err := SetLevel("debug"); err != nil {
		t.Errorf("SetLevel on the default logger: %v", err)
	}
	if err := SetLevel("nonsense"); err == nil {
		t.Error("SetLevel accepted an unknown level")
	}
}
