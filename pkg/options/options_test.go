package options

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"127.0.0.1:9469", false},
		{":8080", false},
		{"localhost:80", false},
		{"[::1]:443", false},
		{"127.0.0.1", true},
		{"127.0.0.1:http", true},
		{"127.0.0.1:70000", true},
		{"example.com:80", true},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAddress(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			}
		})
	}
}

func TestDefaultsAreValid(t *testing.T) {
	for name, o := range map[string]IOptions{
		"http":   NewHttpOptions(),
		"mqtt":   NewMqttOptions(),
		"s3":     NewS3Options(),
		"oracle": NewOracleOptions(),
		"update": NewUpdateOptions(),
		"device": NewDeviceOptions(),
	} {
		if errs := o.Validate(); len(errs) != 0 {
			t.Errorf("%s defaults are invalid: %v", name, errs)
		}
	}
}

func TestOracleOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *OracleOptions)
		wantErr bool
	}{
		{"defaults", func(o *OracleOptions) {}, false},
		{"s3 source ignores base url", func(o *OracleOptions) { o.Source = SourceS3; o.BaseURL = "" }, false},
		{"unknown source", func(o *OracleOptions) { o.Source = "ftp" }, true},
		{"non http base url", func(o *OracleOptions) { o.BaseURL = "file:///tmp" }, true},
		{"target without placeholder", func(o *OracleOptions) { o.TargetPath = "/devices/target" }, true},
		{"image without placeholder", func(o *OracleOptions) { o.ImagePath = "/image.bin" }, true},
		{"negative timeout", func(o *OracleOptions) { o.Timeout = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOracleOptions()
			tt.mutate(o)
			if errs := o.Validate(); (len(errs) != 0) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestUpdateOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *UpdateOptions)
		wantErr bool
	}{
		{"defaults", func(o *UpdateOptions) {}, false},
		{"empty version", func(o *UpdateOptions) { o.CurrentVersion = "" }, true},
		{"zero interval", func(o *UpdateOptions) { o.Interval = 0 }, true},
		{"backoff below interval", func(o *UpdateOptions) { o.MaxBackoff = time.Minute }, true},
		{"zero chunk", func(o *UpdateOptions) { o.ChunkSize = 0 }, true},
		{"negative delay", func(o *UpdateOptions) { o.ChunkDelay = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewUpdateOptions()
			tt.mutate(o)
			if errs := o.Validate(); (len(errs) != 0) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestUpdateDefaultsLeaveRoomForBackoff(t *testing.T) {
	o := NewUpdateOptions()
	if o.MaxBackoff <= o.Interval {
		t.Errorf("MaxBackoff %v does not exceed Interval %v, failed checks would never back off", o.MaxBackoff, o.Interval)
	}
}

func TestMqttOptionsDisabledByDefault(t *testing.T) {
	o := NewMqttOptions()
	if o.Enabled() {
		t.Fatal("status reporting should be off without a broker")
	}

	o.Broker = "not a url"
	if errs := o.Validate(); len(errs) == 0 {
		t.Error("expected an error for a broker without scheme and host")
	}

	o.Broker = "tls://broker.local:8883"
	o.KeepAlive = 30 * time.Second
	if errs := o.Validate(); len(errs) != 0 {
		t.Fatalf("Validate() = %v", errs)
	}
	if got := o.ToClientConfig().KeepAlive; got != 30 {
		t.Errorf("KeepAlive = %d, want 30", got)
	}
}

func TestAddFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o := NewUpdateOptions()
	o.AddFlags(fs)

	if err := fs.Parse([]string{"--update.interval=5m", "--update.chunk-size=4096"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if o.Interval != 5*time.Minute {
		t.Errorf("Interval = %v, want 5m", o.Interval)
	}
	if o.ChunkSize != 4096 {
		t.Errorf("ChunkSize = %d, want 4096", o.ChunkSize)
	}
}
