package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	cliflag "k8s.io/component-base/cli/flag"
)

type testOptions struct {
	Server struct {
		Addr    string        `mapstructure:"addr"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"server"`
	Name string `mapstructure:"name"`

	completed bool
	invalid   error
}

func (o *testOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	fs := fss.FlagSet("server")
	fs.StringVar(&o.Server.Addr, "server.addr", "127.0.0.1:80", "address")
	fs.DurationVar(&o.Server.Timeout, "server.timeout", time.Second, "timeout")
	fss.FlagSet("misc").StringVar(&o.Name, "name", "default", "name")
	return fss
}

func (o *testOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *testOptions) Validate() error {
	return o.invalid
}

func newTestApp(opts *testOptions, ran *bool) *App {
	return NewApp("test-app", "a test app",
		WithOptions(opts),
		WithDefaultValidArgs(),
		WithRunFunc(func() error {
			*ran = true
			return nil
		}),
	)
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  addr: 10.0.0.1:8080\n  timeout: 30s\nname: from-file\n"
	if err := os.WriteFile(cfg, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := &testOptions{}
	var ran bool
	a := newTestApp(opts, &ran)
	a.Command().SetArgs([]string{"--config", cfg, "--name", "from-flag"})

	if err := a.Command().Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !ran || !opts.completed {
		t.Fatalf("ran = %v, completed = %v", ran, opts.completed)
	}
	if opts.Server.Addr != "10.0.0.1:8080" || opts.Server.Timeout != 30*time.Second {
		t.Errorf("server options from file = %+v", opts.Server)
	}
	if opts.Name != "from-flag" {
		t.Errorf("Name = %q, want the flag value", opts.Name)
	}
}

func TestDefaultsWithoutConfig(t *testing.T) {
	opts := &testOptions{}
	var ran bool
	a := newTestApp(opts, &ran)
	a.Command().SetArgs([]string{})

	if err := a.Command().Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if opts.Server.Addr != "127.0.0.1:80" || opts.Name != "default" {
		t.Errorf("options = %+v", opts)
	}
}

func TestEnvironment(t *testing.T) {
	t.Setenv("TEST_APP_SERVER_ADDR", "192.168.1.1:9000")

	opts := &testOptions{}
	var ran bool
	a := newTestApp(opts, &ran)
	a.Command().SetArgs([]string{})

	if err := a.Command().Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if opts.Server.Addr != "192.168.1.1:9000" {
		t.Errorf("Server.Addr = %q, want the environment value", opts.Server.Addr)
	}
}

func TestValidationStopsRun(t *testing.T) {
	opts := &testOptions{invalid: errors.New("bad options")}
	var ran bool
	a := newTestApp(opts, &ran)
	a.Command().SetArgs([]string{})
	a.Command().SilenceErrors = true

	if err := a.Command().Execute(); err == nil {
		t.Fatal("Execute accepted invalid options")
	}
	if ran {
		t.Error("run func called with invalid options")
	}
}

func TestMissingConfigFile(t *testing.T) {
	opts := &testOptions{}
	var ran bool
	a := newTestApp(opts, &ran)
	a.Command().SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	a.Command().SilenceErrors = true

	if err := a.Command().Execute(); err == nil {
		t.Fatal("Execute accepted a missing config file")
	}
}

func TestRejectsArguments(t *testing.T) {
	opts := &testOptions{}
	var ran bool
	a := newTestApp(opts, &ran)
	a.Command().SetArgs([]string{"extra"})
	a.Command().SilenceErrors = true

	if err := a.Command().Execute(); err == nil {
		t.Fatal("Execute accepted a positional argument")
	}
}
