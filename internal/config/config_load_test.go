package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// load parses args against a fresh flag set and viper instance
func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("assessment-forms", pflag.ContinueOnError)
	RegisterFlags(fs, DefaultConfig())
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	return Load(fs, viper.New())
}

// dirs returns flags pointing every directory at fresh temp dirs
func dirs(t *testing.T) []string {
	t.Helper()
	root := t.TempDir()
	forms := filepath.Join(root, "forms")
	if err := os.Mkdir(forms, 0o755); err != nil {
		t.Fatal(err)
	}
	return []string{
		"--forms-dir=" + forms,
		"--work-dir=" + filepath.Join(root, "in"),
		"--output-dir=" + filepath.Join(root, "out"),
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, dirs(t)...)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Mode != ModeStdio {
		t.Errorf("Load() Mode = %v, want %v", cfg.Mode, ModeStdio)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Load() Port = %v, want %v", cfg.Port, DefaultPort)
	}
	if cfg.Zoom != DefaultZoom {
		t.Errorf("Load() Zoom = %v, want %v", cfg.Zoom, DefaultZoom)
	}
	if !cfg.Flatten {
		t.Error("Load() Flatten should default to true")
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("Load() Workers = %v, want %v", cfg.Workers, DefaultWorkers)
	}
	if _, err := os.Stat(cfg.OutputDirectory); err != nil {
		t.Errorf("Load() should create the output directory: %v", err)
	}
}

func TestLoad_ValidFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(*Config) bool
	}{
		{"server mode", []string{"--mode=server", "--port=9090"}, func(c *Config) bool { return c.IsServerMode() && c.Port == 9090 }},
		{"debug logging", []string{"--log-level=debug", "--log-format=json"}, func(c *Config) bool { return c.IsDebug() && c.LogFormat == FormatJSON }},
		{"no flattening", []string{"--flatten=false", "--zoom=2"}, func(c *Config) bool { return !c.Flatten && c.Zoom == 2 }},
		{"partial batches", []string{"--partial-batch", "--workers=1"}, func(c *Config) bool { return c.PartialBatch && c.Workers == 1 }},
		{"password", []string{"--password=secret"}, func(c *Config) bool { return c.Password == "secret" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := load(t, append(dirs(t), tt.args...)...)
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("Load() unexpected config %s", cfg)
			}
		})
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("FORMS_MODE", "server")
	t.Setenv("FORMS_PORT", "3000")
	t.Setenv("FORMS_WORKERS", "8")
	t.Setenv("FORMS_PARTIAL_BATCH", "true")

	cfg, err := load(t, dirs(t)...)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Mode != ModeServer || cfg.Port != 3000 {
		t.Errorf("Load() Mode/Port = %v/%v, want server/3000", cfg.Mode, cfg.Port)
	}
	if cfg.Workers != 8 || !cfg.PartialBatch {
		t.Errorf("Load() Workers/PartialBatch = %v/%v, want 8/true", cfg.Workers, cfg.PartialBatch)
	}
}

func TestLoad_FlagOverridesEnvironment(t *testing.T) {
	t.Setenv("FORMS_MODE", "server")
	t.Setenv("FORMS_ZOOM", "5")

	cfg, err := load(t, append(dirs(t), "--mode=stdio", "--zoom=1.5")...)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Mode != ModeStdio {
		t.Errorf("Load() Mode = %v, want %v (should override env)", cfg.Mode, ModeStdio)
	}
	if cfg.Zoom != 1.5 {
		t.Errorf("Load() Zoom = %v, want 1.5 (should override env)", cfg.Zoom)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"invalid mode", []string{"--mode=invalid"}},
		{"invalid zoom", []string{"--zoom=0"}},
		{"invalid workers", []string{"--workers=0"}},
		{"invalid log format", []string{"--log-format=xml"}},
		{"missing forms directory", []string{"--forms-dir=/nonexistent/forms"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := load(t, append(dirs(t), tt.args...)...); err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func TestLoadFromFlags(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
	}()

	os.Args = append([]string{"assessment-forms"}, dirs(t)...)
	resetFlags()
	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}
	if cfg.ServerName != "assessment-forms" {
		t.Errorf("LoadFromFlags() ServerName = %v", cfg.ServerName)
	}

	os.Args = []string{"assessment-forms", "--version"}
	resetFlags()
	if _, err := LoadFromFlags(); !errors.Is(err, ErrVersionRequested) {
		t.Errorf("LoadFromFlags() error = %v, want %v", err, ErrVersionRequested)
	}
}
