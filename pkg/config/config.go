package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so connection files can say "500ms" or "10s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// LogConfig controls log level and format
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Config is the worker connection file: where the controller registers
// workers, which identity to present, and the protocol timings.
type Config struct {
	// Ident pins the worker identity. Empty means generate one at startup.
	Ident string `yaml:"ident"`

	// RegistrarAddr is the controller's registration endpoint.
	RegistrarAddr string `yaml:"registrar_addr"`

	// RequireQueue makes a worker without a queue channel fail registration
	// instead of running with the capability absent.
	RequireQueue bool `yaml:"require_queue"`

	RegistrationTimeout Duration `yaml:"registration_timeout"`
	HeartbeatInterval   Duration `yaml:"heartbeat_interval"`
	UnregisterGrace     Duration `yaml:"unregister_grace"`

	// MetricsAddr serves /metrics and /healthz. Empty disables the server.
	MetricsAddr string `yaml:"metrics_addr"`

	Log LogConfig `yaml:"log"`
}

// Default returns the configuration used when the connection file omits a
// field.
func Default() Config {
	return Config{
		RegistrationTimeout: Duration(10 * time.Second),
		HeartbeatInterval:   Duration(1 * time.Second),
		UnregisterGrace:     Duration(1 * time.Second),
		MetricsAddr:         ":9465",
		Log:                 LogConfig{Level: "info", JSON: true},
	}
}

// Load reads a YAML connection file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read connection file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse connection file %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the fields no engine can run without.
func (c *Config) Validate() error {
	if c.RegistrarAddr == "" {
		return fmt.Errorf("registrar_addr is required")
	}
	if c.RegistrationTimeout <= 0 {
		return fmt.Errorf("registration_timeout must be positive")
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat_interval must be positive")
	}
	if c.UnregisterGrace < 0 {
		return fmt.Errorf("unregister_grace must not be negative")
	}
	return nil
}
