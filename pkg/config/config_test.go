package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "connection.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10*time.Second, cfg.RegistrationTimeout.Std())
	assert.Equal(t, time.Second, cfg.HeartbeatInterval.Std())
	assert.Equal(t, time.Second, cfg.UnregisterGrace.Std())
	assert.Equal(t, ":9465", cfg.MetricsAddr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Ident, "identity is generated, not defaulted")
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
registrar_addr: tcp://10.0.0.5:10101
ident: worker-east-1
require_queue: true
registration_timeout: 30s
heartbeat_interval: 500ms
log:
  level: debug
  json: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp://10.0.0.5:10101", cfg.RegistrarAddr)
	assert.Equal(t, "worker-east-1", cfg.Ident)
	assert.True(t, cfg.RequireQueue)
	assert.Equal(t, 30*time.Second, cfg.RegistrationTimeout.Std())
	assert.Equal(t, 500*time.Millisecond, cfg.HeartbeatInterval.Std())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.JSON)

	// Fields the file omits keep their defaults.
	assert.Equal(t, time.Second, cfg.UnregisterGrace.Std())
	assert.Equal(t, ":9465", cfg.MetricsAddr)
}

func TestLoadInvalidDuration(t *testing.T) {
	path := writeFile(t, `
registrar_addr: tcp://10.0.0.5:10101
registration_timeout: soon
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) { c.RegistrarAddr = "tcp://controller:10101" },
		},
		{
			name:    "missing registrar addr",
			mutate:  func(c *Config) {},
			wantErr: "registrar_addr",
		},
		{
			name: "zero registration timeout",
			mutate: func(c *Config) {
				c.RegistrarAddr = "tcp://controller:10101"
				c.RegistrationTimeout = 0
			},
			wantErr: "registration_timeout",
		},
		{
			name: "zero heartbeat interval",
			mutate: func(c *Config) {
				c.RegistrarAddr = "tcp://controller:10101"
				c.HeartbeatInterval = 0
			},
			wantErr: "heartbeat_interval",
		},
		{
			name: "negative unregister grace",
			mutate: func(c *Config) {
				c.RegistrarAddr = "tcp://controller:10101"
				c.UnregisterGrace = Duration(-time.Second)
			},
			wantErr: "unregister_grace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
