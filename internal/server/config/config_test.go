package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
	assert.Contains(t, cfg.DatabaseDSN, "/hydrotrack?")
	assert.Equal(t, "secret", cfg.SecretKey)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty dsn", func(c *Config) { c.DatabaseDSN = "" }},
		{"empty secret", func(c *Config) { c.SecretKey = "" }},
		{"zero timeout", func(c *Config) { c.ShutdownTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.LoadDefaults()
			tt.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Setenv("HYDRO_CONFIG", "")
	os.Args = []string{"server", "-a", ":6000", "-t", "3"}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":6000", cfg.EndpointAddrGRPC)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "secret", cfg.SecretKey)
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Setenv("HYDRO_CONFIG", "")
	os.Args = []string{"server", "-s", ""}

	_, err := LoadConfig()
	require.Error(t, err)
}
