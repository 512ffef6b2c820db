package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Overrides{})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 3389, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, uint16(1024), cfg.RDP.DefaultWidth)
	assert.Equal(t, uint16(3840), cfg.RDP.MaxWidth)
	assert.True(t, cfg.Security.UseNLA)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RDPPROXY_SERVER_HOST", "127.0.0.1")
	t.Setenv("RDPPROXY_LOGGING_LEVEL", "debug")

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadCLIOverrideBeatsEnv(t *testing.T) {
	t.Setenv("RDPPROXY_SERVER_HOST", "127.0.0.1")

	cfg, err := Load(Overrides{Host: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", cfg.Server.Host)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	cfg.Server.Port = 0
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsMaxBelowDefault(t *testing.T) {
	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	cfg.RDP.MaxWidth = cfg.RDP.DefaultWidth - 1
	assert.Error(t, Validate(cfg))
}

func TestValidateRequiresTLSFilesWhenEnabled(t *testing.T) {
	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	cfg.Security.EnableTLS = true
	assert.Error(t, Validate(cfg))

	cfg.Security.TLSCertFile = "/tmp/cert.pem"
	cfg.Security.TLSKeyFile = "/tmp/key.pem"
	assert.NoError(t, Validate(cfg))
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	cfg.Logging.Level = "verbose"
	assert.Error(t, Validate(cfg))
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
