package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsWithSecretFromEnv(t *testing.T) {
	req := require.New(t)
	t.Setenv("FW_AUTH_SECRET", "env-secret")

	cfg, err := LoadConfig("")
	req.NoError(err)

	req.Equal(":8087", cfg.Service.Addr)
	req.Equal("env-secret", cfg.Auth.Secret)
	req.Equal("fieldworks", cfg.Auth.Issuer)
	req.Equal(15*time.Second, cfg.Stream.HeartbeatInterval)
	req.Equal(2*time.Second, cfg.Stream.DrainInterval)
	req.Equal(1024, cfg.Mailbox.Capacity)
	req.Equal("drop_oldest", cfg.Mailbox.EvictionPolicy)
	req.False(cfg.Mailbox.ExpireOnDrain)
	req.Equal(60*time.Second, cfg.Presence.SweepInterval)
	req.Equal(5*time.Minute, cfg.Presence.StaleAfter)
	req.Empty(cfg.Directory.BaseURL)
}

func TestLoadConfig_MissingSecretFails(t *testing.T) {
	req := require.New(t)
	_, err := LoadConfig("")
	req.ErrorContains(err, "auth.secret")
}

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("FW_AUTH_SECRET", "env-secret")
	t.Setenv("FW_STREAM_HEARTBEAT_INTERVAL", "5s")
	t.Setenv("FW_MAILBOX_EVICTION_POLICY", "reject_new")

	cfg, err := LoadConfig("")
	req.NoError(err)
	req.Equal(5*time.Second, cfg.Stream.HeartbeatInterval)
	req.Equal("reject_new", cfg.Mailbox.EvictionPolicy)
}

func TestLoadConfig_FileOverriddenByEnv(t *testing.T) {
	req := require.New(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	req.NoError(os.WriteFile(path, []byte(`
auth:
  secret: file-secret
service:
  addr: ":9000"
stream:
  drain_interval: 500ms
`), 0o600))

	t.Setenv("FW_SERVICE_ADDR", ":9100")

	cfg, err := LoadConfig(path)
	req.NoError(err)
	req.Equal("file-secret", cfg.Auth.Secret)
	req.Equal(":9100", cfg.Service.Addr)
	req.Equal(500*time.Millisecond, cfg.Stream.DrainInterval)
}

func TestLoadConfig_RejectsOutOfRangeHeartbeat(t *testing.T) {
	req := require.New(t)
	t.Setenv("FW_AUTH_SECRET", "env-secret")
	t.Setenv("FW_STREAM_HEARTBEAT_INTERVAL", "45s")

	_, err := LoadConfig("")
	req.ErrorContains(err, "heartbeat_interval")
}
