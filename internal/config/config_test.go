package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 24*time.Hour, cfg.Session.MaxLifetime)
	assert.Equal(t, "1.0.0", cfg.Sync.ProtocolVersion)
	assert.Equal(t, 256, cfg.WebSocket.SendBuffer)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.True(t, cfg.SecretGenerated)
	assert.NotEmpty(t, cfg.Session.Secret)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DOCSYNC_SERVER_PORT", "9090")
	t.Setenv("DOCSYNC_SESSION_TTL", "2m")
	t.Setenv("DOCSYNC_SESSION_SECRET", "from-env")
	t.Setenv("DOCSYNC_STORAGE_DRIVER", "memory")
	t.Setenv("DOCSYNC_RATELIMIT_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "from-env", cfg.Session.Secret)
	assert.False(t, cfg.SecretGenerated)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DOCSYNC_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("DOCSYNC_LOG_LEVEL") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "docsync.yaml")
	content := `
server:
  port: 7000
storage:
  driver: memory
session:
  secret: file-secret
  ttl: 90s
websocket:
  send_buffer: 16
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Session.TTL)
	assert.Equal(t, "file-secret", cfg.Session.Secret)
	assert.Equal(t, 16, cfg.WebSocket.SendBuffer)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		mutate func(v *viper.Viper)
		name   string
	}{
		{name: "bad port", mutate: func(v *viper.Viper) { v.Set("server.port", 0) }},
		{name: "zero ttl", mutate: func(v *viper.Viper) { v.Set("session.ttl", "0s") }},
		{name: "unknown driver", mutate: func(v *viper.Viper) { v.Set("storage.driver", "postgres") }},
		{name: "sqlite without path", mutate: func(v *viper.Viper) { v.Set("storage.path", "") }},
		{name: "ping after pong", mutate: func(v *viper.Viper) { v.Set("websocket.ping_period", "2m") }},
		{name: "lifetime below ttl", mutate: func(v *viper.Viper) { v.Set("session.max_lifetime", "1m") }},
		{name: "negative threshold", mutate: func(v *viper.Viper) { v.Set("sync.compression_threshold", -1) }},
		{name: "zero burst", mutate: func(v *viper.Viper) { v.Set("ratelimit.burst", 0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set("session.secret", "s")
			tt.mutate(v)

			_, err := LoadWithViper(v)
			assert.Error(t, err)
		})
	}
}
