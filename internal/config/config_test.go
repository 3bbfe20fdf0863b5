package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronologos/ledwall/internal/transport"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledwall.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[client]
address = " wall.local:1337 "
mode = "quic"
timeout = "250ms"
server_name = "wall.local"
token = "abc"

[simulator]
listen = ":9000"
http_listen = ""
mode = "tls"
width = 255
height = 1
token = "def"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "wall.local:1337", cfg.Client.Address)
	assert.Equal(t, transport.ModeQUIC, cfg.Client.Mode)
	assert.Equal(t, 250*time.Millisecond, cfg.Client.Timeout)
	assert.Equal(t, "wall.local", cfg.Client.ServerName)
	assert.Empty(t, cfg.Client.CAFile)
	assert.Equal(t, "abc", cfg.Client.Token)

	assert.Equal(t, ":9000", cfg.Simulator.Listen)
	assert.Empty(t, cfg.Simulator.HTTPListen)
	assert.Equal(t, transport.ModeTLS, cfg.Simulator.Mode)
	assert.Equal(t, uint8(255), cfg.Simulator.Width)
	assert.Equal(t, uint8(1), cfg.Simulator.Height)
	assert.Equal(t, "def", cfg.Simulator.Token)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[simulator]\nwidth = 10\n"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, uint8(10), cfg.Simulator.Width)
	assert.Equal(t, def.Simulator.Height, cfg.Simulator.Height)
	assert.Equal(t, def.Client, cfg.Client)
}

func TestLoadRejectsBadValues(t *testing.T) {
	for name, body := range map[string]string{
		"dimension":   "[simulator]\nwidth = 256\n",
		"mode":        "[client]\nmode = \"serial\"\n",
		"timeout":     "[client]\ntimeout = \"soon\"\n",
		"level":       "log_level = \"loud\"\n",
		"unknown key": "[client]\nadress = \"typo\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvAddress, "10.0.0.5:1337")
	t.Setenv(EnvMode, "ws")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvToken, "t0k")

	cfg, err := Load(writeConfig(t, "[client]\naddress = \"file:1\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:1337", cfg.Client.Address)
	assert.Equal(t, transport.ModeWebSocket, cfg.Client.Mode)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, "t0k", cfg.Client.Token)
	assert.Equal(t, "t0k", cfg.Simulator.Token)
}

func TestEnvOverrideInvalidMode(t *testing.T) {
	t.Setenv(EnvMode, "pigeon")
	_, err := Load("")
	assert.Error(t, err)
}
