// Package config loads ledwall.toml for the CLI.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/chronologos/ledwall/internal/transport"
)

const (
	EnvAddress  = "LEDWALL_ADDRESS"
	EnvMode     = "LEDWALL_MODE"
	EnvLogLevel = "LEDWALL_LOG_LEVEL"
	EnvToken    = "LEDWALL_TOKEN"
)

// Client configures how the CLI reaches a display.
type Client struct {
	Address    string
	Mode       transport.Mode
	Timeout    time.Duration
	CAFile     string
	ServerName string
	Token      string // bearer token for ws displays
}

// Simulator configures `ledwall simulate`.
type Simulator struct {
	Listen     string
	HTTPListen string // empty disables the HTTP API
	Mode       transport.Mode
	Width      uint8
	Height     uint8
	Token      string // guards /ws and /frame.png when set
}

// Config is the full CLI configuration.
type Config struct {
	LogLevel  slog.Level
	Client    Client
	Simulator Simulator
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: slog.LevelInfo,
		Client: Client{
			Address: "127.0.0.1:1337",
			Mode:    transport.ModeTCP,
			Timeout: 5 * time.Second,
		},
		Simulator: Simulator{
			Listen:     "127.0.0.1:1337",
			HTTPListen: "127.0.0.1:8080",
			Mode:       transport.ModeTCP,
			Width:      64,
			Height:     32,
		},
	}
}

type fileConfig struct {
	LogLevel string `toml:"log_level"`

	Client struct {
		Address    string `toml:"address"`
		Mode       string `toml:"mode"`
		Timeout    string `toml:"timeout"`
		CAFile     string `toml:"ca_file"`
		ServerName string `toml:"server_name"`
		Token      string `toml:"token"`
	} `toml:"client"`

	Simulator struct {
		Listen     string `toml:"listen"`
		HTTPListen string `toml:"http_listen"`
		Mode       string `toml:"mode"`
		Width      int    `toml:"width"`
		Height     int    `toml:"height"`
		Token      string `toml:"token"`
	} `toml:"simulator"`
}

// Load returns the defaults overridden by the file at path (if path is
// not empty) and then by the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("log_level") {
		lvl, err := ParseLevel(raw.LogLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = lvl
	}

	if meta.IsDefined("client", "address") {
		cfg.Client.Address = strings.TrimSpace(raw.Client.Address)
	}
	if meta.IsDefined("client", "mode") {
		m, err := transport.ParseMode(raw.Client.Mode)
		if err != nil {
			return fmt.Errorf("parse client.mode: %w", err)
		}
		cfg.Client.Mode = m
	}
	if meta.IsDefined("client", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Client.Timeout))
		if err != nil {
			return fmt.Errorf("parse client.timeout: %w", err)
		}
		cfg.Client.Timeout = d
	}
	if meta.IsDefined("client", "ca_file") {
		cfg.Client.CAFile = strings.TrimSpace(raw.Client.CAFile)
	}
	if meta.IsDefined("client", "server_name") {
		cfg.Client.ServerName = strings.TrimSpace(raw.Client.ServerName)
	}
	if meta.IsDefined("client", "token") {
		cfg.Client.Token = strings.TrimSpace(raw.Client.Token)
	}

	if meta.IsDefined("simulator", "listen") {
		cfg.Simulator.Listen = strings.TrimSpace(raw.Simulator.Listen)
	}
	if meta.IsDefined("simulator", "http_listen") {
		cfg.Simulator.HTTPListen = strings.TrimSpace(raw.Simulator.HTTPListen)
	}
	if meta.IsDefined("simulator", "mode") {
		m, err := transport.ParseMode(raw.Simulator.Mode)
		if err != nil {
			return fmt.Errorf("parse simulator.mode: %w", err)
		}
		cfg.Simulator.Mode = m
	}
	if meta.IsDefined("simulator", "width") {
		w, err := dimension("simulator.width", raw.Simulator.Width)
		if err != nil {
			return err
		}
		cfg.Simulator.Width = w
	}
	if meta.IsDefined("simulator", "height") {
		h, err := dimension("simulator.height", raw.Simulator.Height)
		if err != nil {
			return err
		}
		cfg.Simulator.Height = h
	}
	if meta.IsDefined("simulator", "token") {
		cfg.Simulator.Token = strings.TrimSpace(raw.Simulator.Token)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvAddress)); v != "" {
		cfg.Client.Address = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		cfg.Client.Token = v
		cfg.Simulator.Token = v
	}
	if v := os.Getenv(EnvMode); strings.TrimSpace(v) != "" {
		m, err := transport.ParseMode(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMode, err)
		}
		cfg.Client.Mode = m
	}
	if v := os.Getenv(EnvLogLevel); strings.TrimSpace(v) != "" {
		lvl, err := ParseLevel(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = lvl
	}
	return nil
}

// ParseLevel accepts debug, info, warn/warning and error.
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
}

func dimension(name string, n int) (uint8, error) {
	if n < 0 || n > 255 {
		return 0, fmt.Errorf("%s must be between 0 and 255, got %d", name, n)
	}
	return uint8(n), nil
}
