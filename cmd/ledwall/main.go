package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chronologos/ledwall/internal/config"
	"github.com/chronologos/ledwall/internal/transport"
	"github.com/chronologos/ledwall/internal/version"
)

// globalFlags are the persistent flags shared by every subcommand. Empty
// or zero values leave the config file / environment value in place.
type globalFlags struct {
	configPath string
	addr       string
	mode       string
	timeout    time.Duration
	logLevel   string
	caFile     string
	serverName string
	token      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ledwall: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var gf globalFlags

	rootCmd := &cobra.Command{
		Use:   "ledwall",
		Short: "Drive an LED wall over the ledwall protocol",
		Long: `ledwall talks to a pixel-matrix display that announces its size on
connect and then accepts pixel, fill, rectangle and contiguous-block
commands. It can also run a software display for development.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&gf.configPath, "config", "c", "", "path to ledwall.toml")
	pf.StringVarP(&gf.addr, "addr", "a", "", "display address (host:port, or ws:// URL)")
	pf.StringVarP(&gf.mode, "mode", "m", "", "transport: tcp, tls, quic or ws")
	pf.DurationVar(&gf.timeout, "timeout", 0, "connect and handshake timeout")
	pf.StringVar(&gf.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&gf.caFile, "ca-file", "", "PEM CA bundle to verify TLS/QUIC displays")
	pf.StringVar(&gf.serverName, "server-name", "", "TLS server name override")
	pf.StringVar(&gf.token, "token", "", "bearer token for the simulator HTTP API and ws displays")

	rootCmd.AddCommand(
		infoCmd(&gf),
		fillCmd(&gf),
		pixelCmd(&gf),
		rectCmd(&gf),
		imageCmd(&gf),
		simulateCmd(&gf),
		versionCmd(),
	)
	return rootCmd
}

// load reads the config file and applies flag overrides.
func (gf *globalFlags) load() (config.Config, error) {
	cfg, err := config.Load(gf.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if gf.addr != "" {
		cfg.Client.Address = gf.addr
	}
	if gf.mode != "" {
		m, err := transport.ParseMode(gf.mode)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Client.Mode = m
	}
	if gf.timeout > 0 {
		cfg.Client.Timeout = gf.timeout
	}
	if gf.logLevel != "" {
		lvl, err := config.ParseLevel(gf.logLevel)
		if err != nil {
			return config.Config{}, err
		}
		cfg.LogLevel = lvl
	}
	if gf.caFile != "" {
		cfg.Client.CAFile = gf.caFile
	}
	if gf.serverName != "" {
		cfg.Client.ServerName = gf.serverName
	}
	if gf.token != "" {
		cfg.Client.Token = gf.token
		cfg.Simulator.Token = gf.token
	}
	return cfg, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ledwall %s (%s)\n", version.VERSION, version.Commit)
		},
	}
}
