package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verdigris-botanica/egress/internal/config"
)

var (
	flagHomeDir    string
	flagConfigFile string
)

var rootCmd = &cobra.Command{
	Use:   "egress",
	Short: "Egress - classification-aware assessment data transmission",
	Long: `Egress governs how sensitive assessment data leaves the origin
network: findings are filtered against the sovereignty classification
policy, the permitted subset is encrypted with AES-256-GCM, and every
step is recorded in an append-only audit log.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagHomeDir, "home", "",
		"egress home directory (default $HOME/.egress)")
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "",
		"config file path (default <home>/config.yaml)")
}

// homeDir resolves the egress home directory from the flag, the
// EGRESS_HOME environment variable, or the default location.
func homeDir() string {
	if flagHomeDir != "" {
		return flagHomeDir
	}
	if env := os.Getenv("EGRESS_HOME"); env != "" {
		return env
	}
	return config.DefaultHomeDir()
}

// configPath resolves the config file path.
func configPath() string {
	if flagConfigFile != "" {
		return flagConfigFile
	}
	return filepath.Join(homeDir(), "config.yaml")
}

// loadConfig loads the configuration, falling back to defaults when no
// config file has been written yet.
func loadConfig() (*config.Config, error) {
	return config.LoadOrDefault(configPath(), homeDir())
}
