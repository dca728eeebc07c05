package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/verdigris-botanica/egress/internal/config"
	"github.com/verdigris-botanica/egress/internal/crypto"
)

var flagPassphrase string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the egress home directory, config, and key",
	Long: `Creates the egress home directory, writes the default configuration,
and provisions the transmission key. By default the key is random; with
--passphrase it is derived via scrypt so it can be re-derived later from
the same passphrase and salt.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&flagPassphrase, "passphrase", "",
		"derive the transmission key from this passphrase instead of generating a random key")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	home := homeDir()

	if err := config.WriteDefault(configPath(), home); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ config written to %s\n", configPath())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	keyManager := crypto.NewFileKeyManager()
	if keyManager.KeyExists(cfg.Security.KeyFile) {
		return fmt.Errorf("key file already exists: %s", cfg.Security.KeyFile)
	}

	var key []byte
	if flagPassphrase != "" {
		salt, err := crypto.GenerateSalt()
		if err != nil {
			return err
		}
		key, err = crypto.DeriveKey([]byte(flagPassphrase), salt)
		if err != nil {
			return err
		}
		saltPath := cfg.Security.KeyFile + ".salt"
		if err := keyManager.SaveKey(salt, saltPath); err != nil {
			return fmt.Errorf("failed to save derivation salt: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ derivation salt written to %s\n", saltPath)
	} else {
		key, err = keyManager.GenerateKey()
		if err != nil {
			return err
		}
	}

	if err := keyManager.SaveKey(key, cfg.Security.KeyFile); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ transmission key written to %s\n", cfg.Security.KeyFile)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ audit log directory: %s\n", filepath.Clean(cfg.Audit.LogDir))

	return nil
}
