package main

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/sentinelvault/sentinelvault/internal/config"
	"github.com/sentinelvault/sentinelvault/pkg/crypto"
	"github.com/sentinelvault/sentinelvault/pkg/vault"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	cfgPath string
	cfg     *config.Config
	engine  = crypto.NewEngine()
)

var rootCmd = &cobra.Command{
	Use:   "sentinelvault",
	Short: "sentinelvault is a personal encrypted data vault",
	Long: `A personal data vault storing accounts and secret records in a local
encrypted SQLite database, with selective sharing between accounts.`,
	// PersistentPreRunE loads configuration for every subcommand; the
	// store itself is opened lazily by the commands that need it.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgPath
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get user home directory: %w", err)
			}
			path = filepath.Join(home, config.DefaultDirName, "config.yaml")
		}
		var err error
		cfg, err = config.Load(path)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to config file")
}

// openStore opens the configured vault database, creating the vault
// directory on first use.
func openStore() (*vault.Store, error) {
	if err := os.MkdirAll(cfg.VaultDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}
	return vault.Open(cfg.DBPath(), engine)
}

// promptPassword reads a password without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	defer crypto.SecureWipe(b)
	return string(b), nil
}

// promptNewPassword reads and confirms a password.
func promptNewPassword() (string, error) {
	p1, err := promptPassword("Enter password: ")
	if err != nil {
		return "", err
	}
	p2, err := promptPassword("Confirm password: ")
	if err != nil {
		return "", err
	}
	if p1 != p2 {
		return "", fmt.Errorf("passwords do not match")
	}
	return p1, nil
}
