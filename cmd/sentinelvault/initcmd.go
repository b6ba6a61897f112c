package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

// initCmd creates the vault directory and database schema.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the vault database",
	Long: `Create the vault directory and database with its users and
data_entries tables. Safe to run again on an existing vault.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		fmt.Printf("Vault ready at %s\n", cfg.DBPath())
		return nil
	},
}
