package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sentinelvault/sentinelvault/pkg/backup"

	"github.com/spf13/cobra"
)

var backupKeep int

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupPruneCmd)

	backupCreateCmd.Flags().IntVar(&backupKeep, "keep", 0, "Backups to keep after rotation (default: configured maximum)")
	backupPruneCmd.Flags().IntVar(&backupKeep, "keep", 0, "Backups to keep (default: configured maximum)")
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage vault database backups",
}

func keepCount() int {
	if backupKeep > 0 {
		return backupKeep
	}
	return cfg.Backup.MaxBackups
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a backup and rotate old ones",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := backup.Create(cfg.DBPath(), cfg.BackupDir())
		if errors.Is(err, backup.ErrNoSource) {
			return fmt.Errorf("no vault database at %s; run init first", cfg.DBPath())
		}
		if err != nil {
			return err
		}
		fmt.Printf("Backup written to %s\n", path)

		removed, err := backup.Prune(cfg.BackupDir(), keepCount())
		if err != nil {
			return err
		}
		if removed > 0 {
			fmt.Printf("Pruned %d old backups\n", removed)
		}
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := backup.List(cfg.BackupDir())
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(filepath.Base(p))
		}
		return nil
	},
}

var backupPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := backup.Prune(cfg.BackupDir(), keepCount())
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d backups\n", removed)
		return nil
	},
}
