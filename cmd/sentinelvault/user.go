package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sentinelvault/sentinelvault/pkg/crypto"
	"github.com/sentinelvault/sentinelvault/pkg/vault"

	"github.com/spf13/cobra"
)

// User command flags
var (
	userHighSecurity bool
	userWipeSet      bool
	userQuestion     string
	userAnswer       string
	userBackupFreq   string
	userMaxBackups   int
	userPurgeEntries bool
)

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userShowCmd)
	userCmd.AddCommand(userDeleteCmd)
	userCmd.AddCommand(userSetCmd)

	userAddCmd.Flags().BoolVar(&userHighSecurity, "high-security", false, "Use stronger key derivation for this account")
	userAddCmd.Flags().BoolVar(&userWipeSet, "wipe", false, "Enable destructive account wipe policy")
	userAddCmd.Flags().StringVar(&userQuestion, "security-question", "", "Security question")
	userAddCmd.Flags().StringVar(&userAnswer, "security-answer", "", "Security answer")
	userAddCmd.Flags().StringVar(&userBackupFreq, "backup-frequency", "", "Backup frequency (hourly, daily, weekly, monthly, never)")
	userAddCmd.Flags().IntVar(&userMaxBackups, "max-backup-size", 0, "Maximum number of backups to keep")

	userDeleteCmd.Flags().BoolVar(&userPurgeEntries, "purge-entries", false, "Delete the account's entries first")
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage vault accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Create a vault account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]

		password, err := promptNewPassword()
		if err != nil {
			return err
		}

		salt, err := crypto.NewSalt()
		if err != nil {
			return err
		}
		dataKey, err := engine.DataKey("", []byte(password), userHighSecurity)
		if err != nil {
			return err
		}

		backupFreq := userBackupFreq
		if backupFreq == "" {
			backupFreq = cfg.Backup.Frequency
		}
		maxBackups := userMaxBackups
		if maxBackups == 0 {
			maxBackups = cfg.Backup.MaxBackups
		}

		u := &vault.User{
			Email:            email,
			PasswordHash:     crypto.HashPassword(password, salt, userHighSecurity),
			PasswordSalt:     fmt.Sprintf("%x", salt),
			DataKey:          dataKey,
			SecurityQuestion: userQuestion,
			SecurityAnswer:   userAnswer,
			LastLogin:        time.Now().UTC(),
			HighSecurity:     userHighSecurity,
			AccountWipeSet:   userWipeSet,
			BackupFrequency:  backupFreq,
			MaxBackupSize:    maxBackups,
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.AddUser(u); err != nil {
			if errors.Is(err, vault.ErrDuplicateUser) {
				return fmt.Errorf("account %s already exists", email)
			}
			return err
		}
		fmt.Printf("Account %s created\n", email)
		return nil
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show <email>",
	Short: "Show a vault account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		u, err := s.RetrieveUser(args[0])
		if errors.Is(err, vault.ErrUserNotFound) {
			return fmt.Errorf("account %s not found", args[0])
		}
		if err != nil {
			return err
		}

		fmt.Printf("Email:            %s\n", u.Email)
		fmt.Printf("Last login:       %s\n", u.LastLogin.Format(time.RFC3339))
		fmt.Printf("High security:    %v\n", u.HighSecurity)
		fmt.Printf("Account wipe:     %v\n", u.AccountWipeSet)
		fmt.Printf("Backup frequency: %s\n", u.BackupFrequency)
		fmt.Printf("Max backups:      %d\n", u.MaxBackupSize)
		if u.SecurityQuestion != "" {
			fmt.Printf("Security question: %s\n", u.SecurityQuestion)
		}

		names, err := s.EntryNames(u.Email)
		if err != nil {
			return err
		}
		fmt.Printf("Entries:          %d\n", len(names))
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <email>",
	Short: "Delete a vault account",
	Long: `Delete a vault account. The account's entries must be removed
first; pass --purge-entries to delete them in the same run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		names, err := s.EntryNames(email)
		if err != nil {
			return err
		}
		if len(names) > 0 {
			if !userPurgeEntries {
				return fmt.Errorf("account %s still owns %d entries; delete them or pass --purge-entries", email, len(names))
			}
			n, err := s.DeleteAllEntries(email)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d entries\n", n)
		}

		deleted, err := s.DeleteUser(email)
		if err != nil {
			return err
		}
		if !deleted {
			fmt.Printf("Account %s did not exist\n", email)
			return nil
		}
		fmt.Printf("Account %s deleted\n", email)
		return nil
	},
}

var userSetCmd = &cobra.Command{
	Use:   "set <email> <field> <value>",
	Short: "Update one account field",
	Long: `Update a single account field. Recognized fields: password_hash,
password_salt, data_key, security_question, security_answer, last_login,
high_security, account_wipe_set, backup_frequency, max_backup_size.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, field, raw := args[0], args[1], args[2]

		var value any = raw
		switch field {
		case "high_security", "account_wipe_set":
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("field %s wants true or false: %w", field, err)
			}
			value = b
		case "max_backup_size":
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("field %s wants an integer: %w", field, err)
			}
			value = n
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.ModifyUserField(email, field, value); err != nil {
			if errors.Is(err, vault.ErrInvalidFieldName) {
				return fmt.Errorf("unknown field %q", field)
			}
			if errors.Is(err, vault.ErrUserNotFound) {
				return fmt.Errorf("account %s not found", email)
			}
			return err
		}
		fmt.Printf("Updated %s for %s\n", field, email)
		return nil
	},
}
