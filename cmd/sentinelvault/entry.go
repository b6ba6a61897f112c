package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sentinelvault/sentinelvault/pkg/password"
	"github.com/sentinelvault/sentinelvault/pkg/vault"

	"github.com/spf13/cobra"
)

// Entry command flags
var (
	entryType     string
	entrySecure   bool
	entryShare    []string
	entryFields   []string
	entryGenerate bool
	entryRename   string
	entryTypes    bool
)

func init() {
	rootCmd.AddCommand(entryCmd)
	entryCmd.AddCommand(entryAddCmd)
	entryCmd.AddCommand(entryGetCmd)
	entryCmd.AddCommand(entryListCmd)
	entryCmd.AddCommand(entryUpdateCmd)
	entryCmd.AddCommand(entryDeleteCmd)

	entryAddCmd.Flags().StringVar(&entryType, "type", "password", "Entry type")
	entryAddCmd.Flags().BoolVar(&entrySecure, "secure", false, "Use a stronger encryption key for this entry")
	entryAddCmd.Flags().StringSliceVar(&entryShare, "share", nil, "Grant read access to an account (repeatable)")
	entryAddCmd.Flags().StringSliceVar(&entryFields, "field", nil, "Set a field slot as index=value, 1-10 (repeatable)")
	entryAddCmd.Flags().BoolVar(&entryGenerate, "generate", false, "Generate a password into the first field slot")

	entryGetCmd.Flags().StringVar(&entryType, "type", "password", "Entry type")

	entryListCmd.Flags().BoolVar(&entryTypes, "types", false, "List entry types instead of names")

	entryUpdateCmd.Flags().StringVar(&entryType, "type", "password", "Entry type")
	entryUpdateCmd.Flags().StringVar(&entryRename, "rename", "", "New entry name")
	entryUpdateCmd.Flags().StringSliceVar(&entryFields, "field", nil, "Set a field slot as index=value, 1-10 (repeatable)")

	entryDeleteCmd.Flags().StringVar(&entryType, "type", "password", "Entry type")
}

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Manage secret entries",
}

// parseFieldFlags turns repeated index=value flags into slot assignments.
// Indexes are 1-based to match the stored column names.
func parseFieldFlags(flags []string) (map[int]string, error) {
	out := make(map[int]string, len(flags))
	for _, f := range flags {
		idx, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("field %q is not index=value", f)
		}
		i, err := strconv.Atoi(idx)
		if err != nil || i < 1 || i > vault.FieldCount {
			return nil, fmt.Errorf("field index %q must be 1 to %d", idx, vault.FieldCount)
		}
		out[i] = value
	}
	return out, nil
}

var entryAddCmd = &cobra.Command{
	Use:   "add <owner> <name>",
	Short: "Create a secret entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, name := args[0], args[1]

		fields, err := parseFieldFlags(entryFields)
		if err != nil {
			return err
		}

		e := vault.NewEntry(name, entryType, owner)
		e.SecureEntry = entrySecure
		e.ValidUsers = vault.Grantees(entryShare)
		for i, v := range fields {
			e.Fields[i-1] = v
		}
		if entryGenerate {
			pw, err := password.Generate(password.DefaultPolicy())
			if err != nil {
				return err
			}
			e.Fields[0] = pw
			fmt.Printf("Generated password: %s\n", pw)
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if _, err := s.RetrieveUser(owner); err != nil {
			if errors.Is(err, vault.ErrUserNotFound) {
				return fmt.Errorf("account %s not found", owner)
			}
			return err
		}

		if err := s.AddEntry(e); err != nil {
			if errors.Is(err, vault.ErrDuplicateEntry) {
				return fmt.Errorf("entry %s already exists for %s", name, owner)
			}
			return err
		}
		fmt.Printf("Entry %s created for %s\n", name, owner)
		return nil
	},
}

var entryGetCmd = &cobra.Command{
	Use:   "get <owner> <name>",
	Short: "Show a secret entry with decrypted fields",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, name := args[0], args[1]

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.RetrieveEntry(name, owner, entryType)
		if errors.Is(err, vault.ErrEntryNotFound) {
			return fmt.Errorf("entry %s not found for %s", name, owner)
		}
		if err != nil {
			return err
		}
		if err := s.DecryptFields(e); err != nil {
			return err
		}

		fmt.Printf("Name:     %s\n", e.Name)
		fmt.Printf("Type:     %s\n", e.Type)
		fmt.Printf("Owner:    %s\n", e.Owner)
		fmt.Printf("Modified: %s\n", e.LastModified.Format(time.RFC3339))
		if len(e.ValidUsers) > 0 {
			fmt.Printf("Shared:   %s\n", e.ValidUsers.String())
		}
		for i, v := range e.Fields {
			if v == vault.FieldUnset || v == "" {
				continue
			}
			fmt.Printf("Field %d:  %s\n", i+1, v)
		}
		return nil
	},
}

var entryListCmd = &cobra.Command{
	Use:   "list <owner>",
	Short: "List an account's entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		var items []string
		if entryTypes {
			items, err = s.EntryTypes(args[0])
		} else {
			items, err = s.EntryNames(args[0])
		}
		if err != nil {
			return err
		}
		for _, it := range items {
			fmt.Println(it)
		}
		return nil
	},
}

var entryUpdateCmd = &cobra.Command{
	Use:   "update <owner> <name>",
	Short: "Update a secret entry's fields or name",
	Long: `Update a secret entry. Changed field slots are re-encrypted under
the entry's existing key; --rename moves the entry to a new name and
fails if an entry with that name already exists for the owner.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, name := args[0], args[1]

		fields, err := parseFieldFlags(entryFields)
		if err != nil {
			return err
		}
		if len(fields) == 0 && entryRename == "" {
			return fmt.Errorf("nothing to update; pass --field or --rename")
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		old, err := s.RetrieveEntry(name, owner, entryType)
		if errors.Is(err, vault.ErrEntryNotFound) {
			return fmt.Errorf("entry %s not found for %s", name, owner)
		}
		if err != nil {
			return err
		}

		updated := *old
		if entryRename != "" {
			updated.Name = entryRename
		}
		for i, v := range fields {
			if v == "" {
				updated.Fields[i-1] = vault.FieldUnset
				continue
			}
			enc, err := engine.EncryptField(old.EncryptionKey, v)
			if err != nil {
				return err
			}
			updated.Fields[i-1] = enc
		}

		if err := s.UpdateEntry(old, &updated); err != nil {
			if errors.Is(err, vault.ErrDuplicateEntry) {
				return fmt.Errorf("entry %s already exists for %s", entryRename, owner)
			}
			return err
		}
		fmt.Printf("Entry %s updated\n", updated.Name)
		return nil
	},
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete <owner> <name>",
	Short: "Delete a secret entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, name := args[0], args[1]

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.RetrieveEntry(name, owner, entryType)
		if errors.Is(err, vault.ErrEntryNotFound) {
			return fmt.Errorf("entry %s not found for %s", name, owner)
		}
		if err != nil {
			return err
		}

		deleted, err := s.DeleteEntry(e)
		if err != nil {
			return err
		}
		if !deleted {
			fmt.Printf("Entry %s did not exist\n", name)
			return nil
		}
		fmt.Printf("Entry %s deleted\n", name)
		return nil
	},
}
