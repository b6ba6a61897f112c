package main

import (
	"errors"
	"fmt"

	"github.com/sentinelvault/sentinelvault/pkg/vault"

	"github.com/spf13/cobra"
)

var shareEntryType string

func init() {
	rootCmd.AddCommand(shareCmd)
	shareCmd.AddCommand(shareGrantCmd)
	shareCmd.AddCommand(shareRevokeCmd)
	shareCmd.AddCommand(shareListCmd)

	shareCmd.PersistentFlags().StringVar(&shareEntryType, "type", "password", "Entry type")
}

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Manage entry sharing",
}

// mutateGrantees loads an entry, applies fn to its grantee list and
// persists the result.
func mutateGrantees(owner, name string, fn func(vault.Grantees) vault.Grantees) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	e, err := s.RetrieveEntry(name, owner, shareEntryType)
	if errors.Is(err, vault.ErrEntryNotFound) {
		return fmt.Errorf("entry %s not found for %s", name, owner)
	}
	if err != nil {
		return err
	}

	updated := *e
	updated.ValidUsers = fn(e.ValidUsers)
	return s.UpdateEntry(e, &updated)
}

var shareGrantCmd = &cobra.Command{
	Use:   "grant <owner> <entry> <email>",
	Short: "Grant an account read access to an entry",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, name, email := args[0], args[1], args[2]
		err := mutateGrantees(owner, name, func(g vault.Grantees) vault.Grantees {
			return g.Add(email)
		})
		if err != nil {
			return err
		}
		fmt.Printf("Granted %s access to %s\n", email, name)
		return nil
	},
}

var shareRevokeCmd = &cobra.Command{
	Use:   "revoke <owner> <entry> <email>",
	Short: "Revoke an account's access to an entry",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, name, email := args[0], args[1], args[2]
		err := mutateGrantees(owner, name, func(g vault.Grantees) vault.Grantees {
			return g.Remove(email)
		})
		if err != nil {
			return err
		}
		fmt.Printf("Revoked %s's access to %s\n", email, name)
		return nil
	},
}

var shareListCmd = &cobra.Command{
	Use:   "list <email>",
	Short: "List entries shared with an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		names, err := s.SharedEntriesVisibleTo(args[0])
		if err != nil && names == nil {
			return err
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: some records were skipped: %v\n", err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}
