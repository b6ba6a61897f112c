package main

import (
	"fmt"

	"github.com/sentinelvault/sentinelvault/pkg/password"

	"github.com/spf13/cobra"
)

// Generate command flags
var (
	genLength    int
	genNoUpper   bool
	genNoLower   bool
	genNoDigits  bool
	genNoSymbols bool
	genRepeats   bool
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().IntVarP(&genLength, "length", "l", password.DefaultLength, "Password length")
	generateCmd.Flags().BoolVar(&genNoUpper, "no-upper", false, "Exclude uppercase letters")
	generateCmd.Flags().BoolVar(&genNoLower, "no-lower", false, "Exclude lowercase letters")
	generateCmd.Flags().BoolVar(&genNoDigits, "no-digits", false, "Exclude digits")
	generateCmd.Flags().BoolVar(&genNoSymbols, "no-symbols", false, "Exclude symbols")
	generateCmd.Flags().BoolVar(&genRepeats, "allow-repeats", false, "Allow adjacent repeated characters")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random password",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := password.Policy{
			Length:       genLength,
			Upper:        !genNoUpper,
			Lower:        !genNoLower,
			Digits:       !genNoDigits,
			Symbols:      !genNoSymbols,
			AvoidRepeats: !genRepeats,
		}
		pw, err := password.Generate(p)
		if err != nil {
			return err
		}
		fmt.Println(pw)
		return nil
	},
}
