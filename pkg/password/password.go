// Package password generates random secrets to a character-class policy.
// It is an independent utility: the vault engine consumes its output as an
// opaque string when a user chooses a generated secret.
package password

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Character set constants.
const (
	charsetLowercase = "abcdefghijklmnopqrstuvwxyz"
	charsetUppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	charsetDigits    = "0123456789"
	charsetSymbols   = "!@#$%^&*()-=_+[]{}|'\"\\/?:.~"

	// MinLength and MaxLength bound generated secrets.
	MinLength = 4
	MaxLength = 256

	// DefaultLength is used when a policy leaves Length zero.
	DefaultLength = 16
)

// Errors returned by Generate.
var (
	ErrEmptyCharset     = errors.New("password: policy enables no character classes")
	ErrLengthOutOfRange = fmt.Errorf("password: length must be between %d and %d", MinLength, MaxLength)
)

// Policy selects the character classes a generated secret draws from.
// Each enabled class is guaranteed at least one occurrence when the
// length allows.
type Policy struct {
	Length       int
	Upper        bool
	Lower        bool
	Digits       bool
	Symbols      bool
	AvoidRepeats bool // replace adjacent duplicate characters
}

// DefaultPolicy is a sensible all-classes policy.
func DefaultPolicy() Policy {
	return Policy{
		Length:  DefaultLength,
		Upper:   true,
		Lower:   true,
		Digits:  true,
		Symbols: true,
	}
}

// Generate produces a random secret per the policy using crypto/rand.
func Generate(p Policy) (string, error) {
	if p.Length == 0 {
		p.Length = DefaultLength
	}
	if p.Length < MinLength || p.Length > MaxLength {
		return "", ErrLengthOutOfRange
	}

	var classes []string
	if p.Lower {
		classes = append(classes, charsetLowercase)
	}
	if p.Upper {
		classes = append(classes, charsetUppercase)
	}
	if p.Digits {
		classes = append(classes, charsetDigits)
	}
	if p.Symbols {
		classes = append(classes, charsetSymbols)
	}
	if len(classes) == 0 {
		return "", ErrEmptyCharset
	}
	charset := strings.Join(classes, "")

	out := make([]byte, p.Length)
	for i := range out {
		c, err := randomChar(charset)
		if err != nil {
			return "", err
		}
		out[i] = c
	}

	// Guarantee one character of each enabled class, at distinct random
	// positions, when length permits.
	if p.Length >= len(classes) {
		positions, err := distinctPositions(len(classes), p.Length)
		if err != nil {
			return "", err
		}
		for i, class := range classes {
			c, err := randomChar(class)
			if err != nil {
				return "", err
			}
			out[positions[i]] = c
		}
	}

	if p.AvoidRepeats {
		if err := breakRepeats(out, charset); err != nil {
			return "", err
		}
	}
	return string(out), nil
}

// breakRepeats replaces each character that repeats its predecessor with a
// fresh draw that differs from both neighbors.
func breakRepeats(out []byte, charset string) error {
	if len(charset) < 3 {
		return nil // cannot guarantee a differing replacement
	}
	for i := 1; i < len(out); i++ {
		for out[i] == out[i-1] {
			c, err := randomChar(charset)
			if err != nil {
				return err
			}
			if i+1 < len(out) && c == out[i+1] {
				continue
			}
			out[i] = c
		}
	}
	return nil
}

// distinctPositions draws n distinct indexes in [0, limit).
func distinctPositions(n, limit int) ([]int, error) {
	positions := make([]int, 0, n)
	for len(positions) < n {
		idx, err := randomInt(limit)
		if err != nil {
			return nil, err
		}
		taken := false
		for _, p := range positions {
			if p == idx {
				taken = true
				break
			}
		}
		if !taken {
			positions = append(positions, idx)
		}
	}
	return positions, nil
}

func randomChar(charset string) (byte, error) {
	idx, err := randomInt(len(charset))
	if err != nil {
		return 0, err
	}
	return charset[idx], nil
}

func randomInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("password: failed to draw random number: %w", err)
	}
	return int(v.Int64()), nil
}
