// Package crypto provides the cryptographic engine for sentinelvault.
package crypto

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func TestNewEntryKeySizes(t *testing.T) {
	e := NewEngine()

	standard, err := e.NewEntryKey(false)
	if err != nil {
		t.Fatalf("NewEntryKey(false) failed: %v", err)
	}
	raw, err := hex.DecodeString(standard)
	if err != nil {
		t.Fatalf("standard key is not hex: %v", err)
	}
	if len(raw) != StandardKeyLength {
		t.Errorf("expected %d-byte standard key, got %d", StandardKeyLength, len(raw))
	}

	secure, err := e.NewEntryKey(true)
	if err != nil {
		t.Fatalf("NewEntryKey(true) failed: %v", err)
	}
	raw, err = hex.DecodeString(secure)
	if err != nil {
		t.Fatalf("secure key is not hex: %v", err)
	}
	if len(raw) != SecureKeyLength {
		t.Errorf("expected %d-byte secure key, got %d", SecureKeyLength, len(raw))
	}
}

func TestNewEntryKeyUnique(t *testing.T) {
	e := NewEngine()
	a, err := e.NewEntryKey(true)
	if err != nil {
		t.Fatalf("NewEntryKey failed: %v", err)
	}
	b, err := e.NewEntryKey(true)
	if err != nil {
		t.Fatalf("NewEntryKey failed: %v", err)
	}
	if a == b {
		t.Error("two generated keys are identical")
	}
}

func TestEncryptDecryptField(t *testing.T) {
	e := NewEngine()
	for _, secure := range []bool{false, true} {
		key, err := e.NewEntryKey(secure)
		if err != nil {
			t.Fatalf("NewEntryKey failed: %v", err)
		}

		plaintext := "hunter2"
		stored, err := e.EncryptField(key, plaintext)
		if err != nil {
			t.Fatalf("EncryptField failed: %v", err)
		}
		if stored == plaintext {
			t.Error("ciphertext equals plaintext")
		}

		got, err := e.DecryptField(key, stored)
		if err != nil {
			t.Fatalf("DecryptField failed: %v", err)
		}
		if got != plaintext {
			t.Errorf("expected %q, got %q", plaintext, got)
		}
	}
}

func TestEncryptFieldNonceUnique(t *testing.T) {
	e := NewEngine()
	key, err := e.NewEntryKey(false)
	if err != nil {
		t.Fatalf("NewEntryKey failed: %v", err)
	}
	a, err := e.EncryptField(key, "same plaintext")
	if err != nil {
		t.Fatalf("EncryptField failed: %v", err)
	}
	b, err := e.EncryptField(key, "same plaintext")
	if err != nil {
		t.Fatalf("EncryptField failed: %v", err)
	}
	if a == b {
		t.Error("two encryptions of the same plaintext are identical")
	}
}

func TestDecryptFieldWrongKey(t *testing.T) {
	e := NewEngine()
	key, err := e.NewEntryKey(true)
	if err != nil {
		t.Fatalf("NewEntryKey failed: %v", err)
	}
	other, err := e.NewEntryKey(true)
	if err != nil {
		t.Fatalf("NewEntryKey failed: %v", err)
	}

	stored, err := e.EncryptField(key, "secret")
	if err != nil {
		t.Fatalf("EncryptField failed: %v", err)
	}
	if _, err := e.DecryptField(other, stored); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestDecryptFieldMalformed(t *testing.T) {
	e := NewEngine()
	key, err := e.NewEntryKey(false)
	if err != nil {
		t.Fatalf("NewEntryKey failed: %v", err)
	}

	if _, err := e.DecryptField(key, "not base64!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, err := e.DecryptField(key, "c2hvcnQ="); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("expected ErrCiphertextTooShort, got %v", err)
	}
	if _, err := e.DecryptField("zz", "c2hvcnQ="); !errors.Is(err, ErrMalformedKey) {
		t.Errorf("expected ErrMalformedKey, got %v", err)
	}
	if _, err := e.EncryptField(hex.EncodeToString([]byte("123")), "x"); !errors.Is(err, ErrMalformedKey) {
		t.Errorf("expected ErrMalformedKey for 3-byte key, got %v", err)
	}
}

func TestDataKeyDeriveThenFetch(t *testing.T) {
	e := NewEngine()

	derived, err := e.DataKey("", []byte("master-secret"), false)
	if err != nil {
		t.Fatalf("DataKey derive failed: %v", err)
	}
	parts := strings.Split(derived, ":")
	if len(parts) != 2 {
		t.Fatalf("expected salt:key material, got %q", derived)
	}
	if salt, err := hex.DecodeString(parts[0]); err != nil || len(salt) != SaltLength {
		t.Errorf("bad salt component %q: %v", parts[0], err)
	}
	if key, err := hex.DecodeString(parts[1]); err != nil || len(key) != SecureKeyLength {
		t.Errorf("bad key component %q: %v", parts[1], err)
	}

	// Fetch path returns stored material unchanged.
	fetched, err := e.DataKey(derived, []byte("ignored"), true)
	if err != nil {
		t.Fatalf("DataKey fetch failed: %v", err)
	}
	if fetched != derived {
		t.Errorf("expected stored material back, got %q", fetched)
	}
}

func TestHashPasswordDeterministic(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt failed: %v", err)
	}

	a := HashPassword("correct horse", salt, false)
	b := HashPassword("correct horse", salt, false)
	if a != b {
		t.Error("same password and salt produced different hashes")
	}

	if HashPassword("correct horse", salt, true) == a {
		t.Error("high-security hash should differ from standard hash")
	}
	if HashPassword("other", salt, false) == a {
		t.Error("different passwords produced the same hash")
	}
}

func TestSecureWipe(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	SecureWipe(b)
	for i, v := range b {
		if v != 0 {
			t.Errorf("byte %d not wiped: %d", i, v)
		}
	}
}
