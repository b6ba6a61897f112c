// Package vault implements the sentinelvault persistence and access-control
// engine: the SQLite schema, transactional user and entry repositories,
// per-entry encryption-key lifecycle, and resolution of which entries a
// user may view (owned plus shared).
//
// Field encryption is delegated to a Cipher; the store never writes
// plaintext field slots.
package vault

import (
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "modernc.org/sqlite"
)

// SQLite extended result codes for unique-constraint violations.
const (
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// Sentinel errors returned by store operations.
var (
	// ErrDuplicateUser indicates the email is already registered.
	ErrDuplicateUser = errors.New("vault: user already exists")

	// ErrDuplicateEntry indicates the (owner, entry name) pair is taken.
	ErrDuplicateEntry = errors.New("vault: entry name already exists for this owner")

	// ErrUserNotFound indicates no user row matched the email.
	ErrUserNotFound = errors.New("vault: user not found")

	// ErrEntryNotFound indicates no entry row matched all predicates.
	ErrEntryNotFound = errors.New("vault: entry not found")

	// ErrMalformedRecord indicates a stored timestamp or grantee list that
	// fails to parse; the record cannot be reconstructed.
	ErrMalformedRecord = errors.New("vault: malformed record")

	// ErrInvalidFieldName indicates a field-update column identifier outside
	// the allow-list. Rejected before any SQL is built.
	ErrInvalidFieldName = errors.New("vault: invalid field name")
)

// Cipher is the cryptographic engine surface the store depends on. The
// store calls it as a black box and persists only its output.
type Cipher interface {
	// NewEntryKey returns fresh per-entry key material sized by tier.
	NewEntryKey(secure bool) (string, error)
	// EncryptField encrypts one plaintext field slot under entry key material.
	EncryptField(entryKey, plaintext string) (string, error)
	// DecryptField reverses EncryptField.
	DecryptField(entryKey, stored string) (string, error)
}

// Store is the vault persistence engine. Operations are synchronous and
// each runs as a single scoped transaction. Only one logical writer is
// assumed at a time; the unique constraints in the schema remain the
// authoritative duplicate detectors under concurrent callers.
type Store struct {
	db     *sql.DB
	cipher Cipher
}

// Open opens (creating if absent) the vault database at path and ensures
// the schema exists. The path is explicit configuration, never global state.
func Open(path string, cipher Cipher) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("vault: failed to open database: %w", err)
	}

	// Single-connection mode avoids "database is locked" errors; concurrent
	// access is out of contract anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("vault: failed to reach database: %w", err)
	}

	s := &Store{db: db, cipher: cipher}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs op inside one transaction: commit on normal return, rollback
// and surface the error otherwise. The deferred Rollback is a no-op after
// a successful commit, so the connection is released on every exit path.
func (s *Store) withTx(op func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("vault: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := op(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("vault: failed to commit transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique or primary-key
// constraint failure. Callers treat it as the authoritative duplicate-key
// signal; the pre-insert existence checks are only a fast path.
func isUniqueViolation(err error) bool {
	var se *sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqliteConstraintPrimaryKey || se.Code() == sqliteConstraintUnique
}
