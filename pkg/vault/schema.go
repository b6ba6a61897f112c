package vault

import "fmt"

// createTables ensures both vault tables and their uniqueness indexes
// exist. Idempotent; safe to run on every Open. Schema migration is out
// of scope.
func (s *Store) createTables() error {
	if err := s.createUsersTable(); err != nil {
		return err
	}
	return s.createEntriesTable()
}

// createUsersTable creates the users table. user_email is the primary key,
// making duplicate accounts a storage-level constraint violation.
func (s *Store) createUsersTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			user_email        TEXT PRIMARY KEY NOT NULL UNIQUE,
			password_hash     TEXT NOT NULL,
			password_salt     TEXT,
			data_key          TEXT,
			security_question TEXT,
			security_answer   TEXT,
			last_login        TEXT,
			high_security     INTEGER,
			account_wipe_set  INTEGER,
			backup_frequency  TEXT,
			max_backup_size   INTEGER
		)
	`)
	if err != nil {
		return fmt.Errorf("vault: failed to create users table: %w", err)
	}
	return nil
}

// createEntriesTable creates the data_entries table plus the unique index
// on (owner, entry_name) that backs rename-safe duplicate detection.
func (s *Store) createEntriesTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS data_entries (
			entry_name     TEXT NOT NULL,
			entry_type     TEXT NOT NULL,
			encryption_key TEXT,
			owner          TEXT NOT NULL,
			valid_users    TEXT,
			secure_entry   INTEGER,
			last_modified  TEXT,
			data_field_1   TEXT,
			data_field_2   TEXT,
			data_field_3   TEXT,
			data_field_4   TEXT,
			data_field_5   TEXT,
			data_field_6   TEXT,
			data_field_7   TEXT,
			data_field_8   TEXT,
			data_field_9   TEXT,
			data_field_10  TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("vault: failed to create data_entries table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_data_entries_owner_name
		ON data_entries(owner, entry_name)
	`)
	if err != nil {
		return fmt.Errorf("vault: failed to create entry uniqueness index: %w", err)
	}
	return nil
}
