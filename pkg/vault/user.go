package vault

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// timeLayout is the ISO-8601 form used for all persisted timestamps.
const timeLayout = time.RFC3339

// User is one vault account. PasswordHash, PasswordSalt and DataKey are
// opaque to the store; a plaintext password never reaches it.
type User struct {
	Email            string
	PasswordHash     string
	PasswordSalt     string
	DataKey          string
	SecurityQuestion string
	SecurityAnswer   string
	LastLogin        time.Time
	HighSecurity     bool
	AccountWipeSet   bool
	BackupFrequency  string
	MaxBackupSize    int
}

// userColumns is the closed allow-list for ModifyUserField. Only these
// identifiers may ever be spliced into an UPDATE statement.
var userColumns = map[string]bool{
	"password_hash":     true,
	"password_salt":     true,
	"data_key":          true,
	"security_question": true,
	"security_answer":   true,
	"last_login":        true,
	"high_security":     true,
	"account_wipe_set":  true,
	"backup_frequency":  true,
	"max_backup_size":   true,
}

// AddUser inserts a new account in one transaction. Returns
// ErrDuplicateUser if the email is already registered; the primary-key
// constraint backs the pre-insert check, so a concurrent creator losing
// the race still gets ErrDuplicateUser rather than a raw driver error.
func (s *Store) AddUser(u *User) error {
	return s.withTx(func(tx *sql.Tx) error {
		var n int
		err := tx.QueryRow(`SELECT COUNT(*) FROM users WHERE user_email = ?`, u.Email).Scan(&n)
		if err != nil {
			return fmt.Errorf("vault: failed to check for existing user: %w", err)
		}
		if n != 0 {
			return ErrDuplicateUser
		}

		_, err = tx.Exec(`
			INSERT INTO users (
				user_email, password_hash, password_salt, data_key,
				security_question, security_answer, last_login,
				high_security, account_wipe_set, backup_frequency, max_backup_size
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			u.Email, u.PasswordHash, u.PasswordSalt, u.DataKey,
			u.SecurityQuestion, u.SecurityAnswer, u.LastLogin.Format(timeLayout),
			boolToInt(u.HighSecurity), boolToInt(u.AccountWipeSet),
			u.BackupFrequency, u.MaxBackupSize,
		)
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		if err != nil {
			return fmt.Errorf("vault: failed to insert user: %w", err)
		}
		return nil
	})
}

// DeleteUser removes an account row. Deleting an absent user is not an
// error; the returned status reports whether a row matched. Callers must
// run DeleteAllEntries for the account first, per the referential-cleanup
// convention (the schema has no cascade).
func (s *Store) DeleteUser(email string) (bool, error) {
	var deleted bool
	err := s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM users WHERE user_email = ?`, email)
		if err != nil {
			return fmt.Errorf("vault: failed to delete user: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("vault: failed to get rows affected: %w", err)
		}
		deleted = n > 0
		return nil
	})
	return deleted, err
}

// RetrieveUser reconstructs a full account record. Returns ErrUserNotFound
// on a lookup miss and ErrMalformedRecord if the stored last_login cannot
// be parsed; the two stay distinguishable.
func (s *Store) RetrieveUser(email string) (*User, error) {
	var (
		u                             User
		salt, dataKey, question       sql.NullString
		answer, lastLogin, backupFreq sql.NullString
		high, wipe, maxBackup         sql.NullInt64
	)
	err := s.db.QueryRow(`
		SELECT password_hash, password_salt, data_key, security_question,
		       security_answer, last_login, high_security, account_wipe_set,
		       backup_frequency, max_backup_size
		FROM users WHERE user_email = ?`, email,
	).Scan(&u.PasswordHash, &salt, &dataKey, &question, &answer, &lastLogin,
		&high, &wipe, &backupFreq, &maxBackup)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vault: failed to read user: %w", err)
	}

	u.Email = email
	u.PasswordSalt = salt.String
	u.DataKey = dataKey.String
	u.SecurityQuestion = question.String
	u.SecurityAnswer = answer.String
	u.HighSecurity = high.Int64 != 0
	u.AccountWipeSet = wipe.Int64 != 0
	u.BackupFrequency = backupFreq.String
	u.MaxBackupSize = int(maxBackup.Int64)

	if lastLogin.Valid && lastLogin.String != "" {
		t, err := time.Parse(timeLayout, lastLogin.String)
		if err != nil {
			return nil, fmt.Errorf("%w: last_login %q: %v", ErrMalformedRecord, lastLogin.String, err)
		}
		u.LastLogin = t
	}
	return &u, nil
}

// ModifyUserField updates a single column for an account. The column
// identifier must come from the closed allow-list; anything else is
// rejected with ErrInvalidFieldName before any SQL is built. Returns
// ErrUserNotFound if no row matched.
func (s *Store) ModifyUserField(email, field string, value any) error {
	if !userColumns[field] {
		return fmt.Errorf("%w: %q", ErrInvalidFieldName, field)
	}
	if t, ok := value.(time.Time); ok {
		value = t.Format(timeLayout)
	}
	if b, ok := value.(bool); ok {
		value = boolToInt(b)
	}

	return s.withTx(func(tx *sql.Tx) error {
		// The column name is vetted above; only the value is caller data.
		res, err := tx.Exec(`UPDATE users SET `+field+` = ? WHERE user_email = ?`, value, email)
		if err != nil {
			return fmt.Errorf("vault: failed to update user field: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("vault: failed to get rows affected: %w", err)
		}
		if n == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
