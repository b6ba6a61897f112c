package vault

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// FieldCount is the fixed number of data field slots per entry.
const FieldCount = 10

// FieldUnset is the sentinel persisted in unused field slots. Slots are
// never NULL, so round-trip equality stays well-defined. Sentinel slots
// pass through encryption untouched.
const FieldUnset = "<unset>"

// Entry is one secret record. Fields holds exactly ten ordered slots;
// after AddEntry they contain the encrypted representation that was
// persisted.
type Entry struct {
	Name          string
	Type          string
	EncryptionKey string
	Owner         string
	ValidUsers    Grantees
	SecureEntry   bool
	LastModified  time.Time
	Fields        [FieldCount]string
}

// NewEntry returns an entry with every field slot explicitly unset.
func NewEntry(name, entryType, owner string) *Entry {
	e := &Entry{Name: name, Type: entryType, Owner: owner}
	for i := range e.Fields {
		e.Fields[i] = FieldUnset
	}
	return e
}

// entryColumns is the SELECT column list shared by the retrieval queries.
const entryColumns = `entry_name, entry_type, encryption_key, owner, valid_users,
	secure_entry, last_modified,
	data_field_1, data_field_2, data_field_3, data_field_4, data_field_5,
	data_field_6, data_field_7, data_field_8, data_field_9, data_field_10`

// AddEntry creates a secret record for its owner. In order: a fresh
// encryption key is generated (sized per the entry's tier), every set
// field slot is encrypted under it, then uniqueness of (owner, name) is
// checked and the row inserted in one transaction. Plaintext never
// reaches the store. On return the entry holds the persisted
// representation. Fails with ErrDuplicateEntry on a name collision; the
// unique index remains authoritative under racing creators.
func (s *Store) AddEntry(e *Entry) error {
	key, err := s.cipher.NewEntryKey(e.SecureEntry)
	if err != nil {
		return fmt.Errorf("vault: failed to obtain entry key: %w", err)
	}
	e.EncryptionKey = key

	for i, v := range e.Fields {
		if v == "" {
			e.Fields[i] = FieldUnset
			continue
		}
		if v == FieldUnset {
			continue
		}
		enc, err := s.cipher.EncryptField(key, v)
		if err != nil {
			return fmt.Errorf("vault: failed to encrypt field %d: %w", i+1, err)
		}
		e.Fields[i] = enc
	}

	e.ValidUsers = e.ValidUsers.normalized()
	e.LastModified = time.Now().UTC().Truncate(time.Second)

	return s.withTx(func(tx *sql.Tx) error {
		var n int
		err := tx.QueryRow(`SELECT COUNT(*) FROM data_entries WHERE entry_name = ? AND owner = ?`,
			e.Name, e.Owner).Scan(&n)
		if err != nil {
			return fmt.Errorf("vault: failed to check for existing entry: %w", err)
		}
		if n != 0 {
			return ErrDuplicateEntry
		}

		args := []any{
			e.Name, e.Type, e.EncryptionKey, e.Owner, e.ValidUsers.String(),
			boolToInt(e.SecureEntry), e.LastModified.Format(timeLayout),
		}
		for _, f := range e.Fields {
			args = append(args, f)
		}
		_, err = tx.Exec(`
			INSERT INTO data_entries (`+entryColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
		if isUniqueViolation(err) {
			return ErrDuplicateEntry
		}
		if err != nil {
			return fmt.Errorf("vault: failed to insert entry: %w", err)
		}
		return nil
	})
}

// UpdateEntry rewrites the row identified by the old (name, owner) key
// with the new entry's name, field slots and grantee list. On a rename
// the new (owner, name) pair is re-validated first, so a collision fails
// with ErrDuplicateEntry and leaves the original row unchanged. Field
// values are persisted as supplied; the entry key is never regenerated
// and no re-encryption happens here (key rotation is out of scope).
func (s *Store) UpdateEntry(oldEntry, newEntry *Entry) error {
	grantees := newEntry.ValidUsers.normalized()
	modified := time.Now().UTC().Truncate(time.Second)

	err := s.withTx(func(tx *sql.Tx) error {
		if oldEntry.Name != newEntry.Name {
			var n int
			err := tx.QueryRow(`SELECT COUNT(*) FROM data_entries WHERE entry_name = ? AND owner = ?`,
				newEntry.Name, oldEntry.Owner).Scan(&n)
			if err != nil {
				return fmt.Errorf("vault: failed to check for existing entry: %w", err)
			}
			if n != 0 {
				return ErrDuplicateEntry
			}
		}

		args := []any{newEntry.Name, grantees.String(), modified.Format(timeLayout)}
		for _, f := range newEntry.Fields {
			args = append(args, f)
		}
		args = append(args, oldEntry.Name, oldEntry.Owner)

		res, err := tx.Exec(`
			UPDATE data_entries SET entry_name = ?, valid_users = ?, last_modified = ?,
				data_field_1 = ?, data_field_2 = ?, data_field_3 = ?, data_field_4 = ?,
				data_field_5 = ?, data_field_6 = ?, data_field_7 = ?, data_field_8 = ?,
				data_field_9 = ?, data_field_10 = ?
			WHERE entry_name = ? AND owner = ?`, args...)
		if isUniqueViolation(err) {
			return ErrDuplicateEntry
		}
		if err != nil {
			return fmt.Errorf("vault: failed to update entry: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("vault: failed to get rows affected: %w", err)
		}
		if n == 0 {
			return ErrEntryNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	newEntry.ValidUsers = grantees
	newEntry.LastModified = modified
	return nil
}

// DeleteEntry removes the row keyed by the entry's (name, owner). The
// returned status reports whether a row matched; deleting an absent entry
// is not an error.
func (s *Store) DeleteEntry(e *Entry) (bool, error) {
	var deleted bool
	err := s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM data_entries WHERE entry_name = ? AND owner = ?`,
			e.Name, e.Owner)
		if err != nil {
			return fmt.Errorf("vault: failed to delete entry: %w", err)
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

// DeleteAllEntries removes every entry the owner holds and returns the
// number deleted. Must be invoked before deleting the owning user, per
// the referential-cleanup convention.
func (s *Store) DeleteAllEntries(owner string) (int, error) {
	var deleted int
	err := s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM data_entries WHERE owner = ?`, owner)
		if err != nil {
			return fmt.Errorf("vault: failed to delete entries: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("vault: failed to get rows affected: %w", err)
		}
		deleted = int(n)
		return nil
	})
	return deleted, err
}

// RetrieveEntry reconstructs one entry matching all three predicates.
// Returns ErrEntryNotFound on a miss; a row whose timestamp or grantee
// list fails to parse is ErrMalformedRecord, kept distinguishable.
func (s *Store) RetrieveEntry(name, owner, entryType string) (*Entry, error) {
	row := s.db.QueryRow(`
		SELECT `+entryColumns+`
		FROM data_entries
		WHERE entry_name = ? AND owner = ? AND entry_type = ?`,
		name, owner, entryType)

	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	return e, err
}

// EntriesForOwner returns every entry the user owns, in store order.
// Malformed rows are dropped from the result; their errors are joined
// into the returned error while the rest of the batch survives.
func (s *Store) EntriesForOwner(owner string) ([]*Entry, error) {
	rows, err := s.db.Query(`
		SELECT `+entryColumns+`
		FROM data_entries WHERE owner = ?`, owner)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to query entries: %w", err)
	}
	defer rows.Close()

	var (
		entries []*Entry
		badRow  error
	)
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			if errors.Is(err, ErrMalformedRecord) {
				badRow = errors.Join(badRow, err)
				continue
			}
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vault: error iterating rows: %w", err)
	}
	return entries, badRow
}

// EntryNames returns the names of every entry the user owns, in store
// order. Lightweight projection for listing UIs.
func (s *Store) EntryNames(owner string) ([]string, error) {
	return s.ownerProjection(`SELECT entry_name FROM data_entries WHERE owner = ?`, owner)
}

// EntryTypes returns the type of each entry the user owns, in store order.
func (s *Store) EntryTypes(owner string) ([]string, error) {
	return s.ownerProjection(`SELECT entry_type FROM data_entries WHERE owner = ?`, owner)
}

func (s *Store) ownerProjection(query, owner string) ([]string, error) {
	rows, err := s.db.Query(query, owner)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to query entries: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("vault: failed to scan row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vault: error iterating rows: %w", err)
	}
	return out, nil
}

// DecryptFields replaces the entry's encrypted field slots with their
// plaintext, using the entry's own key. Unset sentinel slots pass through
// untouched.
func (s *Store) DecryptFields(e *Entry) error {
	for i, v := range e.Fields {
		if v == FieldUnset || v == "" {
			continue
		}
		plain, err := s.cipher.DecryptField(e.EncryptionKey, v)
		if err != nil {
			return fmt.Errorf("vault: failed to decrypt field %d: %w", i+1, err)
		}
		e.Fields[i] = plain
	}
	return nil
}

// scanEntry reconstructs an entry from one row in entryColumns order.
func scanEntry(scan func(dest ...any) error) (*Entry, error) {
	var (
		e                             Entry
		key, validUsers, lastModified sql.NullString
		secure                        sql.NullInt64
		fields                        [FieldCount]sql.NullString
	)
	dest := []any{&e.Name, &e.Type, &key, &e.Owner, &validUsers, &secure, &lastModified}
	for i := range fields {
		dest = append(dest, &fields[i])
	}
	if err := scan(dest...); err != nil {
		return nil, err
	}

	e.EncryptionKey = key.String
	e.SecureEntry = secure.Int64 != 0
	for i, f := range fields {
		if !f.Valid {
			e.Fields[i] = FieldUnset
			continue
		}
		e.Fields[i] = f.String
	}

	g, err := ParseGrantees(validUsers.String)
	if err != nil {
		return nil, fmt.Errorf("entry %q: %w", e.Name, err)
	}
	e.ValidUsers = g

	if lastModified.Valid && lastModified.String != "" {
		t, err := time.Parse(timeLayout, lastModified.String)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q last_modified %q: %v", ErrMalformedRecord, e.Name, lastModified.String, err)
		}
		e.LastModified = t
	}
	return &e, nil
}
