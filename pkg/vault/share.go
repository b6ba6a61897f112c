package vault

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Grantees is the ordered set of emails granted shared read access to an
// entry. The slice is kept in ascending order on every write; membership
// tests rely on binary search over that order, not a linear scan.
type Grantees []string

// ParseGrantees reconstructs a grantee set from its persisted
// space-separated form. The stored list must already be in strictly
// ascending order; anything else is a malformed record.
func ParseGrantees(s string) (Grantees, error) {
	g := Grantees(strings.Fields(s))
	for i := 1; i < len(g); i++ {
		if g[i-1] >= g[i] {
			return nil, fmt.Errorf("%w: grantee list %q is not sorted", ErrMalformedRecord, s)
		}
	}
	return g, nil
}

// String serializes the set to its space-separated persisted form.
func (g Grantees) String() string {
	return strings.Join(g, " ")
}

// Contains reports membership via binary search.
func (g Grantees) Contains(email string) bool {
	i := sort.SearchStrings(g, email)
	return i < len(g) && g[i] == email
}

// Add returns the set with email granted access. Adding an existing
// grantee is a no-op; order is preserved.
func (g Grantees) Add(email string) Grantees {
	i := sort.SearchStrings(g, email)
	if i < len(g) && g[i] == email {
		return g
	}
	out := make(Grantees, 0, len(g)+1)
	out = append(out, g[:i]...)
	out = append(out, email)
	return append(out, g[i:]...)
}

// Remove returns the set with email's access revoked. Removing an absent
// grantee is a no-op.
func (g Grantees) Remove(email string) Grantees {
	i := sort.SearchStrings(g, email)
	if i >= len(g) || g[i] != email {
		return g
	}
	out := make(Grantees, 0, len(g)-1)
	out = append(out, g[:i]...)
	return append(out, g[i+1:]...)
}

// normalized returns a sorted, deduplicated copy with empty elements
// dropped. The repository serializes through this on every write so the
// persisted order is guaranteed regardless of what the caller built.
func (g Grantees) normalized() Grantees {
	out := make(Grantees, 0, len(g))
	for _, email := range g {
		if email != "" {
			out = append(out, email)
		}
	}
	sort.Strings(out)
	n := 0
	for i, email := range out {
		if i == 0 || out[n-1] != email {
			out[n] = email
			n++
		}
	}
	return out[:n]
}

// SharedEntriesVisibleTo scans every entry's grantee list and returns the
// names of entries shared with email, sorted alphabetically regardless of
// store iteration order. Rows with malformed grantee lists are skipped;
// their errors are joined into the returned error while the rest of the
// batch survives. O(entries x log(grantees)); no caching.
func (s *Store) SharedEntriesVisibleTo(email string) ([]string, error) {
	rows, err := s.db.Query(`SELECT entry_name, valid_users FROM data_entries`)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to query entries: %w", err)
	}
	defer rows.Close()

	var (
		names  []string
		badRow error
	)
	for rows.Next() {
		var name, validUsers string
		if err := rows.Scan(&name, &validUsers); err != nil {
			return nil, fmt.Errorf("vault: failed to scan row: %w", err)
		}
		g, err := ParseGrantees(validUsers)
		if err != nil {
			badRow = errors.Join(badRow, fmt.Errorf("entry %q: %w", name, err))
			continue
		}
		if g.Contains(email) {
			names = append(names, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vault: error iterating rows: %w", err)
	}

	sort.Strings(names)
	return names, badRow
}
