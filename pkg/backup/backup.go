// Package backup provides local vault database backups: timestamped
// copies with rotation bounded by the account's max-backup preference.
// Backups copy the database file as-is; entry fields inside it are
// already encrypted, so no plaintext ever lands in a backup.
package backup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// FileMode restricts backups to the owner.
	FileMode = 0o600
	// DirMode restricts the backup directory to the owner.
	DirMode = 0o700

	prefix    = "vault-"
	suffix    = ".db"
	stampForm = "20060102-150405"
)

// ErrNoSource indicates the vault database does not exist yet.
var ErrNoSource = errors.New("backup: vault database not found")

// Create copies the vault database at dbPath into dir under a timestamped
// name and returns the backup's path.
func Create(dbPath, dir string) (string, error) {
	src, err := os.Open(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoSource
		}
		return "", fmt.Errorf("backup: failed to open database: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(dir, DirMode); err != nil {
		return "", fmt.Errorf("backup: failed to create backup directory: %w", err)
	}

	stamp := time.Now().UTC().Format(stampForm)
	name := prefix + stamp + suffix
	path := filepath.Join(dir, name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, FileMode)
	for n := 2; errors.Is(err, os.ErrExist); n++ {
		// Same-second backup; disambiguate the name.
		name = fmt.Sprintf("%s%s.%d%s", prefix, stamp, n, suffix)
		path = filepath.Join(dir, name)
		dst, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, FileMode)
	}
	if err != nil {
		return "", fmt.Errorf("backup: failed to create %s: %w", name, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("backup: failed to copy database: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("backup: failed to finish %s: %w", name, err)
	}
	return path, nil
}

// List returns existing backup paths in dir, newest first. A missing
// directory yields an empty list.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("backup: failed to read backup directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	// Timestamped names sort chronologically; reverse for newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}

// Prune deletes all but the newest max backups and returns the number
// removed. max <= 0 removes nothing.
func Prune(dir string, max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}
	paths, err := List(dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, path := range paths[minInt(max, len(paths)):] {
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("backup: failed to remove %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
