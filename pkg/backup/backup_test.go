package backup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeDB(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "vault.db")
	if err := os.WriteFile(path, []byte("sqlite-bytes"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func TestCreateCopiesDatabase(t *testing.T) {
	tmp := t.TempDir()
	dbPath := writeDB(t, tmp)
	dir := filepath.Join(tmp, "backups")

	path, err := Create(dbPath, dir)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read backup failed: %v", err)
	}
	if string(data) != "sqlite-bytes" {
		t.Errorf("backup content differs: %q", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != FileMode {
		t.Errorf("expected %04o permissions, got %04o", FileMode, perm)
	}
}

func TestCreateMissingSource(t *testing.T) {
	tmp := t.TempDir()
	_, err := Create(filepath.Join(tmp, "nope.db"), filepath.Join(tmp, "backups"))
	if !errors.Is(err, ErrNoSource) {
		t.Errorf("expected ErrNoSource, got %v", err)
	}
}

func TestCreateSameSecond(t *testing.T) {
	tmp := t.TempDir()
	dbPath := writeDB(t, tmp)
	dir := filepath.Join(tmp, "backups")

	a, err := Create(dbPath, dir)
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	b, err := Create(dbPath, dir)
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if a == b {
		t.Error("two backups share a path")
	}
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"vault-20260101-000000.db",
		"vault-20260301-000000.db",
		"vault-20260201-000000.db",
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o600); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	// Unrelated files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	paths, err := List(dir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(paths))
	}
	if filepath.Base(paths[0]) != "vault-20260301-000000.db" {
		t.Errorf("newest not first: %v", paths)
	}
	if filepath.Base(paths[2]) != "vault-20260101-000000.db" {
		t.Errorf("oldest not last: %v", paths)
	}
}

func TestListMissingDir(t *testing.T) {
	paths, err := List(filepath.Join(t.TempDir(), "none"))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("expected empty list, got %v", paths)
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"vault-20260101-000000.db",
		"vault-20260201-000000.db",
		"vault-20260301-000000.db",
		"vault-20260401-000000.db",
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o600); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	removed, err := Prune(dir, 2)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	paths, err := List(dir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 remaining, got %d", len(paths))
	}
	if filepath.Base(paths[0]) != "vault-20260401-000000.db" ||
		filepath.Base(paths[1]) != "vault-20260301-000000.db" {
		t.Errorf("wrong backups kept: %v", paths)
	}
}

func TestPruneNonPositiveMax(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "vault-20260101-000000.db"), nil, 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	removed, err := Prune(dir, 0)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected nothing removed, got %d", removed)
	}
}
