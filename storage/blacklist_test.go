package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestBlacklistMissingFileIsEmpty(t *testing.T) {
	store := NewBlacklistStore(filepath.Join(t.TempDir(), "BlacklistedUsers.json"))

	ids, err := store.All()
	if err != nil {
		t.Fatalf("All on missing file: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected empty blacklist, got %v", ids)
	}
}

func TestBlacklistAddRemove(t *testing.T) {
	store := NewBlacklistStore(filepath.Join(t.TempDir(), "BlacklistedUsers.json"))

	if err := store.Add("1"); err != nil {
		t.Fatalf("Add(1): %v", err)
	}
	if err := store.Add("2"); err != nil {
		t.Fatalf("Add(2): %v", err)
	}
	if err := store.Add("1"); !errors.Is(err, ErrAlreadyBlacklisted) {
		t.Errorf("duplicate Add = %v, want ErrAlreadyBlacklisted", err)
	}

	if ok, _ := store.Contains("2"); !ok {
		t.Error("Contains(2) = false after Add")
	}
	if ok, _ := store.Contains("3"); ok {
		t.Error("Contains(3) = true, never added")
	}

	if err := store.Remove("1"); err != nil {
		t.Fatalf("Remove(1): %v", err)
	}
	if err := store.Remove("1"); !errors.Is(err, ErrNotBlacklisted) {
		t.Errorf("second Remove = %v, want ErrNotBlacklisted", err)
	}

	ids, err := store.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "2" {
		t.Errorf("All = %v, want [2]", ids)
	}
}
