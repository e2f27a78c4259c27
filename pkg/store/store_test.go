package store

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndListMatches(t *testing.T) {
	db := openTestDB(t)

	id, err := db.RecordMatch("g1", "alice", []string{"alice", "bob"}, 42, 310.5)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if id == 0 {
		t.Error("expected a nonzero row id")
	}
	if _, err := db.RecordMatch("g1", "bob", []string{"alice", "bob", "carol"}, 71, 512.0); err != nil {
		t.Fatalf("record: %v", err)
	}

	matches, err := db.RecentMatches(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	// Newest first.
	if matches[0].Winner != "bob" || matches[1].Winner != "alice" {
		t.Errorf("unexpected order: %s, %s", matches[0].Winner, matches[1].Winner)
	}
	m := matches[1]
	if m.Prefix != "g1" || m.Shots != 42 || m.Duration != 310.5 {
		t.Errorf("unexpected record %+v", m)
	}
	if len(m.Players) != 2 || m.Players[0] != "alice" || m.Players[1] != "bob" {
		t.Errorf("unexpected roster %v", m.Players)
	}
	if m.CreatedAt.IsZero() {
		t.Error("expected a creation timestamp")
	}
}

func TestRecentMatchesLimit(t *testing.T) {
	db := openTestDB(t)
	for i := 0; i < 5; i++ {
		if _, err := db.RecordMatch("g1", "alice", []string{"alice", "bob"}, i, 1); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	matches, err := db.RecentMatches(3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(matches) != 3 {
		t.Errorf("expected 3 matches, got %d", len(matches))
	}
}

func TestRecentMatchesEmpty(t *testing.T) {
	db := openTestDB(t)
	matches, err := db.RecentMatches(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}
}
