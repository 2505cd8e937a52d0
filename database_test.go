package main

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndLookupPlayer(t *testing.T) {
	db := openTestDB(t)

	id, err := db.CreatePlayer("ava", "hash")
	if err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	row, err := db.GetPlayerByUsername("ava")
	if err != nil {
		t.Fatalf("GetPlayerByUsername: %v", err)
	}
	if row.ID != id || row.Username != "ava" || row.IsGuest {
		t.Errorf("row mismatch: %+v", row)
	}

	if _, err := db.CreatePlayer("ava", "hash"); err == nil {
		t.Error("duplicate username should fail")
	}

	exists, err := db.UsernameExists("ava")
	if err != nil || !exists {
		t.Errorf("UsernameExists(ava) = (%v, %v)", exists, err)
	}
	exists, _ = db.UsernameExists("nobody")
	if exists {
		t.Error("UsernameExists(nobody) = true")
	}
}

func TestCreateGuest(t *testing.T) {
	db := openTestDB(t)
	id, err := db.CreateGuest("Pilot_ab12")
	if err != nil {
		t.Fatalf("CreateGuest: %v", err)
	}
	row, err := db.GetPlayerByUsername("Pilot_ab12")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if row.ID != id || !row.IsGuest {
		t.Errorf("guest row mismatch: %+v", row)
	}
}

func TestRecordResultAggregates(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreatePlayer("ava", "hash")

	for _, o := range []MatchOutcome{ResultWin, ResultWin, ResultLoss, ResultDraw} {
		if err := db.RecordResult(id, o); err != nil {
			t.Fatalf("RecordResult: %v", err)
		}
	}
	stats, err := db.GetStats(id)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Wins != 2 || stats.Losses != 1 || stats.Games != 4 {
		t.Errorf("stats %d/%d/%d, want 2/1/4", stats.Wins, stats.Losses, stats.Games)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	if v := db.GetSetting("jwt_secret"); v != "" {
		t.Errorf("unset key returned %q", v)
	}
	if err := db.SetSetting("jwt_secret", "aa"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := db.SetSetting("jwt_secret", "bb"); err != nil {
		t.Fatalf("SetSetting upsert: %v", err)
	}
	if v := db.GetSetting("jwt_secret"); v != "bb" {
		t.Errorf("got %q, want bb", v)
	}
}

func TestStatsWriterApplies(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreatePlayer("ava", "hash")

	w := NewStatsWriter(db)
	w.Record(id, ResultWin)
	w.Record(id, ResultLoss)
	w.Stop() // drains the queue before returning

	stats, err := db.GetStats(id)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Wins != 1 || stats.Losses != 1 || stats.Games != 2 {
		t.Errorf("stats %d/%d/%d after writer", stats.Wins, stats.Losses, stats.Games)
	}
}
