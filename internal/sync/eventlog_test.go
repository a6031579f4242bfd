package syncx

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/certdrill/certdrill/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	dbh.SetMaxOpenConns(1)
	t.Cleanup(func() { dbh.Close() })
	return dbh
}

func TestEventLogAppendAndSearch(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepo(openTestDB(t))

	events := []Event{
		{Type: "AttemptRecorded", Key: "u1|q1", Data: map[string]any{"correct": false}},
		{Type: "StandingEscalated", Key: "u1|q1", Data: map[string]any{"error_count": 3}},
		{Type: "AttemptRecorded", Key: "u2|q9", Data: nil},
	}
	for _, e := range events {
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("append %s: %v", e.Type, err)
		}
	}

	got, err := repo.Search(ctx, "StandingEscalated", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Key != "u1|q1" {
		t.Fatalf("type search: %+v", got)
	}

	got, err = repo.Search(ctx, "u1|", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("key search: want 2, got %d", len(got))
	}
}

func TestEventLogSearchLimitClamp(t *testing.T) {
	ctx := context.Background()
	repo := NewEventRepo(openTestDB(t))

	for i := 0; i < 120; i++ {
		e := Event{Type: "AttemptRecorded", Key: fmt.Sprintf("u1|q%d", i)}
		if err := repo.Append(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	// An oversized limit is capped, not reset to the default.
	got, err := repo.Search(ctx, "", 600)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 120 {
		t.Fatalf("limit 600: want all 120 events, got %d", len(got))
	}

	got, err = repo.Search(ctx, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("limit 1: got %d", len(got))
	}

	// Zero falls back to the default of 100.
	got, err = repo.Search(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 100 {
		t.Fatalf("default limit: want 100, got %d", len(got))
	}
}
