package auth

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

func TestUpsertGoogleUserFirstSignIn(t *testing.T) {
	ctx := context.Background()
	dbh := openTestDB(t)

	id, role, err := upsertGoogleUser(ctx, dbh, "google|123", "ana@example.com")
	if err != nil {
		t.Fatalf("first sign-in: %v", err)
	}
	if id != "google|123" || role != "student" {
		t.Fatalf("first sign-in: id=%q role=%q", id, role)
	}

	// The row must actually land, created_at included.
	var storedRole string
	var createdAt int64
	err = dbh.QueryRowContext(ctx,
		`SELECT role, created_at FROM users WHERE username=$1`, "ana@example.com").
		Scan(&storedRole, &createdAt)
	if err != nil {
		t.Fatalf("row after sign-up: %v", err)
	}
	if storedRole != "student" || createdAt == 0 {
		t.Fatalf("stored row: role=%q created_at=%d", storedRole, createdAt)
	}

	// Second sign-in resolves to the same account, no duplicate row.
	id2, _, err := upsertGoogleUser(ctx, dbh, "google|123", "ana@example.com")
	if err != nil {
		t.Fatalf("second sign-in: %v", err)
	}
	if id2 != id {
		t.Fatalf("second sign-in changed identity: %q vs %q", id2, id)
	}
	var n int
	if err := dbh.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("want 1 user row, got %d", n)
	}
}

func TestUpsertGoogleUserKeepsElevatedRole(t *testing.T) {
	ctx := context.Background()
	dbh := openTestDB(t)

	_, err := dbh.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
		"u-admin", "boss@example.com", "", "admin", 1)
	if err != nil {
		t.Fatal(err)
	}

	id, role, err := upsertGoogleUser(ctx, dbh, "google|999", "boss@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if id != "u-admin" || role != "admin" {
		t.Fatalf("existing account: id=%q role=%q", id, role)
	}
}
