package db

import (
	"testing"
)

func newTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	store, err := Open(":memory:", opts)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func countRows(t *testing.T, store *Store, table string) int {
	t.Helper()
	var n int
	if err := store.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestCreateSchemaIdempotent(t *testing.T) {
	store := newTestStore(t, DefaultOptions())

	if err := store.CreateSchema(); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := store.CreateSchema(); err != nil {
		t.Fatalf("second create: %v", err)
	}

	for _, table := range []string{"users", "users_profile", "messages"} {
		if _, err := store.Exec("SELECT * FROM " + table + " LIMIT 1"); err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}

	var applied int
	if err := store.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != len(migrations) {
		t.Fatalf("expected %d applied migrations, got %d", len(migrations), applied)
	}
}

func TestSeed(t *testing.T) {
	store := newTestStore(t, DefaultOptions())
	if err := store.CreateSchema(); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	if err := store.Seed(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	users := countRows(t, store, "users")
	messages := countRows(t, store, "messages")
	if users == 0 || messages == 0 {
		t.Fatalf("seed left empty tables: %d users, %d messages", users, messages)
	}

	// Seeding again must not duplicate rows.
	if err := store.Seed(); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if countRows(t, store, "users") != users {
		t.Fatalf("second seed duplicated users")
	}
	if countRows(t, store, "messages") != messages {
		t.Fatalf("second seed duplicated messages")
	}
}

func TestPurgeAllKeepsSchema(t *testing.T) {
	store := newTestStore(t, DefaultOptions())
	if err := store.CreateSchema(); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if err := store.Seed(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := store.PurgeAll(); err != nil {
		t.Fatalf("purge: %v", err)
	}
	for _, table := range []string{"users", "users_profile", "messages"} {
		if n := countRows(t, store, table); n != 0 {
			t.Fatalf("%d rows left in %s after purge", n, table)
		}
	}

	// Schema survives a purge.
	if _, err := store.Exec("INSERT INTO users (nickname, reg_date, last_login, times_viewed) VALUES ('rex', 1, 1, 0)"); err != nil {
		t.Fatalf("insert after purge: %v", err)
	}
}

func TestForeignKeyOptions(t *testing.T) {
	store := newTestStore(t, DefaultOptions())
	on, err := store.ForeignKeysEnabled()
	if err != nil {
		t.Fatalf("pragma query: %v", err)
	}
	if !on {
		t.Fatalf("expected foreign keys on by default")
	}

	loose := newTestStore(t, Options{ForeignKeys: false})
	on, err = loose.ForeignKeysEnabled()
	if err != nil {
		t.Fatalf("pragma query: %v", err)
	}
	if on {
		t.Fatalf("expected foreign keys off")
	}

	// With enforcement off, dangling references are accepted.
	if err := loose.CreateSchema(); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if _, err := loose.Exec(
		"INSERT INTO messages (title, body, timestamp, ip, times_viewed, reply_to, user_nickname) VALUES ('t', 'b', 1, '0.0.0.0', 0, 999, 'x')",
	); err != nil {
		t.Fatalf("dangling insert with enforcement off: %v", err)
	}
}
