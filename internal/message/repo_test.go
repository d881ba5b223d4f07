package message

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/karhula/forumdb/internal/db"
	"github.com/karhula/forumdb/internal/user"
)

func newTestRepo(t *testing.T) (*Repo, *sql.DB) {
	t.Helper()
	store, err := db.Open(":memory:", db.DefaultOptions())
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	if err := store.CreateSchema(); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewRepo(store.DB), store.DB
}

// insertAt stores a message with a fixed timestamp for filter tests.
func insertAt(t *testing.T, sqlDB *sql.DB, title, nickname string, ts int64) string {
	t.Helper()
	result, err := sqlDB.Exec(`
		INSERT INTO messages (title, body, timestamp, ip, times_viewed, user_nickname)
		VALUES (?, 'body', ?, '0.0.0.0', 0, ?)
	`, title, ts, nickname)
	if err != nil {
		t.Fatalf("insert message: %v", err)
	}
	key, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("insert message id: %v", err)
	}
	return FormatID(key)
}

func countMessages(t *testing.T, sqlDB *sql.DB) int {
	t.Helper()
	var n int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	return n
}

func TestCreateGetRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)

	id, err := repo.Create(Draft{Title: "T", Body: "B"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Fatalf("create returned empty id")
	}

	m, err := repo.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m == nil {
		t.Fatalf("get returned nil for created message")
	}
	if m.Title != "T" || m.Body != "B" {
		t.Fatalf("expected title=T body=B, got %q %q", m.Title, m.Body)
	}
	if m.Editor != nil {
		t.Fatalf("expected absent editor, got %q", *m.Editor)
	}
	if m.ReplyTo != nil {
		t.Fatalf("expected absent parent, got %q", *m.ReplyTo)
	}
	if m.Sender == nil || *m.Sender != DefaultSender {
		t.Fatalf("expected default sender, got %v", m.Sender)
	}
	if m.SourceIP != DefaultSourceIP {
		t.Fatalf("expected default source address, got %q", m.SourceIP)
	}
	if m.Timestamp == 0 {
		t.Fatalf("expected assigned timestamp")
	}
}

func TestGetAbsentAndMalformed(t *testing.T) {
	repo, _ := newTestRepo(t)

	m, err := repo.Get("msg-999")
	if err != nil {
		t.Fatalf("get absent: %v", err)
	}
	if m != nil {
		t.Fatalf("expected nil for absent id, got %+v", m)
	}

	for _, bad := range []string{"msg-1000", "nope", "msg-x", ""} {
		if _, err := repo.Get(bad); !errors.Is(err, ErrMalformedID) {
			t.Fatalf("Get(%q): expected ErrMalformedID, got %v", bad, err)
		}
		if _, err := repo.Modify(bad, "t", "b", ""); !errors.Is(err, ErrMalformedID) {
			t.Fatalf("Modify(%q): expected ErrMalformedID, got %v", bad, err)
		}
		if _, err := repo.Delete(bad); !errors.Is(err, ErrMalformedID) {
			t.Fatalf("Delete(%q): expected ErrMalformedID, got %v", bad, err)
		}
		if _, err := repo.Exists(bad); !errors.Is(err, ErrMalformedID) {
			t.Fatalf("Exists(%q): expected ErrMalformedID, got %v", bad, err)
		}
		if _, err := repo.Create(Draft{Title: "t", Body: "b", ReplyTo: &bad}); !errors.Is(err, ErrMalformedID) {
			t.Fatalf("Create(reply_to=%q): expected ErrMalformedID, got %v", bad, err)
		}
	}
}

func TestCreateResolvesRegisteredSender(t *testing.T) {
	repo, sqlDB := newTestRepo(t)

	users := user.NewRepo(sqlDB)
	if _, err := users.Create("bob", &user.Profile{}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	id, err := repo.Create(Draft{Title: "T", Body: "B", Sender: "bob"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	key, _ := ParseID(id)
	var userKey sql.NullInt64
	if err := sqlDB.QueryRow("SELECT user_id FROM messages WHERE message_id = ?", key).Scan(&userKey); err != nil {
		t.Fatalf("read user key: %v", err)
	}
	if !userKey.Valid {
		t.Fatalf("expected linked user key for registered sender")
	}

	// Unregistered sender stays unlinked but keeps the nickname.
	id2, err := repo.Create(Draft{Title: "T", Body: "B", Sender: "ghost"})
	if err != nil {
		t.Fatalf("create unregistered: %v", err)
	}
	key2, _ := ParseID(id2)
	if err := sqlDB.QueryRow("SELECT user_id FROM messages WHERE message_id = ?", key2).Scan(&userKey); err != nil {
		t.Fatalf("read user key: %v", err)
	}
	if userKey.Valid {
		t.Fatalf("expected unlinked user key for unregistered sender")
	}
	m, err := repo.Get(id2)
	if err != nil || m == nil {
		t.Fatalf("get: %v %v", m, err)
	}
	if m.Sender == nil || *m.Sender != "ghost" {
		t.Fatalf("expected sender nickname kept, got %v", m.Sender)
	}
}

func TestCreateMissingParent(t *testing.T) {
	repo, sqlDB := newTestRepo(t)

	if _, err := repo.Create(Draft{Title: "root", Body: "b"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	before := countMessages(t, sqlDB)

	parent := "msg-999"
	id, err := repo.Create(Draft{Title: "orphan", Body: "b", ReplyTo: &parent})
	if err != nil {
		t.Fatalf("create with missing parent: %v", err)
	}
	if id != "" {
		t.Fatalf("expected absence result for missing parent, got %q", id)
	}
	if got := countMessages(t, sqlDB); got != before {
		t.Fatalf("row count changed on refused create: %d -> %d", before, got)
	}
}

func TestAppendAnswerMatchesCreate(t *testing.T) {
	repo, _ := newTestRepo(t)

	rootID, err := repo.Create(Draft{Title: "root", Body: "b"})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}

	viaAnswer, err := repo.AppendAnswer(rootID, "re", "body", "alice", "1.2.3.4")
	if err != nil {
		t.Fatalf("append answer: %v", err)
	}
	viaCreate, err := repo.Create(Draft{Title: "re", Body: "body", Sender: "alice", SourceIP: "1.2.3.4", ReplyTo: &rootID})
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}

	a, err := repo.Get(viaAnswer)
	if err != nil || a == nil {
		t.Fatalf("get answer: %v", err)
	}
	c, err := repo.Get(viaCreate)
	if err != nil || c == nil {
		t.Fatalf("get reply: %v", err)
	}

	if a.Title != c.Title || a.Body != c.Body || *a.Sender != *c.Sender ||
		a.SourceIP != c.SourceIP || *a.ReplyTo != *c.ReplyTo {
		t.Fatalf("append_answer and create differ: %+v vs %+v", a, c)
	}
	if *a.ReplyTo != rootID {
		t.Fatalf("expected parent %s, got %s", rootID, *a.ReplyTo)
	}
}

func TestModify(t *testing.T) {
	repo, _ := newTestRepo(t)

	id, err := repo.Create(Draft{Title: "T", Body: "B"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	out, err := repo.Modify(id, "T2", "B2", "Alice")
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if out != id {
		t.Fatalf("expected id %s back, got %q", id, out)
	}

	m, err := repo.Get(id)
	if err != nil || m == nil {
		t.Fatalf("get: %v", err)
	}
	if m.Title != "T2" || m.Body != "B2" {
		t.Fatalf("modify not applied: %q %q", m.Title, m.Body)
	}
	if m.Editor == nil || *m.Editor != "Alice" {
		t.Fatalf("expected editor Alice, got %v", m.Editor)
	}

	// The default editor is normalized to absent, not stored literally.
	if _, err := repo.Modify(id, "T3", "B3", DefaultSender); err != nil {
		t.Fatalf("modify default editor: %v", err)
	}
	m, err = repo.Get(id)
	if err != nil || m == nil {
		t.Fatalf("get: %v", err)
	}
	if m.Editor != nil {
		t.Fatalf("expected absent editor for default, got %q", *m.Editor)
	}

	out, err = repo.Modify("msg-999", "t", "b", "")
	if err != nil {
		t.Fatalf("modify absent: %v", err)
	}
	if out != "" {
		t.Fatalf("expected absence result for unknown id, got %q", out)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	repo, _ := newTestRepo(t)

	id, err := repo.Create(Draft{Title: "T", Body: "B"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	removed, err := repo.Delete(id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !removed {
		t.Fatalf("expected removal on first delete")
	}

	removed, err = repo.Delete(id)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if removed {
		t.Fatalf("expected false on second delete")
	}

	ok, err := repo.Exists(id)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatalf("deleted message still reported present")
	}
}

func TestDeleteCascadesReplies(t *testing.T) {
	repo, _ := newTestRepo(t)

	rootID, err := repo.Create(Draft{Title: "root", Body: "b"})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	replyID, err := repo.AppendAnswer(rootID, "re", "b", "", "")
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, err := repo.Delete(rootID); err != nil {
		t.Fatalf("delete root: %v", err)
	}
	ok, err := repo.Exists(replyID)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatalf("reply survived parent deletion")
	}
}

func TestListFilters(t *testing.T) {
	repo, sqlDB := newTestRepo(t)

	insertAt(t, sqlDB, "m1", "bob", 100)
	insertAt(t, sqlDB, "m2", "bob", 200)
	insertAt(t, sqlDB, "m3", "bob", 300)
	insertAt(t, sqlDB, "m4", "alice", 250)

	// No filter: everything, newest first.
	all, err := repo.List(Unfiltered())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Timestamp < all[i].Timestamp {
			t.Fatalf("not in descending order: %d before %d", all[i-1].Timestamp, all[i].Timestamp)
		}
	}

	// Nickname + limit, still descending.
	f := Unfiltered()
	f.Nickname = "bob"
	f.Limit = 2
	bobs, err := repo.List(f)
	if err != nil {
		t.Fatalf("list bob: %v", err)
	}
	if len(bobs) != 2 {
		t.Fatalf("expected 2 results, got %d", len(bobs))
	}
	if bobs[0].Timestamp != 300 || bobs[1].Timestamp != 200 {
		t.Fatalf("wrong results: %d, %d", bobs[0].Timestamp, bobs[1].Timestamp)
	}
	for _, s := range bobs {
		if s.Sender == nil || *s.Sender != "bob" {
			t.Fatalf("expected only bob, got %v", s.Sender)
		}
	}

	// Strict bounds: equal timestamps are excluded.
	f = Unfiltered()
	f.Before = 250
	got, err := repo.List(f)
	if err != nil {
		t.Fatalf("list before: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("before=250: expected 2 results, got %d", len(got))
	}
	for _, s := range got {
		if s.Timestamp >= 250 {
			t.Fatalf("before bound not strict: got %d", s.Timestamp)
		}
	}

	f = Unfiltered()
	f.After = 250
	got, err = repo.List(f)
	if err != nil {
		t.Fatalf("list after: %v", err)
	}
	if len(got) != 1 || got[0].Timestamp != 300 {
		t.Fatalf("after bound not strict: %+v", got)
	}

	// Conjunction of all conditions.
	f = Unfiltered()
	f.Nickname = "bob"
	f.Before = 300
	f.After = 100
	got, err = repo.List(f)
	if err != nil {
		t.Fatalf("list conjunction: %v", err)
	}
	if len(got) != 1 || got[0].Timestamp != 200 {
		t.Fatalf("conjunction: expected only ts=200, got %+v", got)
	}
}

func TestExistsForWellFormedAbsentID(t *testing.T) {
	repo, _ := newTestRepo(t)

	ok, err := repo.Exists("msg-42")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatalf("empty store reported message present")
	}
	removed, err := repo.Delete("msg-42")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed {
		t.Fatalf("delete on absent id reported removal")
	}
}
