package message

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Repo handles database operations for messages.
//
// Absent targets are reported as zero results with a nil error so that
// callers can branch without error handling; only malformed identifiers
// and store failures surface as errors.
type Repo struct {
	db *sql.DB
}

// NewRepo creates a new message repository.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Get returns the full record for a surface id, or nil if no row matches.
func (r *Repo) Get(id string) (*Message, error) {
	key, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	var (
		m       Message
		msgKey  int64
		replyTo sql.NullInt64
		ip      sql.NullString
		sender  sql.NullString
		editor  sql.NullString
	)
	err = r.db.QueryRow(`
		SELECT message_id, title, body, timestamp, ip, times_viewed,
		       reply_to, user_nickname, editor_nickname
		FROM messages WHERE message_id = ?
	`, key).Scan(&msgKey, &m.Title, &m.Body, &m.Timestamp, &ip, &m.TimesViewed,
		&replyTo, &sender, &editor)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}

	m.ID = FormatID(msgKey)
	if ip.Valid {
		m.SourceIP = ip.String
	}
	if replyTo.Valid {
		parent := FormatID(replyTo.Int64)
		m.ReplyTo = &parent
	}
	m.Sender = nullStr(sender)
	m.Editor = nullStr(editor)

	return &m, nil
}

// List returns message summaries matching the filter, newest first.
func (r *Repo) List(f Filter) ([]*Summary, error) {
	query := `SELECT message_id, title, timestamp, user_nickname FROM messages`

	var conds []string
	var args []any
	if f.Nickname != "" {
		conds = append(conds, "user_nickname = ?")
		args = append(args, f.Nickname)
	}
	if f.Before >= 0 {
		conds = append(conds, "timestamp < ?")
		args = append(args, f.Before)
	}
	if f.After >= 0 {
		conds = append(conds, "timestamp > ?")
		args = append(args, f.After)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	if f.Limit >= 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []*Summary
	for rows.Next() {
		var (
			key    int64
			s      Summary
			sender sql.NullString
		)
		if err := rows.Scan(&key, &s.Title, &s.Timestamp, &sender); err != nil {
			return nil, err
		}
		s.ID = FormatID(key)
		s.Sender = nullStr(sender)
		out = append(out, &s)
	}
	return out, rows.Err()
}

// Create inserts a new message and returns its surface id. A ReplyTo
// that names no existing message yields ("", nil) and inserts nothing.
// A sender nickname with no matching user is stored unlinked.
func (r *Repo) Create(d Draft) (string, error) {
	var parentKey sql.NullInt64
	if d.ReplyTo != nil {
		key, err := ParseID(*d.ReplyTo)
		if err != nil {
			return "", err
		}
		var exists int
		err = r.db.QueryRow("SELECT COUNT(*) FROM messages WHERE message_id = ?", key).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("check parent %s: %w", *d.ReplyTo, err)
		}
		if exists == 0 {
			return "", nil
		}
		parentKey = sql.NullInt64{Int64: key, Valid: true}
	}

	sender := d.Sender
	if sender == "" {
		sender = DefaultSender
	}
	sourceIP := d.SourceIP
	if sourceIP == "" {
		sourceIP = DefaultSourceIP
	}

	// Link the author row when the nickname is registered; otherwise the
	// message keeps the nickname with no user key.
	var userKey sql.NullInt64
	var key int64
	err := r.db.QueryRow("SELECT user_id FROM users WHERE nickname = ?", sender).Scan(&key)
	switch {
	case err == nil:
		userKey = sql.NullInt64{Int64: key, Valid: true}
	case err == sql.ErrNoRows:
		// unregistered author
	default:
		return "", fmt.Errorf("resolve sender %s: %w", sender, err)
	}

	result, err := r.db.Exec(`
		INSERT INTO messages (title, body, timestamp, ip, times_viewed,
			reply_to, user_nickname, user_id)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?)
	`, d.Title, d.Body, time.Now().Unix(), sourceIP, parentKey, sender, userKey)
	if err != nil {
		return "", fmt.Errorf("create message: %w", err)
	}

	rowKey, err := result.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("create message id: %w", err)
	}
	return FormatID(rowKey), nil
}

// AppendAnswer creates a reply to an existing message. It behaves
// exactly like Create with a mandatory parent.
func (r *Repo) AppendAnswer(replyTo, title, body, sender, sourceIP string) (string, error) {
	return r.Create(Draft{
		Title:    title,
		Body:     body,
		Sender:   sender,
		SourceIP: sourceIP,
		ReplyTo:  &replyTo,
	})
}

// Modify updates title, body and editor of a message and returns its id,
// or "" if the id names no row. The default editor "Anonymous" (or an
// empty editor) is normalized to an absent editor, not stored literally.
func (r *Repo) Modify(id, title, body, editor string) (string, error) {
	key, err := ParseID(id)
	if err != nil {
		return "", err
	}

	var editorCol sql.NullString
	if editor != "" && editor != DefaultSender {
		editorCol = sql.NullString{String: editor, Valid: true}
	}

	result, err := r.db.Exec(`
		UPDATE messages SET title = ?, body = ?, editor_nickname = ?
		WHERE message_id = ?
	`, title, body, editorCol, key)
	if err != nil {
		return "", fmt.Errorf("modify message %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("modify message %s: %w", id, err)
	}
	if n < 1 {
		return "", nil
	}
	return FormatID(key), nil
}

// Delete removes a message and reports whether a row was actually
// removed. Deleting an already-deleted id yields false.
func (r *Repo) Delete(id string) (bool, error) {
	key, err := ParseID(id)
	if err != nil {
		return false, err
	}

	result, err := r.db.Exec("DELETE FROM messages WHERE message_id = ?", key)
	if err != nil {
		return false, fmt.Errorf("delete message %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete message %s: %w", id, err)
	}
	return n > 0, nil
}

// Exists reports whether a message with the given surface id is stored.
func (r *Repo) Exists(id string) (bool, error) {
	m, err := r.Get(id)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
