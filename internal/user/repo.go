package user

import (
	"database/sql"
	"fmt"
	"time"
)

// Repo handles database operations for users and their profiles.
//
// Unknown nicknames and duplicate creations are reported as zero results
// with a nil error; only store failures surface as errors.
type Repo struct {
	db *sql.DB
}

// NewRepo creates a new user repository.
func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// List returns all users as (nickname, registration) pairs. An empty
// store yields an empty slice.
func (r *Repo) List() ([]*Summary, error) {
	rows, err := r.db.Query(`
		SELECT u.nickname, u.reg_date
		FROM users u JOIN users_profile p ON p.user_id = u.user_id
		ORDER BY u.nickname
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []*Summary{}
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.Nickname, &s.Registered); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// Get joins the user and profile rows for a nickname, or returns nil if
// the nickname is unknown.
func (r *Repo) Get(nickname string) (*Profile, error) {
	var (
		p         Profile
		signature sql.NullString
		avatar    sql.NullString
		firstname sql.NullString
		lastname  sql.NullString
		email     sql.NullString
		website   sql.NullString
		mobile    sql.NullString
		skype     sql.NullString
		age       sql.NullInt64
		residence sql.NullString
		gender    sql.NullString
		picture   sql.NullString
	)
	err := r.db.QueryRow(`
		SELECT u.reg_date, u.nickname, p.signature, p.avatar,
		       p.firstname, p.lastname, p.email, p.website, p.mobile,
		       p.skype, p.age, p.residence, p.gender, p.picture
		FROM users u JOIN users_profile p ON p.user_id = u.user_id
		WHERE u.nickname = ?
	`, nickname).Scan(&p.Public.Registered, &p.Public.Nickname, &signature, &avatar,
		&firstname, &lastname, &email, &website, &mobile,
		&skype, &age, &residence, &gender, &picture)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", nickname, err)
	}

	p.Public.Signature = nullStr(signature)
	p.Public.Avatar = nullStr(avatar)
	p.Restricted = RestrictedProfile{
		Firstname: nullStr(firstname),
		Lastname:  nullStr(lastname),
		Email:     nullStr(email),
		Website:   nullStr(website),
		Mobile:    nullStr(mobile),
		Skype:     nullStr(skype),
		Age:       nullInt(age),
		Residence: nullStr(residence),
		Gender:    nullStr(gender),
		Picture:   nullStr(picture),
	}
	return &p, nil
}

// GetID returns the internal key for a nickname. The second result is
// false when the nickname is unknown.
func (r *Repo) GetID(nickname string) (int64, bool, error) {
	var id int64
	err := r.db.QueryRow("SELECT user_id FROM users WHERE nickname = ?", nickname).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get user id %s: %w", nickname, err)
	}
	return id, true, nil
}

// Exists reports whether a nickname is taken.
func (r *Repo) Exists(nickname string) (bool, error) {
	_, ok, err := r.GetID(nickname)
	return ok, err
}

// Create inserts the user row and its profile row as one transaction and
// returns the nickname, or "" if the nickname is already taken. Both
// registration and last-login timestamps are set to now.
func (r *Repo) Create(nickname string, p *Profile) (string, error) {
	if p == nil {
		p = &Profile{}
	}
	_, taken, err := r.GetID(nickname)
	if err != nil {
		return "", err
	}
	if taken {
		return "", nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("create user %s: %w", nickname, err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	result, err := tx.Exec(`
		INSERT INTO users (nickname, reg_date, last_login, times_viewed)
		VALUES (?, ?, ?, 0)
	`, nickname, now, now)
	if err != nil {
		return "", fmt.Errorf("create user %s: %w", nickname, err)
	}
	key, err := result.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("create user %s: %w", nickname, err)
	}

	if _, err := tx.Exec(`
		INSERT INTO users_profile (user_id, firstname, lastname, email, website,
			picture, mobile, skype, age, residence, gender, signature, avatar)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, key, strNull(p.Restricted.Firstname), strNull(p.Restricted.Lastname),
		strNull(p.Restricted.Email), strNull(p.Restricted.Website),
		strNull(p.Restricted.Picture), strNull(p.Restricted.Mobile),
		strNull(p.Restricted.Skype), intNull(p.Restricted.Age),
		strNull(p.Restricted.Residence), strNull(p.Restricted.Gender),
		strNull(p.Public.Signature), strNull(p.Public.Avatar)); err != nil {
		return "", fmt.Errorf("create profile %s: %w", nickname, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("create user %s: %w", nickname, err)
	}
	return nickname, nil
}

// Modify replaces every profile field of a user from the given record
// and returns the nickname, or "" if the nickname is unknown. Nil input
// fields overwrite the stored values with NULL (full replace).
func (r *Repo) Modify(nickname string, p *Profile) (string, error) {
	if p == nil {
		p = &Profile{}
	}
	key, ok, err := r.GetID(nickname)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	result, err := r.db.Exec(`
		UPDATE users_profile SET firstname = ?, lastname = ?, email = ?,
			website = ?, picture = ?, mobile = ?, skype = ?, age = ?,
			residence = ?, gender = ?, signature = ?, avatar = ?
		WHERE user_id = ?
	`, strNull(p.Restricted.Firstname), strNull(p.Restricted.Lastname),
		strNull(p.Restricted.Email), strNull(p.Restricted.Website),
		strNull(p.Restricted.Picture), strNull(p.Restricted.Mobile),
		strNull(p.Restricted.Skype), intNull(p.Restricted.Age),
		strNull(p.Restricted.Residence), strNull(p.Restricted.Gender),
		strNull(p.Public.Signature), strNull(p.Public.Avatar), key)
	if err != nil {
		return "", fmt.Errorf("modify user %s: %w", nickname, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("modify user %s: %w", nickname, err)
	}
	if n < 1 {
		return "", nil
	}
	return nickname, nil
}

// Delete removes a user; the profile row goes with it via the cascade
// rule. Reports whether a row was actually removed.
func (r *Repo) Delete(nickname string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM users WHERE nickname = ?", nickname)
	if err != nil {
		return false, fmt.Errorf("delete user %s: %w", nickname, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete user %s: %w", nickname, err)
	}
	return n > 0, nil
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	n := ni.Int64
	return &n
}

func strNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func intNull(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}
