// Package credentials implements the issuer credential store (C4): a
// pooled, thread-safe interface to a single-file key-value database holding
// salted, bcrypt-hashed passwords.
package credentials

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"

	"github.com/vorgateway/gateway/pkg/contracts"
)

const (
	minPasswordLength = 21
	saltBytes         = 32
)

var (
	// ErrEmptyUsername is returned by Create when username or password is empty.
	ErrEmptyUsername = errors.New("credentials: username must not be empty")
	// ErrUsernameExists is returned by Create when the username is already taken.
	ErrUsernameExists = errors.New("credentials: username already exists")
	// ErrWeakPassword is returned by Create/Update when the password fails policy.
	ErrWeakPassword = errors.New("credentials: password does not meet policy")
	// ErrNotFound is returned by operations addressing a username or id that
	// does not exist.
	ErrNotFound = errors.New("credentials: not found")
)

// Record is the public, hash-bearing view of a stored credential.
type Record struct {
	ID       string
	Username string
	Hash     string
	Salt     string
}

// Store is a thread-safe pool of connections to the credential database.
// Schema: credentials(id PRIMARY KEY, username UNIQUE, hash, salt).
type Store struct {
	pool *connPool
}

// NewStore opens (creating if absent) the sqlite-backed credential database
// at path, with up to maxConns pooled connections.
func NewStore(ctx context.Context, path string, maxConns int) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("credentials: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(maxConns)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS credentials (
			id       TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			hash     TEXT NOT NULL,
			salt     TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("credentials: migrate: %w", err)
	}

	return &Store{pool: newConnPool(db, maxConns)}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.pool.db.Close()
}

func normalizeUsername(username string) string {
	return norm.NFC.String(username)
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}

func newSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("credentials: generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashPassword(password, salt string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password+salt), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("credentials: hash password: %w", err)
	}
	return string(h), nil
}

// Create registers a new credential. It rejects an empty username or
// password, a username already in use, and a password that fails the
// strength policy (>=21 chars, at least one upper, one lower, one digit).
func (s *Store) Create(ctx context.Context, id, username, password string) (*Record, error) {
	if username == "" || password == "" {
		return nil, ErrEmptyUsername
	}
	username = normalizeUsername(username)
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	conn, release, err := s.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var exists int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(1) FROM credentials WHERE username = ?`, username).Scan(&exists); err != nil {
		return nil, fmt.Errorf("credentials: check existing: %w", err)
	}
	if exists > 0 {
		return nil, ErrUsernameExists
	}

	salt, err := newSalt()
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(password, salt)
	if err != nil {
		return nil, err
	}

	if _, err := conn.ExecContext(ctx,
		`INSERT INTO credentials (id, username, hash, salt) VALUES (?, ?, ?, ?)`,
		id, username, hash, salt,
	); err != nil {
		return nil, fmt.Errorf("credentials: insert: %w", err)
	}

	return &Record{ID: id, Username: username, Hash: hash, Salt: salt}, nil
}

// Verify checks a username/password pair with a constant-time bcrypt
// comparison. It returns (true, nil) on success, (false, nil) on a clean
// mismatch, and a non-nil error only for operational failures.
func (s *Store) Verify(ctx context.Context, username, password string) (bool, error) {
	username = normalizeUsername(username)

	conn, release, err := s.pool.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer release()

	var hash, salt string
	err = conn.QueryRowContext(ctx, `SELECT hash, salt FROM credentials WHERE username = ?`, username).Scan(&hash, &salt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("credentials: lookup: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password+salt)); err != nil {
		return false, nil
	}
	return true, nil
}

// Update verifies oldPassword, then rehashes newPassword using the existing
// per-user salt.
func (s *Store) Update(ctx context.Context, username, oldPassword, newPassword string) error {
	username = normalizeUsername(username)
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	conn, release, err := s.pool.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	var hash, salt string
	err = conn.QueryRowContext(ctx, `SELECT hash, salt FROM credentials WHERE username = ?`, username).Scan(&hash, &salt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("credentials: lookup: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(oldPassword+salt)); err != nil {
		return fmt.Errorf("credentials: %w: old password mismatch", contracts.ErrAuthenticationFailed)
	}

	newHash, err := hashPassword(newPassword, salt)
	if err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, `UPDATE credentials SET hash = ? WHERE username = ?`, newHash, username); err != nil {
		return fmt.Errorf("credentials: update: %w", err)
	}
	return nil
}

// Delete removes a credential by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	conn, release, err := s.pool.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	res, err := conn.ExecContext(ctx, `DELETE FROM credentials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("credentials: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get retrieves a credential record by username.
func (s *Store) Get(ctx context.Context, username string) (*Record, error) {
	username = normalizeUsername(username)

	conn, release, err := s.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var rec Record
	err = conn.QueryRowContext(ctx, `SELECT id, username, hash, salt FROM credentials WHERE username = ?`, username).
		Scan(&rec.ID, &rec.Username, &rec.Hash, &rec.Salt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("credentials: get: %w", err)
	}
	return &rec, nil
}

// List returns every stored credential record.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	conn, release, err := s.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := conn.QueryContext(ctx, `SELECT id, username, hash, salt FROM credentials ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("credentials: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Username, &rec.Hash, &rec.Salt); err != nil {
			return nil, fmt.Errorf("credentials: scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
