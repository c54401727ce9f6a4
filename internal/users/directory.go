// Package users keeps the local account directory in SQLite.
//
// The directory stores an argon2id verifier per user. Vault keys are derived
// from the raw password separately and never touch the database.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/unicode/norm"

	"github.com/TheMichaelB/notevault/internal/events"
	"github.com/TheMichaelB/notevault/internal/models"
)

// CurrentSchemaVersion is recorded in schema_info.
const CurrentSchemaVersion = 1

const maxUsernameLength = 64

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrWeakPassword       = errors.New("password too weak")
)

// Directory is a SQLite-backed user directory.
type Directory struct {
	db     *sql.DB
	logger *events.Logger

	argon    ArgonParams
	minScore int

	dummyOnce sync.Once
	dummyHash string
}

// Option configures a Directory.
type Option func(*Directory)

// WithArgonParams overrides the verifier cost for new hashes.
func WithArgonParams(p ArgonParams) Option {
	return func(d *Directory) {
		d.argon = p
	}
}

// WithMinPasswordScore rejects passwords scoring below score (0-4).
func WithMinPasswordScore(score int) Option {
	return func(d *Directory) {
		d.minScore = score
	}
}

// Open opens or creates the directory database at dbPath.
func Open(dbPath string, logger *events.Logger, opts ...Option) (*Directory, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	d := &Directory{
		db:     db,
		logger: logger.WithField("component", "user_directory"),
		argon:  DefaultArgon,
	}
	for _, opt := range opts {
		opt(d)
	}

	if err := d.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return d, nil
}

func (d *Directory) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY,
        username TEXT NOT NULL UNIQUE,
        password_hash TEXT NOT NULL,
        created_at TIMESTAMP NOT NULL,
        updated_at TIMESTAMP NOT NULL
    );

    CREATE TABLE IF NOT EXISTS schema_info (
        version INTEGER PRIMARY KEY
    );

    INSERT OR IGNORE INTO schema_info (version) VALUES (?);
    `

	if _, err := d.db.Exec(schema, CurrentSchemaVersion); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Close closes the database.
func (d *Directory) Close() error {
	return d.db.Close()
}

// NormalizeUsername trims and NFKC-normalizes a username so visually equal
// names map to one account.
func NormalizeUsername(username string) (string, error) {
	name := norm.NFKC.String(strings.TrimSpace(username))
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidUsername)
	}
	if utf8.RuneCountInString(name) > maxUsernameLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidUsername, maxUsernameLength)
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return "", fmt.Errorf("%w: contains a path separator", ErrInvalidUsername)
	}
	return name, nil
}

// CheckPassword enforces the configured strength floor.
func (d *Directory) CheckPassword(username, password string) error {
	if password == "" {
		return fmt.Errorf("%w: empty", ErrWeakPassword)
	}
	if d.minScore <= 0 {
		return nil
	}
	if score := PasswordScore(password, username); score < d.minScore {
		return fmt.Errorf("%w: score %d, need %d", ErrWeakPassword, score, d.minScore)
	}
	return nil
}

// Create registers a new user.
func (d *Directory) Create(ctx context.Context, username, password string) (models.User, error) {
	name, err := NormalizeUsername(username)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:        uuid.NewString(),
		Username:  name,
		CreatedAt: time.Now().UTC(),
	}

	if err := d.Upsert(ctx, user, password); err != nil {
		return models.User{}, err
	}

	d.logger.WithFields(map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User created")

	return user, nil
}

// Upsert stores user with a fresh verifier for password, replacing any
// existing row with the same ID.
func (d *Directory) Upsert(ctx context.Context, user models.User, password string) error {
	name, err := NormalizeUsername(user.Username)
	if err != nil {
		return err
	}
	user.Username = name
	if err := user.Validate(); err != nil {
		return err
	}
	if err := d.CheckPassword(name, password); err != nil {
		return err
	}

	hash, err := HashPassword(d.argon, password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err = d.db.ExecContext(ctx, `
        INSERT INTO users (id, username, password_hash, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            username = excluded.username,
            password_hash = excluded.password_hash,
            updated_at = excluded.updated_at
    `, user.ID, user.Username, hash, user.CreatedAt, time.Now().UTC())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: %s", ErrUserExists, user.Username)
		}
		return fmt.Errorf("save user: %w", err)
	}

	d.logger.WithField("user_id", user.ID).Debug("User saved")
	return nil
}

// Get looks a user up by username.
func (d *Directory) Get(ctx context.Context, username string) (models.User, error) {
	user, _, err := d.lookup(ctx, username)
	return user, err
}

// Authenticate checks password against the stored verifier.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	user, hash, err := d.lookup(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		// Unknown names pay the same argon2id cost as wrong passwords.
		_, _ = VerifyPassword(password, d.dummyVerifier())
		return models.User{}, err
	}
	if err != nil {
		return models.User{}, err
	}

	ok, err := VerifyPassword(password, hash)
	if err != nil {
		return models.User{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		d.logger.WithField("user_id", user.ID).Warn("Authentication failed")
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}

func (d *Directory) dummyVerifier() string {
	d.dummyOnce.Do(func() {
		hash, err := HashPassword(d.argon, uuid.NewString())
		if err != nil {
			d.logger.WithError(err).Error("Failed to create dummy verifier")
			return
		}
		d.dummyHash = hash
	})
	return d.dummyHash
}

// List returns all usernames in order.
func (d *Directory) List(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT username FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return names, nil
}

// Delete removes a user. Their note files are left to the caller.
func (d *Directory) Delete(ctx context.Context, username string) error {
	name, err := NormalizeUsername(username)
	if err != nil {
		return err
	}

	res, err := d.db.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, name)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (d *Directory) lookup(ctx context.Context, username string) (models.User, string, error) {
	name, err := NormalizeUsername(username)
	if err != nil {
		return models.User{}, "", err
	}

	var user models.User
	var hash string
	err = d.db.QueryRowContext(ctx, `
        SELECT id, username, password_hash, created_at
        FROM users
        WHERE username = ?
    `, name).Scan(&user.ID, &user.Username, &hash, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return models.User{}, "", ErrUserNotFound
	}
	if err != nil {
		return models.User{}, "", fmt.Errorf("query user: %w", err)
	}

	return user, hash, nil
}
