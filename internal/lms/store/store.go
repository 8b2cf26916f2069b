package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/lms/internal/lms/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root user-database interface. Concrete drivers (sqlite, mongo)
// implement this and expose sub-repositories to keep concerns tidy.
type Store interface {
	Users() Users

	// ApplyMigrations brings the schema (tables or indexes) up to date.
	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// ProfileUpdate carries the mutable profile fields. Empty fields are left
// unchanged.
type ProfileUpdate struct {
	Name  string
	Email string
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login, registration and social sign-in.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID). A taken
	// email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateProfile mutates name/email and bumps updated_at. A taken
	// email yields ErrAlreadyExists.
	UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) error

	// UpdatePasswordHash sets the password_hash (bcrypt) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateRole sets the role and bumps updated_at.
	UpdateRole(ctx context.Context, userID string, role string) error

	// ListUsers returns every user, newest first.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// DeleteUser removes the user record.
	DeleteUser(ctx context.Context, userID string) error
}

// SessionStore is the key-value session cache. Values are opaque strings
// (JSON user snapshots) keyed by user id.
type SessionStore interface {
	// Get returns the value under key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set writes value under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
	Close() error
}

// ExpiringSessionStore is implemented by session stores that need explicit
// purging of expired entries (redis expires keys on its own).
type ExpiringSessionStore interface {
	SessionStore
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}
