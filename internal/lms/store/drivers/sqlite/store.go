package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/lms/internal/lms/domain"
	"github.com/aussiebroadwan/lms/internal/lms/store"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store is the SQLite user database. The same handle also serves as the
// fallback session store (see sessions.go).
type Store struct {
	db  *sql.DB
	dsn string
	now func() time.Time
}

var (
	_ store.Store                = (*Store)(nil)
	_ store.ExpiringSessionStore = (*Store)(nil)
)

// NewStore opens the database at dsn. In-memory databases are pinned to a
// single connection, otherwise every pooled connection would see its own
// empty database.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if isMemoryDSN(dsn) {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:  db,
		dsn: dsn,
		now: time.Now,
	}, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Users() store.Users { return &usersRepo{db: s.db, now: s.now} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConstraint turns unique/primary-key violations into ErrAlreadyExists.
func mapConstraint(err error) error {
	var se *msqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return store.ErrAlreadyExists
		}
	}
	return err
}

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// userRow mirrors the users table.
type userRow struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	Role           string
	IsVerified     bool
	AvatarPublicID sql.NullString
	AvatarURL      sql.NullString
	Courses        string
	CreatedAt      int64
	UpdatedAt      int64
}

const userColumns = `id, name, email, password_hash, role, is_verified,
	avatar_public_id, avatar_url, courses, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(sc scanner) (domain.User, error) {
	var row userRow
	err := sc.Scan(
		&row.ID,
		&row.Name,
		&row.Email,
		&row.PasswordHash,
		&row.Role,
		&row.IsVerified,
		&row.AvatarPublicID,
		&row.AvatarURL,
		&row.Courses,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return mapUser(row)
}

func mapUser(row userRow) (domain.User, error) {
	courses := []domain.CourseRef{}
	if row.Courses != "" {
		if err := json.Unmarshal([]byte(row.Courses), &courses); err != nil {
			return domain.User{}, err
		}
	}

	var avatar *domain.Avatar
	if row.AvatarURL.Valid || row.AvatarPublicID.Valid {
		avatar = &domain.Avatar{
			PublicID: mapNullString(row.AvatarPublicID),
			URL:      mapNullString(row.AvatarURL),
		}
	}

	return domain.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         row.Role,
		IsVerified:   row.IsVerified,
		Avatar:       avatar,
		Courses:      courses,
		CreatedAt:    fromMillis(row.CreatedAt),
		UpdatedAt:    fromMillis(row.UpdatedAt),
	}, nil
}
