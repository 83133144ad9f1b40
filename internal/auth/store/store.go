package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/socauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrUnavailable wraps any other driver failure (connection loss, timeouts,
	// constraint violations other than uniqueness).
	ErrUnavailable = errors.New("store: unavailable")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories are exposed as methods so a Tx-scoped
// Store cannot start a second transaction by accident.
type Store interface {
	Users() Users
	Sessions() Sessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByUsername returns ErrNotFound when no such user exists.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser returns ErrAlreadyExists if the username is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash returns ErrNotFound when no row was updated.
	UpdatePasswordHash(ctx context.Context, username string, newHash string) error

	// DeleteUser removes the user and, by cascade, their sessions.
	// Returns ErrNotFound when no row was deleted.
	DeleteUser(ctx context.Context, username string) error

	// IsEmpty reports whether no users exist yet (bootstrap gate).
	IsEmpty(ctx context.Context) (bool, error)
}

type Sessions interface {
	// CreateSession returns ErrAlreadyExists on a token hash collision.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByHash returns ErrNotFound when the session is absent.
	GetSessionByHash(ctx context.Context, tokenHash string) (domain.Session, error)

	// TouchSession moves last_activity forward to at, but only if the
	// session's last activity is not older than notBefore. It returns
	// ErrNotFound when the row is gone or already idle past notBefore.
	TouchSession(ctx context.Context, tokenHash string, at, notBefore time.Time) error

	// DeleteSession is idempotent.
	DeleteSession(ctx context.Context, tokenHash string) error

	// DeleteUserSessions removes every session owned by username and
	// returns how many were removed.
	DeleteUserSessions(ctx context.Context, username string) (int64, error)

	// DeleteIdleSessions removes sessions whose last activity is before
	// cutoff and returns how many were removed.
	DeleteIdleSessions(ctx context.Context, cutoff time.Time) (int64, error)

	// ListUserSessions returns a user's sessions, most recently active first.
	ListUserSessions(ctx context.Context, username string) ([]domain.Session, error)
}
