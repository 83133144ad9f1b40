package postgres

import (
	"context"

	"github.com/aussiebroadwan/socauth/internal/auth/domain"
	"github.com/aussiebroadwan/socauth/internal/auth/store"
)

type usersRepo struct {
	q querier

	// inTx is set for repos bound to a transaction. IsEmpty then holds
	// firstUserLock until commit so check-then-insert cannot interleave.
	inTx bool
}

// firstUserLock is the pg_advisory_xact_lock key serializing transactions
// that depend on whether the users table is empty.
const firstUserLock int64 = 7_301_142

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := r.q.QueryRow(ctx, `
		SELECT username, password_hash, mfa_secret, role, created_at, updated_at
		FROM users
		WHERE username = $1
	`, username).Scan(&u.Username, &u.PasswordHash, &u.MFASecret, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	u.Role = domain.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO users (username, password_hash, mfa_secret, role)
		VALUES ($1, $2, $3, $4)
	`, u.Username, u.PasswordHash, u.MFASecret, string(u.Role))
	return mapErr(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, username string, newHash string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE users
		SET password_hash = $1, updated_at = now()
		WHERE username = $2
	`, newHash, username)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) DeleteUser(ctx context.Context, username string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	// READ COMMITTED takes no lock for the EXISTS below; the advisory lock
	// makes a concurrent caller wait until this transaction ends, after
	// which its statement sees the committed row.
	if r.inTx {
		if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, firstUserLock); err != nil {
			return false, mapErr(err)
		}
	}

	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users)`).Scan(&exists); err != nil {
		return false, mapErr(err)
	}
	return !exists, nil
}
