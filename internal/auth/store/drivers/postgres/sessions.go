package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/socauth/internal/auth/domain"
	"github.com/aussiebroadwan/socauth/internal/auth/store"
)

type sessionsRepo struct {
	q querier
}

const sessionColumns = `token_hash, username, role, user_agent, remote_addr, created_at, last_activity`

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		s.TokenHash,
		s.Username,
		string(s.Role),
		nullIfEmpty(s.UserAgent),
		nullIfEmpty(s.RemoteAddr),
		s.CreatedAt.UnixMilli(),
		s.LastActivity.UnixMilli(),
	)
	return mapErr(err)
}

func (r *sessionsRepo) GetSessionByHash(ctx context.Context, tokenHash string) (domain.Session, error) {
	s, err := scanSession(r.q.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE token_hash = $1
	`, tokenHash))
	if err != nil {
		return domain.Session{}, mapErr(err)
	}
	return s, nil
}

func (r *sessionsRepo) TouchSession(ctx context.Context, tokenHash string, at, notBefore time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE sessions
		SET last_activity = GREATEST(last_activity, $1)
		WHERE token_hash = $2 AND last_activity >= $3
	`, at.UnixMilli(), tokenHash, notBefore.UnixMilli())
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	return mapErr(err)
}

func (r *sessionsRepo) DeleteUserSessions(ctx context.Context, username string) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM sessions WHERE username = $1`, username)
	if err != nil {
		return 0, mapErr(err)
	}
	return tag.RowsAffected(), nil
}

func (r *sessionsRepo) DeleteIdleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM sessions WHERE last_activity < $1`, cutoff.UnixMilli())
	if err != nil {
		return 0, mapErr(err)
	}
	return tag.RowsAffected(), nil
}

func (r *sessionsRepo) ListUserSessions(ctx context.Context, username string) ([]domain.Session, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE username = $1
		ORDER BY last_activity DESC
	`, username)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}
