package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/socauth/internal/auth/domain"
	"github.com/aussiebroadwan/socauth/internal/auth/store"
	"github.com/aussiebroadwan/socauth/internal/auth/store/drivers/sqlite/gen"
)

type sessionsRepo struct {
	q *gen.Queries
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	return mapErr(r.q.CreateSession(ctx, gen.CreateSessionParams{
		TokenHash:    s.TokenHash,
		Username:     s.Username,
		Role:         string(s.Role),
		UserAgent:    mapStringNull(s.UserAgent),
		RemoteAddr:   mapStringNull(s.RemoteAddr),
		CreatedAt:    s.CreatedAt.UnixMilli(),
		LastActivity: s.LastActivity.UnixMilli(),
	}))
}

func (r *sessionsRepo) GetSessionByHash(ctx context.Context, tokenHash string) (domain.Session, error) {
	row, err := r.q.GetSessionByHash(ctx, tokenHash)
	if err != nil {
		return domain.Session{}, mapErr(err)
	}
	return mapSession(row), nil
}

func (r *sessionsRepo) TouchSession(ctx context.Context, tokenHash string, at, notBefore time.Time) error {
	n, err := r.q.TouchSession(ctx, gen.TouchSessionParams{
		At:        at.UnixMilli(),
		TokenHash: tokenHash,
		NotBefore: notBefore.UnixMilli(),
	})
	if err != nil {
		return mapErr(err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, tokenHash string) error {
	return mapErr(r.q.DeleteSession(ctx, tokenHash))
}

func (r *sessionsRepo) DeleteUserSessions(ctx context.Context, username string) (int64, error) {
	n, err := r.q.DeleteUserSessions(ctx, username)
	return n, mapErr(err)
}

func (r *sessionsRepo) DeleteIdleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := r.q.DeleteIdleSessions(ctx, cutoff.UnixMilli())
	return n, mapErr(err)
}

func (r *sessionsRepo) ListUserSessions(ctx context.Context, username string) ([]domain.Session, error) {
	rows, err := r.q.ListUserSessions(ctx, username)
	if err != nil {
		return nil, mapErr(err)
	}
	out := make([]domain.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapSession(row))
	}
	return out, nil
}
