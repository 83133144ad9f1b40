package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/socauth/internal/auth/domain"
	"github.com/aussiebroadwan/socauth/internal/auth/metrics"
	"github.com/aussiebroadwan/socauth/internal/auth/store"
	"github.com/aussiebroadwan/socauth/pkg/cryptox"
	"github.com/aussiebroadwan/socauth/pkg/slogx"
)

// DefaultIdleTimeout is how long a session survives without activity.
const DefaultIdleTimeout = 30 * time.Minute

const (
	maxTokenLength     = 512
	maxUserAgentLength = 512
)

// SessionManager issues opaque session tokens and enforces a sliding idle
// timeout. Only the token's fingerprint is stored. Expired sessions are
// deleted when next presented; Sweep is an optional bulk cleanup.
type SessionManager struct {
	Store       store.Store
	IdleTimeout time.Duration
	Now         func() time.Time
	Metrics     *metrics.Metrics
}

// Create stores a new session for claim and returns its token. The role is
// a snapshot: later role changes do not affect existing sessions.
func (m *SessionManager) Create(ctx context.Context, claim domain.Claim, meta domain.ClientMeta) (string, error) {
	if claim.Username == "" || !claim.Role.Valid() {
		return "", invalidInput("session requires a username and a valid role")
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	now := m.now()
	err = m.Store.Sessions().CreateSession(ctx, domain.Session{
		TokenHash:    cryptox.FingerprintToken(token),
		Username:     claim.Username,
		Role:         claim.Role,
		UserAgent:    truncate(meta.UserAgent, maxUserAgentLength),
		RemoteAddr:   meta.RemoteAddr,
		CreatedAt:    now,
		LastActivity: now,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("create session: %w", ErrNotFound)
		}
		return "", unavailable(ctx, "create session", err)
	}

	m.Metrics.SessionCreated()
	slogx.FromContext(ctx).Info("session created",
		slog.String("username", claim.Username),
		slog.String("session", cryptox.LogRef(token)),
	)
	return token, nil
}

// Validate returns the session's identity and slides its idle window
// forward. Absent, revoked and idle sessions all yield ErrSessionInvalid;
// an idle session is deleted on the way out.
func (m *SessionManager) Validate(ctx context.Context, token string) (domain.SessionInfo, error) {
	l := slogx.FromContext(ctx)
	if token == "" || len(token) > maxTokenLength {
		m.Metrics.Validation(metrics.ValidationMissing)
		return domain.SessionInfo{}, ErrSessionInvalid
	}

	hash := cryptox.FingerprintToken(token)
	now := m.now()
	idle := m.idleTimeout()

	// 1. Look the session up
	sess, err := m.Store.Sessions().GetSessionByHash(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		m.Metrics.Validation(metrics.ValidationMissing)
		return domain.SessionInfo{}, ErrSessionInvalid
	}
	if err != nil {
		m.Metrics.Validation(metrics.ValidationError)
		return domain.SessionInfo{}, unavailable(ctx, "load session", err)
	}

	// 2. Expire lazily
	if now.Sub(sess.LastActivity) > idle {
		if err := m.Store.Sessions().DeleteSession(ctx, hash); err != nil {
			l.Warn("failed to delete expired session", slog.String("session", cryptox.LogRef(token)), slog.Any("error", err))
		}
		m.Metrics.Validation(metrics.ValidationExpired)
		l.Info("session expired",
			slog.String("username", sess.Username),
			slog.String("session", cryptox.LogRef(token)),
			slog.Duration("idle", now.Sub(sess.LastActivity)),
		)
		return domain.SessionInfo{}, ErrSessionInvalid
	}

	// 3. Refresh. The conditional write fails if the session was revoked
	//    or swept since step 1.
	if err := m.Store.Sessions().TouchSession(ctx, hash, now, now.Add(-idle)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			m.Metrics.Validation(metrics.ValidationMissing)
			return domain.SessionInfo{}, ErrSessionInvalid
		}
		m.Metrics.Validation(metrics.ValidationError)
		return domain.SessionInfo{}, unavailable(ctx, "touch session", err)
	}

	last := now
	if sess.LastActivity.After(now) {
		last = sess.LastActivity
	}
	sess.LastActivity = last

	m.Metrics.Validation(metrics.ValidationValid)
	return m.info(sess), nil
}

// Revoke deletes the session. Unknown or already revoked tokens are not an
// error; only a store failure is.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	if token == "" || len(token) > maxTokenLength {
		return nil
	}
	if err := m.Store.Sessions().DeleteSession(ctx, cryptox.FingerprintToken(token)); err != nil {
		return unavailable(ctx, "revoke session", err)
	}

	m.Metrics.Revoked(1)
	slogx.FromContext(ctx).Info("session revoked", slog.String("session", cryptox.LogRef(token)))
	return nil
}

// RevokeAllForUser deletes every session owned by username.
func (m *SessionManager) RevokeAllForUser(ctx context.Context, username string) (int64, error) {
	n, err := m.Store.Sessions().DeleteUserSessions(ctx, username)
	if err != nil {
		return 0, unavailable(ctx, "revoke user sessions", err)
	}

	m.Metrics.Revoked(n)
	if n > 0 {
		slogx.FromContext(ctx).Info("user sessions revoked", slog.String("username", username), slog.Int64("count", n))
	}
	return n, nil
}

// List returns the live sessions of username, most recently active first.
// Idle sessions are left for lazy expiry or the sweep.
func (m *SessionManager) List(ctx context.Context, username string) ([]domain.SessionInfo, error) {
	rows, err := m.Store.Sessions().ListUserSessions(ctx, username)
	if err != nil {
		return nil, unavailable(ctx, "list sessions", err)
	}

	now := m.now()
	idle := m.idleTimeout()
	out := make([]domain.SessionInfo, 0, len(rows))
	for _, s := range rows {
		if now.Sub(s.LastActivity) > idle {
			continue
		}
		out = append(out, m.info(s))
	}
	return out, nil
}

// Sweep deletes every session idle beyond the timeout.
func (m *SessionManager) Sweep(ctx context.Context) (int64, error) {
	n, err := m.Store.Sessions().DeleteIdleSessions(ctx, m.now().Add(-m.idleTimeout()))
	if err != nil {
		return 0, unavailable(ctx, "sweep sessions", err)
	}
	m.Metrics.Swept(n)
	return n, nil
}

func (m *SessionManager) info(s domain.Session) domain.SessionInfo {
	return domain.SessionInfo{
		Username:     s.Username,
		Role:         s.Role,
		UserAgent:    s.UserAgent,
		RemoteAddr:   s.RemoteAddr,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
		ExpiresAt:    s.LastActivity.Add(m.idleTimeout()),
	}
}

func (m *SessionManager) idleTimeout() time.Duration {
	if m.IdleTimeout <= 0 {
		return DefaultIdleTimeout
	}
	return m.IdleTimeout
}

func (m *SessionManager) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}
