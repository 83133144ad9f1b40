package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/socauth/internal/auth/domain"
	"github.com/aussiebroadwan/socauth/internal/auth/metrics"
	"github.com/aussiebroadwan/socauth/internal/auth/service"
	"github.com/aussiebroadwan/socauth/internal/auth/store"
	"github.com/aussiebroadwan/socauth/pkg/cryptox"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestSessionCreate(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice", "pw", domain.RoleAdmin)

	claim := domain.Claim{Username: "alice", Role: domain.RoleAdmin}
	meta := domain.ClientMeta{UserAgent: "Mozilla/5.0", RemoteAddr: "10.0.0.7"}

	a, err := e.sessions.Create(ctx, claim, meta)
	require.NoError(t, err)
	b, err := e.sessions.Create(ctx, claim, meta)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.GreaterOrEqual(t, len(a), 43, "256-bit token")

	// Only the fingerprint is persisted.
	_, err = e.store.Sessions().GetSessionByHash(ctx, a)
	require.ErrorIs(t, err, store.ErrNotFound)
	stored, err := e.store.Sessions().GetSessionByHash(ctx, cryptox.FingerprintToken(a))
	require.NoError(t, err)
	require.Equal(t, "alice", stored.Username)
	require.Equal(t, domain.RoleAdmin, stored.Role)
	require.Equal(t, "Mozilla/5.0", stored.UserAgent)
	require.True(t, stored.CreatedAt.Equal(e.clock.Now()))
	require.True(t, stored.LastActivity.Equal(e.clock.Now()))

	require.Equal(t, 2.0, testutil.ToFloat64(e.metrics.SessionsCreated))
}

func TestSessionCreate_Errors(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.sessions.Create(ctx, domain.Claim{Username: "ghost", Role: domain.RoleUser}, domain.ClientMeta{})
	require.ErrorIs(t, err, service.ErrNotFound)

	_, err = e.sessions.Create(ctx, domain.Claim{Username: "alice", Role: "root"}, domain.ClientMeta{})
	require.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = e.sessions.Create(ctx, domain.Claim{Role: domain.RoleUser}, domain.ClientMeta{})
	require.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestSessionValidate(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice", "pw", domain.RoleUser)
	token := e.login(t, "alice", "pw")

	info, err := e.sessions.Validate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "alice", info.Username)
	require.Equal(t, domain.RoleUser, info.Role)
	require.True(t, info.ExpiresAt.Equal(e.clock.Now().Add(service.DefaultIdleTimeout)))

	t.Run("unknown token", func(t *testing.T) {
		_, err := e.sessions.Validate(ctx, "not-a-session")
		require.ErrorIs(t, err, service.ErrSessionInvalid)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := e.sessions.Validate(ctx, "")
		require.ErrorIs(t, err, service.ErrSessionInvalid)
	})
}

func TestSessionValidate_IdleBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		idle  time.Duration
		valid bool
	}{
		{"well inside", 10 * time.Minute, true},
		{"one second before timeout", service.DefaultIdleTimeout - time.Second, true},
		{"exactly at timeout", service.DefaultIdleTimeout, true},
		{"one second past timeout", service.DefaultIdleTimeout + time.Second, false},
		{"long gone", 24 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEnv(t)
			ctx := context.Background()
			e.register(t, "alice", "pw", domain.RoleUser)
			token := e.login(t, "alice", "pw")

			e.clock.Advance(tt.idle)
			_, err := e.sessions.Validate(ctx, token)
			if tt.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, service.ErrSessionInvalid)

			// Expired sessions are deleted, not just rejected.
			_, err = e.store.Sessions().GetSessionByHash(ctx, cryptox.FingerprintToken(token))
			require.ErrorIs(t, err, store.ErrNotFound)

			// Rewinding the clock does not resurrect it.
			e.clock.Advance(-tt.idle)
			_, err = e.sessions.Validate(ctx, token)
			require.ErrorIs(t, err, service.ErrSessionInvalid)
		})
	}
}

func TestSessionValidate_SlidingWindow(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice", "pw", domain.RoleUser)
	token := e.login(t, "alice", "pw")

	// Activity every 29 minutes keeps the session alive well past 30 minutes
	// after creation.
	for range 4 {
		e.clock.Advance(29 * time.Minute)
		info, err := e.sessions.Validate(ctx, token)
		require.NoError(t, err)
		require.True(t, info.LastActivity.Equal(e.clock.Now()))
	}

	e.clock.Advance(31 * time.Minute)
	_, err := e.sessions.Validate(ctx, token)
	require.ErrorIs(t, err, service.ErrSessionInvalid)

	require.Equal(t, 4.0, testutil.ToFloat64(e.metrics.SessionValidations.WithLabelValues(metrics.ValidationValid)))
	require.Equal(t, 1.0, testutil.ToFloat64(e.metrics.SessionValidations.WithLabelValues(metrics.ValidationExpired)))
}

func TestSessionValidate_CustomTimeout(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.sessions.IdleTimeout = time.Minute
	ctx := context.Background()
	e.register(t, "alice", "pw", domain.RoleUser)
	token := e.login(t, "alice", "pw")

	e.clock.Advance(61 * time.Second)
	_, err := e.sessions.Validate(ctx, token)
	require.ErrorIs(t, err, service.ErrSessionInvalid)
}

func TestSessionValidate_Concurrent(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice", "pw", domain.RoleUser)
	token := e.login(t, "alice", "pw")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.sessions.Validate(ctx, token)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
}

func TestSessionRevoke(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice", "pw", domain.RoleUser)
	token := e.login(t, "alice", "pw")
	other := e.login(t, "alice", "pw")

	require.NoError(t, e.sessions.Revoke(ctx, token))
	require.NoError(t, e.sessions.Revoke(ctx, token), "revoking twice is not an error")
	require.NoError(t, e.sessions.Revoke(ctx, "never-issued"))
	require.NoError(t, e.sessions.Revoke(ctx, ""))

	_, err := e.sessions.Validate(ctx, token)
	require.ErrorIs(t, err, service.ErrSessionInvalid)

	_, err = e.sessions.Validate(ctx, other)
	require.NoError(t, err, "other sessions of the same user survive")
}

func TestSessionRevokeAllForUser(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice", "pw", domain.RoleUser)
	e.register(t, "bob", "pw", domain.RoleUser)

	a1 := e.login(t, "alice", "pw")
	a2 := e.login(t, "alice", "pw")
	b := e.login(t, "bob", "pw")

	n, err := e.sessions.RevokeAllForUser(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	for _, tok := range []string{a1, a2} {
		_, err := e.sessions.Validate(ctx, tok)
		require.ErrorIs(t, err, service.ErrSessionInvalid)
	}
	_, err = e.sessions.Validate(ctx, b)
	require.NoError(t, err)

	n, err = e.sessions.RevokeAllForUser(ctx, "alice")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSessionListAndSweep(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice", "pw", domain.RoleUser)

	old := e.login(t, "alice", "pw")
	e.clock.Advance(20 * time.Minute)
	fresh := e.login(t, "alice", "pw")
	e.clock.Advance(15 * time.Minute)

	list, err := e.sessions.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1, "idle sessions are not listed")
	require.True(t, list[0].CreatedAt.Equal(e.clock.Now().Add(-15*time.Minute)))

	n, err := e.sessions.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = e.store.Sessions().GetSessionByHash(ctx, cryptox.FingerprintToken(old))
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = e.sessions.Validate(ctx, fresh)
	require.NoError(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(e.metrics.SessionsSwept))
}
