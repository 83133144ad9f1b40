package service_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/socauth/internal/auth/domain"
	"github.com/aussiebroadwan/socauth/internal/auth/metrics"
	"github.com/aussiebroadwan/socauth/internal/auth/service"
	"github.com/aussiebroadwan/socauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/socauth/pkg/cryptox"
	"github.com/aussiebroadwan/socauth/pkg/totpx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Cheap hashing keeps the suite fast; the pepper stays in memory.
	cryptox.SetPepperPath("")
	cryptox.SetParams(cryptox.Params{Memory: 1024, Iterations: 1, Parallelism: 1})
	os.Exit(m.Run())
}

// clock is a settable time source shared by the services under test.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Unix(1_700_000_010, 0).UTC()}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type env struct {
	store    *sqlite.Store
	auth     *service.AuthService
	sessions *service.SessionManager
	totp     *totpx.Engine
	metrics  *metrics.Metrics
	clock    *clock
}

func newEnv(t *testing.T) *env {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	c := newClock()
	engine := totpx.New("")
	engine.Now = c.Now

	m := metrics.New(prometheus.NewRegistry())
	sessions := &service.SessionManager{
		Store:   s,
		Now:     c.Now,
		Metrics: m,
	}
	auth := &service.AuthService{
		Store:    s,
		TOTP:     engine,
		Sessions: sessions,
		Metrics:  m,
	}

	return &env{
		store:    s,
		auth:     auth,
		sessions: sessions,
		totp:     engine,
		metrics:  m,
		clock:    c,
	}
}

// code returns the TOTP code for secret at the env's current time.
func (e *env) code(t *testing.T, secret string) string {
	t.Helper()
	code, err := e.totp.CodeAt(secret, e.clock.Now())
	require.NoError(t, err)
	return code
}

// wrongCode returns a well-formed code that is invalid in the current window.
func (e *env) wrongCode(t *testing.T, secret string) string {
	t.Helper()
	for _, candidate := range []string{"000000", "111111", "222222", "333333"} {
		if !e.totp.Verify(secret, candidate) {
			return candidate
		}
	}
	t.Fatal("no invalid code found")
	return ""
}

func (e *env) register(t *testing.T, username, password string, role domain.Role) domain.Registration {
	t.Helper()
	reg, err := e.auth.Register(context.Background(), username, password, role)
	require.NoError(t, err)
	return reg
}

func (e *env) login(t *testing.T, username, password string) string {
	t.Helper()
	ctx := context.Background()

	u, err := e.store.Users().GetUserByUsername(ctx, username)
	require.NoError(t, err)

	claim, err := e.auth.Login(ctx, username, password, e.code(t, u.MFASecret))
	require.NoError(t, err)

	token, err := e.sessions.Create(ctx, claim, domain.ClientMeta{UserAgent: "test", RemoteAddr: "127.0.0.1"})
	require.NoError(t, err)
	return token
}
