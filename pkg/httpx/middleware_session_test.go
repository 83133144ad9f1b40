package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/socauth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("database is locked")

func fakeValidator(ctx context.Context, token string) (httpx.Principal, error) {
	switch token {
	case "admin-token":
		return httpx.Principal{Username: "root", Role: "admin"}, nil
	case "user-token":
		return httpx.Principal{Username: "alice", Role: "user"}, nil
	case "broken":
		return httpx.Principal{}, errBackend
	default:
		return httpx.Principal{}, httpx.ErrNoSession
	}
}

func principalEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := httpx.PrincipalFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"username": p.Username,
			"token":    httpx.SessionTokenFromContext(r.Context()),
		})
	})
}

func TestSessionToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, httpx.SessionToken(req, "socauth_session"))

	req.AddCookie(&http.Cookie{Name: "socauth_session", Value: "from-cookie"})
	require.Equal(t, "from-cookie", httpx.SessionToken(req, "socauth_session"))
	require.Empty(t, httpx.SessionToken(req, ""))

	req.Header.Set("Authorization", "Bearer from-header")
	require.Equal(t, "from-header", httpx.SessionToken(req, "socauth_session"), "header wins over cookie")
}

func TestSessionMiddleware(t *testing.T) {
	h := httpx.Chain(principalEcho(),
		httpx.SessionMiddleware(httpx.SessionValidatorFunc(fakeValidator), "socauth_session"),
	)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"valid", "user-token", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"unknown", "nope", http.StatusUnauthorized},
		{"backend failure", "broken", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.want, rec.Code)
			require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			if tt.want == http.StatusOK {
				require.JSONEq(t, `{"username":"alice","token":"user-token"}`, rec.Body.String())
			}
			if tt.want == http.StatusUnauthorized {
				require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := httpx.Chain(principalEcho(),
		httpx.SessionMiddleware(httpx.SessionValidatorFunc(fakeValidator), ""),
		httpx.RequireRole("admin"),
	)

	for token, want := range map[string]int{
		"admin-token": http.StatusOK,
		"user-token":  http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, want, rec.Code, token)
	}

	t.Run("without session middleware", func(t *testing.T) {
		rec := httptest.NewRecorder()
		httpx.RequireRole("admin")(principalEcho()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	httpx.Chain(okHandler(), mw("outer"), mw("inner")).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner"}, order)
}
