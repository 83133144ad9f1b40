package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/socauth/pkg/slogx"
)

// ErrNoSession is returned by a SessionValidator for tokens that do not
// identify a live session.
var ErrNoSession = errors.New("no session")

// SessionValidator resolves a session token to its principal. Any error other
// than ErrNoSession is treated as a backend failure.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (Principal, error)
}

// SessionValidatorFunc adapts a function to SessionValidator.
type SessionValidatorFunc func(ctx context.Context, token string) (Principal, error)

func (f SessionValidatorFunc) ValidateSession(ctx context.Context, token string) (Principal, error) {
	return f(ctx, token)
}

// SessionToken extracts the session token from the Authorization bearer
// header, falling back to the named cookie.
func SessionToken(r *http.Request, cookieName string) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	if cookieName == "" {
		return ""
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// SessionMiddleware rejects requests without a live session and attaches the
// principal to the request context.
func SessionMiddleware(v SessionValidator, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			token := SessionToken(r, cookieName)
			if token == "" {
				writeSessionError(w, http.StatusUnauthorized, "unauthorized", "missing session token")
				return
			}

			p, err := v.ValidateSession(ctx, token)
			if errors.Is(err, ErrNoSession) {
				writeSessionError(w, http.StatusUnauthorized, "unauthorized", "session invalid or expired")
				return
			}
			if err != nil {
				log.Error("session validation failed", "error", err)
				writeSessionError(w, http.StatusServiceUnavailable, "unavailable", "session store unavailable")
				return
			}

			ctx = slogx.With(contextWithPrincipal(ctx, p, token), "username", p.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose principal role is not one of roles. It
// must run after SessionMiddleware.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeSessionError(w, http.StatusUnauthorized, "unauthorized", "missing session")
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeSessionError(w, http.StatusForbidden, "forbidden", "insufficient role")
		})
	}
}

func writeSessionError(w http.ResponseWriter, code int, errCode, desc string) {
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="socauth"`)
	}
	WriteJSON(w, code, map[string]string{
		"error":             errCode,
		"error_description": desc,
	})
}
