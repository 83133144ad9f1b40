package httpx

import "context"

type ctxKey string

const (
	CtxKeyPrincipal    ctxKey = "principal"
	CtxKeySessionToken ctxKey = "session_token"
)

// Principal is the authenticated caller attached by SessionMiddleware.
type Principal struct {
	Username string
	Role     string
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(CtxKeyPrincipal).(Principal)
	return p, ok
}

// SessionTokenFromContext returns the raw token the caller presented.
func SessionTokenFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeySessionToken).(string); ok {
		return v
	}
	return ""
}

func contextWithPrincipal(ctx context.Context, p Principal, token string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyPrincipal, p)
	ctx = context.WithValue(ctx, CtxKeySessionToken, token)
	return ctx
}
