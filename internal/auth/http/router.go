package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/socauth/internal/auth/domain"
	"github.com/aussiebroadwan/socauth/internal/auth/service"
	"github.com/aussiebroadwan/socauth/internal/auth/store"
	"github.com/aussiebroadwan/socauth/pkg/httpx"
	"github.com/aussiebroadwan/socauth/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/aussiebroadwan/socauth/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService      *service.AuthService
	SessionManager   *service.SessionManager
	BootstrapService *service.BootstrapService

	Cookie CookieConfig

	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		Cookie:       CookieConfig{Name: "socauth_session", Secure: true},
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	sessions := &SessionHandler{
		AuthService:    r.AuthService,
		SessionManager: r.SessionManager,
		Cookie:         r.Cookie,
	}

	r.registerSession(sessions)
	r.registerUsers(sessions)
	r.registerBootstrap()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			SOC Dashboard Authentication API
//	@version		0.1.0
//	@description	Password and TOTP authentication with server-side sessions for the SOC dashboard.
//	@description
//	@description				Sessions are opaque bearer tokens that expire after 30 minutes without activity.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/socauth
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}". The socauth_session cookie is accepted too.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSession(h *SessionHandler) {
	authn := httpx.SessionMiddleware(h, r.Cookie.Name)

	// POST /login - strict rate limit by IP + username to slow guessing
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "username"),
		),
	)

	// POST /logout - idempotent, no session required
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /session - validates on its own, polled by the dashboard
	r.Mux.Handle("GET /v1/auth/session",
		httpx.Chain(http.HandlerFunc(h.HandleSession),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /v1/auth/sessions",
		httpx.Chain(http.HandlerFunc(h.HandleListSessions),
			authn,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/auth/sessions",
		httpx.Chain(http.HandlerFunc(h.HandleLogoutAll),
			authn,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// POST /password - strict, it re-checks the password and TOTP code
	r.Mux.Handle("POST /v1/auth/password",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			authn,
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerUsers(sessions *SessionHandler) {
	h := &UsersHandler{AuthService: r.AuthService}

	admin := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.SessionMiddleware(sessions, r.Cookie.Name),
			httpx.RequireRole(domain.RoleAdmin.String()),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /v1/users", admin(h.HandleRegister))
	r.Mux.Handle("PUT /v1/users/{username}/password", admin(h.HandleAdminResetPassword))
	r.Mux.Handle("DELETE /v1/users/{username}", admin(h.HandleDeleteUser))
}

func (r *Router) registerBootstrap() {
	// POST /bootstrap - very strict rate limit by IP (one-time setup endpoint)
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(&BootstrapHandler{BootstrapService: r.BootstrapService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics", promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{}))
	}
}
