package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/socauth/pkg/authsdk"
	"github.com/aussiebroadwan/socauth/pkg/httpx"
	"github.com/aussiebroadwan/socauth/pkg/slogx"
)

// Pinger is the readiness dependency; store.Store satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe reporting whether the credential store is reachable
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"store unreachable"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{Database: "ok"}
		overallStatus := "ok"
		statusCode := http.StatusOK

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		// Driver errors can carry DSN fragments; log them, don't return them.
		if err := db.Ping(ctx); err != nil {
			slogx.FromContext(ctx).Warn("readiness check failed", "error", err)
			checks.Database = "unavailable"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
