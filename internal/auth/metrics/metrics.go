// Package metrics holds the Prometheus collectors for authentication and
// session activity. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "socauth"

// Login results.
const (
	LoginSuccess     = "success"
	LoginUnknownUser = "user_not_found"
	LoginBadPassword = "bad_password"
	LoginBadMFA      = "bad_mfa"
	LoginError       = "error"
)

// Session validation results.
const (
	ValidationValid   = "valid"
	ValidationMissing = "missing"
	ValidationExpired = "expired"
	ValidationError   = "error"
)

type Metrics struct {
	LoginAttempts      *prometheus.CounterVec
	SessionsCreated    prometheus.Counter
	SessionValidations *prometheus.CounterVec
	SessionsRevoked    prometheus.Counter
	SessionsSwept      prometheus.Counter
	PasswordResets     *prometheus.CounterVec
	UsersRegistered    prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Sessions issued.",
		}),
		SessionValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_validations_total",
			Help:      "Session validations by result.",
		}, []string{"result"}),
		SessionsRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_revoked_total",
			Help:      "Sessions removed by logout, password change or user deletion.",
		}),
		SessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_swept_total",
			Help:      "Idle sessions removed by the housekeeping sweep.",
		}),
		PasswordResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_resets_total",
			Help:      "Password resets by kind (self, admin).",
		}, []string{"kind"}),
		UsersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_registered_total",
			Help:      "Users created.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.LoginAttempts,
			m.SessionsCreated,
			m.SessionValidations,
			m.SessionsRevoked,
			m.SessionsSwept,
			m.PasswordResets,
			m.UsersRegistered,
		)
	}
	return m
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
}

func (m *Metrics) Validation(result string) {
	if m == nil {
		return
	}
	m.SessionValidations.WithLabelValues(result).Inc()
}

func (m *Metrics) Revoked(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsRevoked.Add(float64(n))
}

func (m *Metrics) Swept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsSwept.Add(float64(n))
}

func (m *Metrics) PasswordReset(kind string) {
	if m == nil {
		return
	}
	m.PasswordResets.WithLabelValues(kind).Inc()
}

func (m *Metrics) Registered() {
	if m == nil {
		return
	}
	m.UsersRegistered.Inc()
}
