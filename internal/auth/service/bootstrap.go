package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/socauth/internal/auth/domain"
	"github.com/aussiebroadwan/socauth/internal/auth/store"
	"github.com/aussiebroadwan/socauth/pkg/slogx"
)

var (
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
	ErrBootstrapDisabled     = errors.New("bootstrap is disabled")
)

// BootstrapService creates the first admin account on an empty store.
type BootstrapService struct {
	Store store.Store
	Auth  *AuthService
	Token string // Pre-configured bootstrap token; empty disables bootstrap
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, unavailable(ctx, "count users", err)
	}
	return !empty, nil
}

// Bootstrap creates an admin from req when token matches and no user exists
// yet. The emptiness check and the insert share one transaction.
func (s *BootstrapService) Bootstrap(
	ctx context.Context,
	token string,
	req domain.BootstrapData,
) (domain.Registration, error) {
	l := slogx.FromContext(ctx)

	// 1. Bootstrap must be configured and the token must match
	if s.Token == "" {
		return domain.Registration{}, ErrBootstrapDisabled
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) != 1 {
		l.Warn("unauthorized bootstrap attempt")
		return domain.Registration{}, ErrBootstrapUnauthorized
	}

	// 2. Cheap pre-check before hashing
	if bootstrapped, err := s.IsBootstrapped(ctx); err != nil {
		return domain.Registration{}, err
	} else if bootstrapped {
		l.Warn("attempted bootstrap on already-bootstrapped system")
		return domain.Registration{}, ErrBootstrapAlready
	}

	// 3. Build the admin record
	admin, err := s.Auth.newUser(req.AdminUsername, req.AdminPassword, domain.RoleAdmin)
	if err != nil {
		return domain.Registration{}, err
	}
	reg, err := s.Auth.registration(admin)
	if err != nil {
		return domain.Registration{}, err
	}

	// 4. Insert only if the store is still empty
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		empty, err := tx.Users().IsEmpty(ctx)
		if err != nil {
			return unavailable(ctx, "count users", err)
		}
		if !empty {
			return ErrBootstrapAlready
		}
		if err := tx.Users().CreateUser(ctx, admin); err != nil {
			return translate(ctx, "create admin", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return domain.Registration{}, unavailable(ctx, "bootstrap", err)
		}
		return domain.Registration{}, err
	}

	l.Info("successfully bootstrapped system", slog.String("admin_username", admin.Username))
	return reg, nil
}
