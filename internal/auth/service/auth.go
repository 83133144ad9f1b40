package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/socauth/internal/auth/domain"
	"github.com/aussiebroadwan/socauth/internal/auth/metrics"
	"github.com/aussiebroadwan/socauth/internal/auth/store"
	"github.com/aussiebroadwan/socauth/pkg/cryptox"
	"github.com/aussiebroadwan/socauth/pkg/slogx"
	"github.com/aussiebroadwan/socauth/pkg/totpx"
)

const maxPasswordLength = 1024

// AuthService owns user credentials: registration, login and password
// changes. It never issues sessions itself; callers hand a successful Claim
// to the SessionManager.
type AuthService struct {
	Store    store.Store
	TOTP     *totpx.Engine
	Sessions *SessionManager // revokes live sessions after credential changes
	Metrics  *metrics.Metrics

	// MinPasswordLength is enforced on register and reset. Zero only
	// requires a non-empty password.
	MinPasswordLength int
}

// Register creates a user with a fresh MFA secret. The hash and secret are
// produced before anything is written, so a failure persists nothing.
func (s *AuthService) Register(
	ctx context.Context,
	username, password string,
	role domain.Role,
) (domain.Registration, error) {
	l := slogx.FromContext(ctx)

	// 1. Build the complete record
	user, err := s.newUser(username, password, role)
	if err != nil {
		return domain.Registration{}, err
	}

	reg, err := s.registration(user)
	if err != nil {
		return domain.Registration{}, err
	}

	// 2. Persist it
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			l.Info("registration rejected: username taken", slog.String("username", user.Username))
			return domain.Registration{}, ErrDuplicateUser
		}
		return domain.Registration{}, translate(ctx, "create user", err)
	}

	s.Metrics.Registered()
	l.Info("user registered", slog.String("username", user.Username), slog.String("role", user.Role.String()))
	return reg, nil
}

// Login checks the password and then the TOTP code, stopping at the first
// failure. The returned error is one of ErrUserNotFound, ErrBadPassword or
// ErrBadMFA (all ErrInvalidCredential), or ErrStoreUnavailable.
func (s *AuthService) Login(ctx context.Context, username, password, totpCode string) (domain.Claim, error) {
	user, err := s.authenticate(ctx, username, password, totpCode)
	if err != nil {
		s.Metrics.Login(loginResult(err))
		return domain.Claim{}, err
	}

	s.maybeRehash(ctx, user, password)

	s.Metrics.Login(metrics.LoginSuccess)
	slogx.FromContext(ctx).Info("login succeeded", slog.String("username", user.Username))
	return domain.Claim{Username: user.Username, Role: user.Role}, nil
}

// ResetPassword changes a user's own password. The caller must prove
// possession of the current password and the MFA device. Every live session
// of the user is revoked afterwards.
func (s *AuthService) ResetPassword(
	ctx context.Context,
	username, currentPassword, totpCode, newPassword string,
) error {
	if err := s.checkPassword(newPassword); err != nil {
		return err
	}

	user, err := s.authenticate(ctx, username, currentPassword, totpCode)
	if err != nil {
		return err
	}

	if err := s.setPassword(ctx, user.Username, newPassword); err != nil {
		return err
	}

	s.Metrics.PasswordReset("self")
	slogx.FromContext(ctx).Info("password changed", slog.String("username", user.Username))
	return nil
}

// AdminResetPassword overwrites a user's password without re-authentication.
// Only reachable by admins. Returns ErrNotFound for unknown users.
func (s *AuthService) AdminResetPassword(ctx context.Context, username, newPassword string) error {
	name, err := domain.NormalizeUsername(username)
	if err != nil {
		return ErrNotFound
	}
	if err := s.checkPassword(newPassword); err != nil {
		return err
	}

	if err := s.setPassword(ctx, name, newPassword); err != nil {
		return err
	}

	s.Metrics.PasswordReset("admin")
	slogx.FromContext(ctx).Info("password reset by admin", slog.String("username", name))
	return nil
}

// DeleteUser revokes a user's sessions and removes the account.
func (s *AuthService) DeleteUser(ctx context.Context, username string) error {
	name, err := domain.NormalizeUsername(username)
	if err != nil {
		return ErrNotFound
	}

	if s.Sessions != nil {
		if _, err := s.Sessions.RevokeAllForUser(ctx, name); err != nil {
			return err
		}
	}

	if err := s.Store.Users().DeleteUser(ctx, name); err != nil {
		return translate(ctx, "delete user", err)
	}

	slogx.FromContext(ctx).Info("user deleted", slog.String("username", name))
	return nil
}

func (s *AuthService) authenticate(ctx context.Context, username, password, totpCode string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	// 1. The user must exist. Unknown names still pay for a hash so timing
	//    does not reveal which usernames exist.
	name, err := domain.NormalizeUsername(username)
	if err != nil {
		burnHash(password)
		l.Warn("authentication failed", slog.String("reason", "user_not_found"))
		return domain.User{}, ErrUserNotFound
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		burnHash(password)
		l.Warn("authentication failed", slog.String("reason", "user_not_found"), slog.String("username", name))
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, unavailable(ctx, "load user", err)
	}

	// 2. Password
	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("stored password hash is unusable", slog.String("username", name), slog.Any("error", err))
		}
		l.Warn("authentication failed", slog.String("reason", "bad_password"), slog.String("username", name))
		return domain.User{}, ErrBadPassword
	}

	// 3. TOTP
	if !s.totp().Verify(user.MFASecret, totpCode) {
		l.Warn("authentication failed", slog.String("reason", "bad_mfa"), slog.String("username", name))
		return domain.User{}, ErrBadMFA
	}

	return user, nil
}

func (s *AuthService) newUser(username, password string, role domain.Role) (domain.User, error) {
	name, err := domain.NormalizeUsername(username)
	if err != nil {
		return domain.User{}, invalidInput(err.Error())
	}
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return domain.User{}, invalidInput("role must be admin or user")
	}
	if err := s.checkPassword(password); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	secret, err := s.totp().GenerateSecret()
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	return domain.User{
		Username:     name,
		PasswordHash: hash,
		MFASecret:    secret,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *AuthService) registration(user domain.User) (domain.Registration, error) {
	uri, err := s.totp().ProvisioningURI(user.MFASecret, user.Username)
	if err != nil {
		return domain.Registration{}, err
	}
	return domain.Registration{
		User:            user.Info(),
		MFASecret:       user.MFASecret,
		ProvisioningURI: uri,
	}, nil
}

func (s *AuthService) checkPassword(password string) error {
	switch {
	case password == "":
		return invalidInput("password is required")
	case len(password) > maxPasswordLength:
		return invalidInput("password is too long")
	case s.MinPasswordLength > 0 && len(password) < s.MinPasswordLength:
		return invalidInput("password is too short")
	}
	return nil
}

func (s *AuthService) setPassword(ctx context.Context, username, password string) error {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}

	// The new hash and the session purge commit together, so a failed
	// revoke never leaves a changed password with old sessions alive.
	var revoked int64
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, username, hash); err != nil {
			return translate(ctx, "update password", err)
		}
		n, err := tx.Sessions().DeleteUserSessions(ctx, username)
		if err != nil {
			return unavailable(ctx, "revoke user sessions", err)
		}
		revoked = n
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStoreUnavailable) {
			return err
		}
		return unavailable(ctx, "update password", err)
	}

	s.sessionMetrics().Revoked(revoked)
	if revoked > 0 {
		slogx.FromContext(ctx).Info("user sessions revoked", slog.String("username", username), slog.Int64("count", revoked))
	}
	return nil
}

func (s *AuthService) sessionMetrics() *metrics.Metrics {
	if s.Sessions != nil && s.Sessions.Metrics != nil {
		return s.Sessions.Metrics
	}
	return s.Metrics
}

// maybeRehash upgrades legacy or outdated hashes after a successful login.
// Failure is logged and otherwise ignored.
func (s *AuthService) maybeRehash(ctx context.Context, user domain.User, password string) {
	if !cryptox.NeedsRehash(user.PasswordHash) {
		return
	}
	l := slogx.FromContext(ctx)

	hash, err := cryptox.HashPassword(password)
	if err == nil {
		err = s.Store.Users().UpdatePasswordHash(ctx, user.Username, hash)
	}
	if err != nil {
		l.Warn("password rehash failed", slog.String("username", user.Username), slog.Any("error", err))
		return
	}
	l.Info("password hash upgraded", slog.String("username", user.Username))
}

func (s *AuthService) totp() *totpx.Engine {
	if s.TOTP == nil {
		return totpx.New(totpx.DefaultIssuer)
	}
	return s.TOTP
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return metrics.LoginUnknownUser
	case errors.Is(err, ErrBadPassword):
		return metrics.LoginBadPassword
	case errors.Is(err, ErrBadMFA):
		return metrics.LoginBadMFA
	default:
		return metrics.LoginError
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnHash runs a verification against a throwaway hash.
func burnHash(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = cryptox.HashPassword("socauth-timing-equalizer")
	})
	_ = cryptox.VerifyPassword(password, dummyHash)
}
