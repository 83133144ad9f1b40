package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/socauth/internal/auth/store"
	"github.com/aussiebroadwan/socauth/pkg/slogx"
)

// Error taxonomy shared by the auth and session services. Callers classify
// with errors.Is; the finer credential errors all match ErrInvalidCredential.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrSessionInvalid    = errors.New("session invalid")
	ErrInvalidInput      = errors.New("invalid input")

	ErrUserNotFound  = fmt.Errorf("%w: user not found", ErrInvalidCredential)
	ErrBadPassword   = fmt.Errorf("%w: bad password", ErrInvalidCredential)
	ErrBadMFA        = fmt.Errorf("%w: bad mfa code", ErrInvalidCredential)
	ErrDuplicateUser = fmt.Errorf("%w: user already exists", ErrConflict)
)

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// unavailable logs the driver error and returns ErrStoreUnavailable without
// it in the chain.
func unavailable(ctx context.Context, op string, err error) error {
	slogx.FromContext(ctx).Error("store operation failed", slog.String("op", op), slog.Any("error", err))
	return fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
}

// translate maps a store error for an operation whose only expected failure
// is a missing row.
func translate(ctx context.Context, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, store.ErrAlreadyExists):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return unavailable(ctx, op, err)
	}
}
