package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-registrar-portal/internal/domain"
	"github.com/go-registrar-portal/internal/pkg/token"
)

type Store interface {
	Put(ctx context.Context, v *domain.VerificationSession) error
	Get(ctx context.Context, tok string) (*domain.VerificationSession, error)
	Delete(ctx context.Context, tok string) error
}

// Service manages the short-lived verification window a visitor earns by
// passing an OTP check. The window is fixed from the moment of verification;
// it does not extend on use.
type Service interface {
	// MarkVerified opens a window for the address and returns the opaque
	// token the client presents on subsequent calls.
	MarkVerified(ctx context.Context, email, purpose string) (string, error)
	// Check resolves the token to a gate status. An expired marker is
	// removed as a side effect, so the next check reports not verified.
	// When email is non-empty the marker must belong to that address.
	Check(ctx context.Context, tok, email string) (domain.GateStatus, *domain.VerificationSession, error)
	// Clear drops the marker regardless of its state.
	Clear(ctx context.Context, tok string) error
}

type ServiceDeps struct {
	Repo   Store
	Window time.Duration
	Now    func() time.Time
}

type service struct {
	repo   Store
	window time.Duration
	now    func() time.Time
}

func NewService(deps ServiceDeps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{repo: deps.Repo, window: deps.Window, now: deps.Now}
}

func (s *service) MarkVerified(ctx context.Context, email, purpose string) (string, error) {
	tok, err := token.New()
	if err != nil {
		return "", fmt.Errorf("generate gate token: %w", err)
	}
	v := &domain.VerificationSession{
		Token:      tok,
		Email:      email,
		Purpose:    purpose,
		VerifiedAt: s.now().UTC(),
	}
	if err := s.repo.Put(ctx, v); err != nil {
		return "", fmt.Errorf("store gate marker: %w", err)
	}
	return tok, nil
}

func (s *service) Check(ctx context.Context, tok, email string) (domain.GateStatus, *domain.VerificationSession, error) {
	if tok == "" {
		return domain.GateNotVerified, nil, nil
	}
	v, err := s.repo.Get(ctx, tok)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.GateNotVerified, nil, nil
		}
		return domain.GateNotVerified, nil, fmt.Errorf("load gate marker: %w", err)
	}
	if s.now().UTC().Sub(v.VerifiedAt) > s.window {
		if err := s.repo.Delete(ctx, tok); err != nil {
			slog.Warn("expired gate marker cleanup failed", "error", err)
		}
		return domain.GateExpired, nil, nil
	}
	if email != "" && v.Email != email {
		return domain.GateNotVerified, nil, nil
	}
	return domain.GateVerified, v, nil
}

func (s *service) Clear(ctx context.Context, tok string) error {
	if tok == "" {
		return nil
	}
	return s.repo.Delete(ctx, tok)
}
