package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/go-registrar-portal/internal/domain"
	"github.com/go-registrar-portal/internal/pkg/id"
)

// Failure reasons logged when a verification attempt is rejected. Callers
// only ever see a boolean; the distinction stays server-side.
const (
	reasonCodeNotFound    = "code_not_found"
	reasonCodeExpired     = "code_expired"
	reasonCodeAlreadyUsed = "code_already_used"
	reasonConsumeRejected = "consume_rejected"
)

type Store interface {
	Put(ctx context.Context, code *domain.OtpCode) error
	ListByPurpose(ctx context.Context, email, purpose string) ([]domain.OtpCode, error)
	MarkUsed(ctx context.Context, email, sk string) error
	Consume(ctx context.Context, email, sk, code string, now time.Time) error
}

type Service interface {
	// Issue creates a fresh single-use code for the address and purpose,
	// superseding any still-active codes for the same pair.
	Issue(ctx context.Context, email, purpose string) (*domain.OtpCode, error)
	// Verify reports whether the code is valid, and consumes it when it is.
	// A consumed code never verifies again.
	Verify(ctx context.Context, email, code, purpose string) bool
}

type ServiceDeps struct {
	Repo Store
	TTL  time.Duration
	Now  func() time.Time
}

type service struct {
	repo Store
	ttl  time.Duration
	now  func() time.Time
}

func NewService(deps ServiceDeps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{repo: deps.Repo, ttl: deps.TTL, now: deps.Now}
}

func (s *service) Issue(ctx context.Context, email, purpose string) (*domain.OtpCode, error) {
	if !domain.ValidOtpPurpose(purpose) {
		return nil, fmt.Errorf("unknown otp purpose %q: %w", purpose, domain.ErrBadRequest)
	}

	// Supersede: at most one active code per (email, purpose).
	existing, err := s.repo.ListByPurpose(ctx, email, purpose)
	if err != nil {
		return nil, fmt.Errorf("list otps: %w", err)
	}
	now := s.now().UTC()
	for i := range existing {
		if existing[i].Active(now) {
			if err := s.repo.MarkUsed(ctx, email, existing[i].SK); err != nil {
				return nil, fmt.Errorf("supersede otp: %w", err)
			}
		}
	}

	code, err := randomCode()
	if err != nil {
		return nil, fmt.Errorf("generate otp code: %w", err)
	}
	otpID := id.New()
	entry := &domain.OtpCode{
		Email:     email,
		SK:        purpose + "#" + otpID,
		OtpID:     otpID,
		Code:      code,
		Purpose:   purpose,
		Used:      false,
		ExpiresAt: now.Add(s.ttl).Unix(),
		CreatedAt: now,
	}
	if err := s.repo.Put(ctx, entry); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}
	return entry, nil
}

func (s *service) Verify(ctx context.Context, email, code, purpose string) bool {
	if !domain.ValidOtpPurpose(purpose) {
		return false
	}
	entries, err := s.repo.ListByPurpose(ctx, email, purpose)
	if err != nil {
		slog.Error("otp lookup failed", "email", email, "purpose", purpose, "error", err)
		return false
	}

	now := s.now().UTC()
	var match *domain.OtpCode
	reason := reasonCodeNotFound
	for i := range entries {
		if entries[i].Code != code {
			continue
		}
		if entries[i].Used {
			reason = reasonCodeAlreadyUsed
			continue
		}
		if now.Unix() >= entries[i].ExpiresAt {
			reason = reasonCodeExpired
			continue
		}
		match = &entries[i]
		break
	}
	if match == nil {
		slog.Info("otp verification rejected", "email", email, "purpose", purpose, "reason", reason)
		return false
	}

	// Conditional write is the only success gate; a concurrent attempt on
	// the same code loses here.
	if err := s.repo.Consume(ctx, email, match.SK, code, now); err != nil {
		slog.Info("otp verification rejected", "email", email, "purpose", purpose,
			"reason", reasonConsumeRejected, "error", err)
		return false
	}
	return true
}

// randomCode draws a uniformly random 6-digit code, zero-padded.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
