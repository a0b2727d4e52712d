package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-registrar-portal/internal/domain"
	"github.com/go-registrar-portal/internal/pkg/id"
	"github.com/go-registrar-portal/internal/pkg/token"
	"github.com/go-registrar-portal/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

type Store interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
}

type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type JWTSigner interface {
	Sign(userID, role, sessionID string) (string, error)
}

type Auditor interface {
	Login(ctx context.Context, user *domain.User)
	Logout(ctx context.Context, user *domain.User)
	LoginFailed(ctx context.Context, email string, user *domain.User)
}

type LoginResult struct {
	Bearer       string
	RefreshToken string
	Session      *domain.Session
}

type Service interface {
	Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (bearer, newRefreshToken string, err error)
}

type ServiceDeps struct {
	Repo            Store
	Users           UserStore
	JWTProvider     JWTSigner
	Audit           Auditor
	RefreshTokenDur time.Duration
	Now             func() time.Time
}

type service struct {
	repo       Store
	users      UserStore
	jwt        JWTSigner
	audit      Auditor
	refreshDur time.Duration
	now        func() time.Time
}

func NewService(deps ServiceDeps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{
		repo:       deps.Repo,
		users:      deps.Users,
		jwt:        deps.JWTProvider,
		audit:      deps.Audit,
		refreshDur: deps.RefreshTokenDur,
		now:        deps.Now,
	}
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.audit.LoginFailed(ctx, req.Email, nil)
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}
	if !u.Enable || u.DeletedAt != nil {
		s.audit.LoginFailed(ctx, req.Email, u)
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.audit.LoginFailed(ctx, req.Email, u)
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	refreshToken, err := token.New()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	now := s.now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.UserID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	bearer, err := s.jwt.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	sess.User = u
	s.audit.Login(ctx, u)
	return &LoginResult{Bearer: bearer, RefreshToken: refreshToken, Session: sess}, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, sessionID, map[string]interface{}{"enable": false}); err != nil {
		return fmt.Errorf("disable session: %w", err)
	}
	if u, err := s.users.Get(ctx, sess.UserID); err == nil {
		s.audit.Logout(ctx, u)
	}
	return nil
}

func (s *service) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Enable {
		return nil, fmt.Errorf("session expired: %w", domain.ErrUnauthorized)
	}
	u, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return sess, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	sess, err := s.repo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	}
	if sess.RefreshExpiresAt < s.now().Unix() {
		return "", "", fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}
	u, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		return "", "", err
	}
	if !u.Enable || u.DeletedAt != nil {
		return "", "", fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}

	newToken, err := token.New()
	if err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}
	newExpiry := s.now().Add(s.refreshDur).Unix()
	if err := s.repo.RotateRefreshToken(ctx, sess.SessionID, newToken, newExpiry); err != nil {
		return "", "", fmt.Errorf("rotate refresh token: %w", err)
	}
	bearer, err := s.jwt.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}
	return bearer, newToken, nil
}
