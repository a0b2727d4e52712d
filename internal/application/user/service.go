package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-registrar-portal/internal/domain"
	"github.com/go-registrar-portal/internal/pkg/id"
	"github.com/go-registrar-portal/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

const subjectType = "user"

type Store interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
}

type SessionStore interface {
	SoftDeleteByUser(ctx context.Context, userID string) error
}

type Auditor interface {
	Created(ctx context.Context, subjectType, subjectID, description string, values map[string]interface{})
	Updated(ctx context.Context, subjectType, subjectID, description string, oldValues, newValues map[string]interface{})
	Deleted(ctx context.Context, subjectType, subjectID, description string, values map[string]interface{})
}

type Service interface {
	Create(ctx context.Context, in domain.CreateUserRequest) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	List(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	Update(ctx context.Context, userID string, in domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
}

type ServiceDeps struct {
	Repo     Store
	Sessions SessionStore
	Audit    Auditor
	Now      func() time.Time
}

type service struct {
	repo     Store
	sessions SessionStore
	audit    Auditor
	now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{repo: deps.Repo, sessions: deps.Sessions, audit: deps.Audit, now: deps.Now}
}

func (s *service) Create(ctx context.Context, in domain.CreateUserRequest) (*domain.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("email already in use: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, fmt.Errorf("store user: %w", err)
	}
	s.audit.Created(ctx, subjectType, u.UserID, "Staff account created: "+u.Email, snapshot(u))
	return u, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) List(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	return s.repo.ScanPage(ctx, limit, cursor)
}

func (s *service) Update(ctx context.Context, userID string, in domain.UpdateUserRequest) (*domain.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	oldValues := snapshot(u)
	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
		u.Name = *in.Name
	}
	if in.Email != nil && *in.Email != u.Email {
		if _, err := s.repo.GetByEmail(ctx, *in.Email); err == nil {
			return nil, fmt.Errorf("email already in use: %w", domain.ErrConflict)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		updates["email"] = *in.Email
		u.Email = *in.Email
	}
	if in.Role != nil {
		if !domain.ValidRole(*in.Role) {
			return nil, fmt.Errorf("unknown role %q: %w", *in.Role, domain.ErrBadRequest)
		}
		updates["role"] = *in.Role
		u.Role = *in.Role
	}
	if in.Enable != nil {
		updates["enable"] = *in.Enable
		u.Enable = *in.Enable
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password_hash"] = string(hash)
		u.PasswordHash = string(hash)
	}
	if len(updates) == 0 {
		return u, nil
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	u.UpdatedAt = s.now().UTC()
	s.audit.Updated(ctx, subjectType, userID, "Staff account updated: "+u.Email, oldValues, snapshot(u))

	// password or role changes invalidate existing sessions
	if in.Password != nil || (in.Enable != nil && !*in.Enable) {
		if err := s.sessions.SoftDeleteByUser(ctx, userID); err != nil {
			return nil, fmt.Errorf("revoke sessions: %w", err)
		}
	}
	return u, nil
}

func (s *service) Delete(ctx context.Context, userID string) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := s.sessions.SoftDeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.audit.Deleted(ctx, subjectType, userID, "Staff account deleted: "+u.Email, snapshot(u))
	return nil
}

// snapshot records the auditable attributes of a staff account. The password
// hash never appears in the audit trail.
func snapshot(u *domain.User) map[string]interface{} {
	return map[string]interface{}{
		"name":   u.Name,
		"email":  u.Email,
		"role":   u.Role,
		"enable": u.Enable,
	}
}
