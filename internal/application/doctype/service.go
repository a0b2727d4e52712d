package doctype

import (
	"context"
	"fmt"
	"time"

	"github.com/go-registrar-portal/internal/domain"
	"github.com/go-registrar-portal/internal/pkg/id"
	"github.com/go-registrar-portal/internal/pkg/validate"
)

const subjectType = "document_type"

type Store interface {
	Put(ctx context.Context, dt *domain.DocumentType) error
	Get(ctx context.Context, documentTypeID string) (*domain.DocumentType, error)
	Scan(ctx context.Context) ([]domain.DocumentType, error)
	Update(ctx context.Context, documentTypeID string, updates map[string]interface{}) error
	HardDelete(ctx context.Context, documentTypeID string) error
}

type Auditor interface {
	Created(ctx context.Context, subjectType, subjectID, description string, values map[string]interface{})
	Updated(ctx context.Context, subjectType, subjectID, description string, oldValues, newValues map[string]interface{})
	Deleted(ctx context.Context, subjectType, subjectID, description string, values map[string]interface{})
}

type Service interface {
	Create(ctx context.Context, in domain.DocumentTypeInput) (*domain.DocumentType, error)
	Get(ctx context.Context, documentTypeID string) (*domain.DocumentType, error)
	// List returns every type; ListActive only those offered to requesters.
	List(ctx context.Context) ([]domain.DocumentType, error)
	ListActive(ctx context.Context) ([]domain.DocumentType, error)
	Update(ctx context.Context, documentTypeID string, in domain.DocumentTypeInput) (*domain.DocumentType, error)
	Delete(ctx context.Context, documentTypeID string) error
}

type ServiceDeps struct {
	Repo  Store
	Audit Auditor
	Now   func() time.Time
}

type service struct {
	repo  Store
	audit Auditor
	now   func() time.Time
}

func NewService(deps ServiceDeps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{repo: deps.Repo, audit: deps.Audit, now: deps.Now}
}

func (s *service) Create(ctx context.Context, in domain.DocumentTypeInput) (*domain.DocumentType, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	now := s.now().UTC()
	dt := &domain.DocumentType{
		DocumentTypeID: id.New(),
		Name:           in.Name,
		Description:    in.Description,
		ProcessingDays: in.ProcessingDays,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.Active != nil {
		dt.Active = *in.Active
	}
	if err := s.repo.Put(ctx, dt); err != nil {
		return nil, fmt.Errorf("store document type: %w", err)
	}
	s.audit.Created(ctx, subjectType, dt.DocumentTypeID, "Document type created: "+dt.Name, snapshot(dt))
	return dt, nil
}

func (s *service) Get(ctx context.Context, documentTypeID string) (*domain.DocumentType, error) {
	return s.repo.Get(ctx, documentTypeID)
}

func (s *service) List(ctx context.Context) ([]domain.DocumentType, error) {
	return s.repo.Scan(ctx)
}

func (s *service) ListActive(ctx context.Context) ([]domain.DocumentType, error) {
	all, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]domain.DocumentType, 0, len(all))
	for _, dt := range all {
		if dt.Active {
			active = append(active, dt)
		}
	}
	return active, nil
}

func (s *service) Update(ctx context.Context, documentTypeID string, in domain.DocumentTypeInput) (*domain.DocumentType, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	dt, err := s.repo.Get(ctx, documentTypeID)
	if err != nil {
		return nil, err
	}
	oldValues := snapshot(dt)

	updates := map[string]interface{}{
		"name":            in.Name,
		"description":     in.Description,
		"processing_days": in.ProcessingDays,
	}
	dt.Name = in.Name
	dt.Description = in.Description
	dt.ProcessingDays = in.ProcessingDays
	if in.Active != nil {
		updates["active"] = *in.Active
		dt.Active = *in.Active
	}
	if err := s.repo.Update(ctx, documentTypeID, updates); err != nil {
		return nil, fmt.Errorf("update document type: %w", err)
	}
	dt.UpdatedAt = s.now().UTC()
	s.audit.Updated(ctx, subjectType, documentTypeID, "Document type updated: "+dt.Name, oldValues, snapshot(dt))
	return dt, nil
}

func (s *service) Delete(ctx context.Context, documentTypeID string) error {
	dt, err := s.repo.Get(ctx, documentTypeID)
	if err != nil {
		return err
	}
	if err := s.repo.HardDelete(ctx, documentTypeID); err != nil {
		return fmt.Errorf("delete document type: %w", err)
	}
	s.audit.Deleted(ctx, subjectType, documentTypeID, "Document type deleted: "+dt.Name, snapshot(dt))
	return nil
}

func snapshot(dt *domain.DocumentType) map[string]interface{} {
	return map[string]interface{}{
		"name":            dt.Name,
		"description":     dt.Description,
		"processing_days": dt.ProcessingDays,
		"active":          dt.Active,
	}
}
