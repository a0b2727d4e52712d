package request

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-registrar-portal/internal/domain"
	"github.com/go-registrar-portal/internal/pkg/id"
	"github.com/go-registrar-portal/internal/pkg/tracking"
	"github.com/go-registrar-portal/internal/pkg/validate"
)

const (
	subjectType           = "document_request"
	defaultProcessingDays = 7
)

type Store interface {
	Put(ctx context.Context, dr *domain.DocumentRequest) error
	Get(ctx context.Context, requestID string) (*domain.DocumentRequest, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*domain.DocumentRequest, error)
	TrackingIDExists(ctx context.Context, trackingID string) (bool, error)
	ListByEmail(ctx context.Context, email string) ([]domain.DocumentRequest, error)
	HasRecentPending(ctx context.Context, email, documentTypeID string, since time.Time) (bool, error)
	Update(ctx context.Context, requestID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, requestID string) error
	Restore(ctx context.Context, requestID string) error
	ScanPage(ctx context.Context, limit int32, cursor string, f domain.RequestFilter) ([]domain.DocumentRequest, string, error)
}

type LogStore interface {
	Append(ctx context.Context, l *domain.RequestLog) error
	ListByRequest(ctx context.Context, documentRequestID string) ([]domain.RequestLog, error)
}

type DocTypeStore interface {
	Get(ctx context.Context, documentTypeID string) (*domain.DocumentType, error)
}

type FileStore interface {
	UploadBase64(ctx context.Context, key, b64Data string) (string, error)
}

type Auditor interface {
	Created(ctx context.Context, subjectType, subjectID, description string, values map[string]interface{})
	Updated(ctx context.Context, subjectType, subjectID, description string, oldValues, newValues map[string]interface{})
	Deleted(ctx context.Context, subjectType, subjectID, description string, values map[string]interface{})
}

type Notifier interface {
	RequestSubmitted(ctx context.Context, dr *domain.DocumentRequest)
	StatusUpdated(ctx context.Context, dr *domain.DocumentRequest, oldStatus string)
}

type BulkResult struct {
	Affected int `json:"affected"`
}

type Service interface {
	Create(ctx context.Context, in domain.CreateRequestInput) (*domain.DocumentRequest, error)
	Get(ctx context.Context, requestID string) (*domain.DocumentRequest, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*domain.DocumentRequest, error)
	ListByEmail(ctx context.Context, email string) ([]domain.DocumentRequest, error)
	ListPage(ctx context.Context, limit int32, cursor string, f domain.RequestFilter) ([]domain.DocumentRequest, string, error)
	Logs(ctx context.Context, requestID string) ([]domain.RequestLog, error)
	UpdateStatus(ctx context.Context, requestID string, in domain.UpdateStatusInput, actorID string) (*domain.DocumentRequest, error)
	UpdateNotes(ctx context.Context, requestID string, in domain.UpdateNotesInput, actorID string) (*domain.DocumentRequest, error)
	Delete(ctx context.Context, requestID string) error
	Restore(ctx context.Context, requestID string) error
	Bulk(ctx context.Context, in domain.BulkActionInput, actorID string) (*BulkResult, error)
}

type ServiceDeps struct {
	Repo     Store
	Logs     LogStore
	DocTypes DocTypeStore
	Files    FileStore
	Audit    Auditor
	Notify   Notifier

	DuplicateWindow    time.Duration
	TrackingPrefix     string
	TrackingMaxRetries int
	Now                func() time.Time
}

type service struct {
	repo     Store
	logs     LogStore
	docTypes DocTypeStore
	files    FileStore
	audit    Auditor
	notify   Notifier

	dupWindow time.Duration
	tracker   *tracking.Generator
	now       func() time.Time
}

func NewService(deps ServiceDeps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{
		repo:      deps.Repo,
		logs:      deps.Logs,
		docTypes:  deps.DocTypes,
		files:     deps.Files,
		audit:     deps.Audit,
		notify:    deps.Notify,
		dupWindow: deps.DuplicateWindow,
		tracker:   tracking.NewGenerator(deps.TrackingPrefix, deps.TrackingMaxRetries, deps.Repo.TrackingIDExists),
		now:       deps.Now,
	}
}

func (s *service) Create(ctx context.Context, in domain.CreateRequestInput) (*domain.DocumentRequest, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}

	dt, err := s.docTypes.Get(ctx, in.DocumentTypeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("unknown document type: %w", domain.ErrBadRequest)
		}
		return nil, err
	}
	if !dt.Active {
		return nil, fmt.Errorf("document type not available: %w", domain.ErrBadRequest)
	}

	// One pending request per (email, document type) per window. Checked
	// before any write so a rejection leaves no trace.
	now := s.now().UTC()
	dup, err := s.repo.HasRecentPending(ctx, in.Email, in.DocumentTypeID, now.Add(-s.dupWindow))
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if dup {
		return nil, fmt.Errorf("a pending request for this document already exists: %w", domain.ErrConflict)
	}

	trackingID, err := s.tracker.Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("tracking id: %w", err)
	}

	requestID := id.New()
	var photoKey, signatureKey string
	if in.Photo != "" {
		photoKey, err = s.files.UploadBase64(ctx, "requests/"+requestID+"/photo", in.Photo)
		if err != nil {
			return nil, fmt.Errorf("upload photo: %w", err)
		}
	}
	signatureKey, err = s.files.UploadBase64(ctx, "requests/"+requestID+"/signature", in.Signature)
	if err != nil {
		return nil, fmt.Errorf("upload signature: %w", err)
	}

	quantity := in.Quantity
	if quantity == 0 {
		quantity = 1
	}
	processingDays := dt.ProcessingDays
	if processingDays <= 0 {
		processingDays = defaultProcessingDays
	}

	dr := &domain.DocumentRequest{
		RequestID:      requestID,
		TrackingID:     trackingID,
		Email:          in.Email,
		FirstName:      in.FirstName,
		MiddleName:     in.MiddleName,
		LastName:       in.LastName,
		LRN:            in.LRN,
		GradeLevel:     in.GradeLevel,
		Section:        in.Section,
		TrackStrand:    in.TrackStrand,
		SchoolYear:     in.SchoolYear,
		DocumentTypeID: in.DocumentTypeID,
		Purpose:        in.Purpose,
		Quantity:       quantity,
		PhotoKey:       photoKey,
		SignatureKey:   signatureKey,

		Status:                  domain.StatusPending,
		EstimatedCompletionDate: addBusinessDays(now, processingDays),
		OtpVerified:             true,

		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Put(ctx, dr); err != nil {
		return nil, fmt.Errorf("store request: %w", err)
	}
	dr.DocumentType = dt

	s.appendLog(ctx, &domain.RequestLog{
		DocumentRequestID: requestID,
		Action:            domain.LogActionRequestCreated,
		NewValue:          domain.StatusPending,
		Description:       "Request submitted",
	})
	s.audit.Created(ctx, subjectType, requestID, "Document request submitted: "+trackingID, snapshot(dr))
	s.notify.RequestSubmitted(ctx, dr)
	return dr, nil
}

func (s *service) Get(ctx context.Context, requestID string) (*domain.DocumentRequest, error) {
	dr, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	s.attachDocType(ctx, dr)
	return dr, nil
}

func (s *service) GetByTrackingID(ctx context.Context, trackingID string) (*domain.DocumentRequest, error) {
	dr, err := s.repo.GetByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	s.attachDocType(ctx, dr)
	return dr, nil
}

func (s *service) ListByEmail(ctx context.Context, email string) ([]domain.DocumentRequest, error) {
	list, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	for i := range list {
		s.attachDocType(ctx, &list[i])
	}
	return list, nil
}

func (s *service) ListPage(ctx context.Context, limit int32, cursor string, f domain.RequestFilter) ([]domain.DocumentRequest, string, error) {
	if f.Status != "" && !domain.ValidStatus(f.Status) {
		return nil, "", fmt.Errorf("unknown status %q: %w", f.Status, domain.ErrBadRequest)
	}
	list, next, err := s.repo.ScanPage(ctx, limit, cursor, f)
	if err != nil {
		return nil, "", err
	}
	for i := range list {
		s.attachDocType(ctx, &list[i])
	}
	return list, next, nil
}

func (s *service) Logs(ctx context.Context, requestID string) ([]domain.RequestLog, error) {
	if _, err := s.repo.Get(ctx, requestID); err != nil {
		return nil, err
	}
	return s.logs.ListByRequest(ctx, requestID)
}

func (s *service) UpdateStatus(ctx context.Context, requestID string, in domain.UpdateStatusInput, actorID string) (*domain.DocumentRequest, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if !domain.ValidStatus(in.Status) {
		return nil, fmt.Errorf("unknown status %q: %w", in.Status, domain.ErrBadRequest)
	}

	dr, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	oldStatus := dr.Status
	oldNotes := dr.AdminNotes
	now := s.now().UTC()

	updates := map[string]interface{}{"status": in.Status}
	if in.Notes != "" {
		updates["admin_notes"] = in.Notes
	}
	if actorID != "" {
		updates["processed_by"] = actorID
	}
	// completed_at marks the first completion and survives later changes
	firstCompletion := in.Status == domain.StatusCompleted && dr.CompletedAt == nil
	if firstCompletion {
		updates["completed_at"] = now
	}
	if err := s.repo.Update(ctx, requestID, updates); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	dr.Status = in.Status
	if in.Notes != "" {
		dr.AdminNotes = in.Notes
	}
	if actorID != "" {
		dr.ProcessedBy = &actorID
	}
	if firstCompletion {
		dr.CompletedAt = &now
	}
	dr.UpdatedAt = now

	description := in.Notes
	if description == "" {
		description = fmt.Sprintf("Status changed from %s to %s", oldStatus, in.Status)
	}
	s.appendLog(ctx, &domain.RequestLog{
		DocumentRequestID: requestID,
		UserID:            actorID,
		Action:            domain.LogActionStatusChange,
		OldValue:          oldStatus,
		NewValue:          in.Status,
		Description:       description,
	})

	oldValues := map[string]interface{}{"status": oldStatus, "admin_notes": oldNotes}
	newValues := map[string]interface{}{"status": dr.Status, "admin_notes": dr.AdminNotes}
	if firstCompletion {
		newValues["completed_at"] = now.Format(time.RFC3339)
	}
	s.audit.Updated(ctx, subjectType, requestID, "Status updated: "+dr.TrackingID, oldValues, newValues)

	s.attachDocType(ctx, dr)
	s.notify.StatusUpdated(ctx, dr, oldStatus)
	return dr, nil
}

func (s *service) UpdateNotes(ctx context.Context, requestID string, in domain.UpdateNotesInput, actorID string) (*domain.DocumentRequest, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	dr, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	oldNotes := dr.AdminNotes
	if err := s.repo.Update(ctx, requestID, map[string]interface{}{"admin_notes": in.AdminNotes}); err != nil {
		return nil, fmt.Errorf("update notes: %w", err)
	}
	dr.AdminNotes = in.AdminNotes
	dr.UpdatedAt = s.now().UTC()

	s.appendLog(ctx, &domain.RequestLog{
		DocumentRequestID: requestID,
		UserID:            actorID,
		Action:            domain.LogActionNoteUpdated,
		OldValue:          oldNotes,
		NewValue:          in.AdminNotes,
		Description:       "Admin notes updated",
	})
	s.audit.Updated(ctx, subjectType, requestID, "Notes updated: "+dr.TrackingID,
		map[string]interface{}{"admin_notes": oldNotes},
		map[string]interface{}{"admin_notes": in.AdminNotes})
	return dr, nil
}

func (s *service) Delete(ctx context.Context, requestID string) error {
	dr, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, requestID); err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	s.audit.Deleted(ctx, subjectType, requestID, "Document request deleted: "+dr.TrackingID, snapshot(dr))
	return nil
}

func (s *service) Restore(ctx context.Context, requestID string) error {
	dr, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if dr.DeletedAt == nil {
		return fmt.Errorf("request is not deleted: %w", domain.ErrBadRequest)
	}
	if err := s.repo.Restore(ctx, requestID); err != nil {
		return fmt.Errorf("restore request: %w", err)
	}
	s.audit.Updated(ctx, subjectType, requestID, "Document request restored: "+dr.TrackingID,
		map[string]interface{}{"deleted_at": dr.DeletedAt.Format(time.RFC3339)},
		map[string]interface{}{"deleted_at": nil})
	return nil
}

func (s *service) Bulk(ctx context.Context, in domain.BulkActionInput, actorID string) (*BulkResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	switch in.Action {
	case domain.BulkActionStatusUpdate:
		return s.bulkUpdateStatus(ctx, in.RequestIDs, in.Status, actorID)
	case domain.BulkActionDelete:
		return s.bulkDelete(ctx, in.RequestIDs, actorID)
	default:
		return nil, fmt.Errorf("unknown bulk action %q: %w", in.Action, domain.ErrBadRequest)
	}
}

// bulkUpdateStatus runs the full single-record update per item, so each
// request gets its own log entry, audit entry, and notification email.
func (s *service) bulkUpdateStatus(ctx context.Context, requestIDs []string, status, actorID string) (*BulkResult, error) {
	if !domain.ValidStatus(status) {
		return nil, fmt.Errorf("unknown status %q: %w", status, domain.ErrBadRequest)
	}
	affected := 0
	for _, requestID := range requestIDs {
		if _, err := s.UpdateStatus(ctx, requestID, domain.UpdateStatusInput{Status: status}, actorID); err != nil {
			slog.Warn("bulk status update skipped item", "request_id", requestID, "error", err)
			continue
		}
		affected++
	}
	return &BulkResult{Affected: affected}, nil
}

// bulkDelete audits each record but writes a single summary log entry for
// the whole batch.
func (s *service) bulkDelete(ctx context.Context, requestIDs []string, actorID string) (*BulkResult, error) {
	affected := 0
	for _, requestID := range requestIDs {
		dr, err := s.repo.Get(ctx, requestID)
		if err != nil {
			slog.Warn("bulk delete skipped item", "request_id", requestID, "error", err)
			continue
		}
		if err := s.repo.SoftDelete(ctx, requestID); err != nil {
			slog.Warn("bulk delete skipped item", "request_id", requestID, "error", err)
			continue
		}
		s.audit.Deleted(ctx, subjectType, requestID, "Document request deleted: "+dr.TrackingID, snapshot(dr))
		affected++
	}
	s.appendLog(ctx, &domain.RequestLog{
		UserID:      actorID,
		Action:      domain.LogActionBulkDelete,
		Description: fmt.Sprintf("Bulk deleted %d document requests", affected),
	})
	return &BulkResult{Affected: affected}, nil
}

func (s *service) appendLog(ctx context.Context, l *domain.RequestLog) {
	l.LogID = id.New()
	l.CreatedAt = s.now().UTC()
	if err := s.logs.Append(ctx, l); err != nil {
		slog.Warn("request log append failed", "request_id", l.DocumentRequestID, "action", l.Action, "error", err)
	}
}

func (s *service) attachDocType(ctx context.Context, dr *domain.DocumentRequest) {
	if dr.DocumentType != nil || dr.DocumentTypeID == "" {
		return
	}
	dt, err := s.docTypes.Get(ctx, dr.DocumentTypeID)
	if err != nil {
		slog.Warn("document type lookup failed", "document_type_id", dr.DocumentTypeID, "error", err)
		return
	}
	dr.DocumentType = dt
}

// addBusinessDays advances from by n weekdays, skipping Saturdays and
// Sundays.
func addBusinessDays(from time.Time, n int) time.Time {
	d := from
	for added := 0; added < n; {
		d = d.AddDate(0, 0, 1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return d
}

// snapshot picks the attributes worth recording on create/delete audit
// entries.
func snapshot(dr *domain.DocumentRequest) map[string]interface{} {
	m := map[string]interface{}{
		"tracking_id":      dr.TrackingID,
		"email":            dr.Email,
		"first_name":       dr.FirstName,
		"last_name":        dr.LastName,
		"lrn":              dr.LRN,
		"document_type_id": dr.DocumentTypeID,
		"purpose":          dr.Purpose,
		"quantity":         dr.Quantity,
		"status":           dr.Status,
	}
	if dr.AdminNotes != "" {
		m["admin_notes"] = dr.AdminNotes
	}
	return m
}
