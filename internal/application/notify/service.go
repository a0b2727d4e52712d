package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-registrar-portal/internal/domain"
	"github.com/go-registrar-portal/internal/pkg/id"
)

// Email kinds recorded in the dispatch log.
const (
	KindOtpCode          = "otp_code"
	KindRequestSubmitted = "request_submitted"
	KindStatusUpdated    = "status_updated"
)

type Mailer interface {
	SendEmail(to, subject, body string) error
}

type LogStore interface {
	Append(ctx context.Context, entry *domain.EmailLog) error
}

// Service sends portal mail. Every method is fire-and-forget: delivery
// failures are logged, recorded in the email log, and never surfaced to the
// operation that triggered the mail.
type Service interface {
	OtpCode(ctx context.Context, email, purpose, code string, ttl time.Duration)
	RequestSubmitted(ctx context.Context, dr *domain.DocumentRequest)
	StatusUpdated(ctx context.Context, dr *domain.DocumentRequest, oldStatus string)
}

type ServiceDeps struct {
	Mailer Mailer
	Logs   LogStore
	Now    func() time.Time
}

type service struct {
	mailer Mailer
	logs   LogStore
	now    func() time.Time
}

func NewService(deps ServiceDeps) Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{mailer: deps.Mailer, logs: deps.Logs, now: deps.Now}
}

func (s *service) OtpCode(ctx context.Context, email, purpose, code string, ttl time.Duration) {
	subject := "Your verification code"
	body := fmt.Sprintf(
		"Your one-time verification code is %s.\n\nIt expires in %d minutes. If you did not request this code, you can ignore this email.",
		code, int(ttl.Minutes()))
	s.dispatch(ctx, email, "", KindOtpCode, subject, body)
}

func (s *service) RequestSubmitted(ctx context.Context, dr *domain.DocumentRequest) {
	docName := documentName(dr)
	subject := "Document request received: " + dr.TrackingID
	body := fmt.Sprintf(
		"Hi %s,\n\nWe received your request for %s.\n\nTracking ID: %s\nEstimated completion: %s\n\nYou can follow the status anytime using your tracking ID.",
		dr.FullName(), docName, dr.TrackingID, dr.EstimatedCompletionDate.Format("January 2, 2006"))
	s.dispatch(ctx, dr.Email, dr.RequestID, KindRequestSubmitted, subject, body)
}

func (s *service) StatusUpdated(ctx context.Context, dr *domain.DocumentRequest, oldStatus string) {
	subject := fmt.Sprintf("Request %s is now %s", dr.TrackingID, dr.Status)
	body := fmt.Sprintf(
		"Hi %s,\n\nThe status of your request %s changed from %s to %s.",
		dr.FullName(), dr.TrackingID, oldStatus, dr.Status)
	if dr.AdminNotes != "" {
		body += "\n\nNote from the registrar: " + dr.AdminNotes
	}
	s.dispatch(ctx, dr.Email, dr.RequestID, KindStatusUpdated, subject, body)
}

func (s *service) dispatch(ctx context.Context, to, requestID, kind, subject, body string) {
	entry := &domain.EmailLog{
		EmailID:           id.New(),
		DocumentRequestID: requestID,
		Recipient:         to,
		Kind:              kind,
		Subject:           subject,
		Status:            domain.EmailStatusSent,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.mailer.SendEmail(to, subject, body); err != nil {
		entry.Status = domain.EmailStatusFailed
		entry.Error = err.Error()
		slog.Warn("email dispatch failed", "kind", kind, "recipient", to, "error", err)
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		slog.Warn("email log append failed", "kind", kind, "recipient", to, "error", err)
	}
}

func documentName(dr *domain.DocumentRequest) string {
	if dr.DocumentType != nil {
		return dr.DocumentType.Name
	}
	return "the requested document"
}
