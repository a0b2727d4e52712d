package handler

import (
	"context"
	"net/http"

	"github.com/go-registrar-portal/internal/domain"
)

// AuditLogReader pages through the audit trail.
type AuditLogReader interface {
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.AuditLog, string, error)
}

// EmailLogReader pages through the outbound mail log.
type EmailLogReader interface {
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.EmailLog, string, error)
}

// AuditLogHandler serves the read-only audit and email log listings.
type AuditLogHandler struct {
	auditLogs AuditLogReader
	emailLogs EmailLogReader
}

func NewAuditLogHandler(auditLogs AuditLogReader, emailLogs EmailLogReader) *AuditLogHandler {
	return &AuditLogHandler{auditLogs: auditLogs, emailLogs: emailLogs}
}

func (h *AuditLogHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)
	logs, next, err := h.auditLogs.ScanPage(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope{Data: logs, NextCursor: next})
}

func (h *AuditLogHandler) ListEmailLogs(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)
	logs, next, err := h.emailLogs.ScanPage(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope{Data: logs, NextCursor: next})
}
