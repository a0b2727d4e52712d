package domain

import "time"

// RequestLog actions.
const (
	LogActionRequestCreated = "request_created"
	LogActionStatusChange   = "status_change"
	LogActionNoteUpdated    = "note_updated"
	LogActionBulkDelete     = "bulk_delete"
)

// RequestLog is one row of a document request's append-only history.
// Rows are never updated or deleted. DocumentRequestID is empty for
// system-wide entries (e.g. bulk delete summaries); UserID is empty when the
// action was taken by the system or an anonymous requester.
// PK: log_id. GSI: request-index (document_request_id).
type RequestLog struct {
	LogID             string    `json:"id" dynamodbav:"log_id"`
	DocumentRequestID string    `json:"document_request_id,omitempty" dynamodbav:"document_request_id"`
	UserID            string    `json:"user_id,omitempty" dynamodbav:"user_id"`
	Action            string    `json:"action" dynamodbav:"action"`
	OldValue          string    `json:"old_value,omitempty" dynamodbav:"old_value"`
	NewValue          string    `json:"new_value,omitempty" dynamodbav:"new_value"`
	Description       string    `json:"description" dynamodbav:"description"`
	CreatedAt         time.Time `json:"created_at" dynamodbav:"created_at"`
}
