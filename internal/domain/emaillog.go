package domain

import "time"

// Email delivery outcomes.
const (
	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"
)

// EmailLog records one outbound email attempt. Dispatch is best-effort, so
// the log is the only trace of failures.
// PK: email_id.
type EmailLog struct {
	EmailID           string    `json:"id" dynamodbav:"email_id"`
	DocumentRequestID string    `json:"document_request_id,omitempty" dynamodbav:"document_request_id"`
	Recipient         string    `json:"recipient" dynamodbav:"recipient"`
	Kind              string    `json:"kind" dynamodbav:"kind"` // template kind
	Subject           string    `json:"subject" dynamodbav:"subject"`
	Status            string    `json:"status" dynamodbav:"status"`
	Error             string    `json:"error,omitempty" dynamodbav:"error"`
	CreatedAt         time.Time `json:"created_at" dynamodbav:"created_at"`
}
