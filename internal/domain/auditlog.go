package domain

import "time"

// Audit actions.
const (
	AuditActionCreate      = "CREATE"
	AuditActionUpdate      = "UPDATE"
	AuditActionDelete      = "DELETE"
	AuditActionLogin       = "LOGIN"
	AuditActionLogout      = "LOGOUT"
	AuditActionLoginFailed = "LOGIN_FAILED"
)

// AuditLog is a generic append-only record of who changed what, or who tried
// to authenticate. Subject references are weak (type + id) so entries survive
// subject deletion. UserRole is a snapshot taken at write time; later role
// changes must not alter history.
// PK: audit_id.
type AuditLog struct {
	AuditID     string                 `json:"id" dynamodbav:"audit_id"`
	UserID      string                 `json:"user_id,omitempty" dynamodbav:"user_id"`
	UserRole    string                 `json:"user_role" dynamodbav:"user_role"` // "system" when no actor
	Action      string                 `json:"action" dynamodbav:"action"`
	SubjectType string                 `json:"subject_type,omitempty" dynamodbav:"subject_type"`
	SubjectID   string                 `json:"subject_id,omitempty" dynamodbav:"subject_id"`
	Description string                 `json:"description" dynamodbav:"description"`
	OldValues   map[string]interface{} `json:"old_values,omitempty" dynamodbav:"old_values"`
	NewValues   map[string]interface{} `json:"new_values,omitempty" dynamodbav:"new_values"`
	IPAddress   string                 `json:"ip_address,omitempty" dynamodbav:"ip_address"`
	UserAgent   string                 `json:"user_agent,omitempty" dynamodbav:"user_agent"`
	CreatedAt   time.Time              `json:"created_at" dynamodbav:"created_at"`
}
