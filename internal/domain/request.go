package domain

import "time"

// Document request statuses. The status field deliberately has no transition
// table: registrars may move a request from any status to any other to correct
// mistakes. Only the value set is validated.
const (
	StatusPending    = "Pending"
	StatusVerified   = "Verified"
	StatusProcessing = "Processing"
	StatusReady      = "Ready"
	StatusCompleted  = "Completed"
	StatusRejected   = "Rejected"
)

// RequestStatuses lists every valid status value.
var RequestStatuses = []string{
	StatusPending, StatusVerified, StatusProcessing,
	StatusReady, StatusCompleted, StatusRejected,
}

// ValidStatus reports whether s is one of the six request statuses.
func ValidStatus(s string) bool {
	for _, v := range RequestStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// DocumentRequest is a student's request for a school document.
// PK: request_id. GSIs: tracking_id-index, email-index.
type DocumentRequest struct {
	RequestID      string `json:"id" dynamodbav:"request_id"`
	TrackingID     string `json:"tracking_id" dynamodbav:"tracking_id"` // PREFIX-XXXXXXXX, immutable
	Email          string `json:"email" dynamodbav:"email"`
	FirstName      string `json:"first_name" dynamodbav:"first_name"`
	MiddleName     string `json:"middle_name,omitempty" dynamodbav:"middle_name"`
	LastName       string `json:"last_name" dynamodbav:"last_name"`
	LRN            string `json:"lrn" dynamodbav:"lrn"` // 12-digit learner reference number
	GradeLevel     string `json:"grade_level" dynamodbav:"grade_level"`
	Section        string `json:"section" dynamodbav:"section"`
	TrackStrand    string `json:"track_strand,omitempty" dynamodbav:"track_strand"`
	SchoolYear     string `json:"school_year_last_attended" dynamodbav:"school_year"`
	DocumentTypeID string `json:"document_type_id" dynamodbav:"document_type_id"`
	Purpose        string `json:"purpose" dynamodbav:"purpose"`
	Quantity       int    `json:"quantity" dynamodbav:"quantity"`
	PhotoKey       string `json:"photo_key,omitempty" dynamodbav:"photo_key"`         // S3 object key
	SignatureKey   string `json:"signature_key,omitempty" dynamodbav:"signature_key"` // S3 object key

	Status                  string     `json:"status" dynamodbav:"status"`
	AdminNotes              string     `json:"admin_notes,omitempty" dynamodbav:"admin_notes"`
	ProcessedBy             *string    `json:"processed_by,omitempty" dynamodbav:"processed_by"` // staff user_id
	EstimatedCompletionDate time.Time  `json:"estimated_completion_date" dynamodbav:"estimated_completion_date"`
	CompletedAt             *time.Time `json:"completed_at,omitempty" dynamodbav:"completed_at"` // set once, first Completed
	OtpVerified             bool       `json:"otp_verified" dynamodbav:"otp_verified"`

	DeletedAt *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt time.Time  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" dynamodbav:"updated_at"`

	DocumentType *DocumentType `json:"document_type,omitempty" dynamodbav:"-"`
}

// FullName renders "First M. Last" with the middle name reduced to an initial.
func (r *DocumentRequest) FullName() string {
	name := r.FirstName
	if r.MiddleName != "" {
		name += " " + string([]rune(r.MiddleName)[0:1]) + "."
	}
	return name + " " + r.LastName
}

type CreateRequestInput struct {
	Email          string `json:"email" validate:"required,email"`
	FirstName      string `json:"first_name" validate:"required,max=255"`
	MiddleName     string `json:"middle_name" validate:"max=255"`
	LastName       string `json:"last_name" validate:"required,max=255"`
	LRN            string `json:"lrn" validate:"required,len=12,numeric"`
	GradeLevel     string `json:"grade_level" validate:"required"`
	Section        string `json:"section" validate:"required,max=255"`
	TrackStrand    string `json:"track_strand" validate:"max=255"`
	SchoolYear     string `json:"school_year_last_attended" validate:"required,max=20"`
	DocumentTypeID string `json:"document_type_id" validate:"required"`
	Purpose        string `json:"purpose" validate:"required,max=1000"`
	Quantity       int    `json:"quantity" validate:"omitempty,min=1,max=10"`
	Photo          string `json:"photo"`                                 // base64, optional
	Signature      string `json:"signature" validate:"required"`         // base64 data URL
}

// RequestFilter narrows the admin listing. Zero value lists all live requests.
type RequestFilter struct {
	Status  string // exact status match when non-empty
	Search  string // substring match on tracking ID, email, or name
	Deleted bool   // trash view when true
}

type UpdateStatusInput struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes" validate:"max=1000"`
}

type UpdateNotesInput struct {
	AdminNotes string `json:"admin_notes" validate:"max=2000"`
}

// Bulk actions mirror the single-record operations across a set of request IDs.
const (
	BulkActionDelete       = "delete"
	BulkActionStatusUpdate = "status_update"
)

type BulkActionInput struct {
	Action     string   `json:"action" validate:"required,oneof=delete status_update"`
	RequestIDs []string `json:"request_ids" validate:"required,min=1"`
	Status     string   `json:"status" validate:"required_if=Action status_update"`
}
