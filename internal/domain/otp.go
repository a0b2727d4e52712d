package domain

import "time"

// OTP purposes. A code is only valid for the flow it was issued for.
const (
	OtpPurposeRequest   = "request"   // submitting a new document request
	OtpPurposeTracking  = "tracking"  // viewing full tracking detail
	OtpPurposeDashboard = "dashboard" // listing a requester's own requests
)

// ValidOtpPurpose reports whether purpose is one of the known OTP purposes.
func ValidOtpPurpose(purpose string) bool {
	switch purpose {
	case OtpPurposeRequest, OtpPurposeTracking, OtpPurposeDashboard:
		return true
	}
	return false
}

// OtpCode is a single-use 6-digit code proving control of an email address.
// PK: email, SK: purpose#otp_id. Rows are never deleted on consumption; the
// retention pruner removes them once they age out.
// ExpiresAt is Unix seconds so the atomic consume can compare it numerically
// inside a DynamoDB condition expression.
type OtpCode struct {
	Email     string    `json:"email" dynamodbav:"email"`
	SK        string    `json:"-" dynamodbav:"sk"` // purpose + "#" + otp_id
	OtpID     string    `json:"id" dynamodbav:"otp_id"`
	Code      string    `json:"-" dynamodbav:"code"` // 6 digits, zero-padded
	Purpose   string    `json:"purpose" dynamodbav:"purpose"`
	Used      bool      `json:"used" dynamodbav:"used"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // Unix seconds
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}

// Active reports whether the code can still be consumed.
func (o *OtpCode) Active(now time.Time) bool {
	return !o.Used && now.Unix() < o.ExpiresAt
}

type SendOtpRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOtpRequest struct {
	Email string `json:"email" validate:"required,email"`
	Otp   string `json:"otp" validate:"required,len=6,numeric"`
}
