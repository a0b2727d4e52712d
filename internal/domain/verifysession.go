package domain

import "time"

// VerificationSession is a short-lived marker proving an email passed an OTP
// check. It gates the multi-step public flows (form submission, tracking
// detail, dashboard). Valid only within a rolling window from VerifiedAt;
// detecting expiry deletes the marker, it is never silently extended.
// PK: token.
type VerificationSession struct {
	Token      string    `json:"-" dynamodbav:"token"` // opaque, server-issued
	Email      string    `json:"email" dynamodbav:"email"`
	Purpose    string    `json:"purpose" dynamodbav:"purpose"`
	VerifiedAt time.Time `json:"verified_at" dynamodbav:"verified_at"`
}

// GateStatus is the outcome of a verification-gate check.
type GateStatus int

const (
	GateNotVerified GateStatus = iota
	GateVerified
	GateExpired
)

func (s GateStatus) String() string {
	switch s {
	case GateVerified:
		return "verified"
	case GateExpired:
		return "expired"
	default:
		return "not_verified"
	}
}
