package domain

import "time"

// DocumentType is a kind of document the registrar issues (transcript,
// certificate of enrollment, ...). ProcessingDays drives the estimated
// completion date of new requests.
type DocumentType struct {
	DocumentTypeID string    `json:"id" dynamodbav:"document_type_id"`
	Name           string    `json:"name" dynamodbav:"name"`
	Description    string    `json:"description" dynamodbav:"description"`
	ProcessingDays int       `json:"processing_days" dynamodbav:"processing_days"`
	Active         bool      `json:"active" dynamodbav:"active"`
	CreatedAt      time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

type DocumentTypeInput struct {
	Name           string `json:"name" validate:"required,max=255"`
	Description    string `json:"description" validate:"max=1000"`
	ProcessingDays int    `json:"processing_days" validate:"required,min=1,max=60"`
	Active         *bool  `json:"active"`
}
