package models

import (
	"time"

	"gorm.io/gorm"
)

// ClaimDocument records a piece of evidence attached to a claim. Only the
// opaque storage reference is kept here; raw bytes never enter the database.
type ClaimDocument struct {
	ID         string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ClaimID    string  `gorm:"type:uuid;not null;index" json:"claimId"`
	DocumentID string  `gorm:"not null" json:"documentId"` // storage reference (URL or key)
	Type       string  `gorm:"not null;index" json:"type"` // e.g. "PHOTO", "INVOICE", "POLICY", "REPORT"
	Title      *string `json:"title,omitempty"`
	Notes      *string `gorm:"type:text" json:"notes,omitempty"`
	MimeType   string  `json:"mimeType,omitempty"`
	SizeBytes  int64   `json:"sizeBytes,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name
func (ClaimDocument) TableName() string {
	return "claim_documents"
}
