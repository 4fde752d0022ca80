package models

import (
	"time"

	"gorm.io/gorm"
)

// ClaimStatus is the lifecycle state of a claim
type ClaimStatus string

const (
	ClaimStatusDraft       ClaimStatus = "DRAFT"
	ClaimStatusInProgress  ClaimStatus = "IN_PROGRESS"
	ClaimStatusSubmitted   ClaimStatus = "SUBMITTED"
	ClaimStatusUnderReview ClaimStatus = "UNDER_REVIEW"
	ClaimStatusApproved    ClaimStatus = "APPROVED"
	ClaimStatusDenied      ClaimStatus = "DENIED"
	ClaimStatusClosed      ClaimStatus = "CLOSED"
)

// ClaimType categorizes what kind of coverage a claim runs against
type ClaimType string

const (
	ClaimTypeInsurance ClaimType = "INSURANCE"
	ClaimTypeWarranty  ClaimType = "WARRANTY"
	ClaimTypeRepair    ClaimType = "REPAIR"
	ClaimTypeOther     ClaimType = "OTHER"
)

// Claim represents an insurance/warranty/repair claim tied to a property.
// Status moves only through the transition table; ChecklistCompletionPct is
// always derived from checklist items, never set by callers.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type Claim struct {
	ID                     string      `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PropertyID             string      `gorm:"type:uuid;not null;index" json:"propertyId"`
	Title                  string      `gorm:"not null" json:"title"`
	Description            string      `gorm:"type:text" json:"description,omitempty"`
	Status                 ClaimStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	Type                   ClaimType   `gorm:"type:varchar(20);not null;index" json:"type"`
	SourceType             string      `gorm:"default:'MANUAL'" json:"sourceType"`
	ProviderName           *string     `json:"providerName,omitempty"`
	ClaimNumber            *string     `json:"claimNumber,omitempty"`
	ExternalURL            *string     `json:"externalUrl,omitempty"`
	InsurancePolicyID      *string     `gorm:"type:uuid" json:"insurancePolicyId,omitempty"`
	WarrantyID             *string     `gorm:"type:uuid" json:"warrantyId,omitempty"`
	IncidentAt             *time.Time  `json:"incidentAt,omitempty"`
	OpenedAt               *time.Time  `json:"openedAt,omitempty"`
	SubmittedAt            *time.Time  `json:"submittedAt,omitempty"`
	ClosedAt               *time.Time  `json:"closedAt,omitempty"`
	NextFollowUpAt         *time.Time  `json:"nextFollowUpAt,omitempty"`
	DeductibleAmount       *float64    `json:"deductibleAmount,omitempty"`
	EstimatedLossAmount    *float64    `json:"estimatedLossAmount,omitempty"`
	SettlementAmount       *float64    `json:"settlementAmount,omitempty"`
	ChecklistCompletionPct int         `gorm:"not null;default:0" json:"checklistCompletionPct"`
	LastActivityAt         time.Time   `gorm:"not null" json:"lastActivityAt"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	ChecklistItems []ChecklistItem `gorm:"foreignKey:ClaimID" json:"checklistItems,omitempty"`
	Documents      []ClaimDocument `gorm:"foreignKey:ClaimID" json:"documents,omitempty"`
}

// TableName specifies the table name for Claim model
func (Claim) TableName() string {
	return "claims"
}

// Property is the scoping aggregate claims hang off. Lookups are always by
// (property_id, claim_id) together, never by claim id alone.
type Property struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name    string `gorm:"not null" json:"name"`
	Address string `json:"address,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Property model
func (Property) TableName() string {
	return "properties"
}

// CoverageAnalysis caches the coverage-gap report for a property. Claim
// mutations flip Stale; recomputation is an external concern.
type CoverageAnalysis struct {
	ID         string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PropertyID string     `gorm:"type:uuid;not null;uniqueIndex" json:"propertyId"`
	Stale      bool       `gorm:"not null;default:true" json:"stale"`
	ComputedAt *time.Time `json:"computedAt,omitempty"`
	Report     JSONB      `gorm:"type:jsonb" json:"report,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name
func (CoverageAnalysis) TableName() string {
	return "coverage_analyses"
}
