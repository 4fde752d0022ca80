package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChecklistItemStatus is the completion state of a single checklist item
type ChecklistItemStatus string

const (
	ChecklistItemOpen          ChecklistItemStatus = "OPEN"
	ChecklistItemDone          ChecklistItemStatus = "DONE"
	ChecklistItemNotApplicable ChecklistItemStatus = "NOT_APPLICABLE"
)

// ChecklistItem is a task/evidence requirement gating claim submission.
// Items are owned by their claim; regeneration deletes and recreates the
// full set, so OrderIndex is always contiguous from 1.
type ChecklistItem struct {
	ID                  string                   `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ClaimID             string                   `gorm:"type:uuid;not null;index" json:"claimId"`
	OrderIndex          int                      `gorm:"not null" json:"orderIndex"`
	Title               string                   `gorm:"not null" json:"title"`
	Description         string                   `gorm:"type:text" json:"description,omitempty"`
	Required            bool                     `gorm:"not null;default:false" json:"required"`
	Status              ChecklistItemStatus      `gorm:"type:varchar(20);not null;default:'OPEN'" json:"status"`
	RequiredDocMinCount int                      `gorm:"not null;default:0" json:"requiredDocMinCount"`
	RequiredDocTypes    datatypes.JSONSlice[string] `json:"requiredDocTypes"`
	PrimaryDocumentID   *string                  `gorm:"type:uuid" json:"primaryDocumentId,omitempty"`
	CompletedAt         *time.Time               `json:"completedAt,omitempty"`
	CompletedBy         *string                  `json:"completedBy,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	DocumentLinks []ChecklistItemDocument `gorm:"foreignKey:ChecklistItemID" json:"documentLinks,omitempty"`
}

// TableName specifies the table name for ChecklistItem model
func (ChecklistItem) TableName() string {
	return "checklist_items"
}

// ChecklistItemDocument links a claim document to a checklist item as
// supporting evidence. A pair is linked at most once.
type ChecklistItemDocument struct {
	ID              string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ChecklistItemID string `gorm:"type:uuid;not null;uniqueIndex:ux_item_doc,priority:1" json:"checklistItemId"`
	ClaimDocumentID string `gorm:"type:uuid;not null;uniqueIndex:ux_item_doc,priority:2" json:"claimDocumentId"`

	CreatedAt time.Time `json:"createdAt"`

	// Relations
	ClaimDocument *ClaimDocument `gorm:"foreignKey:ClaimDocumentID" json:"claimDocument,omitempty"`
}

// TableName specifies the table name
func (ChecklistItemDocument) TableName() string {
	return "checklist_item_documents"
}
