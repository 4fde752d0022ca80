package models

import (
	"time"
)

// TimelineEventType categorizes audit trail entries
type TimelineEventType string

const (
	TimelineCreated            TimelineEventType = "CREATED"
	TimelineChecklistGenerated TimelineEventType = "CHECKLIST_GENERATED"
	TimelineDocumentAdded      TimelineEventType = "DOCUMENT_ADDED"
	TimelineStatusChange       TimelineEventType = "STATUS_CHANGE"
	TimelineNote               TimelineEventType = "NOTE"
)

// TimelineEvent is the append-only audit trail of a claim. Rows are never
// mutated or deleted; derived metrics (SLA dwell time) read from it.
type TimelineEvent struct {
	ID         string            `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ClaimID    string            `gorm:"type:uuid;not null;index:idx_timeline_claim" json:"claimId"`
	Type       TimelineEventType `gorm:"type:varchar(40);not null;index" json:"type"`
	OccurredAt time.Time         `gorm:"not null;index:idx_timeline_claim" json:"occurredAt"`
	Meta       JSONB             `gorm:"type:jsonb" json:"meta,omitempty"`
	CreatedBy  string            `json:"createdBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name
func (TimelineEvent) TableName() string {
	return "timeline_events"
}
