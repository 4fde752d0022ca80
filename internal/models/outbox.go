package models

import (
	"time"

	"gorm.io/datatypes"
)

// OutboxEventStatus tracks dispatch progress of a domain event
type OutboxEventStatus string

const (
	OutboxPending    OutboxEventStatus = "PENDING"
	OutboxDispatched OutboxEventStatus = "DISPATCHED"
	OutboxFailed     OutboxEventStatus = "FAILED"
)

// OutboxEvent is a durably recorded domain event awaiting dispatch.
// Invariant: for any non-null idempotency key at most one row ever exists;
// the unique index is what resolves concurrent emits with the same key.
type OutboxEvent struct {
	ID             string            `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Type           string            `gorm:"not null;index" json:"type"` // e.g. "claim.submitted", "claim.closed"
	AggregateID    string            `gorm:"type:uuid;index" json:"aggregateId"`
	IdempotencyKey *string           `gorm:"uniqueIndex:ux_outbox_idem_key" json:"idempotencyKey,omitempty"`
	Payload        datatypes.JSON    `json:"payload"`
	Status         OutboxEventStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	DispatchedAt   *time.Time        `json:"dispatchedAt,omitempty"`
	RetryCount     int               `gorm:"default:0" json:"retryCount"`
	LastError      *string           `json:"lastError,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name
func (OutboxEvent) TableName() string {
	return "outbox_events"
}
