package claims

import (
	"fmt"

	"github.com/propstack/claimsgo/internal/models"
)

// ValidationError reports missing or malformed required input. Surfaced to
// the caller, never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NotFoundError reports a lookup miss. Claims are always looked up scoped by
// (propertyId, claimId) together, so a property mismatch is a NotFound too.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// InvalidTransitionError reports an illegal status change. Never silently
// coerced.
type InvalidTransitionError struct {
	From models.ClaimStatus
	To   models.ClaimStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

// BlockedRule names which readiness rule a checklist item failed
type BlockedRule string

const (
	RuleRequiredStatus BlockedRule = "REQUIRED_STATUS"
	RuleDocumentCount  BlockedRule = "DOCUMENT_COUNT"
)

// BlockedItem describes one checklist item failing the submission gate
type BlockedItem struct {
	ItemID      string      `json:"itemId"`
	Title       string      `json:"title"`
	Rule        BlockedRule `json:"rule"`
	MissingDocs int         `json:"missingDocs,omitempty"`
}

// SubmissionBlockedError carries the complete list of checklist items
// blocking submission, never a bare boolean.
type SubmissionBlockedError struct {
	ClaimID string
	Items   []BlockedItem
}

func (e *SubmissionBlockedError) Error() string {
	return fmt.Sprintf("submission blocked: %d checklist item(s) incomplete", len(e.Items))
}
