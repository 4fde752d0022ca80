package claims

import (
	"github.com/propstack/claimsgo/internal/models"
)

// validTransitions is the directed graph of legal status changes. CLOSED is
// terminal: nothing leaves it.
var validTransitions = map[models.ClaimStatus][]models.ClaimStatus{
	models.ClaimStatusDraft: {
		models.ClaimStatusInProgress,
		models.ClaimStatusSubmitted,
		models.ClaimStatusClosed,
	},
	models.ClaimStatusInProgress: {
		models.ClaimStatusSubmitted,
		models.ClaimStatusUnderReview,
		models.ClaimStatusClosed,
	},
	models.ClaimStatusSubmitted: {
		models.ClaimStatusUnderReview,
		models.ClaimStatusApproved,
		models.ClaimStatusDenied,
		models.ClaimStatusClosed,
	},
	models.ClaimStatusUnderReview: {
		models.ClaimStatusApproved,
		models.ClaimStatusDenied,
		models.ClaimStatusClosed,
	},
	models.ClaimStatusApproved: {
		models.ClaimStatusClosed,
	},
	models.ClaimStatusDenied: {
		models.ClaimStatusClosed,
	},
	models.ClaimStatusClosed: {},
}

// IsValidTransition reports whether from -> to is a legal status change.
// A no-op (from == to) is always valid.
func IsValidTransition(from, to models.ClaimStatus) bool {
	if from == to {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AssertValidTransition returns an InvalidTransitionError for illegal edges
func AssertValidTransition(from, to models.ClaimStatus) error {
	if !IsValidTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}
