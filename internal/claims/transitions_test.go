package claims

import (
	"errors"
	"testing"

	"github.com/propstack/claimsgo/internal/models"
)

var allStatuses = []models.ClaimStatus{
	models.ClaimStatusDraft,
	models.ClaimStatusInProgress,
	models.ClaimStatusSubmitted,
	models.ClaimStatusUnderReview,
	models.ClaimStatusApproved,
	models.ClaimStatusDenied,
	models.ClaimStatusClosed,
}

func TestTransitions_SelfAlwaysValid(t *testing.T) {
	for _, status := range allStatuses {
		if !IsValidTransition(status, status) {
			t.Errorf("expected %s -> %s to be valid", status, status)
		}
		if err := AssertValidTransition(status, status); err != nil {
			t.Errorf("unexpected error for %s -> %s: %v", status, status, err)
		}
	}
}

func TestTransitions_Table(t *testing.T) {
	legal := map[models.ClaimStatus][]models.ClaimStatus{
		models.ClaimStatusDraft:       {models.ClaimStatusInProgress, models.ClaimStatusSubmitted, models.ClaimStatusClosed},
		models.ClaimStatusInProgress:  {models.ClaimStatusSubmitted, models.ClaimStatusUnderReview, models.ClaimStatusClosed},
		models.ClaimStatusSubmitted:   {models.ClaimStatusUnderReview, models.ClaimStatusApproved, models.ClaimStatusDenied, models.ClaimStatusClosed},
		models.ClaimStatusUnderReview: {models.ClaimStatusApproved, models.ClaimStatusDenied, models.ClaimStatusClosed},
		models.ClaimStatusApproved:    {models.ClaimStatusClosed},
		models.ClaimStatusDenied:      {models.ClaimStatusClosed},
		models.ClaimStatusClosed:      {},
	}

	for _, from := range allStatuses {
		allowed := make(map[models.ClaimStatus]bool)
		for _, to := range legal[from] {
			allowed[to] = true
		}

		for _, to := range allStatuses {
			if from == to {
				continue
			}
			got := IsValidTransition(from, to)
			if got != allowed[to] {
				t.Errorf("IsValidTransition(%s, %s) = %v, want %v", from, to, got, allowed[to])
			}

			err := AssertValidTransition(from, to)
			if allowed[to] && err != nil {
				t.Errorf("AssertValidTransition(%s, %s) unexpected error: %v", from, to, err)
			}
			if !allowed[to] {
				var invalid *InvalidTransitionError
				if !errors.As(err, &invalid) {
					t.Errorf("AssertValidTransition(%s, %s) = %v, want InvalidTransitionError", from, to, err)
				} else if invalid.From != from || invalid.To != to {
					t.Errorf("InvalidTransitionError carries %s -> %s, want %s -> %s", invalid.From, invalid.To, from, to)
				}
			}
		}
	}
}

func TestTransitions_ClosedIsTerminal(t *testing.T) {
	for _, to := range allStatuses {
		if to == models.ClaimStatusClosed {
			continue
		}
		if IsValidTransition(models.ClaimStatusClosed, to) {
			t.Errorf("CLOSED must be terminal, but CLOSED -> %s was allowed", to)
		}
	}
}
