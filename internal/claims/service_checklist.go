package claims

import (
	"context"
	"errors"

	"github.com/propstack/claimsgo/internal/models"
	"gorm.io/gorm"
)

func validItemStatus(status models.ChecklistItemStatus) bool {
	switch status {
	case models.ChecklistItemOpen, models.ChecklistItemDone, models.ChecklistItemNotApplicable:
		return true
	}
	return false
}

// UpdateChecklistItem changes one item's status. DONE stamps completedAt and
// completedBy; any other status clears both. Completion is recomputed either
// way.
func (s *Service) UpdateChecklistItem(ctx context.Context, propertyID, claimID, itemID string, status models.ChecklistItemStatus, completedBy *string) (*models.ChecklistItem, error) {
	if !validItemStatus(status) {
		return nil, &ValidationError{Field: "status", Message: "must be one of OPEN, DONE, NOT_APPLICABLE"}
	}

	now := s.now()
	var item models.ChecklistItem

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, err := findClaimScoped(tx, propertyID, claimID)
		if err != nil {
			return err
		}

		if err := tx.Where("id = ? AND claim_id = ?", itemID, claim.ID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "checklist item", ID: itemID}
			}
			return err
		}

		item.Status = status
		if status == models.ChecklistItemDone {
			item.CompletedAt = &now
			item.CompletedBy = completedBy
		} else {
			item.CompletedAt = nil
			item.CompletedBy = nil
		}

		if err := tx.Model(&models.ChecklistItem{}).Where("id = ?", item.ID).
			Updates(map[string]interface{}{
				"status":       item.Status,
				"completed_at": item.CompletedAt,
				"completed_by": item.CompletedBy,
			}).Error; err != nil {
			return err
		}

		if _, err := recomputeCompletion(tx, claim.ID); err != nil {
			return err
		}

		return tx.Model(&models.Claim{}).Where("id = ?", claim.ID).
			Update("last_activity_at", now).Error
	})
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// RegenerateChecklist deletes and recreates the claim's checklist from the
// template for the given type (defaulting to the claim's own type). With
// replaceExisting false an already-populated checklist is left untouched.
func (s *Service) RegenerateChecklist(ctx context.Context, propertyID, claimID, actorID string, templateType models.ClaimType, replaceExisting bool) ([]models.ChecklistItem, error) {
	now := s.now()
	var items []models.ChecklistItem

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, err := findClaimScoped(tx, propertyID, claimID)
		if err != nil {
			return err
		}

		if templateType == "" {
			templateType = claim.Type
		}

		if !replaceExisting {
			var count int64
			if err := tx.Model(&models.ChecklistItem{}).Where("claim_id = ?", claim.ID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				items, err = loadChecklist(tx, claim.ID)
				return err
			}
		}

		items, err = regenerateChecklist(tx, claim, templateType, actorID, now)
		if err != nil {
			return err
		}

		return tx.Model(&models.Claim{}).Where("id = ?", claim.ID).
			Update("last_activity_at", now).Error
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// EvaluateSubmissionReadiness runs the submission gate without mutating
// anything. Returns nil when the claim is ready, a SubmissionBlockedError
// otherwise.
func (s *Service) EvaluateSubmissionReadiness(ctx context.Context, propertyID, claimID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, err := findClaimScoped(tx, propertyID, claimID)
		if err != nil {
			return err
		}

		items, err := loadChecklist(tx, claim.ID)
		if err != nil {
			return err
		}
		docs, err := loadClaimDocsByID(tx, claim.ID)
		if err != nil {
			return err
		}

		if blocked := EvaluateReadiness(items, docs); len(blocked) > 0 {
			return &SubmissionBlockedError{ClaimID: claim.ID, Items: blocked}
		}
		return nil
	})
}
