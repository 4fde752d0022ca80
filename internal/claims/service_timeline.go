package claims

import (
	"context"
	"errors"

	"github.com/propstack/claimsgo/internal/models"
	"gorm.io/gorm"
)

// AddTimelineNote appends a NOTE event to the claim's audit trail
func (s *Service) AddTimelineNote(ctx context.Context, propertyID, claimID, actorID, note string) (*models.TimelineEvent, error) {
	if note == "" {
		return nil, &ValidationError{Field: "note", Message: "is required"}
	}

	now := s.now()
	event := models.TimelineEvent{
		Type:       models.TimelineNote,
		OccurredAt: now,
		Meta:       models.JSONB{"note": note},
		CreatedBy:  actorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, err := findClaimScoped(tx, propertyID, claimID)
		if err != nil {
			return err
		}

		event.ClaimID = claim.ID
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		return tx.Model(&models.Claim{}).Where("id = ?", claim.ID).
			Update("last_activity_at", now).Error
	})
	if err != nil {
		return nil, err
	}

	return &event, nil
}

// ListTimeline returns the claim's audit trail, newest first
func (s *Service) ListTimeline(ctx context.Context, propertyID, claimID string) ([]models.TimelineEvent, error) {
	var events []models.TimelineEvent

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, err := findClaimScoped(tx, propertyID, claimID)
		if err != nil {
			return err
		}

		return tx.Where("claim_id = ?", claim.ID).
			Order("occurred_at DESC").
			Find(&events).Error
	})
	if err != nil {
		return nil, err
	}

	return events, nil
}

// latestStatusChange loads the most recent STATUS_CHANGE event, if any
func latestStatusChange(tx *gorm.DB, claimID string) (*models.TimelineEvent, error) {
	var event models.TimelineEvent
	err := tx.Where("claim_id = ? AND type = ?", claimID, models.TimelineStatusChange).
		Order("occurred_at DESC").
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetInsights derives the scoring snapshot for one claim. Read-only; the two
// reads run in one transaction so the snapshot is consistent.
func (s *Service) GetInsights(ctx context.Context, propertyID, claimID string) (*Insights, error) {
	var insights Insights

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, err := findClaimScoped(tx, propertyID, claimID)
		if err != nil {
			return err
		}

		change, err := latestStatusChange(tx, claim.ID)
		if err != nil {
			return err
		}

		insights = ComputeInsights(s.now(), claim, change)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &insights, nil
}

// ListInsights derives the scoring snapshot for every claim of a property
func (s *Service) ListInsights(ctx context.Context, propertyID string) ([]Insights, error) {
	var out []Insights

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var claimRows []models.Claim
		if err := tx.Where("property_id = ?", propertyID).
			Order("last_activity_at DESC").
			Find(&claimRows).Error; err != nil {
			return err
		}

		now := s.now()
		out = make([]Insights, 0, len(claimRows))
		for i := range claimRows {
			change, err := latestStatusChange(tx, claimRows[i].ID)
			if err != nil {
				return err
			}
			out = append(out, ComputeInsights(now, &claimRows[i], change))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
