package claims

import (
	"math"
	"time"

	"github.com/propstack/claimsgo/internal/models"
	"gorm.io/gorm"
)

// CompletionPercent computes checklist completion as round(100*done/applicable),
// excluding NOT_APPLICABLE items. Zero applicable items yields exactly 0,
// never 100.
func CompletionPercent(items []models.ChecklistItem) int {
	applicable := 0
	done := 0
	for _, item := range items {
		if item.Status == models.ChecklistItemNotApplicable {
			continue
		}
		applicable++
		if item.Status == models.ChecklistItemDone {
			done++
		}
	}
	if applicable == 0 {
		return 0
	}
	return int(math.Round(100 * float64(done) / float64(applicable)))
}

// attachedDocCount counts documents satisfying an item's evidence rule: join
// links plus the designated primary if not already linked, filtered by the
// item's required doc types (unfiltered when none are specified).
func attachedDocCount(item models.ChecklistItem, docsByID map[string]models.ClaimDocument) int {
	typeOK := func(docType string) bool {
		if len(item.RequiredDocTypes) == 0 {
			return true
		}
		for _, t := range item.RequiredDocTypes {
			if t == docType {
				return true
			}
		}
		return false
	}

	count := 0
	seen := make(map[string]bool)
	for _, link := range item.DocumentLinks {
		doc, ok := docsByID[link.ClaimDocumentID]
		if !ok && link.ClaimDocument != nil {
			doc = *link.ClaimDocument
			ok = true
		}
		if !ok {
			continue
		}
		seen[doc.ID] = true
		if typeOK(doc.Type) {
			count++
		}
	}

	if item.PrimaryDocumentID != nil && !seen[*item.PrimaryDocumentID] {
		if doc, ok := docsByID[*item.PrimaryDocumentID]; ok && typeOK(doc.Type) {
			count++
		}
	}

	return count
}

// EvaluateReadiness applies the submission gate to a checklist snapshot and
// returns every blocking item. Empty result means the claim may be submitted.
// Fails closed: any rule violation blocks.
func EvaluateReadiness(items []models.ChecklistItem, docsByID map[string]models.ClaimDocument) []BlockedItem {
	var blocked []BlockedItem
	for _, item := range items {
		if item.Required &&
			item.Status != models.ChecklistItemDone &&
			item.Status != models.ChecklistItemNotApplicable {
			blocked = append(blocked, BlockedItem{
				ItemID: item.ID,
				Title:  item.Title,
				Rule:   RuleRequiredStatus,
			})
			continue
		}

		if item.Status == models.ChecklistItemNotApplicable {
			continue
		}

		if item.RequiredDocMinCount > 0 {
			if have := attachedDocCount(item, docsByID); have < item.RequiredDocMinCount {
				blocked = append(blocked, BlockedItem{
					ItemID:      item.ID,
					Title:       item.Title,
					Rule:        RuleDocumentCount,
					MissingDocs: item.RequiredDocMinCount - have,
				})
			}
		}
	}
	return blocked
}

// loadChecklist fetches a claim's items ordered by orderIndex with document
// links preloaded
func loadChecklist(tx *gorm.DB, claimID string) ([]models.ChecklistItem, error) {
	var items []models.ChecklistItem
	err := tx.Where("claim_id = ?", claimID).
		Preload("DocumentLinks").
		Preload("DocumentLinks.ClaimDocument").
		Order("order_index ASC").
		Find(&items).Error
	return items, err
}

// loadClaimDocsByID fetches all documents of a claim keyed by id
func loadClaimDocsByID(tx *gorm.DB, claimID string) (map[string]models.ClaimDocument, error) {
	var docs []models.ClaimDocument
	if err := tx.Where("claim_id = ?", claimID).Find(&docs).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.ClaimDocument, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	return byID, nil
}

// recomputeCompletion reloads the checklist and persists the derived
// completion percentage on the claim row
func recomputeCompletion(tx *gorm.DB, claimID string) (int, error) {
	var items []models.ChecklistItem
	if err := tx.Where("claim_id = ?", claimID).Find(&items).Error; err != nil {
		return 0, err
	}
	pct := CompletionPercent(items)
	if err := tx.Model(&models.Claim{}).Where("id = ?", claimID).
		Update("checklist_completion_pct", pct).Error; err != nil {
		return 0, err
	}
	return pct, nil
}

// regenerateChecklist deletes the claim's checklist and recreates it from the
// template for the given type inside the caller's transaction. Never a partial
// merge: the old set is gone before the first new item is written.
func regenerateChecklist(tx *gorm.DB, claim *models.Claim, templateType models.ClaimType, actorID string, now time.Time) ([]models.ChecklistItem, error) {
	// Drop link rows first, then the items themselves
	if err := tx.Where("checklist_item_id IN (?)",
		tx.Model(&models.ChecklistItem{}).Select("id").Where("claim_id = ?", claim.ID),
	).Delete(&models.ChecklistItemDocument{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Unscoped().Where("claim_id = ?", claim.ID).Delete(&models.ChecklistItem{}).Error; err != nil {
		return nil, err
	}

	template := LookupTemplate(templateType)
	items := make([]models.ChecklistItem, 0, len(template))
	for i, def := range template {
		items = append(items, models.ChecklistItem{
			ClaimID:             claim.ID,
			OrderIndex:          i + 1,
			Title:               def.Title,
			Description:         def.Description,
			Required:            def.Required,
			Status:              models.ChecklistItemOpen,
			RequiredDocMinCount: def.RequiredDocMinCount,
			RequiredDocTypes:    def.RequiredDocTypes,
		})
	}
	if err := tx.Create(&items).Error; err != nil {
		return nil, err
	}

	if _, err := recomputeCompletion(tx, claim.ID); err != nil {
		return nil, err
	}

	event := models.TimelineEvent{
		ClaimID:    claim.ID,
		Type:       models.TimelineChecklistGenerated,
		OccurredAt: now,
		Meta: models.JSONB{
			"templateType": string(templateType),
			"itemCount":    len(items),
		},
		CreatedBy: actorID,
	}
	if err := tx.Create(&event).Error; err != nil {
		return nil, err
	}

	return items, nil
}
