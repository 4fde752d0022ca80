package claims

import (
	"context"
	"errors"
	"fmt"

	"github.com/propstack/claimsgo/internal/models"
	"gorm.io/gorm"
)

// AttachDocumentInput carries one document to attach to a claim. Data is
// uploaded through the storage adapter first; only the returned reference is
// persisted.
type AttachDocumentInput struct {
	Data            []byte  `json:"data"`
	MimeType        string  `json:"mimeType"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	Title           *string `json:"title"`
	Notes           *string `json:"notes"`
	ChecklistItemID *string `json:"checklistItemId"`
	MakePrimary     bool    `json:"makePrimary"`
}

// AttachDocument uploads and records one document. The upload happens before
// the transaction: if it fails, no claim-document row is ever written.
func (s *Service) AttachDocument(ctx context.Context, propertyID, claimID, actorID string, input AttachDocumentInput) (*models.ClaimDocument, error) {
	docs, err := s.AttachDocuments(ctx, propertyID, claimID, actorID, []AttachDocumentInput{input})
	if err != nil {
		return nil, err
	}
	return &docs[0], nil
}

// AttachDocuments uploads and records a batch of documents in one
// transaction. All uploads complete before any row is written; a failed
// upload aborts the whole attach with nothing persisted.
func (s *Service) AttachDocuments(ctx context.Context, propertyID, claimID, actorID string, inputs []AttachDocumentInput) ([]models.ClaimDocument, error) {
	if len(inputs) == 0 {
		return nil, &ValidationError{Field: "documents", Message: "at least one document is required"}
	}
	for i, input := range inputs {
		if input.Type == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("documents[%d].type", i), Message: "is required"}
		}
		if len(input.Data) == 0 {
			return nil, &ValidationError{Field: fmt.Sprintf("documents[%d].data", i), Message: "is required"}
		}
	}

	now := s.now()

	// Uploads first; storage failures propagate as-is
	stored := make([]*StoredObject, len(inputs))
	for i, input := range inputs {
		obj, err := s.storage.Upload(ctx, input.Data, input.MimeType, input.Name, []string{propertyID, claimID})
		if err != nil {
			return nil, fmt.Errorf("upload %q: %w", input.Name, err)
		}
		stored[i] = obj
	}

	docs := make([]models.ClaimDocument, len(inputs))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, err := findClaimScoped(tx, propertyID, claimID)
		if err != nil {
			return err
		}

		for i, input := range inputs {
			doc := models.ClaimDocument{
				ClaimID:    claim.ID,
				DocumentID: stored[i].URL,
				Type:       input.Type,
				Title:      input.Title,
				Notes:      input.Notes,
				MimeType:   stored[i].MimeType,
				SizeBytes:  stored[i].Size,
			}
			if err := tx.Create(&doc).Error; err != nil {
				return err
			}

			if input.ChecklistItemID != nil {
				if err := linkDocumentToItem(tx, claim.ID, *input.ChecklistItemID, doc.ID, input.MakePrimary); err != nil {
					return err
				}
			}

			event := models.TimelineEvent{
				ClaimID:    claim.ID,
				Type:       models.TimelineDocumentAdded,
				OccurredAt: now,
				Meta: models.JSONB{
					"documentId": doc.ID,
					"type":       doc.Type,
					"name":       input.Name,
				},
				CreatedBy: actorID,
			}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}

			docs[i] = doc
		}

		return tx.Model(&models.Claim{}).Where("id = ?", claim.ID).
			Update("last_activity_at", now).Error
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// linkDocumentToItem joins a document to a checklist item, optionally
// designating it as the item's primary document. Linking the same pair twice
// is a no-op.
func linkDocumentToItem(tx *gorm.DB, claimID, itemID, documentID string, makePrimary bool) error {
	var item models.ChecklistItem
	if err := tx.Where("id = ? AND claim_id = ?", itemID, claimID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Resource: "checklist item", ID: itemID}
		}
		return err
	}

	link := models.ChecklistItemDocument{
		ChecklistItemID: item.ID,
		ClaimDocumentID: documentID,
	}
	if err := tx.Where("checklist_item_id = ? AND claim_document_id = ?", item.ID, documentID).
		FirstOrCreate(&link).Error; err != nil {
		return err
	}

	if makePrimary {
		if err := tx.Model(&models.ChecklistItem{}).Where("id = ?", item.ID).
			Update("primary_document_id", documentID).Error; err != nil {
			return err
		}
	}

	return nil
}

// LinkDocument joins an already-attached document to a checklist item
func (s *Service) LinkDocument(ctx context.Context, propertyID, claimID, itemID, documentID string, makePrimary bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, err := findClaimScoped(tx, propertyID, claimID)
		if err != nil {
			return err
		}

		var doc models.ClaimDocument
		if err := tx.Where("id = ? AND claim_id = ?", documentID, claim.ID).First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "claim document", ID: documentID}
			}
			return err
		}

		return linkDocumentToItem(tx, claim.ID, itemID, doc.ID, makePrimary)
	})
}
