package claims

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/propstack/claimsgo/internal/database"
	"github.com/propstack/claimsgo/internal/models"
	"gorm.io/gorm"
)

// StoredObject is what the storage adapter returns after an upload. Only the
// reference is persisted, never the raw bytes.
type StoredObject struct {
	URL      string
	Size     int64
	MimeType string
}

// Storage uploads document bytes and returns an opaque reference
type Storage interface {
	Upload(ctx context.Context, data []byte, mimeType, name string, scopeKeys []string) (*StoredObject, error)
}

// Notifier receives claim lifecycle hooks. Fire-and-forget: a failing
// notifier never rolls back the claim mutation.
type Notifier interface {
	OnClaimCreated(claim *models.Claim)
	OnClaimStatusChanged(claim *models.Claim, from, to models.ClaimStatus)
}

// CoverageCache invalidates a property's cached coverage-gap analysis
type CoverageCache interface {
	MarkStale(propertyID string)
}

// Service orchestrates claim lifecycle operations. Every mutating call runs
// as one atomic transaction.
type Service struct {
	db       *database.DB
	storage  Storage
	notifier Notifier
	coverage CoverageCache
	now      func() time.Time
}

// NewService creates the claim orchestrator
func NewService(db *database.DB, storage Storage, notifier Notifier, coverage CoverageCache) *Service {
	return &Service{
		db:       db,
		storage:  storage,
		notifier: notifier,
		coverage: coverage,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the service clock, for tests
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// findClaimScoped loads a claim by (propertyID, claimID) together. Lookups by
// claim id alone are deliberately not offered.
func findClaimScoped(tx *gorm.DB, propertyID, claimID string) (*models.Claim, error) {
	var claim models.Claim
	err := tx.Where("id = ? AND property_id = ?", claimID, propertyID).First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "claim", ID: claimID}
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// CreateClaimInput carries caller-supplied claim fields
type CreateClaimInput struct {
	Title               string           `json:"title"`
	Description         string           `json:"description"`
	Type                models.ClaimType `json:"type"`
	SourceType          string           `json:"sourceType"`
	ProviderName        *string          `json:"providerName"`
	ClaimNumber         *string          `json:"claimNumber"`
	ExternalURL         *string          `json:"externalUrl"`
	InsurancePolicyID   *string          `json:"insurancePolicyId"`
	WarrantyID          *string          `json:"warrantyId"`
	IncidentAt          *time.Time       `json:"incidentAt"`
	DeductibleAmount    *float64         `json:"deductibleAmount"`
	EstimatedLossAmount *float64         `json:"estimatedLossAmount"`
	GenerateChecklist   *bool            `json:"generateChecklist"` // default true
}

func validClaimType(t models.ClaimType) bool {
	switch t {
	case models.ClaimTypeInsurance, models.ClaimTypeWarranty, models.ClaimTypeRepair, models.ClaimTypeOther:
		return true
	}
	return false
}

// CreateClaim creates a claim in DRAFT, records the CREATED timeline event
// and, unless disabled, generates the checklist for the claim's type.
func (s *Service) CreateClaim(ctx context.Context, propertyID, actorID string, input CreateClaimInput) (*models.Claim, error) {
	if input.Title == "" {
		return nil, &ValidationError{Field: "title", Message: "is required"}
	}
	if input.Type == "" {
		return nil, &ValidationError{Field: "type", Message: "is required"}
	}
	if !validClaimType(input.Type) {
		return nil, &ValidationError{Field: "type", Message: "must be one of INSURANCE, WARRANTY, REPAIR, OTHER"}
	}

	now := s.now()
	sourceType := input.SourceType
	if sourceType == "" {
		sourceType = "MANUAL"
	}

	claim := models.Claim{
		PropertyID:          propertyID,
		Title:               input.Title,
		Description:         input.Description,
		Status:              models.ClaimStatusDraft,
		Type:                input.Type,
		SourceType:          sourceType,
		ProviderName:        input.ProviderName,
		ClaimNumber:         input.ClaimNumber,
		ExternalURL:         input.ExternalURL,
		InsurancePolicyID:   input.InsurancePolicyID,
		WarrantyID:          input.WarrantyID,
		IncidentAt:          input.IncidentAt,
		DeductibleAmount:    input.DeductibleAmount,
		EstimatedLossAmount: input.EstimatedLossAmount,
		LastActivityAt:      now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var property models.Property
		if err := tx.Where("id = ?", propertyID).First(&property).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "property", ID: propertyID}
			}
			return err
		}

		if err := tx.Create(&claim).Error; err != nil {
			return err
		}

		created := models.TimelineEvent{
			ClaimID:    claim.ID,
			Type:       models.TimelineCreated,
			OccurredAt: now,
			Meta:       models.JSONB{"title": claim.Title, "type": string(claim.Type)},
			CreatedBy:  actorID,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		if input.GenerateChecklist == nil || *input.GenerateChecklist {
			if _, err := regenerateChecklist(tx, &claim, claim.Type, actorID, now); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.fireCreated(&claim)
	s.markStale(propertyID)

	return s.GetClaim(ctx, propertyID, claim.ID)
}

// UpdateClaimInput is a partial patch; nil fields are left untouched
type UpdateClaimInput struct {
	Title               *string             `json:"title"`
	Description         *string             `json:"description"`
	Status              *models.ClaimStatus `json:"status"`
	ProviderName        *string             `json:"providerName"`
	ClaimNumber         *string             `json:"claimNumber"`
	ExternalURL         *string             `json:"externalUrl"`
	InsurancePolicyID   *string             `json:"insurancePolicyId"`
	WarrantyID          *string             `json:"warrantyId"`
	IncidentAt          *time.Time          `json:"incidentAt"`
	OpenedAt            *time.Time          `json:"openedAt"`
	SubmittedAt         *time.Time          `json:"submittedAt"`
	ClosedAt            *time.Time          `json:"closedAt"`
	NextFollowUpAt      *time.Time          `json:"nextFollowUpAt"`
	DeductibleAmount    *float64            `json:"deductibleAmount"`
	EstimatedLossAmount *float64            `json:"estimatedLossAmount"`
	SettlementAmount    *float64            `json:"settlementAmount"`
}

// autoStamps are the timestamps a transition sets on its own. Each rule is
// independent: set only if entering/leaving the right status, currently
// unset, and not explicitly supplied in the patch.
type autoStamps struct {
	OpenedAt       *time.Time
	SubmittedAt    *time.Time
	ClosedAt       *time.Time
	NextFollowUpAt *time.Time
	Fired          []string
}

const followUpDelay = 72 * time.Hour

func computeAutoStamps(claim *models.Claim, from, to models.ClaimStatus, patch UpdateClaimInput, now time.Time) autoStamps {
	var stamps autoStamps

	if from == models.ClaimStatusDraft && to != models.ClaimStatusDraft &&
		claim.OpenedAt == nil && patch.OpenedAt == nil {
		t := now
		stamps.OpenedAt = &t
		stamps.Fired = append(stamps.Fired, "openedAt")
	}
	if to == models.ClaimStatusSubmitted && claim.SubmittedAt == nil && patch.SubmittedAt == nil {
		t := now
		stamps.SubmittedAt = &t
		stamps.Fired = append(stamps.Fired, "submittedAt")
	}
	if to == models.ClaimStatusClosed && claim.ClosedAt == nil && patch.ClosedAt == nil {
		t := now
		stamps.ClosedAt = &t
		stamps.Fired = append(stamps.Fired, "closedAt")
	}
	if to == models.ClaimStatusSubmitted && claim.NextFollowUpAt == nil && patch.NextFollowUpAt == nil {
		t := now.Add(followUpDelay)
		stamps.NextFollowUpAt = &t
		stamps.Fired = append(stamps.Fired, "nextFollowUpAt")
	}

	return stamps
}

// fieldUpdates collects the non-status column changes from a patch
func fieldUpdates(patch UpdateClaimInput) map[string]interface{} {
	updates := make(map[string]interface{})
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.ProviderName != nil {
		updates["provider_name"] = patch.ProviderName
	}
	if patch.ClaimNumber != nil {
		updates["claim_number"] = patch.ClaimNumber
	}
	if patch.ExternalURL != nil {
		updates["external_url"] = patch.ExternalURL
	}
	if patch.InsurancePolicyID != nil {
		updates["insurance_policy_id"] = patch.InsurancePolicyID
	}
	if patch.WarrantyID != nil {
		updates["warranty_id"] = patch.WarrantyID
	}
	if patch.IncidentAt != nil {
		updates["incident_at"] = patch.IncidentAt
	}
	if patch.OpenedAt != nil {
		updates["opened_at"] = patch.OpenedAt
	}
	if patch.SubmittedAt != nil {
		updates["submitted_at"] = patch.SubmittedAt
	}
	if patch.ClosedAt != nil {
		updates["closed_at"] = patch.ClosedAt
	}
	if patch.NextFollowUpAt != nil {
		updates["next_follow_up_at"] = patch.NextFollowUpAt
	}
	if patch.DeductibleAmount != nil {
		updates["deductible_amount"] = patch.DeductibleAmount
	}
	if patch.EstimatedLossAmount != nil {
		updates["estimated_loss_amount"] = patch.EstimatedLossAmount
	}
	if patch.SettlementAmount != nil {
		updates["settlement_amount"] = patch.SettlementAmount
	}
	return updates
}

// UpdateClaim applies a partial patch. A status equal to the current one is a
// duplicate update: no transition validation, no auto-timestamps, no
// status events, but other field changes still apply. A real transition is
// validated, auto-timestamped, recorded on the timeline and, for SUBMITTED /
// CLOSED, emitted as an idempotency-keyed domain event. The submission
// readiness gate runs inside the same transaction: a blocked submission rolls
// the whole update back.
func (s *Service) UpdateClaim(ctx context.Context, propertyID, claimID, actorID string, patch UpdateClaimInput) (*models.Claim, error) {
	now := s.now()

	var transitioned bool
	var fromStatus, toStatus models.ClaimStatus

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, err := findClaimScoped(tx, propertyID, claimID)
		if err != nil {
			return err
		}

		updates := fieldUpdates(patch)
		updates["last_activity_at"] = now

		if patch.Status == nil || *patch.Status == claim.Status {
			// No transition (or duplicate): plain update, nothing else fires
			return tx.Model(&models.Claim{}).Where("id = ?", claim.ID).Updates(updates).Error
		}

		from := claim.Status
		to := *patch.Status
		if err := AssertValidTransition(from, to); err != nil {
			return err
		}

		// Guarded write: another writer may have moved the claim since the
		// read above. Zero rows affected means the expected "from" is stale;
		// re-validate against the fresh status. Auto-stamps are recomputed
		// from the freshest snapshot on every attempt so a loser never
		// overwrites timestamps the winner already set.
		snapshot := claim
		var stamps autoStamps
		for {
			stamps = computeAutoStamps(snapshot, from, to, patch, now)

			attempt := fieldUpdates(patch)
			attempt["last_activity_at"] = now
			attempt["status"] = to
			if stamps.OpenedAt != nil {
				attempt["opened_at"] = stamps.OpenedAt
			}
			if stamps.SubmittedAt != nil {
				attempt["submitted_at"] = stamps.SubmittedAt
			}
			if stamps.ClosedAt != nil {
				attempt["closed_at"] = stamps.ClosedAt
			}
			if stamps.NextFollowUpAt != nil {
				attempt["next_follow_up_at"] = stamps.NextFollowUpAt
			}

			res := tx.Model(&models.Claim{}).
				Where("id = ? AND status = ?", claim.ID, from).
				Updates(attempt)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				break
			}

			fresh, err := findClaimScoped(tx, propertyID, claimID)
			if err != nil {
				return err
			}
			if fresh.Status == to {
				// Another writer already landed this transition; duplicate.
				// Only the patch's own fields apply, never our stamps.
				return tx.Model(&models.Claim{}).Where("id = ?", claim.ID).Updates(updates).Error
			}
			if err := AssertValidTransition(fresh.Status, to); err != nil {
				return err
			}
			from = fresh.Status
			snapshot = fresh
		}

		change := models.TimelineEvent{
			ClaimID:    claim.ID,
			Type:       models.TimelineStatusChange,
			OccurredAt: now,
			Meta: models.JSONB{
				"from":           string(from),
				"to":             string(to),
				"autoTimestamps": stamps.Fired,
			},
			CreatedBy: actorID,
		}
		if err := tx.Create(&change).Error; err != nil {
			return err
		}

		switch to {
		case models.ClaimStatusSubmitted:
			key := "claim:" + claim.ID + ":submitted"
			if _, err := emitTx(tx, EmitInput{
				Type:           "claim.submitted",
				AggregateID:    claim.ID,
				IdempotencyKey: &key,
				Payload:        map[string]interface{}{"claimId": claim.ID, "propertyId": propertyID},
			}); err != nil {
				return err
			}
		case models.ClaimStatusClosed:
			key := "claim:" + claim.ID + ":closed"
			if _, err := emitTx(tx, EmitInput{
				Type:           "claim.closed",
				AggregateID:    claim.ID,
				IdempotencyKey: &key,
				Payload:        map[string]interface{}{"claimId": claim.ID, "propertyId": propertyID},
			}); err != nil {
				return err
			}
		}

		if to == models.ClaimStatusSubmitted {
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
		}

		transitioned = true
		fromStatus, toStatus = from, to
		return nil
	})
	if err != nil {
		return nil, err
	}

	claim, err := s.GetClaim(ctx, propertyID, claimID)
	if err != nil {
		return nil, err
	}

	if transitioned {
		s.fireStatusChanged(claim, fromStatus, toStatus)
	}
	s.markStale(propertyID)

	return claim, nil
}

// GetClaim returns a hydrated claim scoped by property
func (s *Service) GetClaim(ctx context.Context, propertyID, claimID string) (*models.Claim, error) {
	var claim models.Claim
	err := s.db.WithContext(ctx).
		Where("id = ? AND property_id = ?", claimID, propertyID).
		Preload("ChecklistItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("checklist_items.order_index ASC")
		}).
		Preload("ChecklistItems.DocumentLinks").
		Preload("Documents").
		First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "claim", ID: claimID}
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// ListClaimsFilter narrows ListClaims results
type ListClaimsFilter struct {
	Status models.ClaimStatus
	Type   models.ClaimType
}

// ListClaims returns a property's claims, most recently active first
func (s *Service) ListClaims(ctx context.Context, propertyID string, filter ListClaimsFilter) ([]models.Claim, error) {
	q := s.db.WithContext(ctx).Where("property_id = ?", propertyID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}

	var out []models.Claim
	if err := q.Order("last_activity_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) fireCreated(claim *models.Claim) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ Notifier panic on claim created: %v", r)
		}
	}()
	s.notifier.OnClaimCreated(claim)
}

func (s *Service) fireStatusChanged(claim *models.Claim, from, to models.ClaimStatus) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ Notifier panic on status change: %v", r)
		}
	}()
	s.notifier.OnClaimStatusChanged(claim, from, to)
}

func (s *Service) markStale(propertyID string) {
	if s.coverage == nil {
		return
	}
	s.coverage.MarkStale(propertyID)
}
