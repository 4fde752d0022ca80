package claims

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/propstack/claimsgo/internal/models"
)

func TestComputeAutoStamps(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	t.Run("draft to submitted fires three stamps", func(t *testing.T) {
		claim := &models.Claim{Status: models.ClaimStatusDraft}
		stamps := computeAutoStamps(claim, models.ClaimStatusDraft, models.ClaimStatusSubmitted, UpdateClaimInput{}, now)

		if stamps.OpenedAt == nil || !stamps.OpenedAt.Equal(now) {
			t.Errorf("OpenedAt = %v, want %v", stamps.OpenedAt, now)
		}
		if stamps.SubmittedAt == nil || !stamps.SubmittedAt.Equal(now) {
			t.Errorf("SubmittedAt = %v, want %v", stamps.SubmittedAt, now)
		}
		if stamps.ClosedAt != nil {
			t.Errorf("ClosedAt = %v, want nil", stamps.ClosedAt)
		}
		want := now.Add(72 * time.Hour)
		if stamps.NextFollowUpAt == nil || !stamps.NextFollowUpAt.Equal(want) {
			t.Errorf("NextFollowUpAt = %v, want %v", stamps.NextFollowUpAt, want)
		}
		if len(stamps.Fired) != 3 {
			t.Errorf("Fired = %v, want 3 entries", stamps.Fired)
		}
	})

	t.Run("already-set timestamps are not overwritten", func(t *testing.T) {
		opened := now.AddDate(0, 0, -10)
		claim := &models.Claim{Status: models.ClaimStatusInProgress, OpenedAt: &opened}
		stamps := computeAutoStamps(claim, models.ClaimStatusInProgress, models.ClaimStatusSubmitted, UpdateClaimInput{}, now)

		if stamps.OpenedAt != nil {
			t.Errorf("OpenedAt = %v, want nil (already set)", stamps.OpenedAt)
		}
		if stamps.SubmittedAt == nil {
			t.Error("SubmittedAt should fire")
		}
	})

	t.Run("explicit patch value suppresses the stamp", func(t *testing.T) {
		supplied := now.AddDate(0, 0, -1)
		claim := &models.Claim{Status: models.ClaimStatusDraft}
		stamps := computeAutoStamps(claim, models.ClaimStatusDraft, models.ClaimStatusSubmitted,
			UpdateClaimInput{SubmittedAt: &supplied}, now)

		if stamps.SubmittedAt != nil {
			t.Errorf("SubmittedAt = %v, want nil (caller supplied a value)", stamps.SubmittedAt)
		}
		if stamps.OpenedAt == nil || stamps.NextFollowUpAt == nil {
			t.Error("independent stamps must still fire")
		}
	})

	t.Run("closing stamps closedAt only", func(t *testing.T) {
		opened := now.AddDate(0, 0, -5)
		claim := &models.Claim{Status: models.ClaimStatusApproved, OpenedAt: &opened}
		stamps := computeAutoStamps(claim, models.ClaimStatusApproved, models.ClaimStatusClosed, UpdateClaimInput{}, now)

		if stamps.ClosedAt == nil || !stamps.ClosedAt.Equal(now) {
			t.Errorf("ClosedAt = %v, want %v", stamps.ClosedAt, now)
		}
		if stamps.OpenedAt != nil || stamps.SubmittedAt != nil || stamps.NextFollowUpAt != nil {
			t.Errorf("unexpected stamps fired: %v", stamps.Fired)
		}
	})
}

func TestFieldUpdates_OnlySetFields(t *testing.T) {
	title := "Burst pipe"
	amount := 1200.50
	updates := fieldUpdates(UpdateClaimInput{Title: &title, SettlementAmount: &amount})

	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2: %v", len(updates), updates)
	}
	if updates["title"] != title {
		t.Errorf("title = %v, want %q", updates["title"], title)
	}
	if _, ok := updates["settlement_amount"]; !ok {
		t.Error("settlement_amount missing")
	}
}

func TestCreateClaim_Validation(t *testing.T) {
	svc, propertyID := newTestService(t)
	ctx := context.Background()

	var vErr *ValidationError
	if _, err := svc.CreateClaim(ctx, propertyID, "u1", CreateClaimInput{Type: models.ClaimTypeOther}); !errors.As(err, &vErr) {
		t.Errorf("missing title: got %v, want ValidationError", err)
	}
	if _, err := svc.CreateClaim(ctx, propertyID, "u1", CreateClaimInput{Title: "x"}); !errors.As(err, &vErr) {
		t.Errorf("missing type: got %v, want ValidationError", err)
	}
	if _, err := svc.CreateClaim(ctx, propertyID, "u1", CreateClaimInput{Title: "x", Type: "BOGUS"}); !errors.As(err, &vErr) {
		t.Errorf("bad type: got %v, want ValidationError", err)
	}

	var nfErr *NotFoundError
	if _, err := svc.CreateClaim(ctx, "11111111-1111-1111-1111-111111111111", "u1",
		CreateClaimInput{Title: "x", Type: models.ClaimTypeOther}); !errors.As(err, &nfErr) {
		t.Errorf("unknown property: got %v, want NotFoundError", err)
	}
}

func TestCreateClaim_GeneratesChecklistAndTimeline(t *testing.T) {
	svc, propertyID := newTestService(t)
	ctx := context.Background()

	claim, err := svc.CreateClaim(ctx, propertyID, "u1", CreateClaimInput{
		Title: "Roof hail damage",
		Type:  models.ClaimTypeInsurance,
	})
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	if claim.Status != models.ClaimStatusDraft {
		t.Errorf("Status = %s, want DRAFT", claim.Status)
	}
	if claim.ChecklistCompletionPct != 0 {
		t.Errorf("ChecklistCompletionPct = %d, want 0", claim.ChecklistCompletionPct)
	}
	if len(claim.ChecklistItems) != 5 {
		t.Fatalf("got %d checklist items, want 5", len(claim.ChecklistItems))
	}
	for i, item := range claim.ChecklistItems {
		if item.OrderIndex != i+1 {
			t.Errorf("item %d OrderIndex = %d, want %d", i, item.OrderIndex, i+1)
		}
		if item.Status != models.ChecklistItemOpen {
			t.Errorf("item %d Status = %s, want OPEN", i, item.Status)
		}
	}

	events, err := svc.ListTimeline(ctx, propertyID, claim.ID)
	if err != nil {
		t.Fatalf("ListTimeline: %v", err)
	}
	types := make(map[models.TimelineEventType]int)
	for _, e := range events {
		types[e.Type]++
	}
	if types[models.TimelineCreated] != 1 {
		t.Errorf("CREATED events = %d, want 1", types[models.TimelineCreated])
	}
	if types[models.TimelineChecklistGenerated] != 1 {
		t.Errorf("CHECKLIST_GENERATED events = %d, want 1", types[models.TimelineChecklistGenerated])
	}
}

func TestCreateClaim_ChecklistOptOut(t *testing.T) {
	svc, propertyID := newTestService(t)
	ctx := context.Background()

	off := false
	claim, err := svc.CreateClaim(ctx, propertyID, "u1", CreateClaimInput{
		Title:             "No checklist",
		Type:              models.ClaimTypeRepair,
		GenerateChecklist: &off,
	})
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}
	if len(claim.ChecklistItems) != 0 {
		t.Errorf("got %d checklist items, want 0", len(claim.ChecklistItems))
	}
}

func TestUpdateClaim_InvalidTransition(t *testing.T) {
	svc, propertyID := newTestService(t)
	ctx := context.Background()

	claim, err := svc.CreateClaim(ctx, propertyID, "u1", CreateClaimInput{
		Title: "Dishwasher leak", Type: models.ClaimTypeWarranty,
	})
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	approved := models.ClaimStatusApproved
	_, err = svc.UpdateClaim(ctx, propertyID, claim.ID, "u1", UpdateClaimInput{Status: &approved})
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, want InvalidTransitionError", err)
	}

	fresh, err := svc.GetClaim(ctx, propertyID, claim.ID)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if fresh.Status != models.ClaimStatusDraft {
		t.Errorf("Status = %s, want DRAFT untouched", fresh.Status)
	}
}

func TestUpdateClaim_BlockedSubmissionRollsBack(t *testing.T) {
	svc, propertyID := newTestService(t)
	ctx := context.Background()

	claim, err := svc.CreateClaim(ctx, propertyID, "u1", CreateClaimInput{
		Title: "Water damage", Type: models.ClaimTypeInsurance,
	})
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	submitted := models.ClaimStatusSubmitted
	provider := "Acme Mutual"
	_, err = svc.UpdateClaim(ctx, propertyID, claim.ID, "u1", UpdateClaimInput{
		Status:       &submitted,
		ProviderName: &provider,
	})

	var blocked *SubmissionBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("got %v, want SubmissionBlockedError", err)
	}
	if len(blocked.Items) == 0 {
		t.Fatal("SubmissionBlockedError carries no blocking items")
	}

	// The whole update rolls back: status, provider, stamps, events
	fresh, err := svc.GetClaim(ctx, propertyID, claim.ID)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if fresh.Status != models.ClaimStatusDraft {
		t.Errorf("Status = %s, want DRAFT after rollback", fresh.Status)
	}
	if fresh.SubmittedAt != nil {
		t.Errorf("SubmittedAt = %v, want nil after rollback", fresh.SubmittedAt)
	}
	if fresh.ProviderName != nil {
		t.Errorf("ProviderName = %v, want nil after rollback", fresh.ProviderName)
	}

	var statusEvents int64
	if err := testDB.Model(&models.TimelineEvent{}).
		Where("claim_id = ? AND type = ?", claim.ID, models.TimelineStatusChange).
		Count(&statusEvents).Error; err != nil {
		t.Fatalf("count timeline: %v", err)
	}
	if statusEvents != 0 {
		t.Errorf("STATUS_CHANGE events = %d, want 0 after rollback", statusEvents)
	}

	var outboxRows int64
	if err := testDB.Model(&models.OutboxEvent{}).
		Where("aggregate_id = ?", claim.ID).
		Count(&outboxRows).Error; err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	if outboxRows != 0 {
		t.Errorf("outbox rows = %d, want 0 after rollback", outboxRows)
	}
}

// submitReadyClaim creates an OTHER-type claim and works its checklist into a
// submittable state.
func submitReadyClaim(t *testing.T, svc *Service, propertyID string) *models.Claim {
	t.Helper()
	ctx := context.Background()

	claim, err := svc.CreateClaim(ctx, propertyID, "u1", CreateClaimInput{
		Title: "Fence dispute", Type: models.ClaimTypeOther,
	})
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}
	if len(claim.ChecklistItems) != 3 {
		t.Fatalf("got %d checklist items, want 3", len(claim.ChecklistItems))
	}

	actor := "u1"
	if _, err := svc.UpdateChecklistItem(ctx, propertyID, claim.ID, claim.ChecklistItems[0].ID,
		models.ChecklistItemDone, &actor); err != nil {
		t.Fatalf("UpdateChecklistItem: %v", err)
	}
	// The document-count item has no evidence attached; waive it
	if _, err := svc.UpdateChecklistItem(ctx, propertyID, claim.ID, claim.ChecklistItems[1].ID,
		models.ChecklistItemNotApplicable, nil); err != nil {
		t.Fatalf("UpdateChecklistItem: %v", err)
	}
	return claim
}

func TestUpdateClaim_SubmitHappyPath(t *testing.T) {
	svc, propertyID := newTestService(t)
	ctx := context.Background()

	claim := submitReadyClaim(t, svc, propertyID)

	fixed := time.Date(2026, 5, 10, 8, 30, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return fixed })

	submitted := models.ClaimStatusSubmitted
	updated, err := svc.UpdateClaim(ctx, propertyID, claim.ID, "u1", UpdateClaimInput{Status: &submitted})
	if err != nil {
		t.Fatalf("UpdateClaim: %v", err)
	}

	if updated.Status != models.ClaimStatusSubmitted {
		t.Errorf("Status = %s, want SUBMITTED", updated.Status)
	}
	if updated.OpenedAt == nil || !updated.OpenedAt.Equal(fixed) {
		t.Errorf("OpenedAt = %v, want %v", updated.OpenedAt, fixed)
	}
	if updated.SubmittedAt == nil || !updated.SubmittedAt.Equal(fixed) {
		t.Errorf("SubmittedAt = %v, want %v", updated.SubmittedAt, fixed)
	}
	if updated.NextFollowUpAt == nil || !updated.NextFollowUpAt.Equal(fixed.Add(72*time.Hour)) {
		t.Errorf("NextFollowUpAt = %v, want %v", updated.NextFollowUpAt, fixed.Add(72*time.Hour))
	}

	var change models.TimelineEvent
	if err := testDB.Where("claim_id = ? AND type = ?", claim.ID, models.TimelineStatusChange).
		First(&change).Error; err != nil {
		t.Fatalf("load STATUS_CHANGE event: %v", err)
	}
	if change.Meta["from"] != "DRAFT" || change.Meta["to"] != "SUBMITTED" {
		t.Errorf("event meta = %v, want from=DRAFT to=SUBMITTED", change.Meta)
	}

	var event models.OutboxEvent
	if err := testDB.Where("idempotency_key = ?", "claim:"+claim.ID+":submitted").
		First(&event).Error; err != nil {
		t.Fatalf("load outbox event: %v", err)
	}
	if event.Type != "claim.submitted" {
		t.Errorf("outbox Type = %s, want claim.submitted", event.Type)
	}
	if event.Status != models.OutboxPending {
		t.Errorf("outbox Status = %s, want PENDING", event.Status)
	}
}

func TestUpdateClaim_DuplicateStatusIsQuiet(t *testing.T) {
	svc, propertyID := newTestService(t)
	ctx := context.Background()

	claim := submitReadyClaim(t, svc, propertyID)

	submitted := models.ClaimStatusSubmitted
	first, err := svc.UpdateClaim(ctx, propertyID, claim.ID, "u1", UpdateClaimInput{Status: &submitted})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// Same status again, with an unrelated field change riding along
	provider := "Homeshield"
	second, err := svc.UpdateClaim(ctx, propertyID, claim.ID, "u1", UpdateClaimInput{
		Status:       &submitted,
		ProviderName: &provider,
	})
	if err != nil {
		t.Fatalf("duplicate submit: %v", err)
	}

	if second.ProviderName == nil || *second.ProviderName != provider {
		t.Errorf("ProviderName = %v, want %q applied despite duplicate status", second.ProviderName, provider)
	}
	if second.SubmittedAt == nil || !second.SubmittedAt.Equal(*first.SubmittedAt) {
		t.Errorf("SubmittedAt changed on duplicate: %v -> %v", first.SubmittedAt, second.SubmittedAt)
	}

	var statusEvents int64
	if err := testDB.Model(&models.TimelineEvent{}).
		Where("claim_id = ? AND type = ?", claim.ID, models.TimelineStatusChange).
		Count(&statusEvents).Error; err != nil {
		t.Fatalf("count timeline: %v", err)
	}
	if statusEvents != 1 {
		t.Errorf("STATUS_CHANGE events = %d, want 1", statusEvents)
	}

	var outboxRows int64
	if err := testDB.Model(&models.OutboxEvent{}).
		Where("aggregate_id = ?", claim.ID).
		Count(&outboxRows).Error; err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	if outboxRows != 1 {
		t.Errorf("outbox rows = %d, want 1", outboxRows)
	}
}

func TestUpdateChecklistItem_RecomputesCompletion(t *testing.T) {
	svc, propertyID := newTestService(t)
	ctx := context.Background()

	claim, err := svc.CreateClaim(ctx, propertyID, "u1", CreateClaimInput{
		Title: "Gate repair", Type: models.ClaimTypeOther,
	})
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	actor := "u1"
	item, err := svc.UpdateChecklistItem(ctx, propertyID, claim.ID, claim.ChecklistItems[0].ID,
		models.ChecklistItemDone, &actor)
	if err != nil {
		t.Fatalf("UpdateChecklistItem: %v", err)
	}
	if item.CompletedAt == nil || item.CompletedBy == nil || *item.CompletedBy != actor {
		t.Errorf("DONE must stamp completedAt/completedBy, got %v / %v", item.CompletedAt, item.CompletedBy)
	}

	fresh, _ := svc.GetClaim(ctx, propertyID, claim.ID)
	if fresh.ChecklistCompletionPct != 33 {
		t.Errorf("completion = %d, want 33 (1 of 3)", fresh.ChecklistCompletionPct)
	}

	// Waiving an item shrinks the denominator
	if _, err := svc.UpdateChecklistItem(ctx, propertyID, claim.ID, claim.ChecklistItems[1].ID,
		models.ChecklistItemNotApplicable, nil); err != nil {
		t.Fatalf("UpdateChecklistItem: %v", err)
	}
	fresh, _ = svc.GetClaim(ctx, propertyID, claim.ID)
	if fresh.ChecklistCompletionPct != 50 {
		t.Errorf("completion = %d, want 50 (1 of 2)", fresh.ChecklistCompletionPct)
	}

	// Reopening clears the completion stamps
	item, err = svc.UpdateChecklistItem(ctx, propertyID, claim.ID, claim.ChecklistItems[0].ID,
		models.ChecklistItemOpen, nil)
	if err != nil {
		t.Fatalf("UpdateChecklistItem: %v", err)
	}
	if item.CompletedAt != nil || item.CompletedBy != nil {
		t.Errorf("reopen must clear stamps, got %v / %v", item.CompletedAt, item.CompletedBy)
	}
}

func TestRegenerateChecklist_ReplacesAtomically(t *testing.T) {
	svc, propertyID := newTestService(t)
	ctx := context.Background()

	claim, err := svc.CreateClaim(ctx, propertyID, "u1", CreateClaimInput{
		Title: "Boiler fault", Type: models.ClaimTypeOther,
	})
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	actor := "u1"
	if _, err := svc.UpdateChecklistItem(ctx, propertyID, claim.ID, claim.ChecklistItems[0].ID,
		models.ChecklistItemDone, &actor); err != nil {
		t.Fatalf("UpdateChecklistItem: %v", err)
	}

	// Populated checklist + replaceExisting=false leaves everything alone
	items, err := svc.RegenerateChecklist(ctx, propertyID, claim.ID, "u1", models.ClaimTypeWarranty, false)
	if err != nil {
		t.Fatalf("RegenerateChecklist: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("got %d items, want the untouched 3", len(items))
	}

	items, err = svc.RegenerateChecklist(ctx, propertyID, claim.ID, "u1", models.ClaimTypeWarranty, true)
	if err != nil {
		t.Fatalf("RegenerateChecklist: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("got %d items, want 4 from the warranty template", len(items))
	}
	for i, item := range items {
		if item.OrderIndex != i+1 {
			t.Errorf("item %d OrderIndex = %d, want %d", i, item.OrderIndex, i+1)
		}
		if item.Status != models.ChecklistItemOpen {
			t.Errorf("item %d Status = %s, want OPEN", i, item.Status)
		}
	}

	fresh, _ := svc.GetClaim(ctx, propertyID, claim.ID)
	if fresh.ChecklistCompletionPct != 0 {
		t.Errorf("completion = %d, want 0 after regeneration", fresh.ChecklistCompletionPct)
	}
}

func TestGetClaim_ScopedByProperty(t *testing.T) {
	svc, propertyID := newTestService(t)
	_, otherProperty := newTestService(t)
	ctx := context.Background()

	claim, err := svc.CreateClaim(ctx, propertyID, "u1", CreateClaimInput{
		Title: "Scoped", Type: models.ClaimTypeOther,
	})
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	var nfErr *NotFoundError
	if _, err := svc.GetClaim(ctx, otherProperty, claim.ID); !errors.As(err, &nfErr) {
		t.Errorf("cross-property lookup: got %v, want NotFoundError", err)
	}
}

func TestListClaims_Filters(t *testing.T) {
	svc, propertyID := newTestService(t)
	ctx := context.Background()

	for _, c := range []CreateClaimInput{
		{Title: "A", Type: models.ClaimTypeInsurance},
		{Title: "B", Type: models.ClaimTypeWarranty},
		{Title: "C", Type: models.ClaimTypeInsurance},
	} {
		if _, err := svc.CreateClaim(ctx, propertyID, "u1", c); err != nil {
			t.Fatalf("CreateClaim: %v", err)
		}
	}

	all, err := svc.ListClaims(ctx, propertyID, ListClaimsFilter{})
	if err != nil {
		t.Fatalf("ListClaims: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d claims, want 3", len(all))
	}

	insurance, err := svc.ListClaims(ctx, propertyID, ListClaimsFilter{Type: models.ClaimTypeInsurance})
	if err != nil {
		t.Fatalf("ListClaims: %v", err)
	}
	if len(insurance) != 2 {
		t.Errorf("got %d insurance claims, want 2", len(insurance))
	}
}

func TestUpdateClaim_RaceLoserRevalidates(t *testing.T) {
	svc, propertyID := newTestService(t)
	ctx := context.Background()

	claim := submitReadyClaim(t, svc, propertyID)

	// Competing writer closes the claim but holds its transaction open, so
	// the submitter's guarded UPDATE queues behind the row lock.
	winner := testDB.Begin()
	if winner.Error != nil {
		t.Fatalf("begin: %v", winner.Error)
	}
	res := winner.Model(&models.Claim{}).
		Where("id = ? AND status = ?", claim.ID, models.ClaimStatusDraft).
		Update("status", models.ClaimStatusClosed)
	if res.Error != nil || res.RowsAffected != 1 {
		winner.Rollback()
		t.Fatalf("winner update: %v (rows %d)", res.Error, res.RowsAffected)
	}

	submitted := models.ClaimStatusSubmitted
	loserErr := make(chan error, 1)
	go func() {
		_, err := svc.UpdateClaim(ctx, propertyID, claim.ID, "u2", UpdateClaimInput{Status: &submitted})
		loserErr <- err
	}()

	time.Sleep(200 * time.Millisecond)
	if err := winner.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	err := <-loserErr
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, want InvalidTransitionError once CLOSED lands", err)
	}

	fresh, err := svc.GetClaim(ctx, propertyID, claim.ID)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if fresh.Status != models.ClaimStatusClosed {
		t.Errorf("Status = %s, want CLOSED kept", fresh.Status)
	}
	if fresh.SubmittedAt != nil {
		t.Errorf("SubmittedAt = %v, want nil (loser rolled back)", fresh.SubmittedAt)
	}
}

func TestUpdateClaim_RaceDuplicateKeepsWinnerStamps(t *testing.T) {
	svc, propertyID := newTestService(t)
	ctx := context.Background()

	claim := submitReadyClaim(t, svc, propertyID)

	// Competing writer lands the same transition first, with its own
	// timestamps, and holds the row lock until the loser is queued.
	t1 := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	winner := testDB.Begin()
	if winner.Error != nil {
		t.Fatalf("begin: %v", winner.Error)
	}
	res := winner.Model(&models.Claim{}).
		Where("id = ? AND status = ?", claim.ID, models.ClaimStatusDraft).
		Updates(map[string]interface{}{
			"status":            models.ClaimStatusSubmitted,
			"opened_at":         t1,
			"submitted_at":      t1,
			"next_follow_up_at": t1.Add(72 * time.Hour),
			"last_activity_at":  t1,
		})
	if res.Error != nil || res.RowsAffected != 1 {
		winner.Rollback()
		t.Fatalf("winner update: %v (rows %d)", res.Error, res.RowsAffected)
	}

	submitted := models.ClaimStatusSubmitted
	provider := "Northline Assurance"
	loserErr := make(chan error, 1)
	go func() {
		_, err := svc.UpdateClaim(ctx, propertyID, claim.ID, "u2", UpdateClaimInput{
			Status:       &submitted,
			ProviderName: &provider,
		})
		loserErr <- err
	}()

	time.Sleep(200 * time.Millisecond)
	if err := winner.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := <-loserErr; err != nil {
		t.Fatalf("loser update: %v", err)
	}

	fresh, err := svc.GetClaim(ctx, propertyID, claim.ID)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if fresh.Status != models.ClaimStatusSubmitted {
		t.Errorf("Status = %s, want SUBMITTED", fresh.Status)
	}
	// The loser lands as a duplicate: its own field change applies, the
	// winner's timestamps stay untouched
	if fresh.ProviderName == nil || *fresh.ProviderName != provider {
		t.Errorf("ProviderName = %v, want %q", fresh.ProviderName, provider)
	}
	if fresh.SubmittedAt == nil || !fresh.SubmittedAt.Equal(t1) {
		t.Errorf("SubmittedAt = %v, want winner's %v", fresh.SubmittedAt, t1)
	}
	if fresh.OpenedAt == nil || !fresh.OpenedAt.Equal(t1) {
		t.Errorf("OpenedAt = %v, want winner's %v", fresh.OpenedAt, t1)
	}
	if fresh.NextFollowUpAt == nil || !fresh.NextFollowUpAt.Equal(t1.Add(72*time.Hour)) {
		t.Errorf("NextFollowUpAt = %v, want winner's %v", fresh.NextFollowUpAt, t1.Add(72*time.Hour))
	}
}

func TestUpdateClaim_ConcurrentSameTransition(t *testing.T) {
	svc, propertyID := newTestService(t)
	ctx := context.Background()

	claim := submitReadyClaim(t, svc, propertyID)

	submitted := models.ClaimStatusSubmitted
	const writers = 4
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		go func() {
			_, err := svc.UpdateClaim(ctx, propertyID, claim.ID, "u1", UpdateClaimInput{Status: &submitted})
			errs <- err
		}()
	}
	for i := 0; i < writers; i++ {
		if err := <-errs; err != nil {
			t.Errorf("writer %d: %v", i, err)
		}
	}

	var statusEvents int64
	if err := testDB.Model(&models.TimelineEvent{}).
		Where("claim_id = ? AND type = ?", claim.ID, models.TimelineStatusChange).
		Count(&statusEvents).Error; err != nil {
		t.Fatalf("count timeline: %v", err)
	}
	if statusEvents != 1 {
		t.Errorf("STATUS_CHANGE events = %d, want exactly 1", statusEvents)
	}

	var outboxRows int64
	if err := testDB.Model(&models.OutboxEvent{}).
		Where("aggregate_id = ?", claim.ID).
		Count(&outboxRows).Error; err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	if outboxRows != 1 {
		t.Errorf("outbox rows = %d, want exactly 1", outboxRows)
	}

	fresh, err := svc.GetClaim(ctx, propertyID, claim.ID)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if fresh.Status != models.ClaimStatusSubmitted {
		t.Errorf("Status = %s, want SUBMITTED", fresh.Status)
	}
	if fresh.SubmittedAt == nil {
		t.Error("SubmittedAt not set")
	}
}
