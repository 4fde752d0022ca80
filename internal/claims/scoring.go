package claims

import (
	"math"
	"time"

	"github.com/propstack/claimsgo/internal/models"
)

// SLAPolicy sets how long a claim may dwell in a status and how often it
// should see follow-up activity while there.
type SLAPolicy struct {
	MaxDays             int
	FollowUpCadenceDays int
}

// slaPolicies is the per-status SLA table. CLOSED has no entry: closed
// claims are not tracked.
var slaPolicies = map[models.ClaimStatus]SLAPolicy{
	models.ClaimStatusDraft:       {MaxDays: 14, FollowUpCadenceDays: 7},
	models.ClaimStatusInProgress:  {MaxDays: 30, FollowUpCadenceDays: 7},
	models.ClaimStatusSubmitted:   {MaxDays: 14, FollowUpCadenceDays: 5},
	models.ClaimStatusUnderReview: {MaxDays: 21, FollowUpCadenceDays: 7},
	models.ClaimStatusApproved:    {MaxDays: 30, FollowUpCadenceDays: 10},
	models.ClaimStatusDenied:      {MaxDays: 14, FollowUpCadenceDays: 14},
}

// RiskLevel buckets a numeric score
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// HealthLevel buckets the composite health score
type HealthLevel string

const (
	HealthGood HealthLevel = "GOOD"
	HealthFair HealthLevel = "FAIR"
	HealthPoor HealthLevel = "POOR"
)

// RecommendedAction is the suggested next step for a claim
type RecommendedAction string

const (
	ActionFollowUpNow  RecommendedAction = "FOLLOW_UP_NOW"
	ActionFollowUpSoon RecommendedAction = "FOLLOW_UP_SOON"
	ActionOnTrack      RecommendedAction = "ON_TRACK"
)

// SLAStatus reports dwell time of a claim in its current status
type SLAStatus struct {
	StatusSince  time.Time `json:"statusSince"`
	DaysInStatus int       `json:"daysInStatus"`
	MaxDays      int       `json:"maxDays"`
	IsBreach     bool      `json:"isBreach"`
	IsAtRisk     bool      `json:"isAtRisk"`
}

// FollowUpRisk scores how overdue attention on the claim is
type FollowUpRisk struct {
	Score       int       `json:"score"`
	Level       RiskLevel `json:"level"`
	OverdueDays int       `json:"overdueDays"`
}

// FinancialVariance compares settlement against the loss estimate
type FinancialVariance struct {
	Ratio     float64 `json:"ratio"`
	Direction string  `json:"direction"` // UP, DOWN, FLAT
}

// Health is the composite claim health score
type Health struct {
	Score int         `json:"score"`
	Level HealthLevel `json:"level"`
}

// Recommendation is the derived next-step suggestion. Confidence is a fixed
// per-decision lookup, not a continuous value.
type Recommendation struct {
	Action     RecommendedAction `json:"action"`
	Confidence float64           `json:"confidence"`
}

// Insights bundles every derived metric for a claim at one instant
type Insights struct {
	ClaimID           string             `json:"claimId"`
	ComputedAt        time.Time          `json:"computedAt"`
	SLA               SLAStatus          `json:"sla"`
	FollowUpRisk      FollowUpRisk       `json:"followUpRisk"`
	FinancialVariance *FinancialVariance `json:"financialVariance,omitempty"`
	Health            Health             `json:"health"`
	Recommendation    Recommendation     `json:"recommendation"`
	CompletionPct     int                `json:"completionPct"`
}

// floorDays converts an elapsed duration to whole days, never negative
func floorDays(from, to time.Time) int {
	if from.IsZero() || !to.After(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// statusSince locates when the claim entered its current status: the most
// recent STATUS_CHANGE whose recorded "to" equals the current status, falling
// back to the claim's own timestamps by status group.
func statusSince(claim *models.Claim, latestStatusChange *models.TimelineEvent) time.Time {
	if latestStatusChange != nil && latestStatusChange.Type == models.TimelineStatusChange {
		if to, ok := latestStatusChange.Meta["to"].(string); ok && models.ClaimStatus(to) == claim.Status {
			return latestStatusChange.OccurredAt
		}
	}

	switch claim.Status {
	case models.ClaimStatusSubmitted, models.ClaimStatusUnderReview,
		models.ClaimStatusApproved, models.ClaimStatusDenied:
		if claim.SubmittedAt != nil {
			return *claim.SubmittedAt
		}
	case models.ClaimStatusInProgress:
		if claim.OpenedAt != nil {
			return *claim.OpenedAt
		}
	}
	return claim.CreatedAt
}

// ComputeSLA derives dwell time and breach state for the current status
func ComputeSLA(now time.Time, claim *models.Claim, latestStatusChange *models.TimelineEvent) SLAStatus {
	since := statusSince(claim, latestStatusChange)
	days := floorDays(since, now)

	policy, tracked := slaPolicies[claim.Status]
	sla := SLAStatus{
		StatusSince:  since,
		DaysInStatus: days,
		MaxDays:      policy.MaxDays,
	}
	if !tracked {
		return sla
	}

	sla.IsBreach = days > policy.MaxDays
	sla.IsAtRisk = !sla.IsBreach && days >= int(math.Floor(0.8*float64(policy.MaxDays)))
	return sla
}

// ComputeFollowUpRisk scores 0-100 how urgently the claim needs attention
func ComputeFollowUpRisk(now time.Time, claim *models.Claim) FollowUpRisk {
	score := 25

	cadence := slaPolicies[claim.Status].FollowUpCadenceDays
	neverActive := claim.LastActivityAt.IsZero()

	overdueDays := 0
	if claim.NextFollowUpAt != nil && claim.NextFollowUpAt.Before(now) {
		overdueDays = floorDays(*claim.NextFollowUpAt, now)
		score += clampInt(overdueDays*10, 20, 70)
	} else if !neverActive && cadence > 0 {
		if idle := floorDays(claim.LastActivityAt, now); idle > cadence {
			score += clampInt((idle-cadence)*4, 0, 30)
		}
	}

	if neverActive {
		score += 25
	}

	score = clampInt(score, 0, 100)

	level := RiskLow
	switch {
	case score >= 75:
		level = RiskHigh
	case score >= 45:
		level = RiskMedium
	}

	return FollowUpRisk{Score: score, Level: level, OverdueDays: overdueDays}
}

// ComputeFinancialVariance compares settlement to estimate. Returns nil
// unless the estimate is positive and a settlement amount exists.
func ComputeFinancialVariance(claim *models.Claim) *FinancialVariance {
	if claim.EstimatedLossAmount == nil || *claim.EstimatedLossAmount <= 0 || claim.SettlementAmount == nil {
		return nil
	}

	ratio := *claim.SettlementAmount / *claim.EstimatedLossAmount
	direction := "FLAT"
	switch {
	case ratio >= 1.10:
		direction = "UP"
	case ratio <= 0.90:
		direction = "DOWN"
	}
	return &FinancialVariance{Ratio: ratio, Direction: direction}
}

// ComputeHealth folds risk, SLA state, inactivity and checklist progress
// into a 0-100 composite score
func ComputeHealth(now time.Time, claim *models.Claim, sla SLAStatus, risk FollowUpRisk) Health {
	score := 100

	score -= int(math.Round(float64(risk.Score) * 0.45))

	// breach and at-risk are mutually exclusive by construction
	if sla.IsBreach {
		score -= 25
	} else if sla.IsAtRisk {
		score -= 10
	}

	lastActive := claim.LastActivityAt
	if lastActive.IsZero() {
		lastActive = claim.CreatedAt
	}
	if idle := floorDays(lastActive, now); idle >= 14 {
		score -= 10
		if idle >= 30 {
			score -= 10
		}
	}

	score += int(math.Round(float64(claim.ChecklistCompletionPct) / 100 * 15))
	score = clampInt(score, 0, 100)

	level := HealthPoor
	switch {
	case score >= 80:
		level = HealthGood
	case score >= 55:
		level = HealthFair
	}

	return Health{Score: score, Level: level}
}

// ComputeRecommendation picks the next-step action. Confidence values are a
// fixed lookup per decision.
func ComputeRecommendation(now time.Time, claim *models.Claim, sla SLAStatus, risk FollowUpRisk) Recommendation {
	overdue := claim.NextFollowUpAt != nil && claim.NextFollowUpAt.Before(now)

	switch {
	case sla.IsBreach || risk.Level == RiskHigh || overdue:
		return Recommendation{Action: ActionFollowUpNow, Confidence: 0.8}
	case sla.IsAtRisk || risk.Level == RiskMedium:
		return Recommendation{Action: ActionFollowUpSoon, Confidence: 0.7}
	default:
		return Recommendation{Action: ActionOnTrack, Confidence: 0.6}
	}
}

// ComputeInsights derives every metric from a consistent snapshot. Pure:
// no clock, no datastore, no side effects.
func ComputeInsights(now time.Time, claim *models.Claim, latestStatusChange *models.TimelineEvent) Insights {
	sla := ComputeSLA(now, claim, latestStatusChange)
	risk := ComputeFollowUpRisk(now, claim)

	return Insights{
		ClaimID:           claim.ID,
		ComputedAt:        now,
		SLA:               sla,
		FollowUpRisk:      risk,
		FinancialVariance: ComputeFinancialVariance(claim),
		Health:            ComputeHealth(now, claim, sla, risk),
		Recommendation:    ComputeRecommendation(now, claim, sla, risk),
		CompletionPct:     claim.ChecklistCompletionPct,
	}
}
