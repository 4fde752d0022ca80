package claims

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/propstack/claimsgo/internal/models"
	"gorm.io/gorm"
)

var csvHeader = []string{
	"claimId", "title", "status", "type", "providerName", "claimNumber",
	"daysInStatus", "slaMaxDays", "slaBreach", "slaAtRisk",
	"riskScore", "riskLevel", "healthScore", "healthLevel",
	"recommendation", "confidence", "completionPct",
	"estimatedLossAmount", "settlementAmount", "varianceRatio", "varianceDirection",
}

// ExportClaimsCSV renders every claim of a property as CSV. Rows are derived
// through ComputeInsights, the exact path the insights endpoint uses, so the
// two outputs never disagree for the same claim at the same instant.
func (s *Service) ExportClaimsCSV(ctx context.Context, propertyID string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var claimRows []models.Claim
		if err := tx.Where("property_id = ?", propertyID).
			Order("last_activity_at DESC").
			Find(&claimRows).Error; err != nil {
			return err
		}

		now := s.now()
		for i := range claimRows {
			claim := &claimRows[i]
			change, err := latestStatusChange(tx, claim.ID)
			if err != nil {
				return err
			}
			insights := ComputeInsights(now, claim, change)

			if err := w.Write(csvRow(claim, insights)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func csvRow(claim *models.Claim, insights Insights) []string {
	strOrEmpty := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	floatOrEmpty := func(p *float64) string {
		if p == nil {
			return ""
		}
		return strconv.FormatFloat(*p, 'f', 2, 64)
	}

	varianceRatio, varianceDirection := "", ""
	if insights.FinancialVariance != nil {
		varianceRatio = strconv.FormatFloat(insights.FinancialVariance.Ratio, 'f', 4, 64)
		varianceDirection = insights.FinancialVariance.Direction
	}

	return []string{
		claim.ID,
		claim.Title,
		string(claim.Status),
		string(claim.Type),
		strOrEmpty(claim.ProviderName),
		strOrEmpty(claim.ClaimNumber),
		strconv.Itoa(insights.SLA.DaysInStatus),
		strconv.Itoa(insights.SLA.MaxDays),
		strconv.FormatBool(insights.SLA.IsBreach),
		strconv.FormatBool(insights.SLA.IsAtRisk),
		strconv.Itoa(insights.FollowUpRisk.Score),
		string(insights.FollowUpRisk.Level),
		strconv.Itoa(insights.Health.Score),
		string(insights.Health.Level),
		string(insights.Recommendation.Action),
		fmt.Sprintf("%.1f", insights.Recommendation.Confidence),
		strconv.Itoa(insights.CompletionPct),
		floatOrEmpty(claim.EstimatedLossAmount),
		floatOrEmpty(claim.SettlementAmount),
		varianceRatio,
		varianceDirection,
	}
}
