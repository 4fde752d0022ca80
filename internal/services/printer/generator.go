package printer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/propstack/claimsgo/internal/models"
	"github.com/skip2/go-qrcode"
)

// SummaryConfig holds configuration for the claim summary sheet
type SummaryConfig struct {
	Claim     *models.Claim
	Items     []models.ChecklistItem
	Reference string // URL encoded into the QR code
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func fmtAmount(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

// GenerateClaimSummaryPDF renders a one-page A4 summary of a claim: header,
// key dates, amounts, checklist table and a QR code with the claim reference.
func GenerateClaimSummaryPDF(cfg SummaryConfig) ([]byte, error) {
	claim := cfg.Claim

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(140, 10, claim.Title, "", 0, "L", false, 0, "")

	// QR code top right
	if cfg.Reference != "" {
		qrPng, err := qrcode.Encode(cfg.Reference, qrcode.Low, 256)
		if err != nil {
			return nil, err
		}
		imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		reader := bytes.NewReader(qrPng)
		_ = pdf.RegisterImageOptionsReader("claim_qr", imgOptions, reader)
		pdf.ImageOptions("claim_qr", 165, 12, 30, 30, false, imgOptions, 0, "")
	}

	pdf.Ln(12)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(140, 6, fmt.Sprintf("Claim %s  ·  %s  ·  %s", claim.ID, claim.Type, claim.Status), "", 1, "L", false, 0, "")

	if claim.ProviderName != nil {
		pdf.CellFormat(140, 6, fmt.Sprintf("Provider: %s", *claim.ProviderName), "", 1, "L", false, 0, "")
	}
	if claim.ClaimNumber != nil {
		pdf.CellFormat(140, 6, fmt.Sprintf("Claim number: %s", *claim.ClaimNumber), "", 1, "L", false, 0, "")
	}

	pdf.Ln(6)

	// Key dates
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "Dates", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	dates := [][2]string{
		{"Incident", fmtDate(claim.IncidentAt)},
		{"Opened", fmtDate(claim.OpenedAt)},
		{"Submitted", fmtDate(claim.SubmittedAt)},
		{"Closed", fmtDate(claim.ClosedAt)},
		{"Next follow-up", fmtDate(claim.NextFollowUpAt)},
	}
	for _, d := range dates {
		pdf.CellFormat(45, 6, d[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, d[1], "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)

	// Amounts
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "Amounts", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	amounts := [][2]string{
		{"Deductible", fmtAmount(claim.DeductibleAmount)},
		{"Estimated loss", fmtAmount(claim.EstimatedLossAmount)},
		{"Settlement", fmtAmount(claim.SettlementAmount)},
	}
	for _, a := range amounts {
		pdf.CellFormat(45, 6, a[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, a[1], "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)

	// Checklist table
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Checklist (%d%% complete)", claim.ChecklistCompletionPct), "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, item := range cfg.Items {
		marker := "[ ]"
		switch item.Status {
		case models.ChecklistItemDone:
			marker = "[x]"
		case models.ChecklistItemNotApplicable:
			marker = "[-]"
		}
		required := ""
		if item.Required {
			required = " *"
		}
		pdf.CellFormat(10, 5, marker, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("%d. %s%s", item.OrderIndex, item.Title, required), "", 1, "L", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s", time.Now().UTC().Format(time.RFC3339)), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
