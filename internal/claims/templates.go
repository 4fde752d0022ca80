package claims

import (
	"github.com/propstack/claimsgo/internal/models"
)

// TemplateItem is one checklist item definition inside a template. Order in the
// slice fixes the item's orderIndex (1-based).
type TemplateItem struct {
	Title               string
	Description         string
	Required            bool
	RequiredDocMinCount int
	RequiredDocTypes    []string
}

// checklistTemplates is the fixed enum-keyed catalog of checklist templates.
// Unknown claim types fall back to the OTHER entry; the lookup never fails.
var checklistTemplates = map[models.ClaimType][]TemplateItem{
	models.ClaimTypeInsurance: {
		{
			Title:               "Document the damage",
			Description:         "Photograph all affected areas before any cleanup or repair work.",
			Required:            true,
			RequiredDocMinCount: 2,
			RequiredDocTypes:    []string{"PHOTO"},
		},
		{
			Title:               "Locate the insurance policy",
			Description:         "Attach the active policy document covering the incident date.",
			Required:            true,
			RequiredDocMinCount: 1,
			RequiredDocTypes:    []string{"POLICY"},
		},
		{
			Title:       "Notify the insurer",
			Description: "Record the claim number and adjuster contact once the insurer is notified.",
			Required:    true,
		},
		{
			Title:               "Collect repair estimates",
			Description:         "At least one written estimate from a licensed contractor.",
			Required:            true,
			RequiredDocMinCount: 1,
			RequiredDocTypes:    []string{"ESTIMATE", "INVOICE"},
		},
		{
			Title:       "Schedule adjuster inspection",
			Description: "Optional when the insurer waives inspection for small losses.",
		},
	},
	models.ClaimTypeWarranty: {
		{
			Title:               "Proof of purchase",
			Description:         "Receipt or invoice showing purchase date and item.",
			Required:            true,
			RequiredDocMinCount: 1,
			RequiredDocTypes:    []string{"RECEIPT", "INVOICE"},
		},
		{
			Title:               "Warranty terms",
			Description:         "Attach the warranty certificate or registration confirmation.",
			Required:            true,
			RequiredDocMinCount: 1,
			RequiredDocTypes:    []string{"WARRANTY"},
		},
		{
			Title:               "Document the defect",
			Required:            true,
			RequiredDocMinCount: 1,
			RequiredDocTypes:    []string{"PHOTO"},
		},
		{
			Title:       "Contact the manufacturer",
			Description: "Record the case/RMA number issued by the manufacturer.",
			Required:    true,
		},
	},
	models.ClaimTypeRepair: {
		{
			Title:               "Describe the problem",
			Required:            true,
			RequiredDocMinCount: 1,
			RequiredDocTypes:    []string{"PHOTO"},
		},
		{
			Title:               "Get a quote",
			Description:         "Written quote from the contractor performing the repair.",
			Required:            true,
			RequiredDocMinCount: 1,
			RequiredDocTypes:    []string{"ESTIMATE"},
		},
		{
			Title:    "Schedule the work",
			Required: true,
		},
		{
			Title:               "Final invoice",
			Description:         "Attach once the work is complete and paid.",
			RequiredDocMinCount: 1,
			RequiredDocTypes:    []string{"INVOICE"},
		},
	},
	models.ClaimTypeOther: {
		{
			Title:       "Describe the claim",
			Description: "Summarize what happened and what outcome is expected.",
			Required:    true,
		},
		{
			Title:               "Attach supporting documents",
			RequiredDocMinCount: 1,
		},
		{
			Title: "Record provider contact details",
		},
	},
}

// LookupTemplate returns the checklist template for a claim type, falling
// back to the generic OTHER template for unknown types.
func LookupTemplate(claimType models.ClaimType) []TemplateItem {
	if tpl, ok := checklistTemplates[claimType]; ok {
		return tpl
	}
	return checklistTemplates[models.ClaimTypeOther]
}

// TemplateTypes lists every claim type with a dedicated template
func TemplateTypes() []models.ClaimType {
	types := make([]models.ClaimType, 0, len(checklistTemplates))
	for t := range checklistTemplates {
		types = append(types, t)
	}
	return types
}
