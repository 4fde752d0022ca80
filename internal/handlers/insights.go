package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/propstack/claimsgo/internal/models"
	"github.com/propstack/claimsgo/internal/services/printer"
)

// getInsights returns the derived scoring snapshot for one claim
func (r *Router) getInsights(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	insights, err := r.service.GetInsights(req.Context(), vars["propertyId"], vars["claimId"])
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, insights)
}

// listInsights returns the scoring snapshot for every claim of a property
func (r *Router) listInsights(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	insights, err := r.service.ListInsights(req.Context(), vars["propertyId"])
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, insights)
}

// exportClaimsCSV streams the property's claims as CSV. The rows come from
// the same derivation the insights endpoints use.
func (r *Router) exportClaimsCSV(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	data, err := r.service.ExportClaimsCSV(req.Context(), vars["propertyId"])
	if err != nil {
		respondDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"claims_%s.csv\"", vars["propertyId"]))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// claimSummaryPDF renders the one-page claim summary sheet
func (r *Router) claimSummaryPDF(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	claim, err := r.service.GetClaim(req.Context(), vars["propertyId"], vars["claimId"])
	if err != nil {
		respondDomainError(w, err)
		return
	}

	reference := r.cfg.BaseURL + "/api/properties/" + claim.PropertyID + "/claims/" + claim.ID
	if claim.ExternalURL != nil && *claim.ExternalURL != "" {
		reference = *claim.ExternalURL
	}

	pdfBytes, err := printer.GenerateClaimSummaryPDF(printer.SummaryConfig{
		Claim:     claim,
		Items:     claim.ChecklistItems,
		Reference: reference,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate PDF: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"claim_%s.pdf\"", claim.ID))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))
	w.Write(pdfBytes)
}

// listOutbox returns recent domain events (for dashboard/debugging)
func (r *Router) listOutbox(w http.ResponseWriter, req *http.Request) {
	var events []models.OutboxEvent
	if err := r.db.Order("created_at DESC").Limit(50).Find(&events).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch outbox events")
		return
	}
	respondJSON(w, http.StatusOK, events)
}
