package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/propstack/claimsgo/internal/middleware"
	"github.com/propstack/claimsgo/internal/models"
)

// RegenerateChecklistRequest controls checklist regeneration
type RegenerateChecklistRequest struct {
	TemplateType    models.ClaimType `json:"templateType"`
	ReplaceExisting bool             `json:"replaceExisting"`
}

// regenerateChecklist deletes and recreates the claim's checklist
func (r *Router) regenerateChecklist(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	var body RegenerateChecklistRequest
	if req.ContentLength > 0 {
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
	} else {
		body.ReplaceExisting = true
	}

	items, err := r.service.RegenerateChecklist(req.Context(), vars["propertyId"], vars["claimId"],
		middleware.ActorID(req), body.TemplateType, body.ReplaceExisting)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// UpdateChecklistItemRequest changes one item's status
type UpdateChecklistItemRequest struct {
	Status      models.ChecklistItemStatus `json:"status"`
	CompletedBy *string                    `json:"completedBy"`
}

// updateChecklistItem updates one checklist item's status
func (r *Router) updateChecklistItem(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	var body UpdateChecklistItemRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	completedBy := body.CompletedBy
	if completedBy == nil {
		if actor := middleware.ActorID(req); actor != "" {
			completedBy = &actor
		}
	}

	item, err := r.service.UpdateChecklistItem(req.Context(), vars["propertyId"], vars["claimId"],
		vars["itemId"], body.Status, completedBy)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// submissionReadiness runs the submission gate without mutating anything
func (r *Router) submissionReadiness(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	err := r.service.EvaluateSubmissionReadiness(req.Context(), vars["propertyId"], vars["claimId"])
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ready": true})
}
