package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/propstack/claimsgo/internal/claims"
	"github.com/propstack/claimsgo/internal/middleware"
	"github.com/propstack/claimsgo/internal/models"
)

// listProperties returns all properties
func (r *Router) listProperties(w http.ResponseWriter, req *http.Request) {
	var properties []models.Property
	if err := r.db.Find(&properties).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch properties")
		return
	}
	respondJSON(w, http.StatusOK, properties)
}

// createProperty creates a new property
func (r *Router) createProperty(w http.ResponseWriter, req *http.Request) {
	var property models.Property
	if err := json.NewDecoder(req.Body).Decode(&property); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if property.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := r.db.Create(&property).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create property")
		return
	}
	respondJSON(w, http.StatusCreated, property)
}

// listClaims returns a property's claims, filterable by status and type
func (r *Router) listClaims(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	filter := claims.ListClaimsFilter{
		Status: models.ClaimStatus(req.URL.Query().Get("status")),
		Type:   models.ClaimType(req.URL.Query().Get("type")),
	}

	out, err := r.service.ListClaims(req.Context(), vars["propertyId"], filter)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// createClaim creates a claim in DRAFT with its checklist
func (r *Router) createClaim(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	var input claims.CreateClaimInput
	if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	claim, err := r.service.CreateClaim(req.Context(), vars["propertyId"], middleware.ActorID(req), input)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, claim)
}

// getClaim returns one hydrated claim
func (r *Router) getClaim(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	claim, err := r.service.GetClaim(req.Context(), vars["propertyId"], vars["claimId"])
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, claim)
}

// updateClaim applies a partial patch, including status transitions
func (r *Router) updateClaim(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	var patch claims.UpdateClaimInput
	if err := json.NewDecoder(req.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	claim, err := r.service.UpdateClaim(req.Context(), vars["propertyId"], vars["claimId"], middleware.ActorID(req), patch)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, claim)
}
