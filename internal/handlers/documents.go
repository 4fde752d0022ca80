package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/propstack/claimsgo/internal/claims"
	"github.com/propstack/claimsgo/internal/middleware"
)

// attachDocument uploads and attaches one document to a claim. Data arrives
// base64-encoded in the JSON payload.
func (r *Router) attachDocument(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	var input claims.AttachDocumentInput
	if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	doc, err := r.service.AttachDocument(req.Context(), vars["propertyId"], vars["claimId"],
		middleware.ActorID(req), input)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, doc)
}

// BulkAttachRequest wraps a batch of documents
type BulkAttachRequest struct {
	Documents []claims.AttachDocumentInput `json:"documents"`
}

// attachDocumentsBulk uploads and attaches several documents in one
// transaction
func (r *Router) attachDocumentsBulk(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	var body BulkAttachRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	docs, err := r.service.AttachDocuments(req.Context(), vars["propertyId"], vars["claimId"],
		middleware.ActorID(req), body.Documents)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, docs)
}

// LinkDocumentRequest joins an attached document to a checklist item
type LinkDocumentRequest struct {
	ChecklistItemID string `json:"checklistItemId"`
	MakePrimary     bool   `json:"makePrimary"`
}

// linkDocument links an already-attached document to a checklist item
func (r *Router) linkDocument(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	var body LinkDocumentRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.ChecklistItemID == "" {
		respondError(w, http.StatusBadRequest, "checklistItemId is required")
		return
	}

	err := r.service.LinkDocument(req.Context(), vars["propertyId"], vars["claimId"],
		body.ChecklistItemID, vars["documentId"], body.MakePrimary)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Document linked"})
}
