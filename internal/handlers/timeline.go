package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/propstack/claimsgo/internal/middleware"
)

// listTimeline returns the claim's audit trail, newest first
func (r *Router) listTimeline(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	events, err := r.service.ListTimeline(req.Context(), vars["propertyId"], vars["claimId"])
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// NoteRequest carries a timeline note
type NoteRequest struct {
	Note string `json:"note"`
}

// addTimelineNote appends a NOTE event to the claim
func (r *Router) addTimelineNote(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	var body NoteRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	event, err := r.service.AddTimelineNote(req.Context(), vars["propertyId"], vars["claimId"],
		middleware.ActorID(req), body.Note)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, event)
}

// AssistantRequest carries a question for the claims assistant
type AssistantRequest struct {
	Question string `json:"question"`
}

// askAssistant answers a next-steps question about the claim
func (r *Router) askAssistant(w http.ResponseWriter, req *http.Request) {
	if r.assistant == nil {
		respondError(w, http.StatusServiceUnavailable, "Assistant is not configured")
		return
	}

	vars := mux.Vars(req)

	var body AssistantRequest
	if req.ContentLength > 0 {
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
	}

	answer, err := r.assistant.Ask(req.Context(), vars["propertyId"], vars["claimId"], body.Question)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"answer": answer})
}
