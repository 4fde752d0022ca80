package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/propstack/claimsgo/internal/ai"
	"github.com/propstack/claimsgo/internal/claims"
	"github.com/propstack/claimsgo/internal/config"
	"github.com/propstack/claimsgo/internal/database"
	"github.com/propstack/claimsgo/internal/middleware"
	ws "github.com/propstack/claimsgo/internal/websocket"
)

// Router wraps the mux router and the claim services
type Router struct {
	*mux.Router
	db        *database.DB
	cfg       *config.Config
	service   *claims.Service
	hub       *ws.Hub
	assistant *ai.Assistant
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB, cfg *config.Config, service *claims.Service, hub *ws.Hub) *Router {
	r := &Router{
		Router:  mux.NewRouter(),
		db:      db,
		cfg:     cfg,
		service: service,
		hub:     hub,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.login).Methods("POST")
	auth.HandleFunc("/register", r.register).Methods("POST")
	auth.HandleFunc("/logout", r.logout).Methods("POST")

	// Activity feed
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWs(hub, w, req)
	})

	// API routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	api.HandleFunc("/properties", r.listProperties).Methods("GET")
	api.HandleFunc("/properties", r.createProperty).Methods("POST")

	props := api.PathPrefix("/properties/{propertyId}").Subrouter()
	props.HandleFunc("/claims", r.listClaims).Methods("GET")
	props.HandleFunc("/claims", r.createClaim).Methods("POST")
	props.HandleFunc("/claims.csv", r.exportClaimsCSV).Methods("GET")
	props.HandleFunc("/insights", r.listInsights).Methods("GET")

	claim := props.PathPrefix("/claims/{claimId}").Subrouter()
	claim.HandleFunc("", r.getClaim).Methods("GET")
	claim.HandleFunc("", r.updateClaim).Methods("PUT", "PATCH")
	claim.HandleFunc("/checklist", r.regenerateChecklist).Methods("POST")
	claim.HandleFunc("/checklist/items/{itemId}", r.updateChecklistItem).Methods("PATCH")
	claim.HandleFunc("/readiness", r.submissionReadiness).Methods("GET")
	claim.HandleFunc("/documents", r.attachDocument).Methods("POST")
	claim.HandleFunc("/documents/bulk", r.attachDocumentsBulk).Methods("POST")
	claim.HandleFunc("/documents/{documentId}/link", r.linkDocument).Methods("POST")
	claim.HandleFunc("/timeline", r.listTimeline).Methods("GET")
	claim.HandleFunc("/timeline", r.addTimelineNote).Methods("POST")
	claim.HandleFunc("/insights", r.getInsights).Methods("GET")
	claim.HandleFunc("/summary.pdf", r.claimSummaryPDF).Methods("GET")
	claim.HandleFunc("/assistant", r.askAssistant).Methods("POST")

	api.HandleFunc("/outbox", r.listOutbox).Methods("GET")

	return r
}

// SetAssistant registers the optional Gemini assistant
func (r *Router) SetAssistant(a *ai.Assistant) {
	r.assistant = a
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"feedClients": r.hub.ClientCount(),
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondDomainError maps domain errors onto HTTP statuses. SubmissionBlocked
// carries the full blocking list, distinct from a generic validation error.
func respondDomainError(w http.ResponseWriter, err error) {
	var validation *claims.ValidationError
	var notFound *claims.NotFoundError
	var transition *claims.InvalidTransitionError
	var blocked *claims.SubmissionBlockedError

	switch {
	case errors.As(err, &validation):
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": validation.Error(),
			"code":  "VALIDATION_ERROR",
		})
	case errors.As(err, &notFound):
		respondJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": notFound.Error(),
			"code":  "NOT_FOUND",
		})
	case errors.As(err, &transition):
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"error": transition.Error(),
			"code":  "INVALID_TRANSITION",
			"from":  transition.From,
			"to":    transition.To,
		})
	case errors.As(err, &blocked):
		respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":        blocked.Error(),
			"code":         "SUBMISSION_BLOCKED",
			"blockedItems": blocked.Items,
		})
	default:
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
