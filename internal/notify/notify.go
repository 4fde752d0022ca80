package notify

import (
	"log"
	"time"

	"github.com/propstack/claimsgo/internal/models"
	"github.com/propstack/claimsgo/internal/websocket"
)

// LogNotifier writes claim lifecycle hooks to the server log
type LogNotifier struct{}

// OnClaimCreated logs a new claim
func (LogNotifier) OnClaimCreated(claim *models.Claim) {
	log.Printf("🆕 Claim created: %s (%s) on property %s", claim.ID, claim.Type, claim.PropertyID)
}

// OnClaimStatusChanged logs a status transition
func (LogNotifier) OnClaimStatusChanged(claim *models.Claim, from, to models.ClaimStatus) {
	log.Printf("🔁 Claim %s: %s -> %s", claim.ID, from, to)
}

// HubNotifier pushes claim lifecycle hooks to the websocket activity feed.
// Fire-and-forget: a slow or absent feed never affects the mutation.
type HubNotifier struct {
	hub *websocket.Hub
}

// NewHubNotifier creates a websocket-backed notifier
func NewHubNotifier(hub *websocket.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

// OnClaimCreated broadcasts a claim.created feed message
func (n *HubNotifier) OnClaimCreated(claim *models.Claim) {
	n.broadcast(map[string]interface{}{
		"type":       "claim.created",
		"claimId":    claim.ID,
		"propertyId": claim.PropertyID,
		"claimType":  claim.Type,
		"at":         time.Now().UTC(),
	})
}

// OnClaimStatusChanged broadcasts a claim.status_changed feed message
func (n *HubNotifier) OnClaimStatusChanged(claim *models.Claim, from, to models.ClaimStatus) {
	n.broadcast(map[string]interface{}{
		"type":       "claim.status_changed",
		"claimId":    claim.ID,
		"propertyId": claim.PropertyID,
		"from":       from,
		"to":         to,
		"at":         time.Now().UTC(),
	})
}

func (n *HubNotifier) broadcast(msg map[string]interface{}) {
	if err := n.hub.Broadcast(msg); err != nil {
		log.Printf("⚠️ Feed broadcast failed: %v", err)
	}
}

// Multi fans hooks out to several notifiers
type Multi []interface {
	OnClaimCreated(claim *models.Claim)
	OnClaimStatusChanged(claim *models.Claim, from, to models.ClaimStatus)
}

// OnClaimCreated forwards to every notifier
func (m Multi) OnClaimCreated(claim *models.Claim) {
	for _, n := range m {
		n.OnClaimCreated(claim)
	}
}

// OnClaimStatusChanged forwards to every notifier
func (m Multi) OnClaimStatusChanged(claim *models.Claim, from, to models.ClaimStatus) {
	for _, n := range m {
		n.OnClaimStatusChanged(claim, from, to)
	}
}
