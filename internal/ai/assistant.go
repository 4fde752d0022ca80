package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/propstack/claimsgo/internal/claims"
)

// Assistant answers next-step questions about a claim using its current
// state, checklist gaps and insights as context
type Assistant struct {
	client  *GeminiClient
	service *claims.Service
}

// NewAssistant creates a claims assistant. Returns nil client errors as-is;
// callers should leave the assistant disabled when no API key is configured.
func NewAssistant(ctx context.Context, apiKey, model string, service *claims.Service) (*Assistant, error) {
	client, err := NewGeminiClient(ctx, apiKey, model)
	if err != nil {
		return nil, err
	}
	return &Assistant{client: client, service: service}, nil
}

// Close releases the underlying model client
func (a *Assistant) Close() {
	a.client.Close()
}

const assistantPrompt = `You are an assistant helping a property owner progress an insurance/warranty/repair claim.
Answer the question using ONLY the claim context below. Be concrete: name the
open checklist items and the recommended action. Keep the answer short.

CLAIM CONTEXT (JSON):
%s

READINESS (empty means ready to submit):
%s

QUESTION:
%s`

// Ask builds the claim context and asks the model
func (a *Assistant) Ask(ctx context.Context, propertyID, claimID, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		question = "What should happen next on this claim?"
	}

	claim, err := a.service.GetClaim(ctx, propertyID, claimID)
	if err != nil {
		return "", err
	}
	insights, err := a.service.GetInsights(ctx, propertyID, claimID)
	if err != nil {
		return "", err
	}

	claimCtx, err := json.Marshal(map[string]interface{}{
		"claim":    claim,
		"insights": insights,
	})
	if err != nil {
		return "", err
	}

	readiness := "ready"
	if err := a.service.EvaluateSubmissionReadiness(ctx, propertyID, claimID); err != nil {
		if blocked, ok := err.(*claims.SubmissionBlockedError); ok {
			parts := make([]string, 0, len(blocked.Items))
			for _, item := range blocked.Items {
				parts = append(parts, fmt.Sprintf("%s (%s, missing %d docs)", item.Title, item.Rule, item.MissingDocs))
			}
			readiness = strings.Join(parts, "; ")
		} else {
			return "", err
		}
	}

	prompt := fmt.Sprintf(assistantPrompt, claimCtx, readiness, question)
	return a.client.GenerateContent(ctx, prompt)
}
