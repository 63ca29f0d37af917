// Package payment integrates the external payment gateway. The sandbox
// implementation mirrors the provider's API shape so the booking flow can run
// end to end without real charges.
package payment

import (
	"context"
	"fmt"
	"sync"

	"wayfare/internal/models"

	"github.com/google/uuid"
)

// Intent is the gateway-side representation of a pending charge.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// Gateway abstracts the payment provider.
type Gateway interface {
	// CreateIntent registers a pending charge and returns the client secret
	// the frontend uses to complete it.
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error)
	// Refund returns amountCents of the intent's captured amount.
	Refund(ctx context.Context, intentID string, amountCents int64) error
	// Name identifies the provider in payment rows.
	Name() string
}

// SandboxGateway is an in-memory provider for development and tests.
type SandboxGateway struct {
	mu      sync.Mutex
	intents map[string]*Intent
}

// NewSandboxGateway returns an empty sandbox provider.
func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{intents: make(map[string]*Intent)}
}

func (g *SandboxGateway) Name() string { return "sandbox" }

func (g *SandboxGateway) CreateIntent(_ context.Context, amountCents int64, currency string, _ map[string]string) (*Intent, error) {
	if amountCents <= 0 {
		return nil, models.NewValidationError("Payment amount must be positive")
	}
	intent := &Intent{
		ID:           "pi_" + uuid.NewString(),
		ClientSecret: "secret_" + uuid.NewString(),
		AmountCents:  amountCents,
		Currency:     currency,
		Status:       "requires_payment",
	}
	g.mu.Lock()
	g.intents[intent.ID] = intent
	g.mu.Unlock()
	return intent, nil
}

func (g *SandboxGateway) Refund(_ context.Context, intentID string, amountCents int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[intentID]
	if !ok {
		return models.NewNotFoundError("Payment intent", intentID)
	}
	if amountCents <= 0 || amountCents > intent.AmountCents {
		return models.NewValidationError(fmt.Sprintf("Refund amount must be between 1 and %d cents", intent.AmountCents))
	}
	return nil
}

// MarkSucceeded flips a sandbox intent to succeeded. Test helper mirroring
// the provider dashboard's "complete payment" action.
func (g *SandboxGateway) MarkSucceeded(intentID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[intentID]
	if !ok {
		return false
	}
	intent.Status = "succeeded"
	return true
}

var _ Gateway = (*SandboxGateway)(nil)
