package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// WebhookEvent is the payload the gateway posts back on payment state changes.
type WebhookEvent struct {
	Type     string `json:"type"`
	IntentID string `json:"intent_id"`

	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Reason      string `json:"reason,omitempty"`
}

// Webhook event types from the gateway.
const (
	WebhookPaymentSucceeded = "payment.succeeded"
	WebhookPaymentFailed    = "payment.failed"
	WebhookRefundCompleted  = "refund.completed"
)

// ComputeSignature returns the hex HMAC-SHA256 of the webhook body.
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature in constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	expected := ComputeSignature(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseWebhook verifies the signature and decodes the event. Returns false
// when the signature does not match.
func ParseWebhook(secret string, body []byte, signature string) (*WebhookEvent, bool) {
	if !VerifySignature(secret, body, signature) {
		return nil, false
	}
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, false
	}
	return &event, true
}
