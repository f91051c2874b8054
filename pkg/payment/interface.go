package payment

import (
	"context"
	"encoding/json"
)

// Provider is the payment-processor boundary. Amounts are integer cents
// end to end; the hosted checkout and card-capture UI live entirely on
// the processor's side.
type Provider interface {
	CreateCheckout(ctx context.Context, request *CheckoutRequest) (*CheckoutResponse, error)
	Refund(ctx context.Context, request *RefundRequest) (*RefundResponse, error)
	ValidateWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

type CheckoutRequest struct {
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

type CheckoutResponse struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	CheckoutURL     string `json:"checkout_url"`
	ExpiresAt       int64  `json:"expires_at"`
}

type RefundRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
	AmountCents     int64  `json:"amount_cents"`
	Reason          string `json:"reason"`
}

type RefundResponse struct {
	RefundID    string `json:"refund_id"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	CreatedAt   int64  `json:"created_at"`
}

type WebhookEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Raw       json.RawMessage `json:"raw"`
	CreatedAt int64           `json:"created_at"`
}

// Event payloads the webhook handler cares about.
type IntentEventData struct {
	ID             string            `json:"id"`
	Status         string            `json:"status"`
	AmountReceived int64             `json:"amount_received"`
	Currency       string            `json:"currency"`
	Metadata       map[string]string `json:"metadata"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}
