package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type StripeProvider struct {
	client        *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
	checkoutTTL   time.Duration
}

func NewStripeProvider(secretKey, webhookSecret, successURL, cancelURL string, checkoutTTL time.Duration) *StripeProvider {
	sc := &client.API{}
	sc.Init(secretKey, nil)

	return &StripeProvider{
		client:        sc,
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
		checkoutTTL:   checkoutTTL,
	}
}

// CreateCheckout opens a hosted checkout session for the requested
// amount and returns the live payment-intent reference alongside the
// URL the customer completes payment on.
func (s *StripeProvider) CreateCheckout(ctx context.Context, request *CheckoutRequest) (*CheckoutResponse, error) {
	expiresAt := time.Now().Add(s.checkoutTTL).Unix()

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
		ExpiresAt:  stripe.Int64(expiresAt),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(request.Currency),
					UnitAmount: stripe.Int64(request.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(request.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.AddExpand("payment_intent")

	if request.Metadata != nil {
		params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{}
		for key, value := range request.Metadata {
			params.AddMetadata(key, value)
			params.PaymentIntentData.AddMetadata(key, value)
		}
	}

	session, err := s.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	response := &CheckoutResponse{
		CheckoutURL: session.URL,
		ExpiresAt:   session.ExpiresAt,
	}
	if session.PaymentIntent != nil {
		response.PaymentIntentID = session.PaymentIntent.ID
		response.ClientSecret = session.PaymentIntent.ClientSecret
	}

	return response, nil
}

func (s *StripeProvider) Refund(ctx context.Context, request *RefundRequest) (*RefundResponse, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(request.PaymentIntentID),
		Amount:        stripe.Int64(request.AmountCents),
	}
	if request.Reason != "" {
		params.Reason = stripe.String(request.Reason)
	}

	refund, err := s.client.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	return &RefundResponse{
		RefundID:    refund.ID,
		Status:      string(refund.Status),
		AmountCents: refund.Amount,
		Currency:    string(refund.Currency),
		CreatedAt:   refund.Created,
	}, nil
}

func (s *StripeProvider) ValidateWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to verify webhook signature: %w", err)
	}

	return &WebhookEvent{
		EventID:   event.ID,
		EventType: string(event.Type),
		Raw:       event.Data.Raw,
		CreatedAt: event.Created,
	}, nil
}
