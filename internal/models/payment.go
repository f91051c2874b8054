package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// Payment is the one-per-booking record of money actually moved.
// AmountPaidCents and AmountTotalCents are allowed to diverge after a
// post-payment price change; "fully paid" must always be derived from
// both fields at read time.
//
// Invariant: AmountRefundedCents <= AmountPaidCents <= AmountTotalCents.
type Payment struct {
	ID                  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BookingID           primitive.ObjectID `json:"booking_id" bson:"booking_id" validate:"required"`
	Status              PaymentStatus      `json:"status" bson:"status" default:"pending"`
	Currency            string             `json:"currency" bson:"currency" default:"usd"`
	AmountTotalCents    int64              `json:"amount_total_cents" bson:"amount_total_cents"`
	AmountPaidCents     int64              `json:"amount_paid_cents" bson:"amount_paid_cents"`
	AmountRefundedCents int64              `json:"amount_refunded_cents" bson:"amount_refunded_cents"`
	PaymentIntentID     string             `json:"payment_intent_id" bson:"payment_intent_id"`
	CapturedIntentIDs   []string           `json:"captured_intent_ids" bson:"captured_intent_ids"`
	CheckoutURL         string             `json:"checkout_url" bson:"checkout_url"`
	ReceiptURL          string             `json:"receipt_url" bson:"receipt_url"`
	FailureReason       string             `json:"failure_reason" bson:"failure_reason"`
	ExpiresAt           *time.Time         `json:"expires_at" bson:"expires_at"`
	PaidAt              *time.Time         `json:"paid_at" bson:"paid_at"`
	RefundedAt          *time.Time         `json:"refunded_at" bson:"refunded_at"`
	Version             int64              `json:"version" bson:"version"`
	CreatedAt           time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at" bson:"updated_at"`
}

// HasCapturedFunds reports whether any money has actually been captured.
func (p *Payment) HasCapturedFunds() bool {
	return p != nil && p.AmountPaidCents > 0
}

// HasCapturedIntent reports whether the given processor intent was
// already recorded. Processor webhooks deliver at least once; a replayed
// success notification must not count the capture twice.
func (p *Payment) HasCapturedIntent(intentID string) bool {
	if p == nil || intentID == "" {
		return false
	}
	for _, id := range p.CapturedIntentIDs {
		if id == intentID {
			return true
		}
	}
	return false
}
