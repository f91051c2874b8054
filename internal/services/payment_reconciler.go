package services

import (
	"time"

	"groundlink/internal/apperrors"
	"groundlink/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment reconciliation: the pure arithmetic that keeps booking totals
// and payment captures mutually consistent. All functions here tolerate
// a nil payment (no money has moved yet).

// BalanceDueCents is the amount still to collect after the approved
// total moved above what was captured. Always computed at read time;
// never cache the result.
func BalanceDueCents(totalCents int64, payment *models.Payment) int64 {
	paid := int64(0)
	if payment != nil {
		paid = payment.AmountPaidCents
	}

	if due := totalCents - paid; due > 0 {
		return due
	}
	return 0
}

// RefundableCents is what can still be returned to the customer.
func RefundableCents(payment *models.Payment) int64 {
	if payment == nil {
		return 0
	}
	return payment.AmountPaidCents - payment.AmountRefundedCents
}

// RefundDueCents is the advisory complement of BalanceDueCents: the
// price was lowered after payment, so this much should be proactively
// refunded. Surfaced as a suggestion, never auto-executed.
func RefundDueCents(totalCents int64, payment *models.Payment) int64 {
	if payment == nil {
		return 0
	}

	if due := RefundableCents(payment) - totalCents; due > 0 {
		return due
	}
	return 0
}

// IsFullyPaid derives "paid in full" from both stored amounts. The two
// fields diverge by design after a post-payment price change, so this
// must never be persisted as a boolean.
func IsFullyPaid(totalCents int64, payment *models.Payment) bool {
	return payment != nil && payment.AmountPaidCents > 0 && payment.AmountPaidCents >= totalCents
}

// ValidateRefundAmount rejects a refund request before any external
// call is attempted.
func ValidateRefundAmount(payment *models.Payment, amountCents int64) error {
	if amountCents <= 0 {
		return apperrors.Validation("refund amount must be positive")
	}

	refundable := RefundableCents(payment)
	if refundable <= 0 {
		return apperrors.StateConflict("booking has no refundable payment")
	}
	if amountCents > refundable {
		return apperrors.Validation("refund amount %d exceeds refundable amount %d", amountCents, refundable)
	}

	return nil
}

// CheckoutReusable reports whether an existing checkout artifact can be
// handed back instead of creating a duplicate: still pending, carries a
// live processor reference for the same amount, and has not expired.
func CheckoutReusable(payment *models.Payment, amountCents int64, now time.Time) bool {
	if payment == nil || payment.PaymentIntentID == "" {
		return false
	}
	if payment.Status != models.PaymentStatusPending {
		return false
	}
	if payment.AmountTotalCents-payment.AmountPaidCents != amountCents {
		return false
	}
	if payment.ExpiresAt != nil && !payment.ExpiresAt.After(now) {
		return false
	}
	return true
}

// ApplyRefund records a confirmed external refund on the payment and
// booking. The caller must persist booking, payment, and the returned
// event in the same atomic unit as the external call's success
// confirmation.
func ApplyRefund(booking *models.Booking, payment *models.Payment, amountCents int64, actorID *primitive.ObjectID, now time.Time) (*models.StatusEvent, error) {
	if err := ValidateRefundAmount(payment, amountCents); err != nil {
		return nil, err
	}

	payment.AmountRefundedCents += amountCents
	payment.RefundedAt = &now
	payment.UpdatedAt = now

	status := models.BookingStatusPartiallyRefunded
	if payment.AmountRefundedCents == payment.AmountPaidCents {
		payment.Status = models.PaymentStatusRefunded
		status = models.BookingStatusRefunded
	} else {
		payment.Status = models.PaymentStatusPartiallyRefunded
	}

	return applyRefundStatus(booking, status, actorID, now), nil
}

// ApplyPaymentSucceeded records a processor "payment succeeded"
// notification. Captured amounts accumulate so a later balance charge
// lands on the same payment row. The booking confirms only from its
// pre-payment statuses; an operational booking keeps its status.
func ApplyPaymentSucceeded(booking *models.Booking, payment *models.Payment, amountReceivedCents int64, now time.Time) (*models.StatusEvent, error) {
	if amountReceivedCents <= 0 {
		return nil, apperrors.Validation("captured amount must be positive")
	}

	payment.AmountPaidCents += amountReceivedCents
	payment.Status = models.PaymentStatusPaid
	payment.FailureReason = ""
	payment.PaidAt = &now
	payment.UpdatedAt = now

	switch booking.Status {
	case models.BookingStatusDraft, models.BookingStatusPendingReview, models.BookingStatusPendingPayment:
		return ApplyTransition(booking, models.BookingStatusConfirmed, nil, now)
	}

	return nil, nil
}

// ApplyPaymentFailed marks the payment failed without touching any
// captured amount or the booking status.
func ApplyPaymentFailed(payment *models.Payment, reason string, now time.Time) {
	if payment.AmountPaidCents > 0 {
		// A failed balance charge must not clobber an earlier capture.
		payment.FailureReason = reason
		payment.UpdatedAt = now
		return
	}

	payment.Status = models.PaymentStatusFailed
	payment.FailureReason = reason
	payment.UpdatedAt = now
}

// ApplyPriceChange writes a newly approved price onto the booking and,
// when money has already moved, onto the payment's expected total.
// AmountPaidCents is deliberately left untouched: the two fields may
// diverge until the balance is collected or refunded.
func ApplyPriceChange(booking *models.Booking, payment *models.Payment, subtotalCents, feesCents, taxesCents int64, now time.Time) {
	booking.SubtotalCents = subtotalCents
	booking.FeesCents = feesCents
	booking.TaxesCents = taxesCents
	booking.TotalCents = subtotalCents + feesCents + taxesCents
	booking.UpdatedAt = now

	if payment != nil && payment.HasCapturedFunds() {
		payment.AmountTotalCents = booking.TotalCents
		payment.UpdatedAt = now
	}
}

// BuildView assembles the derived, read-time payment fields.
func BuildView(booking *models.Booking, payment *models.Payment, assignment *models.Assignment) *models.BookingView {
	balance := BalanceDueCents(booking.TotalCents, payment)

	return &models.BookingView{
		Booking:         booking,
		Payment:         payment,
		Assignment:      assignment,
		HasBalanceDue:   payment.HasCapturedFunds() && balance > 0,
		BalanceDueCents: balance,
		RefundDueCents:  RefundDueCents(booking.TotalCents, payment),
		RefundableCents: RefundableCents(payment),
	}
}
