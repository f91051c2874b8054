package services

import (
	"context"
	"time"

	"groundlink/internal/apperrors"
	"groundlink/internal/models"
	"groundlink/internal/repositories/interfaces"
	"groundlink/internal/utils"
	"groundlink/pkg/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateCheckout creates (or reuses) the hosted checkout for whatever
// the booking still owes. The processor call happens before any local
// write; a processor failure leaves no trace.
func (s *bookingService) CreateCheckout(ctx context.Context, actor models.ActorContext, id primitive.ObjectID) (*CheckoutArtifact, error) {
	booking, _, assignment, err := s.loadAggregate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canRead(actor, booking, assignment) {
		return nil, apperrors.Authorization()
	}

	return s.createCheckout(ctx, booking)
}

// CreateCheckoutByClaimToken is the guest path: possession of the claim
// token stands in for authentication.
func (s *bookingService) CreateCheckoutByClaimToken(ctx context.Context, token string) (*CheckoutArtifact, error) {
	if token == "" {
		return nil, apperrors.Validation("claim token is required")
	}

	booking, err := s.bookingRepo.GetByClaimToken(ctx, token)
	if err != nil {
		return nil, err
	}

	return s.createCheckout(ctx, booking)
}

func (s *bookingService) createCheckout(ctx context.Context, booking *models.Booking) (*CheckoutArtifact, error) {
	var artifact *CheckoutArtifact

	err := s.withBookingLock(ctx, booking.ID, func(ctx context.Context) error {
		// Reload under the lock; the aggregate may have moved since the
		// authorization read.
		booking, err := s.bookingRepo.GetByID(ctx, booking.ID)
		if err != nil {
			return err
		}
		pay, err := s.paymentRepo.GetByBookingID(ctx, booking.ID)
		if err != nil {
			return err
		}

		switch booking.Status {
		case models.BookingStatusDraft, models.BookingStatusPendingReview:
			return apperrors.StateConflict("booking has not been priced yet")
		}
		if IsTerminalStatus(booking.Status) && booking.Status != models.BookingStatusCompleted {
			return apperrors.StateConflict("cannot collect payment for booking in status %s", booking.Status)
		}

		amount := BalanceDueCents(booking.TotalCents, pay)
		if amount <= 0 {
			return apperrors.StateConflict("booking has no balance to collect")
		}

		now := time.Now().UTC()
		if CheckoutReusable(pay, amount, now) {
			artifact = &CheckoutArtifact{
				PaymentIntentID: pay.PaymentIntentID,
				CheckoutURL:     pay.CheckoutURL,
				AmountCents:     amount,
				Currency:        pay.Currency,
				ExpiresAt:       pay.ExpiresAt,
				Reused:          true,
			}
			return nil
		}

		resp, err := s.payments.CreateCheckout(ctx, &payment.CheckoutRequest{
			AmountCents: amount,
			Currency:    booking.Currency,
			Description: "Booking " + booking.BookingNumber,
			Metadata: map[string]string{
				"booking_id":     booking.ID.Hex(),
				"booking_number": booking.BookingNumber,
			},
		})
		if err != nil {
			return apperrors.External("payment provider rejected checkout creation", err)
		}

		var expiresAt *time.Time
		if resp.ExpiresAt > 0 {
			t := time.Unix(resp.ExpiresAt, 0).UTC()
			expiresAt = &t
		}

		if pay == nil {
			pay = &models.Payment{
				BookingID:        booking.ID,
				Status:           models.PaymentStatusPending,
				Currency:         booking.Currency,
				AmountTotalCents: booking.TotalCents,
				PaymentIntentID:  resp.PaymentIntentID,
				CheckoutURL:      resp.CheckoutURL,
				ExpiresAt:        expiresAt,
			}
			if err := s.paymentRepo.Create(ctx, pay); err != nil {
				return err
			}
		} else {
			// A stale, failed, or superseded checkout gets replaced on the
			// same payment row; captured amounts are never touched here.
			pay.Status = models.PaymentStatusPending
			pay.AmountTotalCents = booking.TotalCents
			pay.PaymentIntentID = resp.PaymentIntentID
			pay.CheckoutURL = resp.CheckoutURL
			pay.ExpiresAt = expiresAt
			pay.FailureReason = ""
			pay.UpdatedAt = now
			if err := s.paymentRepo.ReplaceVersioned(ctx, pay, pay.Version); err != nil {
				if err == interfaces.ErrVersionConflict {
					return apperrors.StateConflict("payment changed concurrently; retry the operation")
				}
				return err
			}
		}

		s.logger.LogPaymentEvent(booking.ID, "checkout_created", amount, booking.Currency)

		artifact = &CheckoutArtifact{
			PaymentIntentID: resp.PaymentIntentID,
			ClientSecret:    resp.ClientSecret,
			CheckoutURL:     resp.CheckoutURL,
			AmountCents:     amount,
			Currency:        booking.Currency,
			ExpiresAt:       expiresAt,
			Reused:          false,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return artifact, nil
}

// MarkPaid records a confirmed capture, normally from the processor
// webhook. The payment is resolved by the processor's intent id, and an
// intent that was already recorded is skipped, so at-least-once webhook
// delivery cannot double-count a capture. Retries on version conflict
// so a simultaneous admin price edit cannot drop the capture.
func (s *bookingService) MarkPaid(ctx context.Context, intentID string, amountCents int64) error {
	var lastErr error
	for attempt := 0; attempt < utils.ReconcileMaxAttempts; attempt++ {
		pay, err := s.paymentRepo.GetByIntentID(ctx, intentID)
		if err != nil {
			return err
		}
		if pay.HasCapturedIntent(intentID) {
			s.logger.WithBookingID(pay.BookingID).WithField("intent_id", intentID).Info("capture already recorded; ignoring replay")
			return nil
		}
		booking, err := s.bookingRepo.GetByID(ctx, pay.BookingID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		event, err := ApplyPaymentSucceeded(booking, pay, amountCents, now)
		if err != nil {
			return err
		}
		pay.CapturedIntentIDs = append(pay.CapturedIntentIDs, intentID)

		err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := s.paymentRepo.ReplaceVersioned(ctx, pay, pay.Version); err != nil {
				return err
			}
			if err := s.bookingRepo.Replace(ctx, booking); err != nil {
				return err
			}
			if event != nil {
				return s.statusEventRepo.Append(ctx, event)
			}
			return nil
		})
		if err == interfaces.ErrVersionConflict {
			lastErr = err
			continue
		}
		if err != nil {
			return err
		}

		s.logger.LogPaymentEvent(pay.BookingID, "payment_captured", amountCents, pay.Currency)
		s.notifier.EmitBookingEvent(utils.EventPaymentReceived, pay.BookingID)
		return nil
	}

	return apperrors.Internal("failed to record capture after retries", lastErr)
}

// MarkPaymentFailed records a processor failure notification. The
// booking status is never touched.
func (s *bookingService) MarkPaymentFailed(ctx context.Context, intentID string, reason string) error {
	var lastErr error
	for attempt := 0; attempt < utils.ReconcileMaxAttempts; attempt++ {
		pay, err := s.paymentRepo.GetByIntentID(ctx, intentID)
		if err != nil {
			return err
		}
		if pay.HasCapturedIntent(intentID) {
			// A failure notification arriving after the capture for the
			// same intent was recorded is stale; the capture wins.
			return nil
		}

		ApplyPaymentFailed(pay, reason, time.Now().UTC())

		err = s.paymentRepo.ReplaceVersioned(ctx, pay, pay.Version)
		if err == interfaces.ErrVersionConflict {
			lastErr = err
			continue
		}
		if err != nil {
			return err
		}

		s.logger.WithBookingID(pay.BookingID).WithField("reason", reason).Warn("payment failed")
		return nil
	}

	return apperrors.Internal("failed to record payment failure after retries", lastErr)
}

// IssueRefund returns money through the processor and records the
// result. Validation happens before the external call; once the
// processor confirms, the local apply is retried until it sticks.
func (s *bookingService) IssueRefund(ctx context.Context, actor models.ActorContext, id primitive.ObjectID, amountCents int64, reason string) (*models.BookingView, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Authorization()
	}
	if len(reason) > utils.MaxRefundReasonLen {
		return nil, apperrors.Validation("refund reason is too long")
	}

	var view *models.BookingView
	err := s.withBookingLock(ctx, id, func(ctx context.Context) error {
		booking, pay, assignment, err := s.loadAggregate(ctx, id)
		if err != nil {
			return err
		}

		if err := ValidateRefundAmount(pay, amountCents); err != nil {
			return err
		}

		resp, err := s.payments.Refund(ctx, &payment.RefundRequest{
			PaymentIntentID: pay.PaymentIntentID,
			AmountCents:     amountCents,
			Reason:          reason,
		})
		if err != nil {
			return apperrors.External("payment provider rejected refund", err)
		}

		// Money has moved; the local apply must not be abandoned on a
		// version race.
		var lastErr error
		for attempt := 0; attempt < utils.ReconcileMaxAttempts; attempt++ {
			now := time.Now().UTC()
			event, applyErr := ApplyRefund(booking, pay, amountCents, &actor.ID, now)
			if applyErr != nil {
				return applyErr
			}

			err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
				if err := s.paymentRepo.ReplaceVersioned(ctx, pay, pay.Version); err != nil {
					return err
				}
				if err := s.bookingRepo.Replace(ctx, booking); err != nil {
					return err
				}
				// A follow-up partial refund lands on the same status, so
				// there may be no event to record.
				if event != nil {
					return s.statusEventRepo.Append(ctx, event)
				}
				return nil
			})
			if err == interfaces.ErrVersionConflict {
				lastErr = err
				booking, pay, assignment, err = s.loadAggregate(ctx, id)
				if err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}

			s.logger.LogPaymentEvent(id, "refund_issued", amountCents, pay.Currency)
			s.logger.WithBookingID(id).WithField("refund_id", resp.RefundID).Info("refund recorded")

			view = BuildView(booking, pay, assignment)
			return nil
		}

		return apperrors.Internal("refund confirmed externally but could not be recorded", lastErr)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.EmitBookingEvent(utils.EventRefundIssued, id)
	return view, nil
}
