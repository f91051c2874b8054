package services

import (
	"context"
	"testing"
	"time"

	"groundlink/internal/apperrors"
	"groundlink/internal/models"
	"groundlink/internal/repositories/interfaces"
	"groundlink/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (f *serviceFixture) seedBooking(t *testing.T, mutate func(*models.Booking)) *models.Booking {
	t.Helper()

	booking := &models.Booking{
		ServiceTypeID: f.serviceTypeID,
		Status:        models.BookingStatusPendingReview,
		Currency:      "usd",
		PickupAt:      time.Now().Add(48 * time.Hour).UTC(),
		Passengers:    2,
		DistanceMiles: 10,
	}
	if mutate != nil {
		mutate(booking)
	}
	require.NoError(t, f.bookings.Create(context.Background(), booking))
	return booking
}

func (f *serviceFixture) seedPayment(t *testing.T, bookingID primitive.ObjectID, mutate func(*models.Payment)) *models.Payment {
	t.Helper()

	pay := &models.Payment{
		BookingID: bookingID,
		Status:    models.PaymentStatusPending,
		Currency:  "usd",
	}
	if mutate != nil {
		mutate(pay)
	}
	require.NoError(t, f.payments.Create(context.Background(), pay))
	return pay
}

func TestBookingService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("guest booking lands in review with a claim token", func(t *testing.T) {
		f := newServiceFixture()

		view, err := f.bookingService.Create(ctx, models.ActorContext{}, f.createInput(nil))

		require.NoError(t, err)
		booking := view.Booking
		assert.Equal(t, models.BookingStatusPendingReview, booking.Status)
		assert.NotEmpty(t, booking.GuestClaimToken)
		assert.NotEmpty(t, booking.BookingNumber)
		assert.True(t, booking.IsGuest())

		// base 500 + 10mi*200 + 20min*50 = 3500
		assert.Equal(t, int64(3500), booking.SubtotalCents)
		assert.Equal(t, booking.SubtotalCents+booking.FeesCents+booking.TaxesCents, booking.TotalCents)

		// Creation is not a transition; the trail starts at approval.
		count, _ := f.events.CountByBookingID(ctx, booking.ID)
		assert.Zero(t, count)

		assert.Contains(t, f.notifier.events, utils.EventBookingRequested)
	})

	t.Run("account booking carries no claim token", func(t *testing.T) {
		f := newServiceFixture()
		userID := primitive.NewObjectID()

		view, err := f.bookingService.Create(ctx, userActor(userID), f.createInput(&userID))

		require.NoError(t, err)
		assert.Empty(t, view.Booking.GuestClaimToken)
		assert.False(t, view.Booking.IsGuest())
	})

	t.Run("stop surcharge rides in the fee component", func(t *testing.T) {
		f := newServiceFixture()
		input := f.createInput(nil)
		input.Stops = []models.Stop{
			{Address: "4th and Roosevelt"},
			{Address: "Central Station"},
		}

		view, err := f.bookingService.Create(ctx, models.ActorContext{}, input)

		require.NoError(t, err)
		booking := view.Booking
		assert.Equal(t, int64(3000), booking.StopSurchargeCents)
		assert.Equal(t, int64(3000), booking.FeesCents)
		assert.Equal(t, booking.SubtotalCents+3000, booking.TotalCents)
	})

	t.Run("guest without an email is rejected", func(t *testing.T) {
		f := newServiceFixture()
		input := f.createInput(nil)
		input.GuestEmail = ""

		_, err := f.bookingService.Create(ctx, models.ActorContext{}, input)

		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("pickup on a blackout date is rejected", func(t *testing.T) {
		f := newServiceFixture()
		input := f.createInput(nil)
		f.pricing.serviceTypes[f.serviceTypeID].BlackoutDates = []string{utils.CivilDate(input.PickupAt)}

		_, err := f.bookingService.Create(ctx, models.ActorContext{}, input)

		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("point to point without a distance is rejected", func(t *testing.T) {
		f := newServiceFixture()
		input := f.createInput(nil)
		input.DistanceMiles = 0

		_, err := f.bookingService.Create(ctx, models.ActorContext{}, input)

		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("passenger count over the vehicle limit is rejected", func(t *testing.T) {
		f := newServiceFixture()
		input := f.createInput(nil)
		input.VehicleID = &f.vehicleID
		input.Passengers = 4 // sedan seats 3

		_, err := f.bookingService.Create(ctx, models.ActorContext{}, input)

		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})

	t.Run("draft creation is admin only", func(t *testing.T) {
		f := newServiceFixture()
		input := f.createInput(nil)
		input.AsDraft = true

		_, err := f.bookingService.Create(ctx, models.ActorContext{}, input)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindAuthorization, apperrors.KindOf(err))

		view, err := f.bookingService.Create(ctx, adminActor(), input)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusDraft, view.Booking.Status)
	})
}

func TestBookingService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("approval prices the booking and moves it to pending payment", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, nil)

		view, err := f.bookingService.ApproveWithPrice(ctx, adminActor(), booking.ID, &PriceInput{
			SubtotalCents: 10000,
			FeesCents:     500,
			TaxesCents:    850,
		})

		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusPendingPayment, view.Booking.Status)
		assert.Equal(t, int64(11350), view.Booking.TotalCents)

		events, _ := f.events.ListByBookingID(ctx, booking.ID)
		require.Len(t, events, 1)
		assert.Equal(t, models.BookingStatusPendingPayment, events[0].Status)

		assert.Contains(t, f.notifier.events, utils.EventBookingApproved)
	})

	t.Run("direct confirmation skips pending payment", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, nil)

		view, err := f.bookingService.ApproveWithPrice(ctx, adminActor(), booking.ID, &PriceInput{
			SubtotalCents:   10000,
			ConfirmDirectly: true,
		})

		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusConfirmed, view.Booking.Status)
	})

	t.Run("non-admin cannot approve", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, nil)

		_, err := f.bookingService.ApproveWithPrice(ctx, userActor(primitive.NewObjectID()), booking.ID, &PriceInput{SubtotalCents: 10000})

		require.Error(t, err)
		assert.Equal(t, apperrors.KindAuthorization, apperrors.KindOf(err))
	})

	t.Run("captured funds block re-approval", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusPendingPayment
		})
		f.seedPayment(t, booking.ID, func(p *models.Payment) {
			p.Status = models.PaymentStatusPaid
			p.AmountPaidCents = 10000
		})

		_, err := f.bookingService.ApproveWithPrice(ctx, adminActor(), booking.ID, &PriceInput{SubtotalCents: 12000})

		require.Error(t, err)
		assert.Equal(t, apperrors.KindStateConflict, apperrors.KindOf(err))
	})

	t.Run("zero subtotal is rejected before any read", func(t *testing.T) {
		f := newServiceFixture()

		_, err := f.bookingService.ApproveWithPrice(ctx, adminActor(), primitive.NewObjectID(), &PriceInput{})

		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	})
}

func TestBookingService_UpdatePrice(t *testing.T) {
	ctx := context.Background()

	t.Run("raising the price after payment surfaces a balance due", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusConfirmed
			b.SubtotalCents = 10000
			b.TotalCents = 10000
		})
		f.seedPayment(t, booking.ID, func(p *models.Payment) {
			p.Status = models.PaymentStatusPaid
			p.AmountTotalCents = 10000
			p.AmountPaidCents = 10000
		})

		view, err := f.bookingService.UpdatePrice(ctx, adminActor(), booking.ID, &PriceInput{SubtotalCents: 12000})

		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusConfirmed, view.Booking.Status, "price edits never change status")
		assert.Equal(t, int64(12000), view.Booking.TotalCents)
		assert.True(t, view.HasBalanceDue)
		assert.Equal(t, int64(2000), view.BalanceDueCents)

		stored, _ := f.payments.GetByBookingID(ctx, booking.ID)
		assert.Equal(t, int64(12000), stored.AmountTotalCents)
		assert.Equal(t, int64(10000), stored.AmountPaidCents)
	})

	t.Run("lowering the price after payment surfaces a refund suggestion", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusConfirmed
			b.SubtotalCents = 10000
			b.TotalCents = 10000
		})
		f.seedPayment(t, booking.ID, func(p *models.Payment) {
			p.Status = models.PaymentStatusPaid
			p.AmountTotalCents = 10000
			p.AmountPaidCents = 10000
		})

		view, err := f.bookingService.UpdatePrice(ctx, adminActor(), booking.ID, &PriceInput{SubtotalCents: 8000})

		require.NoError(t, err)
		assert.False(t, view.HasBalanceDue)
		assert.Equal(t, int64(2000), view.RefundDueCents)
	})

	t.Run("cancelled booking cannot be repriced", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusCancelled
		})

		_, err := f.bookingService.UpdatePrice(ctx, adminActor(), booking.ID, &PriceInput{SubtotalCents: 8000})

		require.Error(t, err)
		assert.Equal(t, apperrors.KindStateConflict, apperrors.KindOf(err))
	})
}

func TestBookingService_DeclineAndReopen(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	booking := f.seedBooking(t, nil)

	view, err := f.bookingService.Decline(ctx, adminActor(), booking.ID, "out of service area")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, view.Booking.Status)
	assert.Equal(t, "out of service area", view.Booking.DeclineReason)
	assert.Contains(t, f.notifier.events, utils.EventBookingDeclined)

	view, err = f.bookingService.Reopen(ctx, adminActor(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPendingReview, view.Booking.Status)
	assert.Empty(t, view.Booking.DeclineReason)

	// cancelled + reopened = two trail entries
	count, _ := f.events.CountByBookingID(ctx, booking.ID)
	assert.Equal(t, int64(2), count)
}

func TestBookingService_Duplicate(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	booking := f.seedBooking(t, func(b *models.Booking) {
		b.Status = models.BookingStatusCompleted
		b.SubtotalCents = 10000
		b.FeesCents = 1500
		b.TotalCents = 11500
		b.StopSurchargeCents = 1500
		b.StopCount = 1
		b.Stops = []models.Stop{{Address: "Central Station"}}
		b.GuestName = "Pat Jones"
		b.GuestEmail = "pat@example.com"
		b.GuestClaimToken = "original-token"
	})

	view, err := f.bookingService.Duplicate(ctx, adminActor(), booking.ID)

	require.NoError(t, err)
	duplicate := view.Booking
	assert.NotEqual(t, booking.ID, duplicate.ID)
	assert.Equal(t, models.BookingStatusDraft, duplicate.Status)
	assert.Equal(t, booking.PickupAt, duplicate.PickupAt)
	assert.Equal(t, booking.Stops, duplicate.Stops)

	// Money is reset to the structural surcharge only; the duplicate goes
	// through approval again.
	assert.Zero(t, duplicate.SubtotalCents)
	assert.Equal(t, int64(1500), duplicate.FeesCents)
	assert.Equal(t, int64(1500), duplicate.TotalCents)

	assert.NotEmpty(t, duplicate.GuestClaimToken)
	assert.NotEqual(t, booking.GuestClaimToken, duplicate.GuestClaimToken)
}

func TestBookingService_ChangeStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("assigned driver advances the trip", func(t *testing.T) {
		f := newServiceFixture()
		driverID := primitive.NewObjectID()
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusAssigned
		})
		require.NoError(t, f.assignments.Upsert(ctx, &models.Assignment{
			BookingID: booking.ID,
			DriverID:  driverID,
		}))

		view, err := f.bookingService.ChangeStatus(ctx, driverActor(driverID), booking.ID, models.BookingStatusEnRoute)

		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusEnRoute, view.Booking.Status)
		assert.Contains(t, f.notifier.events, utils.EventStatusChanged)
	})

	t.Run("unassigned driver is rejected", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusAssigned
		})

		_, err := f.bookingService.ChangeStatus(ctx, driverActor(primitive.NewObjectID()), booking.ID, models.BookingStatusEnRoute)

		require.Error(t, err)
		assert.Equal(t, apperrors.KindAuthorization, apperrors.KindOf(err))
	})

	t.Run("quick actions cannot approve a booking", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, nil) // pending_review

		_, err := f.bookingService.ChangeStatus(ctx, adminActor(), booking.ID, models.BookingStatusConfirmed)

		require.Error(t, err)
		assert.Equal(t, apperrors.KindStateConflict, apperrors.KindOf(err))
	})

	t.Run("same-status retry is an idempotent no-op", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusConfirmed
		})

		view, err := f.bookingService.ChangeStatus(ctx, adminActor(), booking.ID, models.BookingStatusConfirmed)

		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusConfirmed, view.Booking.Status)
		count, _ := f.events.CountByBookingID(ctx, booking.ID)
		assert.Zero(t, count)
	})
}

func TestBookingService_Checkout(t *testing.T) {
	ctx := context.Background()

	t.Run("unpriced booking cannot check out", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, nil) // pending_review

		_, err := f.bookingService.CreateCheckout(ctx, adminActor(), booking.ID)

		require.Error(t, err)
		assert.Equal(t, apperrors.KindStateConflict, apperrors.KindOf(err))
		assert.Zero(t, f.provider.checkouts, "no processor call for unpriced bookings")
	})

	t.Run("first checkout creates the payment row", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusPendingPayment
			b.SubtotalCents = 10000
			b.TotalCents = 10000
		})

		artifact, err := f.bookingService.CreateCheckout(ctx, adminActor(), booking.ID)

		require.NoError(t, err)
		assert.False(t, artifact.Reused)
		assert.Equal(t, int64(10000), artifact.AmountCents)
		assert.NotEmpty(t, artifact.CheckoutURL)
		assert.NotNil(t, artifact.ExpiresAt)

		pay, _ := f.payments.GetByBookingID(ctx, booking.ID)
		require.NotNil(t, pay)
		assert.Equal(t, models.PaymentStatusPending, pay.Status)
		assert.Equal(t, artifact.PaymentIntentID, pay.PaymentIntentID)
	})

	t.Run("live checkout is reused instead of recreated", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusPendingPayment
			b.SubtotalCents = 10000
			b.TotalCents = 10000
		})

		first, err := f.bookingService.CreateCheckout(ctx, adminActor(), booking.ID)
		require.NoError(t, err)

		second, err := f.bookingService.CreateCheckout(ctx, adminActor(), booking.ID)
		require.NoError(t, err)

		assert.True(t, second.Reused)
		assert.Equal(t, first.PaymentIntentID, second.PaymentIntentID)
		assert.Equal(t, 1, f.provider.checkouts, "processor called once")
	})

	t.Run("price change invalidates the old checkout", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusPendingPayment
			b.SubtotalCents = 10000
			b.TotalCents = 10000
		})

		first, err := f.bookingService.CreateCheckout(ctx, adminActor(), booking.ID)
		require.NoError(t, err)

		_, err = f.bookingService.UpdatePrice(ctx, adminActor(), booking.ID, &PriceInput{SubtotalCents: 12000})
		require.NoError(t, err)

		second, err := f.bookingService.CreateCheckout(ctx, adminActor(), booking.ID)
		require.NoError(t, err)

		assert.False(t, second.Reused)
		assert.NotEqual(t, first.PaymentIntentID, second.PaymentIntentID)
		assert.Equal(t, int64(12000), second.AmountCents)
	})

	t.Run("fully paid booking has nothing to collect", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusConfirmed
			b.SubtotalCents = 10000
			b.TotalCents = 10000
		})
		f.seedPayment(t, booking.ID, func(p *models.Payment) {
			p.Status = models.PaymentStatusPaid
			p.AmountTotalCents = 10000
			p.AmountPaidCents = 10000
		})

		_, err := f.bookingService.CreateCheckout(ctx, adminActor(), booking.ID)

		require.Error(t, err)
		assert.Equal(t, apperrors.KindStateConflict, apperrors.KindOf(err))
	})

	t.Run("processor failure leaves no local trace", func(t *testing.T) {
		f := newServiceFixture()
		f.provider.failCheckout = true
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusPendingPayment
			b.SubtotalCents = 10000
			b.TotalCents = 10000
		})

		_, err := f.bookingService.CreateCheckout(ctx, adminActor(), booking.ID)

		require.Error(t, err)
		assert.Equal(t, apperrors.KindExternal, apperrors.KindOf(err))
		pay, _ := f.payments.GetByBookingID(ctx, booking.ID)
		assert.Nil(t, pay)
	})

	t.Run("guest checks out with the claim token", func(t *testing.T) {
		f := newServiceFixture()
		f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusPendingPayment
			b.SubtotalCents = 5000
			b.TotalCents = 5000
			b.GuestName = "Pat Jones"
			b.GuestEmail = "pat@example.com"
			b.GuestClaimToken = "token-abc"
		})

		artifact, err := f.bookingService.CreateCheckoutByClaimToken(ctx, "token-abc")

		require.NoError(t, err)
		assert.Equal(t, int64(5000), artifact.AmountCents)

		_, err = f.bookingService.CreateCheckoutByClaimToken(ctx, "no-such-token")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}

func TestBookingService_MarkPaid(t *testing.T) {
	ctx := context.Background()

	t.Run("full capture confirms the booking", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusPendingPayment
			b.SubtotalCents = 10000
			b.TotalCents = 10000
		})
		f.seedPayment(t, booking.ID, func(p *models.Payment) {
			p.AmountTotalCents = 10000
			p.PaymentIntentID = "pi_abc"
		})

		err := f.bookingService.MarkPaid(ctx, "pi_abc", 10000)

		require.NoError(t, err)
		stored, _ := f.bookings.GetByID(ctx, booking.ID)
		assert.Equal(t, models.BookingStatusConfirmed, stored.Status)

		pay, _ := f.payments.GetByBookingID(ctx, booking.ID)
		assert.Equal(t, models.PaymentStatusPaid, pay.Status)
		assert.Equal(t, int64(10000), pay.AmountPaidCents)

		events, _ := f.events.ListByBookingID(ctx, booking.ID)
		require.Len(t, events, 1)
		assert.Equal(t, models.BookingStatusConfirmed, events[0].Status)
		assert.Contains(t, f.notifier.events, utils.EventPaymentReceived)
	})

	t.Run("replayed success notification is counted once", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusPendingPayment
			b.SubtotalCents = 10000
			b.TotalCents = 10000
		})
		f.seedPayment(t, booking.ID, func(p *models.Payment) {
			p.AmountTotalCents = 10000
			p.PaymentIntentID = "pi_abc"
		})

		require.NoError(t, f.bookingService.MarkPaid(ctx, "pi_abc", 10000))
		require.NoError(t, f.bookingService.MarkPaid(ctx, "pi_abc", 10000))

		pay, _ := f.payments.GetByBookingID(ctx, booking.ID)
		assert.Equal(t, int64(10000), pay.AmountPaidCents, "replay must not double-count")
		assert.LessOrEqual(t, pay.AmountPaidCents, pay.AmountTotalCents)

		count, _ := f.events.CountByBookingID(ctx, booking.ID)
		assert.Equal(t, int64(1), count)
	})

	t.Run("balance capture accumulates without a status change", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusEnRoute
			b.SubtotalCents = 12000
			b.TotalCents = 12000
		})
		f.seedPayment(t, booking.ID, func(p *models.Payment) {
			p.Status = models.PaymentStatusPaid
			p.AmountTotalCents = 12000
			p.AmountPaidCents = 10000
			p.PaymentIntentID = "pi_balance"
			p.CapturedIntentIDs = []string{"pi_first"}
		})

		err := f.bookingService.MarkPaid(ctx, "pi_balance", 2000)

		require.NoError(t, err)
		stored, _ := f.bookings.GetByID(ctx, booking.ID)
		assert.Equal(t, models.BookingStatusEnRoute, stored.Status)

		pay, _ := f.payments.GetByBookingID(ctx, booking.ID)
		assert.Equal(t, int64(12000), pay.AmountPaidCents)
		assert.ElementsMatch(t, []string{"pi_first", "pi_balance"}, pay.CapturedIntentIDs)

		count, _ := f.events.CountByBookingID(ctx, booking.ID)
		assert.Zero(t, count)
	})

	t.Run("capture for an unknown intent is a miss", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, nil)
		f.seedPayment(t, booking.ID, func(p *models.Payment) {
			p.PaymentIntentID = "pi_current"
		})

		err := f.bookingService.MarkPaid(ctx, "pi_superseded", 10000)

		require.Error(t, err)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}

func TestBookingService_MarkPaymentFailed(t *testing.T) {
	ctx := context.Background()

	t.Run("failure marks the payment without touching the booking", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusPendingPayment
		})
		f.seedPayment(t, booking.ID, func(p *models.Payment) {
			p.PaymentIntentID = "pi_abc"
		})

		err := f.bookingService.MarkPaymentFailed(ctx, "pi_abc", "card_declined")

		require.NoError(t, err)
		pay, _ := f.payments.GetByBookingID(ctx, booking.ID)
		assert.Equal(t, models.PaymentStatusFailed, pay.Status)
		assert.Equal(t, "card_declined", pay.FailureReason)

		// The booking stays where it was; the customer can retry checkout.
		stored, _ := f.bookings.GetByID(ctx, booking.ID)
		assert.Equal(t, models.BookingStatusPendingPayment, stored.Status)
	})

	t.Run("failure arriving after the capture is stale", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = models.BookingStatusPendingPayment
			b.SubtotalCents = 10000
			b.TotalCents = 10000
		})
		f.seedPayment(t, booking.ID, func(p *models.Payment) {
			p.AmountTotalCents = 10000
			p.PaymentIntentID = "pi_abc"
		})
		require.NoError(t, f.bookingService.MarkPaid(ctx, "pi_abc", 10000))

		err := f.bookingService.MarkPaymentFailed(ctx, "pi_abc", "card_declined")

		require.NoError(t, err)
		pay, _ := f.payments.GetByBookingID(ctx, booking.ID)
		assert.Equal(t, models.PaymentStatusPaid, pay.Status)
		assert.Empty(t, pay.FailureReason)
	})
}

func TestBookingService_IssueRefund(t *testing.T) {
	ctx := context.Background()

	seedPaid := func(f *serviceFixture, status models.BookingStatus) *models.Booking {
		booking := f.seedBooking(t, func(b *models.Booking) {
			b.Status = status
			b.SubtotalCents = 10000
			b.TotalCents = 10000
		})
		f.seedPayment(t, booking.ID, func(p *models.Payment) {
			p.Status = models.PaymentStatusPaid
			p.AmountTotalCents = 10000
			p.AmountPaidCents = 10000
			p.PaymentIntentID = "pi_abc"
		})
		return booking
	}

	t.Run("partial refund", func(t *testing.T) {
		f := newServiceFixture()
		booking := seedPaid(f, models.BookingStatusCompleted)

		view, err := f.bookingService.IssueRefund(ctx, adminActor(), booking.ID, 4000, "late pickup")

		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusPartiallyRefunded, view.Booking.Status)
		assert.Equal(t, models.PaymentStatusPartiallyRefunded, view.Payment.Status)
		assert.Equal(t, int64(4000), view.Payment.AmountRefundedCents)
		require.Len(t, f.provider.refunds, 1)
		assert.Equal(t, int64(4000), f.provider.refunds[0].AmountCents)
		assert.Contains(t, f.notifier.events, utils.EventRefundIssued)
	})

	t.Run("full refund", func(t *testing.T) {
		f := newServiceFixture()
		booking := seedPaid(f, models.BookingStatusCancelled)

		view, err := f.bookingService.IssueRefund(ctx, adminActor(), booking.ID, 10000, "")

		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusRefunded, view.Booking.Status)
		assert.Equal(t, models.PaymentStatusRefunded, view.Payment.Status)
	})

	t.Run("consecutive partial refunds", func(t *testing.T) {
		f := newServiceFixture()
		booking := seedPaid(f, models.BookingStatusCompleted)

		_, err := f.bookingService.IssueRefund(ctx, adminActor(), booking.ID, 3000, "late pickup")
		require.NoError(t, err)

		// The second partial refund lands on a booking already in the
		// partial-refund status, so no new status event is written.
		view, err := f.bookingService.IssueRefund(ctx, adminActor(), booking.ID, 2000, "voucher")
		require.NoError(t, err)

		assert.Equal(t, models.BookingStatusPartiallyRefunded, view.Booking.Status)
		assert.Equal(t, int64(5000), view.Payment.AmountRefundedCents)
		require.Len(t, f.provider.refunds, 2)

		count, _ := f.events.CountByBookingID(ctx, booking.ID)
		assert.Equal(t, int64(1), count)

		// A third refund for the remainder closes it out.
		view, err = f.bookingService.IssueRefund(ctx, adminActor(), booking.ID, 5000, "")
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusRefunded, view.Booking.Status)
		assert.Equal(t, models.PaymentStatusRefunded, view.Payment.Status)

		count, _ = f.events.CountByBookingID(ctx, booking.ID)
		assert.Equal(t, int64(2), count)
	})

	t.Run("over-refund is rejected before the processor is called", func(t *testing.T) {
		f := newServiceFixture()
		booking := seedPaid(f, models.BookingStatusCompleted)

		_, err := f.bookingService.IssueRefund(ctx, adminActor(), booking.ID, 10001, "")

		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		assert.Empty(t, f.provider.refunds, "no money moved")
	})

	t.Run("unpaid booking has nothing to refund", func(t *testing.T) {
		f := newServiceFixture()
		booking := f.seedBooking(t, nil)

		_, err := f.bookingService.IssueRefund(ctx, adminActor(), booking.ID, 100, "")

		require.Error(t, err)
		assert.Equal(t, apperrors.KindStateConflict, apperrors.KindOf(err))
		assert.Empty(t, f.provider.refunds)
	})

	t.Run("processor rejection leaves the records untouched", func(t *testing.T) {
		f := newServiceFixture()
		f.provider.failRefund = true
		booking := seedPaid(f, models.BookingStatusCompleted)

		_, err := f.bookingService.IssueRefund(ctx, adminActor(), booking.ID, 4000, "")

		require.Error(t, err)
		assert.Equal(t, apperrors.KindExternal, apperrors.KindOf(err))

		pay, _ := f.payments.GetByBookingID(ctx, booking.ID)
		assert.Zero(t, pay.AmountRefundedCents)
		stored, _ := f.bookings.GetByID(ctx, booking.ID)
		assert.Equal(t, models.BookingStatusCompleted, stored.Status)
	})

	t.Run("refunds are admin only", func(t *testing.T) {
		f := newServiceFixture()
		booking := seedPaid(f, models.BookingStatusCompleted)

		_, err := f.bookingService.IssueRefund(ctx, userActor(primitive.NewObjectID()), booking.ID, 4000, "")

		require.Error(t, err)
		assert.Equal(t, apperrors.KindAuthorization, apperrors.KindOf(err))
	})
}

func TestBookingService_ReadAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	ownerID := primitive.NewObjectID()
	booking := f.seedBooking(t, func(b *models.Booking) {
		b.UserID = &ownerID
	})

	_, err := f.bookingService.Get(ctx, userActor(ownerID), booking.ID)
	assert.NoError(t, err, "owner can read")

	_, err = f.bookingService.Get(ctx, adminActor(), booking.ID)
	assert.NoError(t, err, "admin can read")

	_, err = f.bookingService.Get(ctx, userActor(primitive.NewObjectID()), booking.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAuthorization, apperrors.KindOf(err))
}

func TestBookingService_ListScoping(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	ownerID := primitive.NewObjectID()
	f.seedBooking(t, func(b *models.Booking) { b.UserID = &ownerID })
	f.seedBooking(t, nil) // someone else's guest booking

	views, total, err := f.bookingService.List(ctx, userActor(ownerID), interfaces.BookingFilter{}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, views, 1)
	assert.Equal(t, &ownerID, views[0].Booking.UserID)

	_, total, err = f.bookingService.List(ctx, adminActor(), interfaces.BookingFilter{}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestBookingService_AddInternalNote(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture()
	booking := f.seedBooking(t, nil)
	admin := adminActor()

	err := f.bookingService.AddInternalNote(ctx, admin, booking.ID, "customer asked for a child seat")
	require.NoError(t, err)

	stored, _ := f.bookings.GetByID(ctx, booking.ID)
	require.Len(t, stored.InternalNotes, 1)
	assert.Equal(t, admin.ID, stored.InternalNotes[0].AuthorID)

	err = f.bookingService.AddInternalNote(ctx, userActor(primitive.NewObjectID()), booking.ID, "nope")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAuthorization, apperrors.KindOf(err))

	err = f.bookingService.AddInternalNote(ctx, admin, booking.ID, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}
