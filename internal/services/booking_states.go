package services

import (
	"time"

	"groundlink/internal/apperrors"
	"groundlink/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// bookingTransitions is the single legal-transition table. No other
// component hard-codes status sets; every status question goes through
// the functions below.
var bookingTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingStatusDraft: {
		models.BookingStatusPendingReview,
		models.BookingStatusPendingPayment,
		models.BookingStatusConfirmed,
		models.BookingStatusCancelled,
	},
	models.BookingStatusPendingReview: {
		models.BookingStatusPendingPayment,
		models.BookingStatusConfirmed,
		models.BookingStatusCancelled,
	},
	models.BookingStatusPendingPayment: {
		models.BookingStatusConfirmed,
		models.BookingStatusCancelled,
	},
	models.BookingStatusConfirmed: {
		models.BookingStatusAssigned,
		models.BookingStatusEnRoute,
		models.BookingStatusArrived,
		models.BookingStatusInProgress,
		models.BookingStatusCompleted,
		models.BookingStatusNoShow,
		models.BookingStatusCancelled,
	},
	models.BookingStatusAssigned: {
		// Back to confirmed when the driver is unassigned.
		models.BookingStatusConfirmed,
		models.BookingStatusEnRoute,
		models.BookingStatusArrived,
		models.BookingStatusInProgress,
		models.BookingStatusCompleted,
		models.BookingStatusNoShow,
		models.BookingStatusCancelled,
	},
	models.BookingStatusEnRoute: {
		models.BookingStatusArrived,
		models.BookingStatusInProgress,
		models.BookingStatusCompleted,
		models.BookingStatusNoShow,
		models.BookingStatusCancelled,
	},
	models.BookingStatusArrived: {
		models.BookingStatusInProgress,
		models.BookingStatusCompleted,
		models.BookingStatusNoShow,
		models.BookingStatusCancelled,
	},
	models.BookingStatusInProgress: {
		models.BookingStatusCompleted,
		models.BookingStatusCancelled,
	},

	// Terminal states
	models.BookingStatusCompleted:         {},
	models.BookingStatusCancelled:         {},
	models.BookingStatusRefunded:          {},
	models.BookingStatusPartiallyRefunded: {},
	models.BookingStatusNoShow:            {},
}

// quickActionStatuses are the operational targets offered from each
// status. The set is a function of the current status, not a fixed
// total order; pre-approval statuses only ever offer cancellation.
var quickActionStatuses = map[models.BookingStatus][]models.BookingStatus{
	models.BookingStatusDraft:          {models.BookingStatusCancelled},
	models.BookingStatusPendingReview:  {models.BookingStatusCancelled},
	models.BookingStatusPendingPayment: {models.BookingStatusCancelled},
	models.BookingStatusConfirmed: bookingTransitions[models.BookingStatusConfirmed],
	models.BookingStatusAssigned: {
		models.BookingStatusEnRoute,
		models.BookingStatusArrived,
		models.BookingStatusInProgress,
		models.BookingStatusCompleted,
		models.BookingStatusNoShow,
		models.BookingStatusCancelled,
	},
	models.BookingStatusEnRoute:        bookingTransitions[models.BookingStatusEnRoute],
	models.BookingStatusArrived:        bookingTransitions[models.BookingStatusArrived],
	models.BookingStatusInProgress:     bookingTransitions[models.BookingStatusInProgress],
}

func IsTerminalStatus(status models.BookingStatus) bool {
	switch status {
	case models.BookingStatusCompleted,
		models.BookingStatusCancelled,
		models.BookingStatusRefunded,
		models.BookingStatusPartiallyRefunded,
		models.BookingStatusNoShow:
		return true
	}
	return false
}

func IsOperationalStatus(status models.BookingStatus) bool {
	switch status {
	case models.BookingStatusEnRoute,
		models.BookingStatusArrived,
		models.BookingStatusInProgress:
		return true
	}
	return false
}

func CanTransition(from, to models.BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LegalQuickActions returns the operational status targets available
// from the current status.
func LegalQuickActions(status models.BookingStatus) []models.BookingStatus {
	return quickActionStatuses[status]
}

func IsLegalQuickAction(from, to models.BookingStatus) bool {
	for _, next := range quickActionStatuses[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanApprove reports whether a price approval may still run. Once any
// funds are captured the price can only change through UpdatePrice, and
// approve/decline/unapprove are blocked.
func CanApprove(status models.BookingStatus, paid bool) bool {
	if paid {
		return false
	}
	return status == models.BookingStatusDraft || status == models.BookingStatusPendingReview || status == models.BookingStatusPendingPayment
}

func CanDecline(status models.BookingStatus, paid bool) bool {
	if paid {
		return false
	}
	return status == models.BookingStatusPendingReview || status == models.BookingStatusPendingPayment
}

// CanReopen covers the reversal of a decline: back to review from
// cancelled, as long as no money has moved.
func CanReopen(status models.BookingStatus, paid bool) bool {
	return status == models.BookingStatusCancelled && !paid
}

// AssignmentLocked reports whether the driver/vehicle assignment may no
// longer be edited: terminal bookings, and paid bookings that are
// already operationally under way.
func AssignmentLocked(status models.BookingStatus, paid bool) bool {
	if IsTerminalStatus(status) {
		return true
	}
	return paid && IsOperationalStatus(status)
}

// ApplyTransition moves the booking to the target status and returns
// the single StatusEvent the caller must persist in the same atomic
// unit. A request for the current status is an idempotent no-op and
// returns a nil event. An illegal transition mutates nothing.
func ApplyTransition(booking *models.Booking, to models.BookingStatus, actorID *primitive.ObjectID, now time.Time) (*models.StatusEvent, error) {
	if booking.Status == to {
		return nil, nil
	}

	if !CanTransition(booking.Status, to) {
		return nil, apperrors.StateConflict("cannot move booking from %s to %s", booking.Status, to)
	}

	booking.Status = to
	booking.UpdatedAt = now

	return &models.StatusEvent{
		BookingID:   booking.ID,
		Status:      to,
		CreatedByID: actorID,
		CreatedAt:   now,
	}, nil
}

// ApplyReopen reverses a decline. Cancelled is otherwise terminal, so
// this is the one transition deliberately outside the table.
func ApplyReopen(booking *models.Booking, paid bool, actorID *primitive.ObjectID, now time.Time) (*models.StatusEvent, error) {
	if !CanReopen(booking.Status, paid) {
		if paid {
			return nil, apperrors.StateConflict("cannot reopen a booking with captured funds")
		}
		return nil, apperrors.StateConflict("cannot reopen booking from %s", booking.Status)
	}

	booking.Status = models.BookingStatusPendingReview
	booking.DeclineReason = ""
	booking.UpdatedAt = now

	return &models.StatusEvent{
		BookingID:   booking.ID,
		Status:      models.BookingStatusPendingReview,
		CreatedByID: actorID,
		CreatedAt:   now,
	}, nil
}

// applyRefundStatus is the reconciler-driven path onto the refund
// statuses. It bypasses the transition table: refunds may land on any
// booking that has captured funds, including terminal ones.
func applyRefundStatus(booking *models.Booking, to models.BookingStatus, actorID *primitive.ObjectID, now time.Time) *models.StatusEvent {
	if booking.Status == to {
		return nil
	}

	booking.Status = to
	booking.UpdatedAt = now

	return &models.StatusEvent{
		BookingID:   booking.ID,
		Status:      to,
		CreatedByID: actorID,
		CreatedAt:   now,
	}
}
