package services

import (
	"context"
	"time"

	"groundlink/internal/apperrors"
	"groundlink/internal/models"
	"groundlink/internal/repositories/interfaces"
	"groundlink/internal/utils"
	"groundlink/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentService manages the driver/vehicle assignment attached to a
// booking. Assignment edits are admin-only and lock down once a paid
// booking is operationally under way.
type AssignmentService interface {
	Assign(ctx context.Context, actor models.ActorContext, input *AssignInput) (*models.Assignment, error)
	Unassign(ctx context.Context, actor models.ActorContext, bookingID primitive.ObjectID) error
	GetForBooking(ctx context.Context, actor models.ActorContext, bookingID primitive.ObjectID) (*models.Assignment, error)
}

type AssignInput struct {
	BookingID          primitive.ObjectID
	DriverID           primitive.ObjectID
	VehicleUnitID      *primitive.ObjectID
	DriverPaymentCents int64
}

type assignmentService struct {
	bookingRepo     interfaces.BookingRepository
	paymentRepo     interfaces.PaymentRepository
	assignmentRepo  interfaces.AssignmentRepository
	statusEventRepo interfaces.StatusEventRepository
	pricingRepo     interfaces.PricingRepository
	transactor      interfaces.Transactor
	cache           CacheService
	notifier        NotificationService
	logger          *logger.Logger
}

func NewAssignmentService(
	bookingRepo interfaces.BookingRepository,
	paymentRepo interfaces.PaymentRepository,
	assignmentRepo interfaces.AssignmentRepository,
	statusEventRepo interfaces.StatusEventRepository,
	pricingRepo interfaces.PricingRepository,
	transactor interfaces.Transactor,
	cache CacheService,
	notifier NotificationService,
	log *logger.Logger,
) AssignmentService {
	return &assignmentService{
		bookingRepo:     bookingRepo,
		paymentRepo:     paymentRepo,
		assignmentRepo:  assignmentRepo,
		statusEventRepo: statusEventRepo,
		pricingRepo:     pricingRepo,
		transactor:      transactor,
		cache:           cache,
		notifier:        notifier,
		logger:          log,
	}
}

func (s *assignmentService) withBookingLock(ctx context.Context, bookingID primitive.ObjectID, fn func(ctx context.Context) error) error {
	lock, err := s.cache.Lock(ctx, "booking:"+bookingID.Hex(), utils.PaymentLockTTL)
	if err != nil {
		return apperrors.StateConflict("booking is being modified by another request")
	}
	defer func() {
		if unlockErr := s.cache.Unlock(ctx, lock); unlockErr != nil {
			s.logger.WithError(unlockErr).WithBookingID(bookingID).Warn("failed to release booking lock")
		}
	}()

	return fn(ctx)
}

// Assign sets or replaces the booking's driver and vehicle unit. A
// confirmed booking moves to assigned in the same unit of work.
func (s *assignmentService) Assign(ctx context.Context, actor models.ActorContext, input *AssignInput) (*models.Assignment, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Authorization()
	}
	if input.DriverPaymentCents < 0 {
		return nil, apperrors.Validation("driver payment must not be negative")
	}

	var assignment *models.Assignment
	err := s.withBookingLock(ctx, input.BookingID, func(ctx context.Context) error {
		booking, err := s.bookingRepo.GetByID(ctx, input.BookingID)
		if err != nil {
			return err
		}
		pay, err := s.paymentRepo.GetByBookingID(ctx, input.BookingID)
		if err != nil {
			return err
		}

		if AssignmentLocked(booking.Status, pay.HasCapturedFunds()) {
			return apperrors.StateConflict("assignment is locked for booking in status %s", booking.Status)
		}

		if input.VehicleUnitID != nil {
			if _, err := s.pricingRepo.GetVehicleUnit(ctx, *input.VehicleUnitID); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		assignment = &models.Assignment{
			BookingID:          input.BookingID,
			DriverID:           input.DriverID,
			VehicleUnitID:      input.VehicleUnitID,
			DriverPaymentCents: input.DriverPaymentCents,
		}

		var event *models.StatusEvent
		if booking.Status == models.BookingStatusConfirmed {
			event, err = ApplyTransition(booking, models.BookingStatusAssigned, &actor.ID, now)
			if err != nil {
				return err
			}
		}

		return s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := s.assignmentRepo.Upsert(ctx, assignment); err != nil {
				return err
			}
			if event != nil {
				if err := s.bookingRepo.Replace(ctx, booking); err != nil {
					return err
				}
				return s.statusEventRepo.Append(ctx, event)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.EmitBookingEvent(utils.EventStatusChanged, input.BookingID)
	s.logger.LogBookingEvent(input.BookingID, "driver_assigned", map[string]interface{}{
		"driver_id": input.DriverID.Hex(),
	})

	return assignment, nil
}

// Unassign removes the assignment. An assigned booking falls back to
// confirmed; the same lock rules apply as for assigning.
func (s *assignmentService) Unassign(ctx context.Context, actor models.ActorContext, bookingID primitive.ObjectID) error {
	if !actor.IsAdmin() {
		return apperrors.Authorization()
	}

	err := s.withBookingLock(ctx, bookingID, func(ctx context.Context) error {
		booking, err := s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		pay, err := s.paymentRepo.GetByBookingID(ctx, bookingID)
		if err != nil {
			return err
		}
		assignment, err := s.assignmentRepo.GetByBookingID(ctx, bookingID)
		if err != nil {
			return err
		}
		if assignment == nil {
			return apperrors.NotFound("assignment")
		}

		if AssignmentLocked(booking.Status, pay.HasCapturedFunds()) {
			return apperrors.StateConflict("assignment is locked for booking in status %s", booking.Status)
		}

		var event *models.StatusEvent
		if booking.Status == models.BookingStatusAssigned {
			event, err = ApplyTransition(booking, models.BookingStatusConfirmed, &actor.ID, time.Now().UTC())
			if err != nil {
				return err
			}
		}

		return s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := s.assignmentRepo.DeleteByBookingID(ctx, bookingID); err != nil {
				return err
			}
			if event != nil {
				if err := s.bookingRepo.Replace(ctx, booking); err != nil {
					return err
				}
				return s.statusEventRepo.Append(ctx, event)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.notifier.EmitBookingEvent(utils.EventStatusChanged, bookingID)
	return nil
}

func (s *assignmentService) GetForBooking(ctx context.Context, actor models.ActorContext, bookingID primitive.ObjectID) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, apperrors.NotFound("assignment")
	}

	if !actor.IsAdmin() && !(actor.IsDriver() && assignment.DriverID == actor.ID) {
		return nil, apperrors.Authorization()
	}

	return assignment, nil
}
