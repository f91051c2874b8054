package services

import (
	"context"
	"fmt"
	"time"

	"groundlink/internal/apperrors"
	"groundlink/internal/models"
	"groundlink/internal/repositories/interfaces"
	"groundlink/internal/utils"
	"groundlink/pkg/logger"
	"groundlink/pkg/maps"
	"groundlink/pkg/payment"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingService sequences every externally-triggered operation on the
// booking aggregate as one atomic unit of work.
type BookingService interface {
	Create(ctx context.Context, actor models.ActorContext, input *CreateBookingInput) (*models.BookingView, error)
	Get(ctx context.Context, actor models.ActorContext, id primitive.ObjectID) (*models.BookingView, error)
	GetByClaimToken(ctx context.Context, token string) (*models.BookingView, error)
	List(ctx context.Context, actor models.ActorContext, filter interfaces.BookingFilter, params *utils.PaginationParams) ([]*models.BookingView, int64, error)
	ListAssignedToDriver(ctx context.Context, actor models.ActorContext, driverID primitive.ObjectID) ([]*models.BookingView, error)
	Estimate(ctx context.Context, input *EstimateInput) (*QuoteResult, error)
	StatusEvents(ctx context.Context, actor models.ActorContext, id primitive.ObjectID) ([]*models.StatusEvent, error)

	// Review flow
	ApproveWithPrice(ctx context.Context, actor models.ActorContext, id primitive.ObjectID, input *PriceInput) (*models.BookingView, error)
	UpdatePrice(ctx context.Context, actor models.ActorContext, id primitive.ObjectID, input *PriceInput) (*models.BookingView, error)
	Decline(ctx context.Context, actor models.ActorContext, id primitive.ObjectID, reason string) (*models.BookingView, error)
	Reopen(ctx context.Context, actor models.ActorContext, id primitive.ObjectID) (*models.BookingView, error)
	Duplicate(ctx context.Context, actor models.ActorContext, id primitive.ObjectID) (*models.BookingView, error)
	ChangeStatus(ctx context.Context, actor models.ActorContext, id primitive.ObjectID, target models.BookingStatus) (*models.BookingView, error)
	AddInternalNote(ctx context.Context, actor models.ActorContext, id primitive.ObjectID, body string) error

	// Money flow
	CreateCheckout(ctx context.Context, actor models.ActorContext, id primitive.ObjectID) (*CheckoutArtifact, error)
	CreateCheckoutByClaimToken(ctx context.Context, token string) (*CheckoutArtifact, error)
	MarkPaid(ctx context.Context, intentID string, amountCents int64) error
	MarkPaymentFailed(ctx context.Context, intentID string, reason string) error
	IssueRefund(ctx context.Context, actor models.ActorContext, id primitive.ObjectID, amountCents int64, reason string) (*models.BookingView, error)
}

type CreateBookingInput struct {
	ServiceTypeID primitive.ObjectID
	VehicleID     *primitive.ObjectID

	UserID     *primitive.ObjectID
	GuestName  string
	GuestEmail string
	GuestPhone string

	PickupAt        time.Time
	Passengers      int
	Luggage         int
	PickupLocation  models.Location
	DropoffLocation models.Location
	Stops           []models.Stop
	DistanceMiles   float64
	DurationMinutes float64
	HoursRequested  float64

	// AsDraft creates the booking in draft instead of review; admin
	// creation path only.
	AsDraft bool
}

type EstimateInput struct {
	ServiceTypeID   primitive.ObjectID
	VehicleID       *primitive.ObjectID
	DistanceMiles   float64
	DurationMinutes float64
	HoursRequested  float64
	StopCount       int
}

type PriceInput struct {
	SubtotalCents int64
	FeesCents     int64
	TaxesCents    int64
	// ConfirmDirectly skips pending_payment when the admin explicitly
	// sets the booking confirmed at approval time.
	ConfirmDirectly bool
}

type CheckoutArtifact struct {
	PaymentIntentID string     `json:"payment_intent_id"`
	ClientSecret    string     `json:"client_secret,omitempty"`
	CheckoutURL     string     `json:"checkout_url"`
	AmountCents     int64      `json:"amount_cents"`
	Currency        string     `json:"currency"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	Reused          bool       `json:"reused"`
}

type bookingService struct {
	bookingRepo     interfaces.BookingRepository
	paymentRepo     interfaces.PaymentRepository
	assignmentRepo  interfaces.AssignmentRepository
	statusEventRepo interfaces.StatusEventRepository
	pricingRepo     interfaces.PricingRepository
	transactor      interfaces.Transactor
	cache           CacheService
	payments        payment.Provider
	distances       maps.DistanceProvider
	notifier        NotificationService
	logger          *logger.Logger
	currency        string
}

func NewBookingService(
	bookingRepo interfaces.BookingRepository,
	paymentRepo interfaces.PaymentRepository,
	assignmentRepo interfaces.AssignmentRepository,
	statusEventRepo interfaces.StatusEventRepository,
	pricingRepo interfaces.PricingRepository,
	transactor interfaces.Transactor,
	cache CacheService,
	payments payment.Provider,
	distances maps.DistanceProvider,
	notifier NotificationService,
	log *logger.Logger,
	currency string,
) BookingService {
	if currency == "" {
		currency = utils.DefaultCurrency
	}

	return &bookingService{
		bookingRepo:     bookingRepo,
		paymentRepo:     paymentRepo,
		assignmentRepo:  assignmentRepo,
		statusEventRepo: statusEventRepo,
		pricingRepo:     pricingRepo,
		transactor:      transactor,
		cache:           cache,
		payments:        payments,
		distances:       distances,
		notifier:        notifier,
		logger:          log,
		currency:        currency,
	}
}

// withBookingLock serializes mutating operations on one booking's
// aggregate. The lock is per booking, never global.
func (s *bookingService) withBookingLock(ctx context.Context, bookingID primitive.ObjectID, fn func(ctx context.Context) error) error {
	lock, err := s.cache.Lock(ctx, fmt.Sprintf("booking:%s", bookingID.Hex()), utils.PaymentLockTTL)
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

func (s *bookingService) loadAggregate(ctx context.Context, id primitive.ObjectID) (*models.Booking, *models.Payment, *models.Assignment, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}

	pay, err := s.paymentRepo.GetByBookingID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}

	assignment, err := s.assignmentRepo.GetByBookingID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}

	return booking, pay, assignment, nil
}

// canRead gates reads: admins, the booking's own customer, and the
// assigned driver.
func (s *bookingService) canRead(actor models.ActorContext, booking *models.Booking, assignment *models.Assignment) bool {
	if actor.IsAdmin() {
		return true
	}
	if booking.UserID != nil && *booking.UserID == actor.ID {
		return true
	}
	if actor.IsDriver() && assignment != nil && assignment.DriverID == actor.ID {
		return true
	}
	return false
}

func (s *bookingService) Create(ctx context.Context, actor models.ActorContext, input *CreateBookingInput) (*models.BookingView, error) {
	serviceType, err := s.pricingRepo.GetServiceType(ctx, input.ServiceTypeID)
	if err != nil {
		return nil, err
	}

	var vehicle *models.Vehicle
	if input.VehicleID != nil {
		vehicle, err = s.pricingRepo.GetVehicle(ctx, *input.VehicleID)
		if err != nil {
			return nil, err
		}
	}

	// Fill in missing trip metrics server-side when a distance provider
	// is configured. Client-supplied values win.
	if serviceType.PricingStrategy == models.PricingPointToPoint && input.DistanceMiles <= 0 && s.distances != nil {
		if estimate, err := s.distances.EstimateTrip(ctx, tripRequest(input)); err == nil {
			input.DistanceMiles = estimate.DistanceMiles
			if input.DurationMinutes <= 0 {
				input.DurationMinutes = estimate.DurationMinutes
			}
		} else {
			s.logger.WithError(err).Warn("trip distance lookup failed")
		}
	}

	if err := s.validateCreateInput(input, serviceType, vehicle); err != nil {
		return nil, err
	}

	if input.AsDraft && !actor.IsAdmin() {
		return nil, apperrors.Authorization()
	}

	quote := QuoteForConfig(serviceType, vehicle, input.DistanceMiles, input.DurationMinutes, input.HoursRequested, len(input.Stops))

	booking := &models.Booking{
		ServiceTypeID:   input.ServiceTypeID,
		VehicleID:       input.VehicleID,
		UserID:          input.UserID,
		GuestName:       input.GuestName,
		GuestEmail:      input.GuestEmail,
		GuestPhone:      input.GuestPhone,
		PickupAt:        input.PickupAt.UTC(),
		Passengers:      input.Passengers,
		Luggage:         input.Luggage,
		PickupLocation:  input.PickupLocation,
		DropoffLocation: input.DropoffLocation,
		Stops:           input.Stops,
		DistanceMiles:   input.DistanceMiles,
		DurationMinutes: input.DurationMinutes,
		HoursRequested:  input.HoursRequested,
		HoursBilled:     quote.BilledHours,
		Currency:        s.currency,

		// The stop surcharge rides in the fee component so the total
		// invariant holds from creation; it stays visible in its own
		// field as well.
		SubtotalCents:      quote.SubtotalCents,
		FeesCents:          quote.StopSurchargeCents,
		TaxesCents:         0,
		TotalCents:         quote.SubtotalCents + quote.StopSurchargeCents,
		StopSurchargeCents: quote.StopSurchargeCents,
		StopCount:          len(input.Stops),

		Status: models.BookingStatusPendingReview,
	}

	if input.AsDraft {
		booking.Status = models.BookingStatusDraft
	}
	if booking.UserID == nil {
		booking.GuestClaimToken = uuid.NewString()
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, apperrors.Internal("failed to create booking", err)
	}

	s.notifier.EmitBookingEvent(utils.EventBookingRequested, booking.ID)
	s.logger.LogBookingEvent(booking.ID, "booking_created", map[string]interface{}{
		"status":      booking.Status,
		"total_cents": booking.TotalCents,
	})

	return BuildView(booking, nil, nil), nil
}

func tripRequest(input *CreateBookingInput) *maps.TripRequest {
	req := &maps.TripRequest{
		Origin: maps.Waypoint{
			Address:   input.PickupLocation.Address,
			Latitude:  input.PickupLocation.Latitude,
			Longitude: input.PickupLocation.Longitude,
			PlaceID:   input.PickupLocation.PlaceID,
		},
		Destination: maps.Waypoint{
			Address:   input.DropoffLocation.Address,
			Latitude:  input.DropoffLocation.Latitude,
			Longitude: input.DropoffLocation.Longitude,
			PlaceID:   input.DropoffLocation.PlaceID,
		},
	}
	for _, stop := range input.Stops {
		req.Stops = append(req.Stops, maps.Waypoint{
			Address:   stop.Address,
			Latitude:  stop.Latitude,
			Longitude: stop.Longitude,
			PlaceID:   stop.PlaceID,
		})
	}
	return req
}

func (s *bookingService) validateCreateInput(input *CreateBookingInput, serviceType *models.ServiceType, vehicle *models.Vehicle) error {
	if input.UserID == nil && (input.GuestName == "" || input.GuestEmail == "") {
		return apperrors.Validation("guest bookings require a name and email")
	}
	if input.Passengers < 1 || input.Passengers > utils.MaxPassengers {
		return apperrors.Validation("passenger count must be between 1 and %d", utils.MaxPassengers)
	}
	if input.Luggage < 0 || input.Luggage > utils.MaxLuggage {
		return apperrors.Validation("luggage count must be between 0 and %d", utils.MaxLuggage)
	}
	if len(input.Stops) > utils.MaxStops {
		return apperrors.Validation("at most %d stops are allowed", utils.MaxStops)
	}
	if vehicle != nil && vehicle.PassengerLimit > 0 && input.Passengers > vehicle.PassengerLimit {
		return apperrors.Validation("vehicle seats at most %d passengers", vehicle.PassengerLimit)
	}

	// The fare calculator tolerates a missing distance; the creation
	// path does not.
	if serviceType.PricingStrategy == models.PricingPointToPoint && input.DistanceMiles <= 0 {
		return apperrors.Validation("point-to-point bookings require a positive trip distance")
	}
	if serviceType.PricingStrategy == models.PricingHourly && input.HoursRequested <= 0 {
		return apperrors.Validation("hourly bookings require the requested hours")
	}

	pickupDate := utils.CivilDate(input.PickupAt)
	for _, blackout := range serviceType.BlackoutDates {
		if blackout == pickupDate {
			return apperrors.Validation("service is not offered on %s", pickupDate)
		}
	}

	return nil
}

func (s *bookingService) Get(ctx context.Context, actor models.ActorContext, id primitive.ObjectID) (*models.BookingView, error) {
	booking, pay, assignment, err := s.loadAggregate(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.canRead(actor, booking, assignment) {
		return nil, apperrors.Authorization()
	}

	return BuildView(booking, pay, assignment), nil
}

func (s *bookingService) GetByClaimToken(ctx context.Context, token string) (*models.BookingView, error) {
	if token == "" {
		return nil, apperrors.Validation("claim token is required")
	}

	booking, err := s.bookingRepo.GetByClaimToken(ctx, token)
	if err != nil {
		return nil, err
	}

	pay, err := s.paymentRepo.GetByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	// Guests never see assignment details.
	return BuildView(booking, pay, nil), nil
}

func (s *bookingService) List(ctx context.Context, actor models.ActorContext, filter interfaces.BookingFilter, params *utils.PaginationParams) ([]*models.BookingView, int64, error) {
	if !actor.IsAdmin() {
		// Non-admins only ever see their own bookings.
		filter.UserID = &actor.ID
	}

	bookings, total, err := s.bookingRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, err
	}

	views := make([]*models.BookingView, 0, len(bookings))
	for _, booking := range bookings {
		pay, err := s.paymentRepo.GetByBookingID(ctx, booking.ID)
		if err != nil {
			return nil, 0, err
		}
		assignment, err := s.assignmentRepo.GetByBookingID(ctx, booking.ID)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, BuildView(booking, pay, assignment))
	}

	return views, total, nil
}

func (s *bookingService) ListAssignedToDriver(ctx context.Context, actor models.ActorContext, driverID primitive.ObjectID) ([]*models.BookingView, error) {
	if !actor.IsAdmin() && !(actor.IsDriver() && actor.ID == driverID) {
		return nil, apperrors.Authorization()
	}

	assignments, err := s.assignmentRepo.ListByDriverID(ctx, driverID)
	if err != nil {
		return nil, err
	}

	views := make([]*models.BookingView, 0, len(assignments))
	for _, assignment := range assignments {
		booking, err := s.bookingRepo.GetByID(ctx, assignment.BookingID)
		if err != nil {
			return nil, err
		}
		pay, err := s.paymentRepo.GetByBookingID(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, BuildView(booking, pay, assignment))
	}

	return views, nil
}

// Estimate is the live-estimate path. It runs the same arithmetic as
// submission and writes nothing.
func (s *bookingService) Estimate(ctx context.Context, input *EstimateInput) (*QuoteResult, error) {
	serviceType, err := s.pricingRepo.GetServiceType(ctx, input.ServiceTypeID)
	if err != nil {
		return nil, err
	}

	var vehicle *models.Vehicle
	if input.VehicleID != nil {
		vehicle, err = s.pricingRepo.GetVehicle(ctx, *input.VehicleID)
		if err != nil {
			return nil, err
		}
	}

	quote := QuoteForConfig(serviceType, vehicle, input.DistanceMiles, input.DurationMinutes, input.HoursRequested, input.StopCount)
	return &quote, nil
}

func (s *bookingService) StatusEvents(ctx context.Context, actor models.ActorContext, id primitive.ObjectID) ([]*models.StatusEvent, error) {
	booking, _, assignment, err := s.loadAggregate(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.canRead(actor, booking, assignment) {
		return nil, apperrors.Authorization()
	}

	return s.statusEventRepo.ListByBookingID(ctx, booking.ID)
}

func (s *bookingService) ApproveWithPrice(ctx context.Context, actor models.ActorContext, id primitive.ObjectID, input *PriceInput) (*models.BookingView, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Authorization()
	}
	if err := validatePriceInput(input); err != nil {
		return nil, err
	}

	var view *models.BookingView
	err := s.withBookingLock(ctx, id, func(ctx context.Context) error {
		booking, pay, assignment, err := s.loadAggregate(ctx, id)
		if err != nil {
			return err
		}

		paid := pay.HasCapturedFunds()
		if !CanApprove(booking.Status, paid) {
			if paid {
				return apperrors.StateConflict("booking has captured funds; adjust the price instead of re-approving")
			}
			return apperrors.StateConflict("cannot approve booking in status %s", booking.Status)
		}

		now := time.Now().UTC()
		ApplyPriceChange(booking, pay, input.SubtotalCents, input.FeesCents, input.TaxesCents, now)

		target := models.BookingStatusPendingPayment
		if input.ConfirmDirectly {
			target = models.BookingStatusConfirmed
		}

		event, err := ApplyTransition(booking, target, &actor.ID, now)
		if err != nil {
			return err
		}

		err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := s.bookingRepo.Replace(ctx, booking); err != nil {
				return err
			}
			if event != nil {
				return s.statusEventRepo.Append(ctx, event)
			}
			return nil
		})
		if err != nil {
			return err
		}

		view = BuildView(booking, pay, assignment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.EmitBookingEvent(utils.EventBookingApproved, id)
	return view, nil
}

// UpdatePrice edits an already-approved price. Unlike approval it is
// legal after payment: the payment's expected total follows the new
// price while the captured amount stays put, surfacing a balance due
// or a refund-due suggestion. The booking status never changes here.
func (s *bookingService) UpdatePrice(ctx context.Context, actor models.ActorContext, id primitive.ObjectID, input *PriceInput) (*models.BookingView, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Authorization()
	}
	if err := validatePriceInput(input); err != nil {
		return nil, err
	}

	var view *models.BookingView
	err := s.withBookingLock(ctx, id, func(ctx context.Context) error {
		for attempt := 0; attempt < utils.ReconcileMaxAttempts; attempt++ {
			booking, pay, assignment, err := s.loadAggregate(ctx, id)
			if err != nil {
				return err
			}

			switch booking.Status {
			case models.BookingStatusCancelled, models.BookingStatusRefunded, models.BookingStatusPartiallyRefunded:
				return apperrors.StateConflict("cannot edit price of booking in status %s", booking.Status)
			}

			now := time.Now().UTC()
			ApplyPriceChange(booking, pay, input.SubtotalCents, input.FeesCents, input.TaxesCents, now)

			err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
				if err := s.bookingRepo.Replace(ctx, booking); err != nil {
					return err
				}
				if pay != nil && pay.HasCapturedFunds() {
					return s.paymentRepo.ReplaceVersioned(ctx, pay, pay.Version)
				}
				return nil
			})
			if err == interfaces.ErrVersionConflict {
				continue
			}
			if err != nil {
				return err
			}

			view = BuildView(booking, pay, assignment)
			return nil
		}
		return apperrors.StateConflict("booking payment is changing concurrently; retry the operation")
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

func validatePriceInput(input *PriceInput) error {
	if input.SubtotalCents < 0 || input.FeesCents < 0 || input.TaxesCents < 0 {
		return apperrors.Validation("price components must not be negative")
	}
	if input.SubtotalCents == 0 {
		return apperrors.Validation("subtotal is required")
	}
	return nil
}

func (s *bookingService) Decline(ctx context.Context, actor models.ActorContext, id primitive.ObjectID, reason string) (*models.BookingView, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Authorization()
	}
	if len(reason) > utils.MaxDeclineReasonLen {
		return nil, apperrors.Validation("decline reason is too long")
	}

	var view *models.BookingView
	err := s.withBookingLock(ctx, id, func(ctx context.Context) error {
		booking, pay, assignment, err := s.loadAggregate(ctx, id)
		if err != nil {
			return err
		}

		paid := pay.HasCapturedFunds()
		if !CanDecline(booking.Status, paid) {
			if paid {
				return apperrors.StateConflict("cannot decline a booking with captured funds")
			}
			return apperrors.StateConflict("cannot decline booking in status %s", booking.Status)
		}

		now := time.Now().UTC()
		booking.DeclineReason = reason

		event, err := ApplyTransition(booking, models.BookingStatusCancelled, &actor.ID, now)
		if err != nil {
			return err
		}

		err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := s.bookingRepo.Replace(ctx, booking); err != nil {
				return err
			}
			if event != nil {
				return s.statusEventRepo.Append(ctx, event)
			}
			return nil
		})
		if err != nil {
			return err
		}

		view = BuildView(booking, pay, assignment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.EmitBookingEvent(utils.EventBookingDeclined, id)
	return view, nil
}

func (s *bookingService) Reopen(ctx context.Context, actor models.ActorContext, id primitive.ObjectID) (*models.BookingView, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Authorization()
	}

	var view *models.BookingView
	err := s.withBookingLock(ctx, id, func(ctx context.Context) error {
		booking, pay, assignment, err := s.loadAggregate(ctx, id)
		if err != nil {
			return err
		}

		event, err := ApplyReopen(booking, pay.HasCapturedFunds(), &actor.ID, time.Now().UTC())
		if err != nil {
			return err
		}

		err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := s.bookingRepo.Replace(ctx, booking); err != nil {
				return err
			}
			return s.statusEventRepo.Append(ctx, event)
		})
		if err != nil {
			return err
		}

		view = BuildView(booking, pay, assignment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.EmitBookingEvent(utils.EventStatusChanged, id)
	return view, nil
}

// Duplicate copies the trip facts into a fresh draft. Money fields are
// deliberately not copied so the new booking must go through approval
// again; no payment or assignment comes along.
func (s *bookingService) Duplicate(ctx context.Context, actor models.ActorContext, id primitive.ObjectID) (*models.BookingView, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Authorization()
	}

	source, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	surcharge := StopSurchargeCents(source.StopCount)
	duplicate := &models.Booking{
		ServiceTypeID:   source.ServiceTypeID,
		VehicleID:       source.VehicleID,
		UserID:          source.UserID,
		GuestName:       source.GuestName,
		GuestEmail:      source.GuestEmail,
		GuestPhone:      source.GuestPhone,
		PickupAt:        source.PickupAt,
		Passengers:      source.Passengers,
		Luggage:         source.Luggage,
		PickupLocation:  source.PickupLocation,
		DropoffLocation: source.DropoffLocation,
		Stops:           source.Stops,
		DistanceMiles:   source.DistanceMiles,
		DurationMinutes: source.DurationMinutes,
		HoursRequested:  source.HoursRequested,
		HoursBilled:     source.HoursBilled,
		Currency:        source.Currency,

		SubtotalCents:      0,
		FeesCents:          surcharge,
		TaxesCents:         0,
		TotalCents:         surcharge,
		StopSurchargeCents: surcharge,
		StopCount:          source.StopCount,

		Status: models.BookingStatusDraft,
	}
	if duplicate.UserID == nil {
		duplicate.GuestClaimToken = uuid.NewString()
	}

	if err := s.bookingRepo.Create(ctx, duplicate); err != nil {
		return nil, apperrors.Internal("failed to duplicate booking", err)
	}

	s.logger.LogBookingEvent(duplicate.ID, "booking_duplicated", map[string]interface{}{
		"source_booking_id": source.ID.Hex(),
	})

	return BuildView(duplicate, nil, nil), nil
}

func (s *bookingService) ChangeStatus(ctx context.Context, actor models.ActorContext, id primitive.ObjectID, target models.BookingStatus) (*models.BookingView, error) {
	var view *models.BookingView
	err := s.withBookingLock(ctx, id, func(ctx context.Context) error {
		booking, pay, assignment, err := s.loadAggregate(ctx, id)
		if err != nil {
			return err
		}

		isAssignedDriver := actor.IsDriver() && assignment != nil && assignment.DriverID == actor.ID
		if !actor.IsAdmin() && !isAssignedDriver {
			return apperrors.Authorization()
		}

		// Idempotent retry: same status, no event, no write.
		if booking.Status == target {
			view = BuildView(booking, pay, assignment)
			return nil
		}

		if !IsLegalQuickAction(booking.Status, target) {
			return apperrors.StateConflict("cannot move booking from %s to %s", booking.Status, target)
		}

		event, err := ApplyTransition(booking, target, &actor.ID, time.Now().UTC())
		if err != nil {
			return err
		}

		err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := s.bookingRepo.Replace(ctx, booking); err != nil {
				return err
			}
			return s.statusEventRepo.Append(ctx, event)
		})
		if err != nil {
			return err
		}

		view = BuildView(booking, pay, assignment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.EmitBookingEvent(utils.EventStatusChanged, id)
	return view, nil
}

func (s *bookingService) AddInternalNote(ctx context.Context, actor models.ActorContext, id primitive.ObjectID, body string) error {
	if !actor.IsAdmin() {
		return apperrors.Authorization()
	}
	if body == "" || len(body) > utils.MaxInternalNoteLength {
		return apperrors.Validation("note must be between 1 and %d characters", utils.MaxInternalNoteLength)
	}

	return s.withBookingLock(ctx, id, func(ctx context.Context) error {
		booking, err := s.bookingRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		booking.InternalNotes = append(booking.InternalNotes, models.Note{
			AuthorID:  actor.ID,
			Body:      body,
			CreatedAt: time.Now().UTC(),
		})

		return s.bookingRepo.Replace(ctx, booking)
	})
}
