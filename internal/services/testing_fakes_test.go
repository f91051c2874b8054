package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"groundlink/internal/apperrors"
	"groundlink/internal/models"
	"groundlink/internal/repositories/interfaces"
	"groundlink/internal/utils"
	"groundlink/pkg/logger"
	"groundlink/pkg/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory doubles for the service tests. They mirror the MongoDB
// repositories' contracts, including the nil-nil misses and the
// versioned payment write.

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[primitive.ObjectID]*models.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[primitive.ObjectID]*models.Booking)}
}

func (r *fakeBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	booking.ID = primitive.NewObjectID()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if booking.BookingNumber == "" {
		booking.BookingNumber = utils.GenerateBookingNumber(now)
	}

	clone := *booking
	r.bookings[booking.ID] = &clone
	return nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, apperrors.NotFound("booking")
	}
	clone := *booking
	return &clone, nil
}

func (r *fakeBookingRepo) GetByClaimToken(ctx context.Context, token string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, booking := range r.bookings {
		if booking.GuestClaimToken == token {
			clone := *booking
			return &clone, nil
		}
	}
	return nil, apperrors.NotFound("booking")
}

func (r *fakeBookingRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return fmt.Errorf("not used by the service layer")
}

func (r *fakeBookingRepo) Replace(ctx context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[booking.ID]; !ok {
		return apperrors.NotFound("booking")
	}
	booking.UpdatedAt = time.Now().UTC()
	clone := *booking
	r.bookings[booking.ID] = &clone
	return nil
}

func (r *fakeBookingRepo) List(ctx context.Context, filter interfaces.BookingFilter, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.Booking
	for _, booking := range r.bookings {
		if filter.Status != "" && booking.Status != filter.Status {
			continue
		}
		if filter.UserID != nil && (booking.UserID == nil || *booking.UserID != *filter.UserID) {
			continue
		}
		if filter.Search != "" && !strings.Contains(booking.BookingNumber, filter.Search) {
			continue
		}
		clone := *booking
		matched = append(matched, &clone)
	}
	return matched, int64(len(matched)), nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[primitive.ObjectID]*models.Payment // keyed by booking id
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[primitive.ObjectID]*models.Payment)}
}

func (r *fakePaymentRepo) Create(ctx context.Context, pay *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.payments[pay.BookingID]; ok && existing.Status == models.PaymentStatusPending {
		return apperrors.StateConflict("booking already has an active payment")
	}

	now := time.Now().UTC()
	pay.ID = primitive.NewObjectID()
	pay.Version = 1
	pay.CreatedAt = now
	pay.UpdatedAt = now

	clone := *pay
	r.payments[pay.BookingID] = &clone
	return nil
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, pay := range r.payments {
		if pay.ID == id {
			clone := *pay
			return &clone, nil
		}
	}
	return nil, apperrors.NotFound("payment")
}

func (r *fakePaymentRepo) GetByBookingID(ctx context.Context, bookingID primitive.ObjectID) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pay, ok := r.payments[bookingID]
	if !ok {
		return nil, nil
	}
	clone := *pay
	return &clone, nil
}

func (r *fakePaymentRepo) GetByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, pay := range r.payments {
		if pay.PaymentIntentID == intentID {
			clone := *pay
			return &clone, nil
		}
	}
	return nil, apperrors.NotFound("payment")
}

func (r *fakePaymentRepo) ReplaceVersioned(ctx context.Context, pay *models.Payment, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.payments[pay.BookingID]
	if !ok || stored.Version != expectedVersion {
		return interfaces.ErrVersionConflict
	}

	pay.Version = expectedVersion + 1
	pay.UpdatedAt = time.Now().UTC()
	clone := *pay
	r.payments[pay.BookingID] = &clone
	return nil
}

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[primitive.ObjectID]*models.Assignment // keyed by booking id
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[primitive.ObjectID]*models.Assignment)}
}

func (r *fakeAssignmentRepo) Upsert(ctx context.Context, assignment *models.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.assignments[assignment.BookingID]; ok {
		assignment.ID = existing.ID
		assignment.CreatedAt = existing.CreatedAt
	} else {
		assignment.ID = primitive.NewObjectID()
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now

	clone := *assignment
	r.assignments[assignment.BookingID] = &clone
	return nil
}

func (r *fakeAssignmentRepo) GetByBookingID(ctx context.Context, bookingID primitive.ObjectID) (*models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	assignment, ok := r.assignments[bookingID]
	if !ok {
		return nil, nil
	}
	clone := *assignment
	return &clone, nil
}

func (r *fakeAssignmentRepo) DeleteByBookingID(ctx context.Context, bookingID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.assignments, bookingID)
	return nil
}

func (r *fakeAssignmentRepo) ListByDriverID(ctx context.Context, driverID primitive.ObjectID) ([]*models.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.Assignment
	for _, assignment := range r.assignments {
		if assignment.DriverID == driverID {
			clone := *assignment
			matched = append(matched, &clone)
		}
	}
	return matched, nil
}

type fakeStatusEventRepo struct {
	mu     sync.Mutex
	events []*models.StatusEvent
}

func newFakeStatusEventRepo() *fakeStatusEventRepo {
	return &fakeStatusEventRepo{}
}

func (r *fakeStatusEventRepo) Append(ctx context.Context, event *models.StatusEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *event
	clone.ID = primitive.NewObjectID()
	r.events = append(r.events, &clone)
	return nil
}

func (r *fakeStatusEventRepo) ListByBookingID(ctx context.Context, bookingID primitive.ObjectID) ([]*models.StatusEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*models.StatusEvent
	for _, event := range r.events {
		if event.BookingID == bookingID {
			matched = append(matched, event)
		}
	}
	return matched, nil
}

func (r *fakeStatusEventRepo) CountByBookingID(ctx context.Context, bookingID primitive.ObjectID) (int64, error) {
	events, _ := r.ListByBookingID(ctx, bookingID)
	return int64(len(events)), nil
}

type fakePricingRepo struct {
	serviceTypes map[primitive.ObjectID]*models.ServiceType
	vehicles     map[primitive.ObjectID]*models.Vehicle
	vehicleUnits map[primitive.ObjectID]*models.VehicleUnit
}

func newFakePricingRepo() *fakePricingRepo {
	return &fakePricingRepo{
		serviceTypes: make(map[primitive.ObjectID]*models.ServiceType),
		vehicles:     make(map[primitive.ObjectID]*models.Vehicle),
		vehicleUnits: make(map[primitive.ObjectID]*models.VehicleUnit),
	}
}

func (r *fakePricingRepo) GetServiceType(ctx context.Context, id primitive.ObjectID) (*models.ServiceType, error) {
	serviceType, ok := r.serviceTypes[id]
	if !ok {
		return nil, apperrors.NotFound("service type")
	}
	return serviceType, nil
}

func (r *fakePricingRepo) ListServiceTypes(ctx context.Context, activeOnly bool) ([]*models.ServiceType, error) {
	var all []*models.ServiceType
	for _, serviceType := range r.serviceTypes {
		all = append(all, serviceType)
	}
	return all, nil
}

func (r *fakePricingRepo) GetVehicle(ctx context.Context, id primitive.ObjectID) (*models.Vehicle, error) {
	vehicle, ok := r.vehicles[id]
	if !ok {
		return nil, apperrors.NotFound("vehicle")
	}
	return vehicle, nil
}

func (r *fakePricingRepo) ListVehicles(ctx context.Context, activeOnly bool) ([]*models.Vehicle, error) {
	var all []*models.Vehicle
	for _, vehicle := range r.vehicles {
		all = append(all, vehicle)
	}
	return all, nil
}

func (r *fakePricingRepo) GetVehicleUnit(ctx context.Context, id primitive.ObjectID) (*models.VehicleUnit, error) {
	unit, ok := r.vehicleUnits[id]
	if !ok {
		return nil, apperrors.NotFound("vehicle unit")
	}
	return unit, nil
}

// fakeTransactor runs the unit of work without a session; atomicity is
// not what these tests assert.
type fakeTransactor struct{}

func (t *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeCache implements the lock and publish surface in memory.
type fakeCache struct {
	mu    sync.Mutex
	locks map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{locks: make(map[string]string)}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) error { return nil }
func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (c *fakeCache) Delete(ctx context.Context, keys ...string) error { return nil }
func (c *fakeCache) Ping(ctx context.Context) error                   { return nil }

func (c *fakeCache) Lock(ctx context.Context, key string, expiration time.Duration) (*DistributedLock, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, held := c.locks[key]; held {
		return nil, fmt.Errorf("failed to acquire lock for %s", key)
	}
	value := primitive.NewObjectID().Hex()
	c.locks[key] = value
	return &DistributedLock{Key: key, Value: value}, nil
}

func (c *fakeCache) Unlock(ctx context.Context, lock *DistributedLock) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.locks[lock.Key] == lock.Value {
		delete(c.locks, lock.Key)
	}
	return nil
}

func (c *fakeCache) Publish(ctx context.Context, channel string, message interface{}) error {
	return nil
}

// fakeProvider records calls and answers with canned artifacts.
type fakeProvider struct {
	mu           sync.Mutex
	checkouts    int
	refunds      []*payment.RefundRequest
	failCheckout bool
	failRefund   bool
}

func (p *fakeProvider) CreateCheckout(ctx context.Context, request *payment.CheckoutRequest) (*payment.CheckoutResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failCheckout {
		return nil, fmt.Errorf("processor unavailable")
	}

	p.checkouts++
	return &payment.CheckoutResponse{
		PaymentIntentID: fmt.Sprintf("pi_test_%d", p.checkouts),
		ClientSecret:    "cs_test_secret",
		CheckoutURL:     fmt.Sprintf("https://checkout.test/s/%d", p.checkouts),
		ExpiresAt:       time.Now().Add(24 * time.Hour).Unix(),
	}, nil
}

func (p *fakeProvider) Refund(ctx context.Context, request *payment.RefundRequest) (*payment.RefundResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failRefund {
		return nil, fmt.Errorf("processor unavailable")
	}

	p.refunds = append(p.refunds, request)
	return &payment.RefundResponse{
		RefundID:    fmt.Sprintf("re_test_%d", len(p.refunds)),
		Status:      "succeeded",
		AmountCents: request.AmountCents,
	}, nil
}

func (p *fakeProvider) ValidateWebhook(ctx context.Context, payload []byte, signature string) (*payment.WebhookEvent, error) {
	return nil, fmt.Errorf("not used in service tests")
}

// fakeNotifier records emitted events synchronously.
type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) EmitBookingEvent(event string, bookingID primitive.ObjectID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

type serviceFixture struct {
	bookings    *fakeBookingRepo
	payments    *fakePaymentRepo
	assignments *fakeAssignmentRepo
	events      *fakeStatusEventRepo
	pricing     *fakePricingRepo
	cache       *fakeCache
	provider    *fakeProvider
	notifier    *fakeNotifier

	bookingService    BookingService
	assignmentService AssignmentService

	serviceTypeID primitive.ObjectID
	vehicleID     primitive.ObjectID
	vehicleUnitID primitive.ObjectID
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		bookings:    newFakeBookingRepo(),
		payments:    newFakePaymentRepo(),
		assignments: newFakeAssignmentRepo(),
		events:      newFakeStatusEventRepo(),
		pricing:     newFakePricingRepo(),
		cache:       newFakeCache(),
		provider:    &fakeProvider{},
		notifier:    &fakeNotifier{},
	}

	f.serviceTypeID = primitive.NewObjectID()
	f.pricing.serviceTypes[f.serviceTypeID] = &models.ServiceType{
		ID:              f.serviceTypeID,
		Name:            "Airport Transfer",
		PricingStrategy: models.PricingPointToPoint,
		BaseFeeCents:    500,
		PerMileCents:    200,
		PerMinuteCents:  50,
		IsActive:        true,
	}

	f.vehicleID = primitive.NewObjectID()
	f.pricing.vehicles[f.vehicleID] = &models.Vehicle{
		ID:             f.vehicleID,
		Name:           "Sedan",
		PassengerLimit: 3,
		IsActive:       true,
	}

	f.vehicleUnitID = primitive.NewObjectID()
	f.pricing.vehicleUnits[f.vehicleUnitID] = &models.VehicleUnit{
		ID:        f.vehicleUnitID,
		VehicleID: f.vehicleID,
		Label:     "Car 7",
		IsActive:  true,
	}

	log, _ := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: "stderr"})

	f.bookingService = NewBookingService(
		f.bookings, f.payments, f.assignments, f.events, f.pricing,
		&fakeTransactor{}, f.cache, f.provider, nil, f.notifier, log, "usd",
	)
	f.assignmentService = NewAssignmentService(
		f.bookings, f.payments, f.assignments, f.events, f.pricing,
		&fakeTransactor{}, f.cache, f.notifier, log,
	)

	return f
}

func adminActor() models.ActorContext {
	return models.ActorContext{ID: primitive.NewObjectID(), Roles: []models.Role{models.RoleAdmin}}
}

func userActor(id primitive.ObjectID) models.ActorContext {
	return models.ActorContext{ID: id, Roles: []models.Role{models.RoleUser}}
}

func driverActor(id primitive.ObjectID) models.ActorContext {
	return models.ActorContext{ID: id, Roles: []models.Role{models.RoleDriver}}
}

func (f *serviceFixture) createInput(userID *primitive.ObjectID) *CreateBookingInput {
	input := &CreateBookingInput{
		ServiceTypeID: f.serviceTypeID,
		UserID:        userID,
		PickupAt:      time.Now().Add(48 * time.Hour),
		Passengers:    2,
		PickupLocation: models.Location{
			Address: "100 Main St",
		},
		DropoffLocation: models.Location{
			Address: "Sky Harbor Terminal 4",
		},
		DistanceMiles:   10,
		DurationMinutes: 20,
	}
	if userID == nil {
		input.GuestName = "Pat Jones"
		input.GuestEmail = "pat@example.com"
	}
	return input
}
