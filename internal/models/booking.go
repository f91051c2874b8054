package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingStatusDraft             BookingStatus = "draft"
	BookingStatusPendingReview     BookingStatus = "pending_review"
	BookingStatusPendingPayment    BookingStatus = "pending_payment"
	BookingStatusConfirmed         BookingStatus = "confirmed"
	BookingStatusAssigned          BookingStatus = "assigned"
	BookingStatusEnRoute           BookingStatus = "en_route"
	BookingStatusArrived           BookingStatus = "arrived"
	BookingStatusInProgress        BookingStatus = "in_progress"
	BookingStatusCompleted         BookingStatus = "completed"
	BookingStatusCancelled         BookingStatus = "cancelled"
	BookingStatusRefunded          BookingStatus = "refunded"
	BookingStatusPartiallyRefunded BookingStatus = "partially_refunded"
	BookingStatusNoShow            BookingStatus = "no_show"
)

// Booking is the central aggregate. All monetary fields are integer
// cents; the approval step must restore
// TotalCents == SubtotalCents + FeesCents + TaxesCents whenever any
// component changes.
type Booking struct {
	ID            primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	BookingNumber string              `json:"booking_number" bson:"booking_number"`
	ServiceTypeID primitive.ObjectID  `json:"service_type_id" bson:"service_type_id" validate:"required"`
	VehicleID     *primitive.ObjectID `json:"vehicle_id" bson:"vehicle_id"`

	// Customer: either an account id or the guest triple.
	UserID          *primitive.ObjectID `json:"user_id" bson:"user_id"`
	GuestName       string              `json:"guest_name" bson:"guest_name"`
	GuestEmail      string              `json:"guest_email" bson:"guest_email"`
	GuestPhone      string              `json:"guest_phone" bson:"guest_phone"`
	GuestClaimToken string              `json:"-" bson:"guest_claim_token"`

	// Trip facts
	PickupAt        time.Time `json:"pickup_at" bson:"pickup_at" validate:"required"`
	Passengers      int       `json:"passengers" bson:"passengers"`
	Luggage         int       `json:"luggage" bson:"luggage"`
	PickupLocation  Location  `json:"pickup_location" bson:"pickup_location"`
	DropoffLocation Location  `json:"dropoff_location" bson:"dropoff_location"`
	Stops           []Stop    `json:"stops" bson:"stops"`
	DistanceMiles   float64   `json:"distance_miles" bson:"distance_miles"`
	DurationMinutes float64   `json:"duration_minutes" bson:"duration_minutes"`
	HoursRequested  float64   `json:"hours_requested" bson:"hours_requested"`
	HoursBilled     int       `json:"hours_billed" bson:"hours_billed"`

	// Money
	Currency          string `json:"currency" bson:"currency" default:"usd"`
	SubtotalCents     int64  `json:"subtotal_cents" bson:"subtotal_cents"`
	FeesCents         int64  `json:"fees_cents" bson:"fees_cents"`
	TaxesCents        int64  `json:"taxes_cents" bson:"taxes_cents"`
	TotalCents        int64  `json:"total_cents" bson:"total_cents"`
	StopSurchargeCents int64 `json:"stop_surcharge_cents" bson:"stop_surcharge_cents"`
	StopCount         int    `json:"stop_count" bson:"stop_count"`

	// Lifecycle
	Status        BookingStatus `json:"status" bson:"status" default:"pending_review"`
	DeclineReason string        `json:"decline_reason" bson:"decline_reason"`
	InternalNotes []Note        `json:"internal_notes" bson:"internal_notes"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" bson:"updated_at"`
}

type Note struct {
	AuthorID  primitive.ObjectID `json:"author_id" bson:"author_id"`
	Body      string             `json:"body" bson:"body"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// IsGuest reports whether the booking was placed without an account.
func (b *Booking) IsGuest() bool {
	return b.UserID == nil
}

// BookingView is a Booking plus the derived payment fields. The derived
// fields are always computed at read time from the stored Booking and
// Payment rows, never persisted.
type BookingView struct {
	Booking        *Booking    `json:"booking"`
	Payment        *Payment    `json:"payment,omitempty"`
	Assignment     *Assignment `json:"assignment,omitempty"`
	HasBalanceDue  bool        `json:"has_balance_due"`
	BalanceDueCents int64      `json:"balance_due_cents"`
	RefundDueCents  int64      `json:"refund_due_cents"`
	RefundableCents int64      `json:"refundable_cents"`
}
