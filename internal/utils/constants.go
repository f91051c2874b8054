package utils

import "time"

// Application Constants
const (
	AppName    = "GroundLink"
	AppVersion = "1.0.0"

	// Default values
	DefaultCurrency = "usd"
	DefaultTimeZone = "UTC"

	// Civil-date boundary for blackout-date and reporting-window
	// checks. Pricing and state logic never use this.
	CivilDateTimeZone = "America/Phoenix"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Booking Constants
	MaxStops              = 8
	MaxPassengers         = 56
	MaxLuggage            = 80
	ExtraStopFeeCents     = 1500 // fixed per-stop surcharge
	BookingNumberPrefix   = "GL"
	MaxInternalNoteLength = 2000
	MaxDeclineReasonLen   = 500

	// Payment Constants
	CheckoutTTL          = 24 * time.Hour
	MaxRefundReasonLen   = 500
	PaymentLockTTL       = 15 * time.Second
	ReconcileMaxAttempts = 3

	// Rate Limiting
	DefaultRateLimit = 100
)

// Response status
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Common error messages
const (
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrForbidden        = "forbidden"
	ErrValidationFailed = "validation failed"
)

// Domain event names published to the notification dispatcher.
const (
	EventBookingRequested = "BOOKING_REQUESTED"
	EventBookingApproved  = "BOOKING_APPROVED"
	EventBookingDeclined  = "BOOKING_DECLINED"
	EventStatusChanged    = "BOOKING_STATUS_CHANGED"
	EventPaymentReceived  = "BOOKING_PAYMENT_RECEIVED"
	EventRefundIssued     = "BOOKING_REFUND_ISSUED"
)
