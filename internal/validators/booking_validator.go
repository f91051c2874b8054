package validators

import (
	"time"

	"groundlink/internal/models"
	"groundlink/internal/services"
	"groundlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LocationRequest struct {
	Address   string  `json:"address" validate:"required,max=300"`
	Latitude  float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	PlaceID   string  `json:"place_id" validate:"omitempty,max=200"`
}

type StopRequest struct {
	Address     string  `json:"address" validate:"required,max=300"`
	Latitude    float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude   float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	PlaceID     string  `json:"place_id" validate:"omitempty,max=200"`
	WaitMinutes int     `json:"wait_minutes" validate:"omitempty,min=0,max=480"`
}

type BookingCreateRequest struct {
	ServiceTypeID string  `json:"service_type_id" validate:"required,object_id"`
	VehicleID     string  `json:"vehicle_id" validate:"omitempty,object_id"`
	GuestName     string  `json:"guest_name" validate:"omitempty,max=200"`
	GuestEmail    string  `json:"guest_email" validate:"omitempty,email"`
	GuestPhone    string  `json:"guest_phone" validate:"omitempty,phone_number"`

	PickupAt        time.Time       `json:"pickup_at" validate:"required,future_date"`
	Passengers      int             `json:"passengers" validate:"required,min=1"`
	Luggage         int             `json:"luggage" validate:"omitempty,min=0"`
	PickupLocation  LocationRequest `json:"pickup_location" validate:"required"`
	DropoffLocation LocationRequest `json:"dropoff_location" validate:"required"`
	Stops           []StopRequest   `json:"stops" validate:"omitempty,dive"`
	DistanceMiles   float64         `json:"distance_miles" validate:"omitempty,min=0,max=2000"`
	DurationMinutes float64         `json:"duration_minutes" validate:"omitempty,min=0"`
	HoursRequested  float64         `json:"hours_requested" validate:"omitempty,min=0,max=24"`

	AsDraft bool `json:"as_draft"`
}

type EstimateRequest struct {
	ServiceTypeID   string  `json:"service_type_id" validate:"required,object_id"`
	VehicleID       string  `json:"vehicle_id" validate:"omitempty,object_id"`
	DistanceMiles   float64 `json:"distance_miles" validate:"omitempty,min=0,max=2000"`
	DurationMinutes float64 `json:"duration_minutes" validate:"omitempty,min=0"`
	HoursRequested  float64 `json:"hours_requested" validate:"omitempty,min=0,max=24"`
	StopCount       int     `json:"stop_count" validate:"omitempty,min=0"`
}

type PriceApprovalRequest struct {
	SubtotalCents   int64 `json:"subtotal_cents" validate:"required,min=1"`
	FeesCents       int64 `json:"fees_cents" validate:"cents"`
	TaxesCents      int64 `json:"taxes_cents" validate:"cents"`
	ConfirmDirectly bool  `json:"confirm_directly"`
}

type DeclineRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type StatusChangeRequest struct {
	Status string `json:"status" validate:"required,oneof=en_route arrived in_progress completed no_show cancelled"`
}

type InternalNoteRequest struct {
	Body string `json:"body" validate:"required,min=1,max=2000"`
}

type AssignRequest struct {
	DriverID           string `json:"driver_id" validate:"required,object_id"`
	VehicleUnitID      string `json:"vehicle_unit_id" validate:"omitempty,object_id"`
	DriverPaymentCents int64  `json:"driver_payment_cents" validate:"cents"`
}

func ValidateBookingCreate(req *BookingCreateRequest) ValidationErrors {
	errors := ValidateStruct(req)

	if req.Passengers > utils.MaxPassengers {
		errors = append(errors, ValidationError{
			Field:   "passengers",
			Message: "Passenger count exceeds the maximum",
		})
	}
	if req.Luggage > utils.MaxLuggage {
		errors = append(errors, ValidationError{
			Field:   "luggage",
			Message: "Luggage count exceeds the maximum",
		})
	}
	if len(req.Stops) > utils.MaxStops {
		errors = append(errors, ValidationError{
			Field:   "stops",
			Message: "Too many stops",
		})
	}
	if req.GuestEmail != "" && !IsValidEmail(req.GuestEmail) {
		errors = append(errors, ValidationError{
			Field:   "guest_email",
			Message: "Invalid email format",
		})
	}

	return errors
}

// ToCreateInput converts the validated request into the service input.
// The authenticated user id, when present, wins over the guest fields.
func (req *BookingCreateRequest) ToCreateInput(userID *primitive.ObjectID) (*services.CreateBookingInput, error) {
	serviceTypeID, err := primitive.ObjectIDFromHex(req.ServiceTypeID)
	if err != nil {
		return nil, ErrInvalidObjectID
	}

	input := &services.CreateBookingInput{
		ServiceTypeID:   serviceTypeID,
		UserID:          userID,
		PickupAt:        req.PickupAt,
		Passengers:      req.Passengers,
		Luggage:         req.Luggage,
		PickupLocation:  req.PickupLocation.toModel(),
		DropoffLocation: req.DropoffLocation.toModel(),
		DistanceMiles:   req.DistanceMiles,
		DurationMinutes: req.DurationMinutes,
		HoursRequested:  req.HoursRequested,
		AsDraft:         req.AsDraft,
	}

	if req.VehicleID != "" {
		vehicleID, err := primitive.ObjectIDFromHex(req.VehicleID)
		if err != nil {
			return nil, ErrInvalidObjectID
		}
		input.VehicleID = &vehicleID
	}

	if userID == nil {
		input.GuestName = SanitizeInput(req.GuestName)
		input.GuestEmail = req.GuestEmail
		input.GuestPhone = req.GuestPhone
	}

	for _, stop := range req.Stops {
		input.Stops = append(input.Stops, models.Stop{
			Address:     stop.Address,
			Latitude:    stop.Latitude,
			Longitude:   stop.Longitude,
			PlaceID:     stop.PlaceID,
			WaitMinutes: stop.WaitMinutes,
		})
	}

	return input, nil
}

func (req *EstimateRequest) ToEstimateInput() (*services.EstimateInput, error) {
	serviceTypeID, err := primitive.ObjectIDFromHex(req.ServiceTypeID)
	if err != nil {
		return nil, ErrInvalidObjectID
	}

	input := &services.EstimateInput{
		ServiceTypeID:   serviceTypeID,
		DistanceMiles:   req.DistanceMiles,
		DurationMinutes: req.DurationMinutes,
		HoursRequested:  req.HoursRequested,
		StopCount:       req.StopCount,
	}

	if req.VehicleID != "" {
		vehicleID, err := primitive.ObjectIDFromHex(req.VehicleID)
		if err != nil {
			return nil, ErrInvalidObjectID
		}
		input.VehicleID = &vehicleID
	}

	return input, nil
}

func (req *PriceApprovalRequest) ToPriceInput() *services.PriceInput {
	return &services.PriceInput{
		SubtotalCents:   req.SubtotalCents,
		FeesCents:       req.FeesCents,
		TaxesCents:      req.TaxesCents,
		ConfirmDirectly: req.ConfirmDirectly,
	}
}

func (req *AssignRequest) ToAssignInput(bookingID primitive.ObjectID) (*services.AssignInput, error) {
	driverID, err := primitive.ObjectIDFromHex(req.DriverID)
	if err != nil {
		return nil, ErrInvalidObjectID
	}

	input := &services.AssignInput{
		BookingID:          bookingID,
		DriverID:           driverID,
		DriverPaymentCents: req.DriverPaymentCents,
	}

	if req.VehicleUnitID != "" {
		unitID, err := primitive.ObjectIDFromHex(req.VehicleUnitID)
		if err != nil {
			return nil, ErrInvalidObjectID
		}
		input.VehicleUnitID = &unitID
	}

	return input, nil
}

func (l LocationRequest) toModel() models.Location {
	return models.Location{
		Address:   SanitizeInput(l.Address),
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		PlaceID:   l.PlaceID,
	}
}
