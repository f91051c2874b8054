package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle is a vehicle category (sedan, SUV, sprinter), not a physical
// unit. Its rate fields are additive with the service-level rates.
type Vehicle struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name           string             `json:"name" bson:"name" validate:"required"`
	Description    string             `json:"description" bson:"description"`
	PassengerLimit int                `json:"passenger_limit" bson:"passenger_limit"`
	LuggageLimit   int                `json:"luggage_limit" bson:"luggage_limit"`
	BaseFareCents  int64              `json:"base_fare_cents" bson:"base_fare_cents"`
	PerMileCents   int64              `json:"per_mile_cents" bson:"per_mile_cents"`
	PerMinuteCents int64              `json:"per_minute_cents" bson:"per_minute_cents"`
	PerHourCents   int64              `json:"per_hour_cents" bson:"per_hour_cents"`
	MinHours       float64            `json:"min_hours" bson:"min_hours"`
	IsActive       bool               `json:"is_active" bson:"is_active" default:"true"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// VehicleUnit is a physical car in the fleet, used for assignments.
type VehicleUnit struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VehicleID    primitive.ObjectID `json:"vehicle_id" bson:"vehicle_id"`
	Label        string             `json:"label" bson:"label" validate:"required"`
	LicensePlate string             `json:"license_plate" bson:"license_plate"`
	IsActive     bool               `json:"is_active" bson:"is_active" default:"true"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}
