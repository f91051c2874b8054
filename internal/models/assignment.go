package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assignment links a booking to a driver and optionally a physical
// vehicle unit. At most one exists per booking; it is upserted in place
// and logically deleted by being absent.
type Assignment struct {
	ID                 primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	BookingID          primitive.ObjectID  `json:"booking_id" bson:"booking_id" validate:"required"`
	DriverID           primitive.ObjectID  `json:"driver_id" bson:"driver_id" validate:"required"`
	VehicleUnitID      *primitive.ObjectID `json:"vehicle_unit_id" bson:"vehicle_unit_id"`
	DriverPaymentCents int64               `json:"driver_payment_cents" bson:"driver_payment_cents"`
	CreatedAt          time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at" bson:"updated_at"`
}
