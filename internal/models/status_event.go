package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusEvent is an append-only audit row. Events are never mutated or
// deleted; exactly one is written per booking status change.
type StatusEvent struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	BookingID   primitive.ObjectID  `json:"booking_id" bson:"booking_id" validate:"required"`
	Status      BookingStatus       `json:"status" bson:"status" validate:"required"`
	CreatedByID *primitive.ObjectID `json:"created_by_id" bson:"created_by_id"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
}
