package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PricingStrategy string

const (
	PricingPointToPoint PricingStrategy = "point_to_point"
	PricingHourly       PricingStrategy = "hourly"
	PricingFlat         PricingStrategy = "flat"
)

// ServiceType owns the pricing strategy and the service-level rate card.
// All rates are integer cents.
type ServiceType struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name" validate:"required"`
	Description     string             `json:"description" bson:"description"`
	PricingStrategy PricingStrategy    `json:"pricing_strategy" bson:"pricing_strategy" validate:"required"`
	MinFareCents    int64              `json:"min_fare_cents" bson:"min_fare_cents"`
	BaseFeeCents    int64              `json:"base_fee_cents" bson:"base_fee_cents"`
	PerMileCents    int64              `json:"per_mile_cents" bson:"per_mile_cents"`
	PerMinuteCents  int64              `json:"per_minute_cents" bson:"per_minute_cents"`
	PerHourCents    int64              `json:"per_hour_cents" bson:"per_hour_cents"`
	BlackoutDates   []string           `json:"blackout_dates" bson:"blackout_dates"` // civil dates, YYYY-MM-DD in America/Phoenix
	IsActive        bool               `json:"is_active" bson:"is_active" default:"true"`
	SortOrder       int                `json:"sort_order" bson:"sort_order"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}
