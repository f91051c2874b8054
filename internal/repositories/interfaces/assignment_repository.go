package interfaces

import (
	"context"

	"groundlink/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AssignmentRepository interface {
	// Upsert writes the single assignment row for the booking.
	Upsert(ctx context.Context, assignment *models.Assignment) error
	// GetByBookingID returns nil, nil when the booking is unassigned.
	GetByBookingID(ctx context.Context, bookingID primitive.ObjectID) (*models.Assignment, error)
	DeleteByBookingID(ctx context.Context, bookingID primitive.ObjectID) error
	ListByDriverID(ctx context.Context, driverID primitive.ObjectID) ([]*models.Assignment, error)
}
