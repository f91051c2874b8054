package interfaces

import (
	"context"

	"groundlink/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusEventRepository is append-only; events are never mutated or
// deleted.
type StatusEventRepository interface {
	Append(ctx context.Context, event *models.StatusEvent) error
	ListByBookingID(ctx context.Context, bookingID primitive.ObjectID) ([]*models.StatusEvent, error)
	CountByBookingID(ctx context.Context, bookingID primitive.ObjectID) (int64, error)
}
