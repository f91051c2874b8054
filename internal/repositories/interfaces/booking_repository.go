package interfaces

import (
	"context"

	"groundlink/internal/models"
	"groundlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingFilter struct {
	Status        models.BookingStatus
	UserID        *primitive.ObjectID
	ServiceTypeID *primitive.ObjectID
	Search        string
}

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	GetByClaimToken(ctx context.Context, token string) (*models.Booking, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Replace(ctx context.Context, booking *models.Booking) error
	List(ctx context.Context, filter BookingFilter, params *utils.PaginationParams) ([]*models.Booking, int64, error)
}
