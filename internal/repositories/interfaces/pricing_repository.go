package interfaces

import (
	"context"

	"groundlink/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PricingRepository serves the read-only pricing configuration the fare
// calculator consumes.
type PricingRepository interface {
	GetServiceType(ctx context.Context, id primitive.ObjectID) (*models.ServiceType, error)
	ListServiceTypes(ctx context.Context, activeOnly bool) ([]*models.ServiceType, error)
	GetVehicle(ctx context.Context, id primitive.ObjectID) (*models.Vehicle, error)
	ListVehicles(ctx context.Context, activeOnly bool) ([]*models.Vehicle, error)
	GetVehicleUnit(ctx context.Context, id primitive.ObjectID) (*models.VehicleUnit, error)
}
