package mongodb

import (
	"context"
	"fmt"

	"groundlink/internal/apperrors"
	"groundlink/internal/models"
	"groundlink/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type pricingRepository struct {
	serviceTypes *mongo.Collection
	vehicles     *mongo.Collection
	vehicleUnits *mongo.Collection
}

func NewPricingRepository(db *mongo.Database) interfaces.PricingRepository {
	return &pricingRepository{
		serviceTypes: db.Collection("service_types"),
		vehicles:     db.Collection("vehicles"),
		vehicleUnits: db.Collection("vehicle_units"),
	}
}

func (r *pricingRepository) GetServiceType(ctx context.Context, id primitive.ObjectID) (*models.ServiceType, error) {
	var serviceType models.ServiceType
	err := r.serviceTypes.FindOne(ctx, bson.M{"_id": id}).Decode(&serviceType)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("service type")
		}
		return nil, fmt.Errorf("failed to get service type: %w", err)
	}

	return &serviceType, nil
}

func (r *pricingRepository) ListServiceTypes(ctx context.Context, activeOnly bool) ([]*models.ServiceType, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}})
	cursor, err := r.serviceTypes.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find service types: %w", err)
	}
	defer cursor.Close(ctx)

	var serviceTypes []*models.ServiceType
	for cursor.Next(ctx) {
		var serviceType models.ServiceType
		if err := cursor.Decode(&serviceType); err != nil {
			return nil, fmt.Errorf("failed to decode service type: %w", err)
		}
		serviceTypes = append(serviceTypes, &serviceType)
	}

	return serviceTypes, nil
}

func (r *pricingRepository) GetVehicle(ctx context.Context, id primitive.ObjectID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.vehicles.FindOne(ctx, bson.M{"_id": id}).Decode(&vehicle)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("vehicle")
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	return &vehicle, nil
}

func (r *pricingRepository) ListVehicles(ctx context.Context, activeOnly bool) ([]*models.Vehicle, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.vehicles.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicles: %w", err)
	}
	defer cursor.Close(ctx)

	var vehicles []*models.Vehicle
	for cursor.Next(ctx) {
		var vehicle models.Vehicle
		if err := cursor.Decode(&vehicle); err != nil {
			return nil, fmt.Errorf("failed to decode vehicle: %w", err)
		}
		vehicles = append(vehicles, &vehicle)
	}

	return vehicles, nil
}

func (r *pricingRepository) GetVehicleUnit(ctx context.Context, id primitive.ObjectID) (*models.VehicleUnit, error) {
	var unit models.VehicleUnit
	err := r.vehicleUnits.FindOne(ctx, bson.M{"_id": id}).Decode(&unit)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("vehicle unit")
		}
		return nil, fmt.Errorf("failed to get vehicle unit: %w", err)
	}

	return &unit, nil
}
