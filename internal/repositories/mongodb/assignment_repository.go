package mongodb

import (
	"context"
	"fmt"
	"time"

	"groundlink/internal/models"
	"groundlink/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type assignmentRepository struct {
	collection *mongo.Collection
}

func NewAssignmentRepository(db *mongo.Database) interfaces.AssignmentRepository {
	return &assignmentRepository{
		collection: db.Collection("assignments"),
	}
}

// Upsert keeps at most one assignment per booking; the unique index on
// booking_id backs this up under concurrency.
func (r *assignmentRepository) Upsert(ctx context.Context, assignment *models.Assignment) error {
	now := time.Now().UTC()
	assignment.UpdatedAt = now

	update := bson.M{
		"$set": bson.M{
			"driver_id":            assignment.DriverID,
			"vehicle_unit_id":      assignment.VehicleUnitID,
			"driver_payment_cents": assignment.DriverPaymentCents,
			"updated_at":           now,
		},
		"$setOnInsert": bson.M{
			"booking_id": assignment.BookingID,
			"created_at": now,
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"booking_id": assignment.BookingID}, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert assignment: %w", err)
	}

	return nil
}

func (r *assignmentRepository) GetByBookingID(ctx context.Context, bookingID primitive.ObjectID) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.collection.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&assignment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return &assignment, nil
}

func (r *assignmentRepository) DeleteByBookingID(ctx context.Context, bookingID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"booking_id": bookingID})
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}

	return nil
}

func (r *assignmentRepository) ListByDriverID(ctx context.Context, driverID primitive.ObjectID) ([]*models.Assignment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"driver_id": driverID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find assignments: %w", err)
	}
	defer cursor.Close(ctx)

	var assignments []*models.Assignment
	for cursor.Next(ctx) {
		var assignment models.Assignment
		if err := cursor.Decode(&assignment); err != nil {
			return nil, fmt.Errorf("failed to decode assignment: %w", err)
		}
		assignments = append(assignments, &assignment)
	}

	return assignments, nil
}
