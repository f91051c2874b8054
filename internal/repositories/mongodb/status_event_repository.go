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

type statusEventRepository struct {
	collection *mongo.Collection
}

func NewStatusEventRepository(db *mongo.Database) interfaces.StatusEventRepository {
	return &statusEventRepository{
		collection: db.Collection("status_events"),
	}
}

func (r *statusEventRepository) Append(ctx context.Context, event *models.StatusEvent) error {
	event.ID = primitive.NewObjectID()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to append status event: %w", err)
	}

	return nil
}

func (r *statusEventRepository) ListByBookingID(ctx context.Context, bookingID primitive.ObjectID) ([]*models.StatusEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find status events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*models.StatusEvent
	for cursor.Next(ctx) {
		var event models.StatusEvent
		if err := cursor.Decode(&event); err != nil {
			return nil, fmt.Errorf("failed to decode status event: %w", err)
		}
		events = append(events, &event)
	}

	return events, nil
}

func (r *statusEventRepository) CountByBookingID(ctx context.Context, bookingID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"booking_id": bookingID})
	if err != nil {
		return 0, fmt.Errorf("failed to count status events: %w", err)
	}

	return count, nil
}
