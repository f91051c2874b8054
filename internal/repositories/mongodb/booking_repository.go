package mongodb

import (
	"context"
	"fmt"
	"time"

	"groundlink/internal/apperrors"
	"groundlink/internal/models"
	"groundlink/internal/repositories/interfaces"
	"groundlink/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type bookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) interfaces.BookingRepository {
	return &bookingRepository{
		collection: db.Collection("bookings"),
	}
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	now := time.Now().UTC()

	booking.ID = primitive.NewObjectID()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if booking.BookingNumber == "" {
		booking.BookingNumber = utils.GenerateBookingNumber(now)
	}

	_, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var booking models.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("booking")
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

func (r *bookingRepository) GetByClaimToken(ctx context.Context, token string) (*models.Booking, error) {
	var booking models.Booking
	err := r.collection.FindOne(ctx, bson.M{"guest_claim_token": token}).Decode(&booking)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("booking")
		}
		return nil, fmt.Errorf("failed to get booking by claim token: %w", err)
	}

	return &booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()

	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFound("booking")
	}

	return nil
}

func (r *bookingRepository) Replace(ctx context.Context, booking *models.Booking) error {
	booking.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": booking.ID}, booking)
	if err != nil {
		return fmt.Errorf("failed to replace booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFound("booking")
	}

	return nil
}

func (r *bookingRepository) List(ctx context.Context, filter interfaces.BookingFilter, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	query := bson.M{}

	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.UserID != nil {
		query["user_id"] = *filter.UserID
	}
	if filter.ServiceTypeID != nil {
		query["service_type_id"] = *filter.ServiceTypeID
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: filter.Search, Options: "i"}
		query["$or"] = []bson.M{
			{"booking_number": pattern},
			{"guest_name": pattern},
			{"guest_email": pattern},
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	cursor, err := r.collection.Find(ctx, query, params.GetFindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*models.Booking
	for cursor.Next(ctx) {
		var booking models.Booking
		if err := cursor.Decode(&booking); err != nil {
			return nil, 0, fmt.Errorf("failed to decode booking: %w", err)
		}
		bookings = append(bookings, &booking)
	}

	return bookings, total, nil
}
