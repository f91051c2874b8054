package mongodb

import (
	"context"
	"fmt"
	"time"

	"groundlink/internal/apperrors"
	"groundlink/internal/models"
	"groundlink/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type paymentRepository struct {
	collection *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) interfaces.PaymentRepository {
	return &paymentRepository{
		collection: db.Collection("payments"),
	}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	now := time.Now().UTC()

	payment.ID = primitive.NewObjectID()
	payment.Version = 1
	payment.CreatedAt = now
	payment.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, payment)
	if err != nil {
		// The partial unique index on booking_id rejects a second
		// pending payment created by a concurrent request.
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.StateConflict("booking already has an active payment")
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payment, error) {
	var payment models.Payment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&payment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("payment")
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &payment, nil
}

func (r *paymentRepository) GetByBookingID(ctx context.Context, bookingID primitive.ObjectID) (*models.Payment, error) {
	var payment models.Payment
	err := r.collection.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&payment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment for booking: %w", err)
	}

	return &payment, nil
}

func (r *paymentRepository) GetByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.collection.FindOne(ctx, bson.M{"payment_intent_id": intentID}).Decode(&payment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperrors.NotFound("payment")
		}
		return nil, fmt.Errorf("failed to get payment by intent: %w", err)
	}

	return &payment, nil
}

// ReplaceVersioned is the optimistic concurrency write: the filter
// includes the version the caller read, so a concurrent webhook or
// admin update makes the match count zero instead of silently
// overwriting.
func (r *paymentRepository) ReplaceVersioned(ctx context.Context, payment *models.Payment, expectedVersion int64) error {
	payment.Version = expectedVersion + 1
	payment.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"_id": payment.ID, "version": expectedVersion},
		payment,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrVersionConflict
	}

	return nil
}
