package interfaces

import (
	"context"
	"errors"

	"groundlink/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrVersionConflict signals that a versioned write lost a race with a
// concurrent update (webhook vs admin action). Callers reload and retry
// the whole reconciliation.
var ErrVersionConflict = errors.New("payment version conflict")

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Payment, error)
	// GetByBookingID returns nil, nil when no payment exists yet.
	GetByBookingID(ctx context.Context, bookingID primitive.ObjectID) (*models.Payment, error)
	GetByIntentID(ctx context.Context, intentID string) (*models.Payment, error)
	// ReplaceVersioned persists the full payment document iff the
	// stored version still matches expectedVersion, then bumps the
	// version. Returns ErrVersionConflict otherwise.
	ReplaceVersioned(ctx context.Context, payment *models.Payment, expectedVersion int64) error
}
