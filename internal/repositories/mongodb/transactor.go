package mongodb

import (
	"context"
	"fmt"

	"groundlink/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

type mongoTransactor struct {
	client *mongo.Client
}

func NewTransactor(client *mongo.Client) interfaces.Transactor {
	return &mongoTransactor{client: client}
}

// WithinTransaction runs fn inside a causally-consistent session with
// majority read/write concerns. Repositories called with the session
// context join the transaction automatically.
func (t *mongoTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txnOpts)

	return err
}
