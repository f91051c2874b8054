package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(*mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
}

func NewMigrator(db *mongo.Database) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

func (m *Migrator) Up() error {
	currentVersion, err := m.getCurrentVersion()
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version > currentVersion {
			log.Printf("Running migration %d: %s", migration.Version, migration.Description)

			if err := migration.Up(m.db); err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			if err := m.updateVersion(migration.Version); err != nil {
				return fmt.Errorf("failed to update migration version: %w", err)
			}
		}
	}

	return nil
}

func (m *Migrator) getCurrentVersion() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection("migrations").FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(version int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.db.Collection("migrations").ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)

	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create bookings collection with indexes",
			Up:          createBookingIndexes,
		},
		{
			Version:     2,
			Description: "Create payments collection with indexes",
			Up:          createPaymentIndexes,
		},
		{
			Version:     3,
			Description: "Create status_events collection with indexes",
			Up:          createStatusEventIndexes,
		},
		{
			Version:     4,
			Description: "Create assignments collection with indexes",
			Up:          createAssignmentIndexes,
		},
		{
			Version:     5,
			Description: "Create pricing configuration indexes",
			Up:          createPricingIndexes,
		},
	}
}

func createBookingIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "booking_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "guest_claim_token", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"guest_claim_token": bson.M{"$type": "string", "$gt": ""}},
			),
		},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "pickup_at", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := db.Collection("bookings").Indexes().CreateMany(ctx, indexes)
	return err
}

func createPaymentIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		// One live checkout artifact per booking. Enforced here, not
		// just in application logic, so concurrent create-intent
		// requests cannot both insert.
		{
			Keys: bson.D{{Key: "booking_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"status": "pending"},
			),
		},
		{
			Keys:    bson.D{{Key: "payment_intent_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{"payment_intent_id": bson.M{"$gt": ""}}),
		},
	}

	_, err := db.Collection("payments").Indexes().CreateMany(ctx, indexes)
	return err
}

func createStatusEventIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "created_at", Value: 1}}},
	}

	_, err := db.Collection("status_events").Indexes().CreateMany(ctx, indexes)
	return err
}

func createAssignmentIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "booking_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := db.Collection("assignments").Indexes().CreateMany(ctx, indexes)
	return err
}

func createPricingIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.Collection("service_types").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "sort_order", Value: 1}},
	}); err != nil {
		return err
	}

	_, err := db.Collection("vehicles").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "name", Value: 1}},
	})
	return err
}
