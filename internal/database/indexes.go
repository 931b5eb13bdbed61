package database

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateIndexes creates all necessary indexes for the collections
func CreateIndexes(ctx context.Context, db *MongoDB) error {
	slog.Info("Creating MongoDB indexes")

	if err := createReservationIndexes(ctx, db); err != nil {
		return err
	}
	if err := createReservationHistoryIndexes(ctx, db); err != nil {
		return err
	}
	if err := createAlertLogsIndexes(ctx, db); err != nil {
		return err
	}

	slog.Info("Successfully created all MongoDB indexes")
	return nil
}

func createReservationIndexes(ctx context.Context, db *MongoDB) error {
	collection := db.GetCollection(CollectionReservations)

	// machine_id is the sole key: exactly one record per machine
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "machine_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_machine_id_unique"),
		},
		{
			Keys: bson.D{
				{Key: "in_use", Value: 1},
				{Key: "end_time", Value: 1},
			},
			Options: options.Index().SetName("idx_in_use_end_time"),
		},
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctxTimeout, indexes)
	if err != nil {
		return err
	}

	slog.Info("Created reservations indexes")
	return nil
}

func createReservationHistoryIndexes(ctx context.Context, db *MongoDB) error {
	collection := db.GetCollection(CollectionReservationHistory)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "machine_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_machine_id_created_at"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_created_at"),
		},
		{
			Keys:    bson.D{{Key: "correlation_id", Value: 1}},
			Options: options.Index().SetName("idx_correlation_id"),
		},
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctxTimeout, indexes)
	if err != nil {
		return err
	}

	slog.Info("Created reservation_history indexes")
	return nil
}

func createAlertLogsIndexes(ctx context.Context, db *MongoDB) error {
	collection := db.GetCollection(CollectionAlertLogs)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "machine_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_machine_id_created_at"),
		},
		{
			Keys: bson.D{
				{Key: "final_status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_final_status_created_at"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_created_at"),
		},
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctxTimeout, indexes)
	if err != nil {
		return err
	}

	slog.Info("Created alert_logs indexes")
	return nil
}
