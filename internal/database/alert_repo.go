package database

import (
	"context"
	"fmt"
	"time"

	"github.com/dandantas/laundromat/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AlertRepository handles alert delivery log operations
type AlertRepository struct {
	collection *mongo.Collection
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *MongoDB) *AlertRepository {
	return &AlertRepository{
		collection: db.GetCollection(CollectionAlertLogs),
	}
}

// Create inserts a new alert delivery log
func (r *AlertRepository) Create(ctx context.Context, alert *model.AlertLog) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if alert.ID.IsZero() {
		alert.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctxTimeout, alert)
	if err != nil {
		return fmt.Errorf("failed to create alert log: %w", err)
	}

	return nil
}

// List retrieves alert logs with pagination, newest first. machineID
// narrows the result when non-empty.
func (r *AlertRepository) List(ctx context.Context, machineID string, page, limit int) ([]model.AlertLog, int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if machineID != "" {
		filter["machine_id"] = machineID
	}

	total, err := r.collection.CountDocuments(ctxTimeout, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count alert logs: %w", err)
	}

	skip := (page - 1) * limit
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctxTimeout, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alert logs: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	var alerts []model.AlertLog
	if err := cursor.All(ctxTimeout, &alerts); err != nil {
		return nil, 0, fmt.Errorf("failed to decode alert logs: %w", err)
	}

	return alerts, total, nil
}
