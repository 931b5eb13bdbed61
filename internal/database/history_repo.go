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

// HistoryRepository handles reservation lifecycle event operations
type HistoryRepository struct {
	collection *mongo.Collection
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *MongoDB) *HistoryRepository {
	return &HistoryRepository{
		collection: db.GetCollection(CollectionReservationHistory),
	}
}

// Record appends a reservation lifecycle event
func (r *HistoryRepository) Record(ctx context.Context, event *model.ReservationEvent) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctxTimeout, event)
	if err != nil {
		return fmt.Errorf("failed to record reservation event: %w", err)
	}

	return nil
}

// List retrieves reservation events with filtering and pagination, newest
// first. machineID narrows the result when non-empty.
func (r *HistoryRepository) List(ctx context.Context, machineID string, page, limit int) ([]model.ReservationEvent, int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if machineID != "" {
		filter["machine_id"] = machineID
	}

	total, err := r.collection.CountDocuments(ctxTimeout, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reservation events: %w", err)
	}

	skip := (page - 1) * limit
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctxTimeout, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reservation events: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	var events []model.ReservationEvent
	if err := cursor.All(ctxTimeout, &events); err != nil {
		return nil, 0, fmt.Errorf("failed to decode reservation events: %w", err)
	}

	return events, total, nil
}
