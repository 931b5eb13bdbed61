package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dandantas/laundromat/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReservationRepository is the durable per-machine reservation store, one
// document per machine id. It satisfies the engine's StateStore contract.
type ReservationRepository struct {
	collection *mongo.Collection
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *MongoDB) *ReservationRepository {
	return &ReservationRepository{
		collection: db.GetCollection(CollectionReservations),
	}
}

// Get retrieves the reservation record for a machine. An absent record is
// not an error: it returns (nil, nil) and means the machine is free.
func (r *ReservationRepository) Get(ctx context.Context, machineID string) (*model.ReservationRecord, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var record model.ReservationRecord
	err := r.collection.FindOne(ctxTimeout, bson.M{"machine_id": machineID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get reservation record: %w", err)
	}

	return &record, nil
}

// Set writes the reservation record for a machine, creating or replacing
// the single document keyed by its machine id
func (r *ReservationRepository) Set(ctx context.Context, record *model.ReservationRecord) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctxTimeout, bson.M{"machine_id": record.MachineID}, record, opts)
	if err != nil {
		return fmt.Errorf("failed to write reservation record: %w", err)
	}

	return nil
}
