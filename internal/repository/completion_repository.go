package repository

import (
	"booking-app/internal/models"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateCompletion signals that a record for the same (booking, role)
// pair already exists. The caller treats this as the idempotent path.
var ErrDuplicateCompletion = errors.New("completion already recorded")

type CompletionRepository interface {
	Create(ctx context.Context, record *models.CompletionRecord) error
	GetByBookingAndRole(ctx context.Context, bookingID primitive.ObjectID, role models.PartyRole) (*models.CompletionRecord, error)
	CountByBooking(ctx context.Context, bookingID primitive.ObjectID) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type completionRepository struct {
	collection *mongo.Collection
}

func NewCompletionRepository(db *mongo.Database) CompletionRepository {
	return &completionRepository{collection: db.Collection("completion_records")}
}

// EnsureIndexes creates the unique index that enforces at most one record
// per (booking, role). The store, not application code, is the authority on
// this invariant.
func (r *completionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_id", Value: 1}, {Key: "role", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *completionRepository) Create(ctx context.Context, record *models.CompletionRecord) error {
	record.ID = primitive.NewObjectID()
	record.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, record)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateCompletion
	}
	return err
}

func (r *completionRepository) GetByBookingAndRole(ctx context.Context, bookingID primitive.ObjectID, role models.PartyRole) (*models.CompletionRecord, error) {
	var record models.CompletionRecord
	err := r.collection.FindOne(ctx, bson.M{"booking_id": bookingID, "role": role}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *completionRepository) CountByBooking(ctx context.Context, bookingID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"booking_id": bookingID})
}
