package repository

import (
	"booking-app/internal/models"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	GetByClientID(ctx context.Context, clientID string) ([]models.Booking, error)
	GetByProviderID(ctx context.Context, providerID string) ([]models.Booking, error)
	Filter(ctx context.Context, filter bson.M) ([]models.Booking, error)
	TransitionStatus(ctx context.Context, id primitive.ObjectID, expected []models.BookingStatus, target models.BookingStatus) (bool, error)
}

type bookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) BookingRepository {
	return &bookingRepository{collection: db.Collection("bookings")}
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	booking.ID = primitive.NewObjectID()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, booking)
	return err
}

func (r *bookingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var booking models.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) GetByClientID(ctx context.Context, clientID string) ([]models.Booking, error) {
	return r.Filter(ctx, bson.M{"client_id": clientID})
}

func (r *bookingRepository) GetByProviderID(ctx context.Context, providerID string) ([]models.Booking, error) {
	return r.Filter(ctx, bson.M{"provider_id": providerID})
}

func (r *bookingRepository) Filter(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var bookings []models.Booking
	err = cursor.All(ctx, &bookings)
	return bookings, err
}

// TransitionStatus applies a compare-and-swap status change: the update
// matches only while the booking still holds one of the expected statuses,
// so that of any number of concurrent callers exactly one wins. Returns false
// without error when the document no longer matches.
func (r *bookingRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, expected []models.BookingStatus, target models.BookingStatus) (bool, error) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": expected},
	}
	update := bson.M{
		"$set": bson.M{
			"status":     target,
			"updated_at": time.Now(),
		},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
