package repository

import (
	"booking-app/internal/models"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChatRepository interface {
	AddMessage(ctx context.Context, msg *models.Message) error
	GetMessagesByBooking(ctx context.Context, bookingID primitive.ObjectID) ([]models.Message, error)
}

type chatRepository struct {
	collection *mongo.Collection
}

func NewChatRepository(db *mongo.Database) ChatRepository {
	return &chatRepository{collection: db.Collection("booking_messages")}
}

func (r *chatRepository) AddMessage(ctx context.Context, msg *models.Message) error {
	msg.ID = primitive.NewObjectID()
	msg.Timestamp = time.Now()
	_, err := r.collection.InsertOne(ctx, msg)
	return err
}

func (r *chatRepository) GetMessagesByBooking(ctx context.Context, bookingID primitive.ObjectID) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, err
	}
	var result []models.Message
	err = cursor.All(ctx, &result)
	return result, err
}
