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

// ErrDuplicateReview signals that the reviewer already reviewed this booking.
var ErrDuplicateReview = errors.New("review already exists")

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ExistsByBookingAndReviewer(ctx context.Context, bookingID primitive.ObjectID, reviewerID string) (bool, error)
	GetByTargetID(ctx context.Context, targetID string) ([]models.Review, error)
	AggregateStatistics(ctx context.Context) ([]models.ReviewStat, error)
	EnsureIndexes(ctx context.Context) error
}

type reviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &reviewRepository{collection: db.Collection("reviews")}
}

func (r *reviewRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_id", Value: 1}, {Key: "reviewer_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	review.ID = primitive.NewObjectID()
	review.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, review)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateReview
	}
	return err
}

func (r *reviewRepository) ExistsByBookingAndReviewer(ctx context.Context, bookingID primitive.ObjectID, reviewerID string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"booking_id": bookingID, "reviewer_id": reviewerID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *reviewRepository) GetByTargetID(ctx context.Context, targetID string) ([]models.Review, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"target_id": targetID})
	if err != nil {
		return nil, err
	}
	var results []models.Review
	err = cursor.All(ctx, &results)
	return results, err
}

func (r *reviewRepository) AggregateStatistics(ctx context.Context) ([]models.ReviewStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":     "$target_id",
			"average": bson.M{"$avg": "$rating"},
			"total":   bson.M{"$sum": 1},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var results []struct {
		TargetID string  `bson:"_id"`
		Average  float64 `bson:"average"`
		Total    int     `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	stats := make([]models.ReviewStat, len(results))
	for i, res := range results {
		stats[i] = models.ReviewStat{
			TargetID: res.TargetID,
			Count:    res.Total,
			Average:  res.Average,
		}
	}
	return stats, nil
}
