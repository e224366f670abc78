package services

import (
	"booking-app/internal/models"
	"booking-app/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewInput carries the caller-supplied part of a review. The reviewee is
// always derived server-side as the booking's other party.
type ReviewInput struct {
	Rating          int            `json:"rating"`
	CategoryRatings map[string]int `json:"category_ratings,omitempty"`
	Comment         string         `json:"comment,omitempty"`
}

// ReviewService admits review records only once the booking is completed
// and enforces one review per reviewer per booking.
type ReviewService interface {
	SubmitReview(ctx context.Context, bookingID primitive.ObjectID, reviewerID string, input ReviewInput) (*models.Review, error)
	ReviewsForUser(ctx context.Context, targetID string) ([]models.Review, error)
	Statistics(ctx context.Context) ([]models.ReviewStat, error)
}

type reviewService struct {
	bookings repository.BookingRepository
	reviews  repository.ReviewRepository
	events   EventPublisher
}

func NewReviewService(bookings repository.BookingRepository, reviews repository.ReviewRepository, events EventPublisher) ReviewService {
	return &reviewService{bookings: bookings, reviews: reviews, events: events}
}

func (s *reviewService) SubmitReview(ctx context.Context, bookingID primitive.ObjectID, reviewerID string, input ReviewInput) (*models.Review, error) {
	if err := validateRatings(input); err != nil {
		return nil, err
	}

	var review *models.Review
	err := withStoreRetry(ctx, "submit review", func(ctx context.Context) error {
		var err error
		review, err = s.submitOnce(ctx, bookingID, reviewerID, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) submitOnce(ctx context.Context, bookingID primitive.ObjectID, reviewerID string, input ReviewInput) (*models.Review, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsParty(reviewerID) {
		return nil, models.ErrPermission
	}
	if booking.Status != models.StatusCompleted {
		return nil, &models.StateConflictError{Reason: "review not yet available"}
	}

	exists, err := s.reviews.ExistsByBookingAndReviewer(ctx, bookingID, reviewerID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &models.StateConflictError{Reason: "duplicate review"}
	}

	targetID := booking.OtherParty(reviewerID)
	review := &models.Review{
		BookingID:       bookingID,
		ReviewerID:      reviewerID,
		TargetID:        targetID,
		TargetRole:      booking.RoleOf(targetID),
		Rating:          input.Rating,
		CategoryRatings: input.CategoryRatings,
		Comment:         input.Comment,
	}
	err = s.reviews.Create(ctx, review)
	if errors.Is(err, repository.ErrDuplicateReview) {
		// Lost the race against a concurrent submission by the same reviewer.
		return nil, &models.StateConflictError{Reason: "duplicate review"}
	}
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, ReviewEventsChannel, EventPayload{
		UserID:    targetID,
		Role:      string(review.TargetRole),
		EventType: EventReviewReceived,
		Title:     "Новый отзыв",
		Message:   "О вас оставили отзыв. Посмотрите его в профиле.",
		ExtraData: map[string]string{"booking_id": bookingID.Hex()},
	})
	return review, nil
}

func validateRatings(input ReviewInput) error {
	var fields []string
	if input.Rating < 1 || input.Rating > 5 {
		fields = append(fields, "rating")
	}
	for name, rating := range input.CategoryRatings {
		if rating < 1 || rating > 5 {
			fields = append(fields, "category_ratings."+name)
		}
	}
	if len(fields) > 0 {
		return &models.ValidationError{Fields: fields}
	}
	return nil
}

func (s *reviewService) ReviewsForUser(ctx context.Context, targetID string) ([]models.Review, error) {
	return s.reviews.GetByTargetID(ctx, targetID)
}

func (s *reviewService) Statistics(ctx context.Context) ([]models.ReviewStat, error) {
	return s.reviews.AggregateStatistics(ctx)
}
