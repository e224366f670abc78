package services

import (
	"booking-app/internal/models"
	"booking-app/internal/repository"
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// newTestRedis returns a client pointed at a closed port so every cache
// operation fails fast and the services exercise their store paths.
func newTestRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 10 * time.Millisecond,
		MaxRetries:  -1,
	})
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[primitive.ObjectID]*models.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[primitive.ObjectID]*models.Booking)}
}

func (r *fakeBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking.ID = primitive.NewObjectID()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()
	copied := *booking
	r.bookings[booking.ID] = &copied
	return nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *booking
	return &copied, nil
}

func (r *fakeBookingRepo) GetByClientID(ctx context.Context, clientID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Booking
	for _, b := range r.bookings {
		if b.ClientID == clientID {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (r *fakeBookingRepo) GetByProviderID(ctx context.Context, providerID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Booking
	for _, b := range r.bookings {
		if b.ProviderID == providerID {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (r *fakeBookingRepo) Filter(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	return nil, nil
}

// TransitionStatus mirrors the mongo CAS: the swap happens under one lock,
// so concurrent callers see exactly one winner.
func (r *fakeBookingRepo) TransitionStatus(ctx context.Context, id primitive.ObjectID, expected []models.BookingStatus, target models.BookingStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return false, nil
	}
	for _, status := range expected {
		if booking.Status == status {
			booking.Status = target
			booking.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

type completionKey struct {
	bookingID primitive.ObjectID
	role      models.PartyRole
}

type fakeCompletionRepo struct {
	mu      sync.Mutex
	records map[completionKey]*models.CompletionRecord

	// afterCreate, when set, runs once a record has been stored. Tests use
	// it to interleave a concurrent booking mutation mid-submission.
	afterCreate func()
}

func newFakeCompletionRepo() *fakeCompletionRepo {
	return &fakeCompletionRepo{records: make(map[completionKey]*models.CompletionRecord)}
}

func (r *fakeCompletionRepo) Create(ctx context.Context, record *models.CompletionRecord) error {
	r.mu.Lock()
	key := completionKey{record.BookingID, record.Role}
	if _, ok := r.records[key]; ok {
		r.mu.Unlock()
		return repository.ErrDuplicateCompletion
	}
	record.ID = primitive.NewObjectID()
	record.CreatedAt = time.Now()
	copied := *record
	r.records[key] = &copied
	r.mu.Unlock()
	if r.afterCreate != nil {
		r.afterCreate()
	}
	return nil
}

func (r *fakeCompletionRepo) GetByBookingAndRole(ctx context.Context, bookingID primitive.ObjectID, role models.PartyRole) (*models.CompletionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[completionKey{bookingID, role}]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (r *fakeCompletionRepo) CountByBooking(ctx context.Context, bookingID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for key := range r.records {
		if key.bookingID == bookingID {
			count++
		}
	}
	return count, nil
}

func (r *fakeCompletionRepo) EnsureIndexes(ctx context.Context) error { return nil }

type reviewKey struct {
	bookingID  primitive.ObjectID
	reviewerID string
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[reviewKey]*models.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[reviewKey]*models.Review)}
}

func (r *fakeReviewRepo) Create(ctx context.Context, review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := reviewKey{review.BookingID, review.ReviewerID}
	if _, ok := r.reviews[key]; ok {
		return repository.ErrDuplicateReview
	}
	review.ID = primitive.NewObjectID()
	review.CreatedAt = time.Now()
	copied := *review
	r.reviews[key] = &copied
	return nil
}

func (r *fakeReviewRepo) ExistsByBookingAndReviewer(ctx context.Context, bookingID primitive.ObjectID, reviewerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.reviews[reviewKey{bookingID, reviewerID}]
	return ok, nil
}

func (r *fakeReviewRepo) GetByTargetID(ctx context.Context, targetID string) ([]models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Review
	for _, review := range r.reviews {
		if review.TargetID == targetID {
			result = append(result, *review)
		}
	}
	return result, nil
}

func (r *fakeReviewRepo) AggregateStatistics(ctx context.Context) ([]models.ReviewStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := make(map[string][2]float64)
	for _, review := range r.reviews {
		t := totals[review.TargetID]
		totals[review.TargetID] = [2]float64{t[0] + float64(review.Rating), t[1] + 1}
	}
	var stats []models.ReviewStat
	for target, t := range totals {
		stats = append(stats, models.ReviewStat{TargetID: target, Count: int(t[1]), Average: t[0] / t[1]})
	}
	return stats, nil
}

func (r *fakeReviewRepo) EnsureIndexes(ctx context.Context) error { return nil }

type fakeChatRepo struct {
	mu       sync.Mutex
	messages []models.Message
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{}
}

func (r *fakeChatRepo) AddMessage(ctx context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	msg.Timestamp = time.Now()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *fakeChatRepo) GetMessagesByBooking(ctx context.Context, bookingID primitive.ObjectID) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Message
	for _, msg := range r.messages {
		if msg.BookingID == bookingID {
			result = append(result, msg)
		}
	}
	return result, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []EventPayload
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{}
}

func (f *fakeEvents) Publish(ctx context.Context, channel string, event EventPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeEvents) countByType(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, e := range f.events {
		if e.EventType == eventType {
			count++
		}
	}
	return count
}
