package services

import (
	"booking-app/internal/models"
	"booking-app/internal/repository"
	"booking-app/internal/utils"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const completionStatusCacheTTL = 30 * time.Second

// CompletionInput is one party's completion evidence.
type CompletionInput struct {
	Evidence    string  `json:"evidence" validate:"required"`
	TotalAmount float64 `json:"total_amount" validate:"required,gt=0"`
	Notes       string  `json:"notes"`
}

// SubmitResult pairs the stored record with whether both parties have now
// marked the booking complete.
type SubmitResult struct {
	Record        *models.CompletionRecord `json:"record"`
	BothCompleted bool                     `json:"both_completed"`
}

// CompletionService records each party's completion evidence and performs
// the two-sided transition to the completed status exactly once.
type CompletionService interface {
	SubmitCompletion(ctx context.Context, bookingID primitive.ObjectID, actorID string, input CompletionInput) (*SubmitResult, error)
	CompletionStatus(ctx context.Context, bookingID primitive.ObjectID, actorID string) (*models.CompletionStatus, error)
}

type completionService struct {
	bookings    repository.BookingRepository
	completions repository.CompletionRepository
	reviews     repository.ReviewRepository
	bookingSvc  BookingService
	redis       *redis.Client
	events      EventPublisher
}

func NewCompletionService(
	bookings repository.BookingRepository,
	completions repository.CompletionRepository,
	reviews repository.ReviewRepository,
	bookingSvc BookingService,
	rdb *redis.Client,
	events EventPublisher,
) CompletionService {
	return &completionService{
		bookings:    bookings,
		completions: completions,
		reviews:     reviews,
		bookingSvc:  bookingSvc,
		redis:       rdb,
		events:      events,
	}
}

// completableStatuses are the statuses from which a booking may flip to
// completed. A booking without an explicit start-work step completes
// straight from confirmed.
var completableStatuses = []models.BookingStatus{models.StatusConfirmed, models.StatusInProgress}

// SubmitCompletion runs the whole record-insert-recount-transition sequence
// as one retryable unit. The unique (booking, role) index makes the insert
// first-wins and the CAS status filter guarantees that of two concurrent
// submitters exactly one observes the flip and emits JOB_COMPLETED; the
// other returns both_completed without re-transitioning or re-emitting.
func (s *completionService) SubmitCompletion(ctx context.Context, bookingID primitive.ObjectID, actorID string, input CompletionInput) (*SubmitResult, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	var result *SubmitResult
	err := withStoreRetry(ctx, "submit completion", func(ctx context.Context) error {
		var err error
		result, err = s.submitOnce(ctx, bookingID, actorID, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *completionService) submitOnce(ctx context.Context, bookingID primitive.ObjectID, actorID string, input CompletionInput) (*SubmitResult, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	role := booking.RoleOf(actorID)
	if role == "" {
		return nil, models.ErrPermission
	}

	switch booking.Status {
	case models.StatusConfirmed, models.StatusInProgress:
		// submittable
	case models.StatusCompleted:
		// Both records exist already; fall through to the idempotent path.
	default:
		return nil, &models.StateConflictError{
			Reason: fmt.Sprintf("booking is %s, completion can no longer be recorded", booking.Status),
		}
	}

	record := &models.CompletionRecord{
		BookingID:   bookingID,
		Role:        role,
		SubmitterID: actorID,
		Evidence:    input.Evidence,
		TotalAmount: input.TotalAmount,
		Notes:       input.Notes,
	}
	err = s.completions.Create(ctx, record)
	if errors.Is(err, repository.ErrDuplicateCompletion) {
		// Resubmission: hand back the stored record untouched and recompute
		// both_completed from current state. No transition, no event.
		stored, err := s.completions.GetByBookingAndRole(ctx, bookingID, role)
		if err != nil {
			return nil, err
		}
		count, err := s.completions.CountByBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{Record: stored, BothCompleted: count == 2}, nil
	}
	if err != nil {
		return nil, err
	}

	count, err := s.completions.CountByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if count < 2 {
		s.invalidateStatusCache(ctx, booking)
		return &SubmitResult{Record: record, BothCompleted: false}, nil
	}

	moved, err := s.bookings.TransitionStatus(ctx, bookingID, completableStatuses, models.StatusCompleted)
	if err != nil {
		return nil, err
	}
	if !moved {
		// The swap can miss for two reasons: the other submitter already
		// flipped the booking, or a cancel/dispute landed after the initial
		// read. Only the first one is a completion.
		current, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if current.Status != models.StatusCompleted {
			s.invalidateStatusCache(ctx, booking)
			return nil, &models.StateConflictError{
				Reason: fmt.Sprintf("booking is %s, completion can no longer be recorded", current.Status),
			}
		}
		s.invalidateStatusCache(ctx, booking)
		return &SubmitResult{Record: record, BothCompleted: true}, nil
	}

	// This call caused the flip; it alone announces the completion.
	s.bookingSvc.InvalidateCaches(ctx, booking)
	s.notifyCompleted(ctx, booking)
	return &SubmitResult{Record: record, BothCompleted: true}, nil
}

func (s *completionService) notifyCompleted(ctx context.Context, booking *models.Booking) {
	for _, party := range []struct {
		id   string
		role models.PartyRole
	}{
		{booking.ClientID, models.RoleClient},
		{booking.ProviderID, models.RoleProvider},
	} {
		s.events.Publish(ctx, BookingEventsChannel, EventPayload{
			UserID:    party.id,
			Role:      string(party.role),
			EventType: EventJobCompleted,
			Title:     "Работа завершена",
			Message:   "Обе стороны подтвердили выполнение. Пожалуйста, оставьте отзыв!",
			ExtraData: map[string]string{"booking_id": booking.ID.Hex()},
		})
	}
}

// CompletionStatus is the pollable, side-effect-free view of the workflow.
func (s *completionService) CompletionStatus(ctx context.Context, bookingID primitive.ObjectID, actorID string) (*models.CompletionStatus, error) {
	cacheKey := fmt.Sprintf("completion_status:%s:%s", bookingID.Hex(), actorID)
	val, err := s.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		var cached models.CompletionStatus
		if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
			return &cached, nil
		}
	}

	var status *models.CompletionStatus
	err = withStoreRetry(ctx, "completion status", func(ctx context.Context) error {
		var err error
		status, err = s.statusOnce(ctx, bookingID, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(status)
	_ = s.redis.Set(ctx, cacheKey, data, completionStatusCacheTTL).Err()

	return status, nil
}

func (s *completionService) statusOnce(ctx context.Context, bookingID primitive.ObjectID, actorID string) (*models.CompletionStatus, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	role := booking.RoleOf(actorID)
	if role == "" {
		return nil, models.ErrPermission
	}

	status := &models.CompletionStatus{}
	if _, err := s.completions.GetByBookingAndRole(ctx, bookingID, role); err == nil {
		status.UserMarkedComplete = true
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	otherRole := models.RoleProvider
	if role == models.RoleProvider {
		otherRole = models.RoleClient
	}
	if _, err := s.completions.GetByBookingAndRole(ctx, bookingID, otherRole); err == nil {
		status.OtherPartyMarkedComplete = true
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	status.BothCompleted = status.UserMarkedComplete && status.OtherPartyMarkedComplete

	reviewed, err := s.reviews.ExistsByBookingAndReviewer(ctx, bookingID, actorID)
	if err != nil {
		return nil, err
	}
	status.UserReviewSubmitted = reviewed

	return status, nil
}

func (s *completionService) invalidateStatusCache(ctx context.Context, booking *models.Booking) {
	s.redis.Del(ctx,
		fmt.Sprintf("completion_status:%s:%s", booking.ID.Hex(), booking.ClientID),
		fmt.Sprintf("completion_status:%s:%s", booking.ID.Hex(), booking.ProviderID),
	)
}
