package services

import (
	"booking-app/internal/models"
	"booking-app/internal/repository"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const bookingCacheTTL = 5 * time.Minute

// BookingService owns booking identity and lifecycle state. All status
// changes go through Transition, which validates the edge against the
// closed table and applies it as a compare-and-swap.
type BookingService interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBookingByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	GetBookingsByUser(ctx context.Context, userID string, role string) ([]models.Booking, error)
	Transition(ctx context.Context, id primitive.ObjectID, expected []models.BookingStatus, target models.BookingStatus) error
	StartWork(ctx context.Context, id primitive.ObjectID, actorID string) error
	Cancel(ctx context.Context, id primitive.ObjectID, actorID string) error
	Dispute(ctx context.Context, id primitive.ObjectID, actorID string) error
	InvalidateCaches(ctx context.Context, booking *models.Booking)
}

type bookingService struct {
	repo   repository.BookingRepository
	redis  *redis.Client
	events EventPublisher
}

func NewBookingService(repo repository.BookingRepository, rdb *redis.Client, events EventPublisher) BookingService {
	return &bookingService{repo: repo, redis: rdb, events: events}
}

func (s *bookingService) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if err := booking.Validate(); err != nil {
		return err
	}
	booking.Status = models.StatusConfirmed

	err := withStoreRetry(ctx, "create booking", func(ctx context.Context) error {
		return s.repo.Create(ctx, booking)
	})
	if err != nil {
		return err
	}

	s.InvalidateCaches(ctx, booking)
	s.events.Publish(ctx, BookingEventsChannel, EventPayload{
		UserID:    booking.ProviderID,
		Role:      string(models.RoleProvider),
		EventType: "BOOKING_CONFIRMED",
		Title:     "Новый заказ",
		Message:   "Вам назначен новый заказ. Проверьте детали в вашем профиле.",
		ExtraData: map[string]string{"booking_id": booking.ID.Hex()},
	})
	return nil
}

func (s *bookingService) GetBookingByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var booking *models.Booking
	err := withStoreRetry(ctx, "get booking", func(ctx context.Context) error {
		var err error
		booking, err = s.repo.GetByID(ctx, id)
		return err
	})
	return booking, err
}

func (s *bookingService) GetBookingsByUser(ctx context.Context, userID string, role string) ([]models.Booking, error) {
	cacheKey := fmt.Sprintf("bookings_by_user:%s", userID)

	var cached []models.Booking
	val, err := s.redis.Get(ctx, cacheKey).Result()
	if err == nil {
		if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
			return cached, nil
		}
	}

	var bookings []models.Booking
	if role == string(models.RoleProvider) {
		bookings, err = s.repo.GetByProviderID(ctx, userID)
	} else {
		bookings, err = s.repo.GetByClientID(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(bookings)
	_ = s.redis.Set(ctx, cacheKey, data, bookingCacheTTL).Err()

	return bookings, nil
}

// Transition validates the edge and applies it race-free. A CAS miss means
// another caller moved the booking first; that is a state conflict here.
func (s *bookingService) Transition(ctx context.Context, id primitive.ObjectID, expected []models.BookingStatus, target models.BookingStatus) error {
	for _, from := range expected {
		if !models.CanTransition(from, target) {
			return &models.StateConflictError{
				Reason: fmt.Sprintf("transition %s -> %s is not permitted", from, target),
			}
		}
	}

	var moved bool
	err := withStoreRetry(ctx, "transition booking", func(ctx context.Context) error {
		var err error
		moved, err = s.repo.TransitionStatus(ctx, id, expected, target)
		return err
	})
	if err != nil {
		return err
	}
	if !moved {
		booking, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return &models.StateConflictError{
			Reason: fmt.Sprintf("booking is %s, cannot move to %s", booking.Status, target),
		}
	}
	return nil
}

func (s *bookingService) StartWork(ctx context.Context, id primitive.ObjectID, actorID string) error {
	booking, err := s.GetBookingByID(ctx, id)
	if err != nil {
		return err
	}
	if booking.ProviderID != actorID {
		return models.ErrPermission
	}
	if err := s.Transition(ctx, id, []models.BookingStatus{models.StatusConfirmed}, models.StatusInProgress); err != nil {
		return err
	}
	s.InvalidateCaches(ctx, booking)
	return nil
}

func (s *bookingService) Cancel(ctx context.Context, id primitive.ObjectID, actorID string) error {
	return s.closeBooking(ctx, id, actorID, models.StatusCancelled, "BOOKING_CANCELLED", "Заказ отменён")
}

func (s *bookingService) Dispute(ctx context.Context, id primitive.ObjectID, actorID string) error {
	return s.closeBooking(ctx, id, actorID, models.StatusDisputed, "BOOKING_DISPUTED", "По заказу открыт спор")
}

func (s *bookingService) closeBooking(ctx context.Context, id primitive.ObjectID, actorID string, target models.BookingStatus, eventType, title string) error {
	booking, err := s.GetBookingByID(ctx, id)
	if err != nil {
		return err
	}
	if !booking.IsParty(actorID) {
		return models.ErrPermission
	}
	active := []models.BookingStatus{models.StatusRequested, models.StatusConfirmed, models.StatusInProgress}
	if err := s.Transition(ctx, id, active, target); err != nil {
		return err
	}

	s.InvalidateCaches(ctx, booking)
	other := booking.OtherParty(actorID)
	s.events.Publish(ctx, BookingEventsChannel, EventPayload{
		UserID:    other,
		Role:      string(booking.RoleOf(other)),
		EventType: eventType,
		Title:     title,
		Message:   "Статус вашего заказа изменился.",
		ExtraData: map[string]string{"booking_id": id.Hex()},
	})
	return nil
}

// InvalidateCaches drops the cached listings of both parties after any
// booking mutation.
func (s *bookingService) InvalidateCaches(ctx context.Context, booking *models.Booking) {
	for _, key := range []string{
		fmt.Sprintf("bookings_by_user:%s", booking.ClientID),
		fmt.Sprintf("bookings_by_user:%s", booking.ProviderID),
		fmt.Sprintf("completion_status:%s:%s", booking.ID.Hex(), booking.ClientID),
		fmt.Sprintf("completion_status:%s:%s", booking.ID.Hex(), booking.ProviderID),
	} {
		if err := s.redis.Del(ctx, key).Err(); err != nil {
			log.Printf("[CACHE] Failed to invalidate %s: %v", key, err)
		}
	}
}
