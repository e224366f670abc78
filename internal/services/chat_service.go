package services

import (
	"booking-app/internal/models"
	"booking-app/internal/repository"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatService gates and stores booking conversation messages. Write access
// is a pure function of the booking's current status; there is no stored
// "locked" flag that could drift from the ledger.
type ChatService interface {
	CanWrite(ctx context.Context, bookingID primitive.ObjectID) (bool, error)
	SendMessage(ctx context.Context, bookingID primitive.ObjectID, senderID, text string) (*models.Message, error)
	Messages(ctx context.Context, bookingID primitive.ObjectID, actorID string) ([]models.Message, error)
}

type chatService struct {
	bookings repository.BookingRepository
	chat     repository.ChatRepository
	events   EventPublisher
}

func NewChatService(bookings repository.BookingRepository, chat repository.ChatRepository, events EventPublisher) ChatService {
	return &chatService{bookings: bookings, chat: chat, events: events}
}

// CanWrite recomputes the gate from ledger state on every call. One-sided
// completion does not lock the chat; only the completed status does, so the
// parties can keep talking while a booking is cancelled or disputed.
func (s *chatService) CanWrite(ctx context.Context, bookingID primitive.ObjectID) (bool, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return false, err
	}
	return booking.Status != models.StatusCompleted, nil
}

func (s *chatService) SendMessage(ctx context.Context, bookingID primitive.ObjectID, senderID, text string) (*models.Message, error) {
	if text == "" {
		return nil, &models.ValidationError{Fields: []string{"text"}}
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	role := booking.RoleOf(senderID)
	if role == "" {
		return nil, models.ErrPermission
	}
	if booking.Status == models.StatusCompleted {
		return nil, models.ErrChatLocked
	}

	msg := &models.Message{
		BookingID:  bookingID,
		SenderID:   senderID,
		SenderRole: role,
		Text:       text,
	}
	err = withStoreRetry(ctx, "send message", func(ctx context.Context) error {
		return s.chat.AddMessage(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	other := booking.OtherParty(senderID)
	s.events.Publish(ctx, ChatEventsChannel, EventPayload{
		UserID:    other,
		Role:      string(booking.RoleOf(other)),
		EventType: EventNewMessage,
		Title:     "Новое сообщение",
		Message:   text,
		ExtraData: map[string]string{"booking_id": bookingID.Hex()},
	})
	return msg, nil
}

func (s *chatService) Messages(ctx context.Context, bookingID primitive.ObjectID, actorID string) ([]models.Message, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsParty(actorID) {
		return nil, models.ErrPermission
	}
	return s.chat.GetMessagesByBooking(ctx, bookingID)
}
