package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

const (
	BookingEventsChannel = "booking_events"
	ReviewEventsChannel  = "review_events"
	ChatEventsChannel    = "chat_events"
)

const (
	EventJobCompleted   = "JOB_COMPLETED"
	EventReviewReceived = "REVIEW_RECEIVED"
	EventNewMessage     = "NEW_MESSAGE"
)

// EventPayload is the envelope consumed by the notification service.
type EventPayload struct {
	UserID    string            `json:"user_id"`
	Role      string            `json:"role"`
	EventType string            `json:"event_type"`
	Title     string            `json:"title,omitempty"`
	Message   string            `json:"message"`
	ExtraData map[string]string `json:"extra_data,omitempty"`
}

// EventPublisher delivers domain events to the notification service.
// Publishing is fire-and-forget: failures are logged and never reach the
// operation that triggered the event.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, event EventPayload)
}

type redisEventPublisher struct {
	rdb *redis.Client
}

func NewEventPublisher(rdb *redis.Client) EventPublisher {
	return &redisEventPublisher{rdb: rdb}
}

func (p *redisEventPublisher) Publish(ctx context.Context, channel string, event EventPayload) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[EVENTS] Failed to marshal event %s: %v", event.EventType, err)
		return
	}
	if err := p.rdb.Publish(ctx, channel, data).Err(); err != nil {
		log.Printf("[EVENTS] Failed to publish %s to %s: %v", event.EventType, channel, err)
	}
}
