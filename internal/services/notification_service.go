package services

import (
	"context"
	"time"

	"groundlink/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationService hands domain events to the external dispatcher.
// Delivery and formatting are out of scope; events are fire-and-forget
// and must never fail the operation that emitted them.
type NotificationService interface {
	EmitBookingEvent(event string, bookingID primitive.ObjectID)
}

type DomainEvent struct {
	Event     string    `json:"event"`
	BookingID string    `json:"booking_id"`
	EmittedAt time.Time `json:"emitted_at"`
}

type notificationService struct {
	cache   CacheService
	channel string
	logger  *logger.Logger
}

func NewNotificationService(cache CacheService, channel string, log *logger.Logger) NotificationService {
	return &notificationService{
		cache:   cache,
		channel: channel,
		logger:  log,
	}
}

func (s *notificationService) EmitBookingEvent(event string, bookingID primitive.ObjectID) {
	payload := DomainEvent{
		Event:     event,
		BookingID: bookingID.Hex(),
		EmittedAt: time.Now().UTC(),
	}

	// Detached from the request context: the operation that emitted the
	// event has already committed.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.cache.Publish(ctx, s.channel, payload); err != nil {
			s.logger.WithError(err).WithBookingID(bookingID).Warnf("failed to publish %s event", event)
		}
	}()
}
