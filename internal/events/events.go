// Package events publishes booking lifecycle changes to per-organization Redis channels.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/resourcebook/backend/internal/models"
)

const (
	channelPrefix  = "bookings:org:"
	publishTimeout = 5 * time.Second
)

// Type names a booking lifecycle change.
type Type string

const (
	BookingCreated   Type = "booking.created"
	BookingApproved  Type = "booking.approved"
	BookingStarted   Type = "booking.started"
	BookingCompleted Type = "booking.completed"
	BookingCancelled Type = "booking.cancelled"
	BookingDeleted   Type = "booking.deleted"
)

// Event is the message published after a booking change commits.
type Event struct {
	ID             string               `json:"id"`
	Type           Type                 `json:"type"`
	BookingID      int64                `json:"booking_id"`
	OrganizationID int64                `json:"organization_id"`
	UserID         int64                `json:"user_id"`
	ResourceID     int64                `json:"resource_id"`
	Status         models.BookingStatus `json:"status"`
	At             time.Time            `json:"at"`
}

// NewEvent builds an event describing b after a change of type t.
func NewEvent(t Type, b *models.Booking) Event {
	return Event{
		ID:             uuid.New().String(),
		Type:           t,
		BookingID:      b.ID,
		OrganizationID: b.OrganizationID,
		UserID:         b.UserID,
		ResourceID:     b.ResourceID,
		Status:         b.Status,
		At:             time.Now().UTC(),
	}
}

// Channel returns the Redis channel for an organization.
func Channel(orgID int64) string {
	return channelPrefix + strconv.FormatInt(orgID, 10)
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// RedisPubSub publishes and subscribes through Redis pub/sub.
type RedisPubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPubSub creates a Redis pub/sub bridge for booking events.
func NewRedisPubSub(client *redis.Client, logger *zap.Logger) *RedisPubSub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPubSub{client: client, logger: logger}
}

// Publish sends e to its organization's channel.
func (r *RedisPubSub) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return r.client.Publish(ctx, Channel(e.OrganizationID), body).Err()
}

// Subscribe calls handler for each event on the organization's channel until cancel is called.
func (r *RedisPubSub) Subscribe(orgID int64, handler func(e Event)) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, Channel(orgID))
	if _, err = pubsub.Receive(ctx); err != nil {
		cancelCtx()
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					r.logger.Warn("drop malformed booking event", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				handler(e)
			}
		}
	}()
	return cancelCtx, nil
}
