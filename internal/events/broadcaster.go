// Package events fans session events out over Redis Pub/Sub so any API
// instance can stream them to connected players.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeDisplayText    EventType = "display.text"
	EventTypeDisplayMessage EventType = "display.message"
	EventTypeSessionUpdated EventType = "session.updated"
	EventTypeSessionEnded   EventType = "session.ended"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Channel returns the Pub/Sub channel for a session.
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for websocket distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishText publishes a display.text event
func (b *Broadcaster) PublishText(ctx context.Context, sessionID uuid.UUID, text string) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeDisplayText,
		Data: map[string]any{"text": text},
	})
}

// PublishMessage publishes a display.message event
func (b *Broadcaster) PublishMessage(ctx context.Context, sessionID uuid.UUID, text string) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeDisplayMessage,
		Data: map[string]any{"text": text},
	})
}

// PublishSessionUpdated publishes a session.updated event
func (b *Broadcaster) PublishSessionUpdated(ctx context.Context, sessionID uuid.UUID, nodeID string, inventory []string) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeSessionUpdated,
		Data: map[string]any{
			"current_node_id": nodeID,
			"inventory":       inventory,
		},
	})
}

// PublishSessionEnded publishes a session.ended event
func (b *Broadcaster) PublishSessionEnded(ctx context.Context, sessionID uuid.UUID, nodeID string) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeSessionEnded,
		Data: map[string]any{"current_node_id": nodeID},
	})
}

func (b *Broadcaster) publish(ctx context.Context, sessionID uuid.UUID, event Event) error {
	channel := Channel(sessionID)
	event.SessionID = sessionID.String()

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published", "channel", channel, "event_type", event.Type)
	return nil
}

// Subscription delivers decoded events for one session until closed.
type Subscription struct {
	pubsub *redis.PubSub
	events chan Event
}

// Events returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close stops delivery.
func (s *Subscription) Close() error {
	return s.pubsub.Close()
}

// Subscribe listens to a session's channel. The subscription is confirmed
// before Subscribe returns, so events published afterwards are not missed.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID uuid.UUID) (*Subscription, error) {
	channel := Channel(sessionID)
	pubsub := b.redisClient.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	sub := &Subscription{pubsub: pubsub, events: make(chan Event)}
	go func() {
		defer close(sub.events)
		for msg := range pubsub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("Dropping malformed event", "channel", channel, "error", err)
				continue
			}
			select {
			case sub.events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub, nil
}
