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
	EventTypePhaseChanged    EventType = "session.phase_changed"
	EventTypeGarlicCollected EventType = "session.garlic_collected"
	EventTypeEncounter       EventType = "session.encounter"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// Publisher sends session events to listeners.
type Publisher interface {
	PublishPhaseChanged(ctx context.Context, sessionID uuid.UUID, from, to string) error
	PublishGarlicCollected(ctx context.Context, sessionID uuid.UUID, garlics, stage int) error
	PublishEncounter(ctx context.Context, sessionID uuid.UUID, quizIndex int, npc string) error
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// Ensure Broadcaster implements Publisher interface
var _ Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Channel is the pub/sub channel carrying events for one session.
func Channel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session-events:%s", sessionID.String())
}

func (b *Broadcaster) PublishPhaseChanged(ctx context.Context, sessionID uuid.UUID, from, to string) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypePhaseChanged,
		Data: map[string]any{
			"from": from,
			"to":   to,
		},
	})
}

func (b *Broadcaster) PublishGarlicCollected(ctx context.Context, sessionID uuid.UUID, garlics, stage int) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeGarlicCollected,
		Data: map[string]any{
			"garlics": garlics,
			"stage":   stage,
		},
	})
}

func (b *Broadcaster) PublishEncounter(ctx context.Context, sessionID uuid.UUID, quizIndex int, npc string) error {
	return b.publish(ctx, sessionID, Event{
		Type: EventTypeEncounter,
		Data: map[string]any{
			"quiz_index": quizIndex,
			"npc":        npc,
		},
	})
}

func (b *Broadcaster) publish(ctx context.Context, sessionID uuid.UUID, event Event) error {
	event.SessionID = sessionID.String()
	channel := Channel(sessionID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type)
	return nil
}
