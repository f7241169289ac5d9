package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Event types published to game channels.
const (
	EventActionQueued    = "action.queued"
	EventActionCompleted = "action.completed"
	EventActionRejected  = "action.rejected"
	EventActionFailed    = "action.failed"
	EventNarration       = "narration"
	EventStateUpdated    = "game.state_updated"
)

// Event is a message published to a game's event channel.
type Event struct {
	Type      string         `json:"type"`
	RequestID string         `json:"request_id,omitempty"`
	GameID    string         `json:"game_id"`
	Data      map[string]any `json:"data,omitempty"`
}

// Broadcaster publishes game events over Redis pub/sub. Each game gets
// its own channel; spectator and player clients subscribe via the SSE
// endpoint.
type Broadcaster struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewBroadcaster(rdb *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		rdb:    rdb,
		logger: logger,
	}
}

// ChannelForGame returns the pub/sub channel name for a game.
func ChannelForGame(gameID string) string {
	return "game-events:" + gameID
}

// Publish sends an event to the game's channel. Publish failures are
// logged and swallowed: event delivery is best-effort and must never
// block game progress.
func (b *Broadcaster) Publish(ctx context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event",
			"error", err,
			"type", event.Type,
			"game_id", event.GameID)
		return
	}

	channel := ChannelForGame(event.GameID)
	if err := b.rdb.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event",
			"error", err,
			"channel", channel,
			"type", event.Type)
	}
}

// Announce publishes a public narration line for the game. This is the
// sink the engine speaks through: death reveals, vote tallies, phase
// announcements.
func (b *Broadcaster) Announce(ctx context.Context, gameID string, message string) {
	b.Publish(ctx, Event{
		Type:   EventNarration,
		GameID: gameID,
		Data: map[string]any{
			"message": message,
		},
	})
}

// PublishActionQueued tells subscribers an action was accepted into the
// queue.
func (b *Broadcaster) PublishActionQueued(ctx context.Context, gameID, requestID string) {
	b.Publish(ctx, Event{
		Type:      EventActionQueued,
		RequestID: requestID,
		GameID:    gameID,
	})
}

// PublishActionCompleted tells subscribers an action was applied.
func (b *Broadcaster) PublishActionCompleted(ctx context.Context, gameID, requestID string) {
	b.Publish(ctx, Event{
		Type:      EventActionCompleted,
		RequestID: requestID,
		GameID:    gameID,
	})
}

// PublishActionRejected tells subscribers an action broke a game rule.
// The reason is the player-facing rule violation text.
func (b *Broadcaster) PublishActionRejected(ctx context.Context, gameID, requestID, reason string) {
	b.Publish(ctx, Event{
		Type:      EventActionRejected,
		RequestID: requestID,
		GameID:    gameID,
		Data: map[string]any{
			"reason": reason,
		},
	})
}

// PublishActionFailed reports an internal error while applying an action.
func (b *Broadcaster) PublishActionFailed(ctx context.Context, gameID, requestID string, err error) {
	b.Publish(ctx, Event{
		Type:      EventActionFailed,
		RequestID: requestID,
		GameID:    gameID,
		Data: map[string]any{
			"error": fmt.Sprintf("%v", err),
		},
	})
}

// PublishStateUpdated tells subscribers the game snapshot changed and
// they should refetch their view.
func (b *Broadcaster) PublishStateUpdated(ctx context.Context, gameID string, phase string) {
	b.Publish(ctx, Event{
		Type:   EventStateUpdated,
		GameID: gameID,
		Data: map[string]any{
			"phase": phase,
		},
	})
}
