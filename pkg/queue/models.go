package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/clocktower-engine/pkg/engine"
)

// Request is one queued game action. Every mutation of a game flows
// through the queue so a single worker applies them in order.
type Request struct {
	RequestID  string        `json:"request_id"`
	GameID     uuid.UUID     `json:"game_id"`
	Action     engine.Action `json:"action"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
}

// NewRequest wraps an action for the queue, stamping ID and time.
func NewRequest(gameID uuid.UUID, action engine.Action) *Request {
	return &Request{
		RequestID:  uuid.New().String(),
		GameID:     gameID,
		Action:     action,
		EnqueuedAt: time.Now(),
	}
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
