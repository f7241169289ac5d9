package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwebster45206/clocktower-engine/pkg/character"
	"github.com/jwebster45206/clocktower-engine/pkg/state"
)

// Storage defines a unified interface for all storage operations:
// game snapshot persistence (Redis) with script loading (filesystem).
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Game snapshot operations (Redis-backed)
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteGameState(ctx context.Context, id uuid.UUID) error

	// Script operations (filesystem-backed)
	ListScripts(ctx context.Context) (map[string]string, error)
	GetScript(ctx context.Context, filename string) (*character.Script, error)
}
