package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/clocktower-engine/pkg/character"
	"github.com/jwebster45206/clocktower-engine/pkg/state"
)

// MockStorage is an in-memory implementation of Storage for testing
type MockStorage struct {
	mu         sync.RWMutex
	gamestates map[uuid.UUID]*state.GameState
	scripts    map[string]*character.Script
	pingError  error
	saveError  error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage with the base script loaded
func NewMockStorage() *MockStorage {
	tb := character.TroubleBrewing()
	return &MockStorage{
		gamestates: make(map[uuid.UUID]*state.GameState),
		scripts: map[string]*character.Script{
			"trouble_brewing.json": &tb,
		},
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on save with the given error
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveGameState mocks saving a game snapshot
func (m *MockStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	if gs == nil {
		return errors.New("gamestate cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.gamestates[id] = gs
	return nil
}

// LoadGameState mocks loading a game snapshot. Returns nil for not found.
func (m *MockStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gamestates[id], nil
}

// DeleteGameState mocks deleting a game snapshot
func (m *MockStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.gamestates, id)
	return nil
}

// AddScript registers a script under a filename
func (m *MockStorage) AddScript(filename string, s *character.Script) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[filename] = s
}

// ListScripts mocks listing available scripts
func (m *MockStorage) ListScripts(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.scripts))
	for filename, s := range m.scripts {
		out[s.Name] = filename
	}
	return out, nil
}

// GetScript mocks loading a script by filename
func (m *MockStorage) GetScript(ctx context.Context, filename string) (*character.Script, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scripts[filename]
	if !ok {
		return nil, fmt.Errorf("script not found: %s", filename)
	}
	return s, nil
}
