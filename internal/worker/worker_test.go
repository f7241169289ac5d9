package worker

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/jwebster45206/clocktower-engine/internal/services/queue"
	"github.com/jwebster45206/clocktower-engine/pkg/ability"
	"github.com/jwebster45206/clocktower-engine/pkg/character"
	"github.com/jwebster45206/clocktower-engine/pkg/engine"
	queuePkg "github.com/jwebster45206/clocktower-engine/pkg/queue"
	"github.com/jwebster45206/clocktower-engine/pkg/state"
	"github.com/jwebster45206/clocktower-engine/pkg/storage"
)

func setupTestWorker(t *testing.T) (*Worker, *storage.MockStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	client, err := queue.NewClient("redis://"+mr.Addr(), logger)
	if err != nil {
		t.Fatalf("Failed to create queue client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	store := storage.NewMockStorage()
	w := New(queue.NewActionQueue(client), store, client.GetRedisClient(), ability.Truthful{}, 0, logger, "test-worker")
	return w, store, mr
}

func testGameState(t *testing.T) *state.GameState {
	t.Helper()
	names := []string{"ana", "ben", "cho", "dee", "eli", "fin", "gus"}
	gs, err := state.NewGame(names, character.TroubleBrewing(), rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	return gs
}

func TestProcessRequest_AppliesAction(t *testing.T) {
	w, store, _ := setupTestWorker(t)

	gs := testGameState(t)
	if err := store.SaveGameState(context.Background(), gs.ID, gs); err != nil {
		t.Fatal(err)
	}

	req := queuePkg.NewRequest(gs.ID, engine.Action{Type: engine.ActionStartGame})
	if err := w.processRequest(req); err != nil {
		t.Fatalf("processRequest failed: %v", err)
	}

	saved, err := store.LoadGameState(context.Background(), gs.ID)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Phase != state.PhaseFirstNight {
		t.Errorf("Expected phase %s after start, got %s", state.PhaseFirstNight, saved.Phase)
	}
	if saved.NightNumber != 1 {
		t.Errorf("Expected night 1, got %d", saved.NightNumber)
	}
}

func TestProcessRequest_RuleViolationIsNotAWorkerError(t *testing.T) {
	w, store, _ := setupTestWorker(t)

	gs := testGameState(t)
	if err := store.SaveGameState(context.Background(), gs.ID, gs); err != nil {
		t.Fatal(err)
	}

	// Voting before the game starts breaks a rule; the worker reports it
	// to the player and keeps running.
	req := queuePkg.NewRequest(gs.ID, engine.Action{
		Type:   engine.ActionVote,
		Player: gs.Players[0].ID,
		Vote:   true,
	})
	if err := w.processRequest(req); err != nil {
		t.Fatalf("Expected nil error for rule violation, got %v", err)
	}

	saved, err := store.LoadGameState(context.Background(), gs.ID)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Phase != state.PhaseSetup {
		t.Errorf("Rejected action mutated the game: phase %s", saved.Phase)
	}
}

func TestProcessRequest_UnknownGame(t *testing.T) {
	w, _, _ := setupTestWorker(t)

	req := queuePkg.NewRequest(uuid.New(), engine.Action{Type: engine.ActionStartGame})
	if err := w.processRequest(req); err == nil {
		t.Error("Expected error for unknown game")
	}
}

func TestProcessRequest_ReusesEngine(t *testing.T) {
	w, store, _ := setupTestWorker(t)

	gs := testGameState(t)
	if err := store.SaveGameState(context.Background(), gs.ID, gs); err != nil {
		t.Fatal(err)
	}

	req := queuePkg.NewRequest(gs.ID, engine.Action{Type: engine.ActionStartGame})
	if err := w.processRequest(req); err != nil {
		t.Fatal(err)
	}
	if _, ok := w.engines[gs.ID]; !ok {
		t.Fatal("Expected engine cached after first action")
	}

	// A repeated start is rejected against the cached engine, not a
	// fresh hydration.
	if err := w.processRequest(queuePkg.NewRequest(gs.ID, engine.Action{Type: engine.ActionStartGame})); err != nil {
		t.Fatalf("Expected rejection, not worker error: %v", err)
	}
}

func TestGameLock(t *testing.T) {
	w, _, _ := setupTestWorker(t)
	gameID := uuid.New()

	locked, err := w.acquireGameLock(gameID)
	if err != nil {
		t.Fatal(err)
	}
	if !locked {
		t.Fatal("Expected to acquire lock")
	}

	again, err := w.acquireGameLock(gameID)
	if err != nil {
		t.Fatal(err)
	}
	if again {
		t.Error("Expected second acquire to fail while held")
	}

	w.releaseGameLock(gameID)

	locked, err = w.acquireGameLock(gameID)
	if err != nil {
		t.Fatal(err)
	}
	if !locked {
		t.Error("Expected to re-acquire after release")
	}
}
