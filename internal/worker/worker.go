package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/clocktower-engine/internal/services/events"
	"github.com/jwebster45206/clocktower-engine/internal/services/queue"
	"github.com/jwebster45206/clocktower-engine/pkg/ability"
	"github.com/jwebster45206/clocktower-engine/pkg/engine"
	queuePkg "github.com/jwebster45206/clocktower-engine/pkg/queue"
	"github.com/jwebster45206/clocktower-engine/pkg/rules"
	"github.com/jwebster45206/clocktower-engine/pkg/state"
	"github.com/jwebster45206/clocktower-engine/pkg/storage"
)

const (
	workerTimeout = 5 * time.Second
	gameLockTTL   = 30 * time.Second
)

// Worker drains the global action queue and applies each action to its
// game's engine. Actions for the same game are serialized: a per-game
// lock keeps two workers from applying actions concurrently, and within
// one worker each game has a single long-lived engine.
type Worker struct {
	id          string
	queue       *queue.ActionQueue
	store       storage.Storage
	broadcaster *events.Broadcaster
	redisClient *redis.Client
	policy      ability.Policy
	voteWindow  time.Duration
	engines     map[uuid.UUID]*engine.Engine
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a worker. A zero voteWindow disables vote deadlines.
func New(actionQueue *queue.ActionQueue, store storage.Storage, redisClient *redis.Client, policy ability.Policy, voteWindow time.Duration, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:          workerID,
		queue:       actionQueue,
		store:       store,
		broadcaster: events.NewBroadcaster(redisClient, log),
		redisClient: redisClient,
		policy:      policy,
		voteWindow:  voteWindow,
		engines:     make(map[uuid.UUID]*engine.Engine),
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins processing actions from the queue
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNextRequest(); err != nil {
				w.log.Error("Error processing request", "error", err, "worker_id", w.id)
				// Continue processing even on error
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNextRequest pulls the next action from the queue and applies it
func (w *Worker) processNextRequest() error {
	// Block waiting for the next action (timeout to check for shutdown)
	ctx, cancel := context.WithTimeout(w.ctx, workerTimeout)
	defer cancel()

	req, err := w.queue.BlockingDequeue(ctx, workerTimeout)
	if err != nil {
		return fmt.Errorf("failed to dequeue action: %w", err)
	}

	if req == nil {
		// Queue is empty or timeout occurred, which is normal
		return nil
	}

	w.log.Info("Received action from queue",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"action", req.Action.Type,
		"game_id", req.GameID.String(),
	)

	locked, err := w.acquireGameLock(req.GameID)
	if err != nil {
		return fmt.Errorf("failed to acquire game lock: %w", err)
	}
	if !locked {
		// Another worker holds this game. Re-queue at the end and
		// move on.
		w.log.Info("Game already locked, re-queueing action",
			"worker_id", w.id,
			"request_id", req.RequestID,
			"game_id", req.GameID.String(),
		)
		if err := w.queue.Enqueue(w.ctx, req); err != nil {
			return fmt.Errorf("failed to re-queue action: %w", err)
		}
		return nil
	}

	defer w.releaseGameLock(req.GameID)
	return w.processRequest(req)
}

// acquireGameLock attempts to acquire a lock for a game.
// Returns true if the lock was acquired, false if already locked.
func (w *Worker) acquireGameLock(gameID uuid.UUID) (bool, error) {
	lockKey := fmt.Sprintf("game-lock:%s", gameID.String())

	result, err := w.redisClient.SetNX(w.ctx, lockKey, w.id, gameLockTTL).Result()
	if err != nil {
		return false, err
	}

	return result, nil
}

// releaseGameLock releases the lock for a game
func (w *Worker) releaseGameLock(gameID uuid.UUID) {
	lockKey := fmt.Sprintf("game-lock:%s", gameID.String())

	// Only delete if we own the lock
	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	if err := script.Run(w.ctx, w.redisClient, []string{lockKey}, w.id).Err(); err != nil {
		w.log.Error("Failed to release game lock", "error", err, "game_id", gameID.String())
	}
}

// engineFor returns the long-lived engine for a game, hydrating it from
// the stored snapshot on first use.
func (w *Worker) engineFor(ctx context.Context, gameID uuid.UUID) (*engine.Engine, error) {
	if e, ok := w.engines[gameID]; ok {
		return e, nil
	}

	gs, err := w.store.LoadGameState(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load game state: %w", err)
	}
	if gs == nil {
		return nil, fmt.Errorf("game %s not found", gameID)
	}

	e := engine.New(gs, w.policy, w.log.With("game_id", gameID.String())).
		WithNarrator(w.broadcaster).
		WithRecorder(&snapshotRecorder{store: w.store, broadcaster: w.broadcaster, log: w.log})
	// Mid-night snapshots need their night queue rebuilt.
	e.Resume(ctx)

	w.engines[gameID] = e
	return e, nil
}

// processRequest applies a single action to its game's engine
func (w *Worker) processRequest(req *queuePkg.Request) error {
	e, err := w.engineFor(w.ctx, req.GameID)
	if err != nil {
		w.broadcaster.PublishActionFailed(w.ctx, req.GameID.String(), req.RequestID, err)
		return err
	}

	if err := e.HandleAction(w.ctx, req.Action); err != nil {
		var violation *rules.Violation
		if errors.As(err, &violation) {
			// Rule violations are player mistakes, not worker errors.
			w.log.Info("Action rejected",
				"worker_id", w.id,
				"request_id", req.RequestID,
				"action", req.Action.Type,
				"reason", violation.Reason,
			)
			w.broadcaster.PublishActionRejected(w.ctx, req.GameID.String(), req.RequestID, violation.Reason)
			return nil
		}
		w.broadcaster.PublishActionFailed(w.ctx, req.GameID.String(), req.RequestID, err)
		return fmt.Errorf("failed to apply action: %w", err)
	}

	w.broadcaster.PublishActionCompleted(w.ctx, req.GameID.String(), req.RequestID)

	gs := e.State()
	if gs.Phase == state.PhaseGameOver {
		delete(w.engines, req.GameID)
	}

	// A nomination opens voting; schedule the deadline that closes it.
	// The deadline carries the nominee so it can only close this vote.
	if req.Action.Type == engine.ActionNominate && gs.Phase == state.PhaseVoting && w.voteWindow > 0 {
		w.scheduleVoteDeadline(req.GameID, req.Action.Target)
	}

	return nil
}

// scheduleVoteDeadline enqueues a close-voting action after the vote
// window elapses. If this nomination already closed in the meantime, the
// engine rejects the stale close and play continues.
func (w *Worker) scheduleVoteDeadline(gameID, nomineeID uuid.UUID) {
	time.AfterFunc(w.voteWindow, func() {
		select {
		case <-w.ctx.Done():
			return
		default:
		}
		req := queuePkg.NewRequest(gameID, engine.Action{Type: engine.ActionCloseVoting, Target: nomineeID})
		if err := w.queue.Enqueue(w.ctx, req); err != nil {
			w.log.Error("Failed to enqueue vote deadline", "error", err, "game_id", gameID.String())
		}
	})
}

// snapshotRecorder persists engine snapshots and notifies subscribers.
// The engine treats recording as fire-and-forget, so failures are logged
// rather than returned.
type snapshotRecorder struct {
	store       storage.Storage
	broadcaster *events.Broadcaster
	log         *slog.Logger
}

func (r *snapshotRecorder) Record(ctx context.Context, gs *state.GameState) {
	if err := r.store.SaveGameState(ctx, gs.ID, gs); err != nil {
		r.log.Error("Failed to save game state", "error", err, "game_id", gs.ID.String())
		return
	}
	r.broadcaster.PublishStateUpdated(ctx, gs.ID.String(), string(gs.Phase))
}
