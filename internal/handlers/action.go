package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/clocktower-engine/pkg/engine"
	"github.com/jwebster45206/clocktower-engine/pkg/queue"
)

// SubmitActionResponse acknowledges a queued action. The action has not
// been applied yet: clients learn the outcome over the event stream,
// keyed by request_id.
type SubmitActionResponse struct {
	RequestID string    `json:"request_id"`
	GameID    uuid.UUID `json:"game_id"`
	Status    string    `json:"status"`
	QueuedAt  time.Time `json:"queued_at"`
}

func (h *GameHandler) handleSubmitAction(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	var action engine.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		h.logger.Warn("Invalid JSON in action body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	if action.Type == "" {
		h.writeError(w, http.StatusBadRequest, "type field is required")
		return
	}

	// Reject actions for games that do not exist before queueing; rule
	// checks happen later, on the worker, against live state.
	gs, ok := h.loadGame(w, r, gameID)
	if !ok {
		return
	}

	req := queue.NewRequest(gs.ID, action)
	if err := h.queue.Enqueue(r.Context(), req); err != nil {
		h.logger.Error("Failed to enqueue action", "error", err, "game_id", gameID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to queue action")
		return
	}

	h.broadcaster.PublishActionQueued(r.Context(), gameID.String(), req.RequestID)

	h.logger.Info("Action queued",
		"game_id", gameID.String(),
		"request_id", req.RequestID,
		"action", action.Type)

	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(SubmitActionResponse{
		RequestID: req.RequestID,
		GameID:    gs.ID,
		Status:    "queued",
		QueuedAt:  req.EnqueuedAt,
	}); err != nil {
		h.logger.Error("Failed to encode action response", "error", err)
	}
}
