package handlers

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/clocktower-engine/internal/services/events"
	"github.com/jwebster45206/clocktower-engine/internal/services/queue"
	"github.com/jwebster45206/clocktower-engine/pkg/state"
	"github.com/jwebster45206/clocktower-engine/pkg/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// GameHandler owns the /v1/games routes: game creation, views, deletion
// and action submission.
type GameHandler struct {
	storage     storage.Storage
	queue       *queue.ActionQueue
	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

func NewGameHandler(logger *slog.Logger, storage storage.Storage, actionQueue *queue.ActionQueue, broadcaster *events.Broadcaster) *GameHandler {
	return &GameHandler{
		storage:     storage,
		queue:       actionQueue,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// ServeHTTP handles HTTP requests for game operations
// Routes:
// POST /v1/games                        - Create a new game
// GET /v1/games/{id}                    - Public spectator view
// GET /v1/games/{id}/grimoire           - Full storyteller state
// GET /v1/games/{id}/players/{playerID} - One player's private view
// POST /v1/games/{id}/actions           - Submit an action
// DELETE /v1/games/{id}                 - Delete a game
func (h *GameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/games"), "/")

	if path == "" {
		if r.Method != http.MethodPost {
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. POST creates a game.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	gameID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid game ID", "id", parts[0], "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid game ID format")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handlePublicView(w, r, gameID)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.handleDelete(w, r, gameID)
	case len(parts) == 2 && parts[1] == "grimoire" && r.Method == http.MethodGet:
		h.handleGrimoire(w, r, gameID)
	case len(parts) == 2 && parts[1] == "actions" && r.Method == http.MethodPost:
		h.handleSubmitAction(w, r, gameID)
	case len(parts) == 3 && parts[1] == "players" && r.Method == http.MethodGet:
		h.handlePlayerView(w, r, gameID, parts[2])
	default:
		h.writeError(w, http.StatusNotFound, "Unknown game route")
	}
}

// CreateGameRequest defines the request body for creating a new game
type CreateGameRequest struct {
	Players []string `json:"players"`          // Required: seat order, 5 to 15 names
	Script  string   `json:"script,omitempty"` // Optional: script filename, defaults to trouble_brewing
	Seed    int64    `json:"seed,omitempty"`   // Optional: deterministic setup for rematches
}

func (h *GameHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Creating new game")

	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	scriptFile := req.Script
	if scriptFile == "" {
		scriptFile = "trouble_brewing"
	}
	if !strings.HasSuffix(scriptFile, ".json") {
		scriptFile += ".json"
	}

	script, err := h.storage.GetScript(r.Context(), scriptFile)
	if err != nil {
		h.logger.Warn("Failed to load script", "script", scriptFile, "error", err)
		h.writeError(w, http.StatusBadRequest, "Failed to load script: "+err.Error())
		return
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	gs, err := state.NewGame(req.Players, *script, rand.New(rand.NewSource(seed)))
	if err != nil {
		h.logger.Warn("Failed to create game", "error", err)
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.storage.SaveGameState(r.Context(), gs.ID, gs); err != nil {
		h.logger.Error("Failed to save game state", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to save game")
		return
	}

	h.logger.Info("Game created", "game_id", gs.ID.String(), "players", len(gs.Players), "script", script.Name)

	// The creation response is the storyteller's copy: it carries every
	// hidden assignment and must not be relayed to players.
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(gs); err != nil {
		h.logger.Error("Failed to encode game state", "error", err)
	}
}

func (h *GameHandler) handlePublicView(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	gs, ok := h.loadGame(w, r, gameID)
	if !ok {
		return
	}
	if err := json.NewEncoder(w).Encode(gs.PublicView()); err != nil {
		h.logger.Error("Failed to encode public view", "error", err)
	}
}

func (h *GameHandler) handleGrimoire(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	gs, ok := h.loadGame(w, r, gameID)
	if !ok {
		return
	}
	if err := json.NewEncoder(w).Encode(gs); err != nil {
		h.logger.Error("Failed to encode game state", "error", err)
	}
}

func (h *GameHandler) handlePlayerView(w http.ResponseWriter, r *http.Request, gameID uuid.UUID, playerIDStr string) {
	playerID, err := uuid.Parse(playerIDStr)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid player ID format")
		return
	}

	gs, ok := h.loadGame(w, r, gameID)
	if !ok {
		return
	}

	view := gs.PrivateView(playerID)
	if view == nil {
		h.writeError(w, http.StatusNotFound, "Player not found in this game")
		return
	}
	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.logger.Error("Failed to encode player view", "error", err)
	}
}

func (h *GameHandler) handleDelete(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	if err := h.storage.DeleteGameState(r.Context(), gameID); err != nil {
		h.logger.Error("Failed to delete game state", "error", err, "game_id", gameID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to delete game")
		return
	}
	h.logger.Info("Game deleted", "game_id", gameID.String())
	w.WriteHeader(http.StatusNoContent)
}

// loadGame fetches a game or writes the appropriate error response.
func (h *GameHandler) loadGame(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) (*state.GameState, bool) {
	gs, err := h.storage.LoadGameState(r.Context(), gameID)
	if err != nil {
		h.logger.Error("Failed to load game state", "error", err, "game_id", gameID.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to load game")
		return nil, false
	}
	if gs == nil {
		h.writeError(w, http.StatusNotFound, "Game not found")
		return nil, false
	}
	return gs, true
}

func (h *GameHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}
