package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/clocktower-engine/pkg/storage"
)

// ScriptHandler serves the character scripts available for new games.
type ScriptHandler struct {
	log     *slog.Logger
	storage storage.Storage
}

func NewScriptHandler(log *slog.Logger, storage storage.Storage) *ScriptHandler {
	return &ScriptHandler{
		log:     log,
		storage: storage,
	}
}

func (h *ScriptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ScriptHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/scripts"), "/")

	if path == "" {
		h.handleList(w, r)
		return
	}

	filename := strings.TrimSpace(path)
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") {
		http.Error(w, "Invalid filename", http.StatusBadRequest)
		return
	}
	if !strings.HasSuffix(filename, ".json") {
		filename += ".json"
	}

	script, err := h.storage.GetScript(r.Context(), filename)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "Script not found", http.StatusNotFound)
			return
		}
		h.log.Error("Failed to get script", "error", err, "filename", filename)
		http.Error(w, "Failed to retrieve script", http.StatusInternalServerError)
		return
	}

	data, err := json.Marshal(script)
	if err != nil {
		h.log.Error("Failed to marshal script", "error", err, "filename", filename)
		http.Error(w, "Failed to process script", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *ScriptHandler) handleList(w http.ResponseWriter, r *http.Request) {
	scripts, err := h.storage.ListScripts(r.Context())
	if err != nil {
		h.log.Error("Failed to list scripts", "error", err)
		http.Error(w, "Failed to list scripts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(scripts); err != nil {
		h.log.Error("Failed to encode script list", "error", err)
	}
}
