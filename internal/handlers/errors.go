package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/scene-engine/internal/play"
	"github.com/jwebster45206/scene-engine/pkg/api"
	"github.com/jwebster45206/scene-engine/pkg/engine"
	"github.com/jwebster45206/scene-engine/pkg/state"
	"github.com/jwebster45206/scene-engine/pkg/storage"
)

// classify maps domain errors to an HTTP status and a stable kind string.
func classify(err error) (int, string) {
	var (
		unknownItem    *engine.UnknownPlacedItemError
		unknownNPC     *engine.UnknownPlacedNPCError
		unknownTarget  *engine.UnknownTargetNodeError
		unsupported    *engine.UnsupportedEffectError
		unknownHotspot *play.UnknownHotspotError
	)
	switch {
	case errors.As(err, &unknownItem):
		return http.StatusUnprocessableEntity, "unknown_placed_item"
	case errors.As(err, &unknownNPC):
		return http.StatusUnprocessableEntity, "unknown_placed_npc"
	case errors.As(err, &unknownTarget):
		return http.StatusUnprocessableEntity, "unknown_target_node"
	case errors.As(err, &unknownHotspot):
		return http.StatusUnprocessableEntity, "unknown_hotspot"
	case errors.As(err, &unsupported):
		return http.StatusNotImplemented, "unsupported_effect"
	case errors.Is(err, play.ErrSessionEnded):
		return http.StatusConflict, "session_ended"
	case errors.Is(err, storage.ErrSessionBusy):
		return http.StatusConflict, "session_busy"
	case state.IsFatal(err):
		return http.StatusConflict, "corrupted_project"
	case errors.Is(err, storage.ErrProjectNotFound):
		return http.StatusNotFound, "project_not_found"
	}
	return http.StatusInternalServerError, "internal"
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, api.ErrorResponse{Error: msg})
}

// writeDomainError reports err with the status classify picks. Internal
// errors are logged and hidden from the client.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, kind := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
		msg = "Internal server error"
	}
	writeJSON(w, logger, status, api.ErrorResponse{Error: msg, Kind: kind})
}
