package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/newsroom/internal/apperror"
	"github.com/sakif/newsroom/internal/auth"
	"github.com/sakif/newsroom/internal/model"
)

// PreferenceManager is satisfied by *service.PreferenceService.
type PreferenceManager interface {
	Get(ctx context.Context, userID string) (model.Preferences, error)
	Set(ctx context.Context, userID string, prefs model.Preferences) (model.Preferences, error)
}

// PreferencesResponse wraps a preference set. Message is only set on update.
type PreferencesResponse struct {
	Message     string            `json:"message,omitempty"`
	Preferences model.Preferences `json:"preferences"`
}

type PreferenceHandler struct {
	prefs  PreferenceManager
	logger *slog.Logger
}

func NewPreferenceHandler(prefs PreferenceManager, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{prefs: prefs, logger: logger}
}

// HandleGet returns the caller's preferences, or the defaults if none were saved.
//
// HTTP: GET /api/user/preferences (POST is accepted as an alias)
func (h *PreferenceHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	prefs, err := h.prefs.Get(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, PreferencesResponse{Preferences: prefs})
}

// HandleUpdate replaces the caller's preferences wholesale.
//
// HTTP: PUT /api/user/preferences
// Body: {"categories": [...], "sources": [...], "country": "us"}
func (h *PreferenceHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	var in model.Preferences
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	saved, err := h.prefs.Set(r.Context(), userID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, PreferencesResponse{
		Message:     "Preferences updated successfully",
		Preferences: saved,
	})
}
