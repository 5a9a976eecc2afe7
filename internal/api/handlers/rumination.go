package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
	"github.com/Harshitk-cp/jungclaude/internal/service"
)

type StatsProvider interface {
	Stats(ctx context.Context, userID string) (*domain.RuminationStats, error)
	AdminUserID() string
}

type RuminationHandler struct {
	stats StatsProvider
}

func NewRuminationHandler(stats StatsProvider) *RuminationHandler {
	return &RuminationHandler{stats: stats}
}

// Stats reports pipeline counts. user_id defaults to the admin.
func (h *RuminationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = h.stats.AdminUserID()
	}

	stats, err := h.stats.Stats(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotAdmin) {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load rumination stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
