package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

type IdentityHandler struct {
	agentInstance string
	narrative     domain.NarrativeStore
}

func NewIdentityHandler(agentInstance string, narrative domain.NarrativeStore) *IdentityHandler {
	return &IdentityHandler{agentInstance: agentInstance, narrative: narrative}
}

type chaptersResponse struct {
	AgentInstance string                    `json:"agent_instance"`
	Chapters      []domain.NarrativeChapter `json:"chapters"`
}

// Chapters lists the agent's narrative chapters in order.
func (h *IdentityHandler) Chapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := h.narrative.List(r.Context(), h.agentInstance)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list chapters")
		return
	}
	if chapters == nil {
		chapters = []domain.NarrativeChapter{}
	}

	writeJSON(w, http.StatusOK, chaptersResponse{AgentInstance: h.agentInstance, Chapters: chapters})
}
