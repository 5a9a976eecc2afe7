package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Harshitk-cp/jungclaude/internal/service"
)

// Dispatcher starts a named job in the background.
type Dispatcher interface {
	Dispatch(name string) error
}

// TriggerHandler exposes the admin "run now" buttons. Runs are dispatched in
// the background; a run already in flight for the same job is joined.
type TriggerHandler struct {
	dispatcher Dispatcher
}

func NewTriggerHandler(d Dispatcher) *TriggerHandler {
	return &TriggerHandler{dispatcher: d}
}

func (h *TriggerHandler) Rumination(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, service.JobRumination, "Rumination cycle started")
}

func (h *TriggerHandler) IdentityConsolidation(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, service.JobConsolidation, "Identity consolidation started")
}

func (h *TriggerHandler) IdentityBridge(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, service.JobBridge, "Identity bridge sync started")
}

// Consolidate runs the full identity cycle: consolidation followed by the bridge.
func (h *TriggerHandler) Consolidate(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, service.JobIdentity, "Agent identity consolidation started")
}

func (h *TriggerHandler) dispatch(w http.ResponseWriter, job, message string) {
	if err := h.dispatcher.Dispatch(job); err != nil {
		if errors.Is(err, service.ErrUnknownJob) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to start %s: %v", job, err))
		return
	}
	writeSuccess(w, http.StatusAccepted, message)
}
