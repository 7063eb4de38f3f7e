package handler

import (
	"net/http"

	"github.com/vendora/vendora-backend/internal/inventory/service"
	"github.com/vendora/vendora-backend/pkg/httputil"
	"github.com/vendora/vendora-backend/pkg/logger"
)

// SweepHandler exposes the manual sweep trigger
type SweepHandler struct {
	scheduler *service.SweepScheduler
	logger    *logger.Logger
}

// NewSweepHandler creates a new sweep handler
func NewSweepHandler(scheduler *service.SweepScheduler, log *logger.Logger) *SweepHandler {
	return &SweepHandler{
		scheduler: scheduler,
		logger:    log,
	}
}

// Trigger runs the expiry sweep immediately and returns its summary. The same
// job the daily schedule runs, for operational testing.
func (h *SweepHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	summary, err := h.scheduler.RunNow(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}
