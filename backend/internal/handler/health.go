package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/itchan-dev/anniv/shared/logger"
	"github.com/itchan-dev/anniv/shared/utils"
)

const readyTimeout = 2 * time.Second

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// Health is the liveness probe, it never touches dependencies.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// Ready reports 503 while the database does not answer a ping.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.health.Ping(ctx); err != nil {
		logger.Log.Warn("readiness check failed", "error", err)
		utils.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Database: "down"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "up"})
}
