package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/drksurvraze/orderbot/internal/metrics"
	"github.com/drksurvraze/orderbot/internal/middlewares/logger"
	"github.com/drksurvraze/orderbot/internal/store"
)

// OpsHandler serves the read-only monitoring endpoints.
type OpsHandler struct {
	store     *store.Store
	collector *metrics.Collector
	startedAt time.Time
}

func NewOpsHandler(st *store.Store, collector *metrics.Collector, startedAt time.Time) *OpsHandler {
	return &OpsHandler{store: st, collector: collector, startedAt: startedAt}
}

func (h *OpsHandler) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (h *OpsHandler) Orders(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.store.ListAll()); err != nil {
		logger.Log.Error("orders encoding failed", zap.Error(err))
		http.Error(w, "encoding failed", http.StatusInternalServerError)
	}
}

type statsResponse struct {
	Pending       int              `json:"pending"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Counters      metrics.Snapshot `json:"counters"`
}

func (h *OpsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Pending:       h.store.Len(),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Counters:      h.collector.Snapshot(),
	}

	w.Header().Add("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Log.Error("stats encoding failed", zap.Error(err))
		http.Error(w, "encoding failed", http.StatusInternalServerError)
	}
}
