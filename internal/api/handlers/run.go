package handlers

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/slgirgis/horizonscale/internal/api/stream"
	"github.com/slgirgis/horizonscale/internal/catalog"
	"github.com/slgirgis/horizonscale/internal/engine"
	"github.com/slgirgis/horizonscale/internal/engineconfig"
	"github.com/slgirgis/horizonscale/internal/models"
	"github.com/slgirgis/horizonscale/internal/results"
	"github.com/slgirgis/horizonscale/internal/risk"
	"github.com/slgirgis/horizonscale/internal/tournament"
	"github.com/slgirgis/horizonscale/pkg/database"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

// RunHandler triggers forecast runs over the API
// ⭐ SSOT: API 트리거 run은 이 핸들러에서만 시작
type RunHandler struct {
	db     *database.DB
	cfg    *engineconfig.Config
	hub    *stream.Hub
	logger *logger.Logger

	// running guards against overlapping runs (single-flight)
	running atomic.Bool
}

// NewRunHandler creates a new run handler
func NewRunHandler(db *database.DB, cfg *engineconfig.Config, hub *stream.Hub, log *logger.Logger) *RunHandler {
	return &RunHandler{
		db:     db,
		cfg:    cfg,
		hub:    hub,
		logger: log,
	}
}

// Trigger starts a forecast run in the background
// POST /api/runs
func (h *RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if !h.running.CompareAndSwap(false, true) {
		respondError(w, http.StatusConflict, "a forecast run is already in progress")
		return
	}

	go h.execute()

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": "forecast run started, subscribe to /ws/progress for updates",
	})
}

func (h *RunHandler) execute() {
	defer h.running.Store(false)

	// API 요청 컨텍스트와 분리: 클라이언트가 끊겨도 run은 계속
	ctx := context.Background()

	stores := engine.Stores{
		Catalog:    catalog.NewRepository(h.db.Pool, h.logger),
		Results:    results.NewRepository(h.db, h.logger),
		Tournament: tournament.NewRepository(h.db.Pool),
		Risks:      risk.NewRepository(h.db.Pool),
		Runs:       results.NewRunRepository(h.db.Pool),
	}

	orch := engine.NewOrchestrator(h.cfg, stores, models.DefaultRegistry(), h.logger)
	orch.OnProgress = func(done, total int) {
		h.hub.Broadcast(stream.Event{Type: "progress", Done: done, Total: total})
	}

	summary, err := orch.Run(ctx)
	if err != nil {
		h.logger.WithError(err).Error("API-triggered forecast run failed")
		h.hub.Broadcast(stream.Event{Type: "failed", Payload: err.Error()})
		return
	}

	h.hub.Broadcast(stream.Event{Type: "finished", RunID: summary.RunID, Payload: summary})
}
