package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/slgirgis/horizonscale/internal/contracts"
	"github.com/slgirgis/horizonscale/internal/results"
	"github.com/slgirgis/horizonscale/internal/risk"
	"github.com/slgirgis/horizonscale/internal/tournament"
	"github.com/slgirgis/horizonscale/pkg/logger"
	"github.com/slgirgis/horizonscale/pkg/redis"
)

// ForecastHandler handles forecast read API endpoints
// ⭐ SSOT: 예측 조회 API 핸들러는 이 구조체에서만
type ForecastHandler struct {
	runRepo        *results.RunRepository
	resultRepo     *results.Repository
	tournamentRepo *tournament.Repository
	riskRepo       *risk.Repository
	cache          *redis.Cache
	logger         *logger.Logger
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(
	runRepo *results.RunRepository,
	resultRepo *results.Repository,
	tournamentRepo *tournament.Repository,
	riskRepo *risk.Repository,
	cache *redis.Cache,
	log *logger.Logger,
) *ForecastHandler {
	return &ForecastHandler{
		runRepo:        runRepo,
		resultRepo:     resultRepo,
		tournamentRepo: tournamentRepo,
		riskRepo:       riskRepo,
		cache:          cache,
		logger:         log,
	}
}

// resolveRunID maps the {run_id} path segment to a concrete run.
// "latest" resolves to the most recently finished run.
func (h *ForecastHandler) resolveRunID(r *http.Request) (string, error) {
	runID := mux.Vars(r)["run_id"]
	if runID == "" || runID == "latest" {
		return h.runRepo.LatestRunID(r.Context())
	}
	return runID, nil
}

// ListRuns returns recent run summaries
// GET /api/runs?limit=20
func (h *ForecastHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	summaries, err := h.runRepo.ListSummaries(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  summaries,
		"count": len(summaries),
	})
}

// GetRun returns one run summary
// GET /api/runs/{run_id}
func (h *ForecastHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID, err := h.resolveRunID(r)
	if err != nil {
		respondRunError(w, err)
		return
	}

	var summary contracts.RunSummary
	err = h.cache.GetOrSet(r.Context(), redis.SummaryKey(runID), &summary, redis.TTLDaily,
		func() (interface{}, error) {
			return h.runRepo.GetSummary(r.Context(), runID)
		})
	if err != nil {
		respondRunError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// GetLeaderboard returns the full MAPE leaderboard for a run
// GET /api/runs/{run_id}/leaderboard
func (h *ForecastHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	runID, err := h.resolveRunID(r)
	if err != nil {
		respondRunError(w, err)
		return
	}

	var board []tournament.LeaderboardRow
	err = h.cache.GetOrSet(r.Context(), redis.LeaderboardKey(runID), &board, redis.TTLMedium,
		func() (interface{}, error) {
			return h.tournamentRepo.GetLeaderboard(r.Context(), runID)
		})
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to get leaderboard")
		respondError(w, http.StatusInternalServerError, "failed to get leaderboard")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":      runID,
		"leaderboard": board,
		"count":       len(board),
	})
}

// GetChampions returns the champion assignment per series
// GET /api/runs/{run_id}/champions
func (h *ForecastHandler) GetChampions(w http.ResponseWriter, r *http.Request) {
	runID, err := h.resolveRunID(r)
	if err != nil {
		respondRunError(w, err)
		return
	}

	champions, err := h.tournamentRepo.GetChampions(r.Context(), runID)
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to get champions")
		respondError(w, http.StatusInternalServerError, "failed to get champions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":    runID,
		"champions": champions,
		"count":     len(champions),
	})
}

// GetRisks returns flagged capacity risks, priority entries first
// GET /api/runs/{run_id}/risks
func (h *ForecastHandler) GetRisks(w http.ResponseWriter, r *http.Request) {
	runID, err := h.resolveRunID(r)
	if err != nil {
		respondRunError(w, err)
		return
	}

	var risks []contracts.RiskRecord
	err = h.cache.GetOrSet(r.Context(), redis.RisksKey(runID), &risks, redis.TTLMedium,
		func() (interface{}, error) {
			return h.riskRepo.GetRisks(r.Context(), runID)
		})
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to get risks")
		respondError(w, http.StatusInternalServerError, "failed to get risks")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": runID,
		"risks":  risks,
		"count":  len(risks),
	})
}

// GetSeriesForecast returns the champion horizon for one series
// GET /api/series/{entity_id}/{resource}/forecast?run_id=latest
func (h *ForecastHandler) GetSeriesForecast(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	key := contracts.SeriesKey{
		EntityID: vars["entity_id"],
		Resource: contracts.ResourceType(vars["resource"]),
	}

	valid := false
	for _, rt := range contracts.AllResourceTypes() {
		if key.Resource == rt {
			valid = true
			break
		}
	}
	if !valid {
		respondError(w, http.StatusBadRequest, "resource must be one of cpu, memory, disk, network")
		return
	}

	runID := r.URL.Query().Get("run_id")
	if runID == "" || runID == "latest" {
		var err error
		runID, err = h.runRepo.LatestRunID(r.Context())
		if err != nil {
			respondRunError(w, err)
			return
		}
	}

	var forecast []contracts.ModelResult
	cacheKey := redis.ChampionKey(runID, key.EntityID, string(key.Resource))
	err := h.cache.GetOrSet(r.Context(), cacheKey, &forecast, redis.TTLDaily,
		func() (interface{}, error) {
			return h.resultRepo.GetChampionForecast(r.Context(), runID, key)
		})
	if err != nil {
		h.logger.WithError(err).WithField("series", key.String()).Error("Failed to get champion forecast")
		respondError(w, http.StatusInternalServerError, "failed to get forecast")
		return
	}

	if len(forecast) == 0 {
		respondError(w, http.StatusNotFound, "no champion forecast for series")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":   runID,
		"series":   key,
		"forecast": forecast,
		"count":    len(forecast),
	})
}

// respondRunError maps the run-lookup error space onto HTTP statuses.
func respondRunError(w http.ResponseWriter, err error) {
	if errors.Is(err, results.ErrNoRuns) {
		respondError(w, http.StatusNotFound, "no completed runs")
		return
	}
	respondError(w, http.StatusInternalServerError, "failed to resolve run")
}
