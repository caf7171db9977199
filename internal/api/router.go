package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/slgirgis/horizonscale/internal/api/handlers"
	"github.com/slgirgis/horizonscale/internal/api/stream"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(
	forecastHandler *handlers.ForecastHandler,
	runHandler *handlers.RunHandler,
	healthHandler *handlers.HealthHandler,
	hub *stream.Hub,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health checks
	r.HandleFunc("/health", healthHandler.Liveness).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.Readiness).Methods("GET")

	// Run progress stream
	r.HandleFunc("/ws/progress", hub.ServeWS)

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Run endpoints
	api.HandleFunc("/runs", forecastHandler.ListRuns).Methods("GET")
	api.HandleFunc("/runs", runHandler.Trigger).Methods("POST")
	api.HandleFunc("/runs/{run_id}", forecastHandler.GetRun).Methods("GET")
	api.HandleFunc("/runs/{run_id}/leaderboard", forecastHandler.GetLeaderboard).Methods("GET")
	api.HandleFunc("/runs/{run_id}/champions", forecastHandler.GetChampions).Methods("GET")
	api.HandleFunc("/runs/{run_id}/risks", forecastHandler.GetRisks).Methods("GET")

	// Series endpoints
	api.HandleFunc("/series/{entity_id}/{resource}/forecast", forecastHandler.GetSeriesForecast).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	api.Use(rateLimitMiddleware(log))

	return r
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware bounds API request throughput.
// 대시보드 폴링 폭주로부터 DB를 보호 (버스트 허용)
func rateLimitMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	limiter := rate.NewLimiter(rate.Limit(50), 100)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.WithField("path", r.URL.Path).Warn("Rate limit exceeded")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
