package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/slgirgis/horizonscale/internal/api"
	"github.com/slgirgis/horizonscale/internal/api/handlers"
	"github.com/slgirgis/horizonscale/internal/api/stream"
	"github.com/slgirgis/horizonscale/internal/results"
	"github.com/slgirgis/horizonscale/internal/risk"
	"github.com/slgirgis/horizonscale/internal/tournament"
	"github.com/slgirgis/horizonscale/pkg/config"
	"github.com/slgirgis/horizonscale/pkg/database"
	"github.com/slgirgis/horizonscale/pkg/logger"
	"github.com/slgirgis/horizonscale/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 예측/리더보드/위험 조회 엔드포인트 제공
- run 트리거와 진행 스트림(websocket) 제공

Endpoints:
  GET  /health                                    - Health check
  GET  /health/ready                              - DB/cache readiness
  GET  /api/runs                                  - 최근 run 목록
  POST /api/runs                                  - 예측 run 트리거
  GET  /api/runs/{run_id}                         - run 요약 (latest 지원)
  GET  /api/runs/{run_id}/leaderboard             - MAPE 리더보드
  GET  /api/runs/{run_id}/champions               - 챔피언 배정
  GET  /api/runs/{run_id}/risks                   - 용량 위험
  GET  /api/series/{entity}/{resource}/forecast   - 챔피언 호라이즌
  WS   /ws/progress                               - run 진행 스트림

Example:
  go run ./cmd/horizon api
  go run ./cmd/horizon api --port 8090`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT env)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== HorizonScale API Server ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	profile, err := loadProfile()
	if err != nil {
		return err
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 4. Connect to redis (optional, cache degrades to passthrough)
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	cache := redis.NewCache(redisClient, "horizonscale")

	// 5. Create repositories
	runRepo := results.NewRunRepository(db.Pool)
	resultRepo := results.NewRepository(db, log)
	tournamentRepo := tournament.NewRepository(db.Pool)
	riskRepo := risk.NewRepository(db.Pool)

	// 6. Create progress hub and handlers
	hub := stream.NewHub(log)
	forecastHandler := handlers.NewForecastHandler(runRepo, resultRepo, tournamentRepo, riskRepo, cache, log)
	runHandler := handlers.NewRunHandler(db, profile, hub, log)
	healthHandler := handlers.NewHealthHandler(db, redisClient, hub, log)

	// 7. Create router and server
	router := api.NewRouter(forecastHandler, runHandler, healthHandler, hub, log)
	server := api.NewServer(cfg.Port, log, router)

	// 8. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
