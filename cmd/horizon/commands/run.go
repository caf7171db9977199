package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/slgirgis/horizonscale/internal/engine"
	"github.com/slgirgis/horizonscale/internal/models"
	"github.com/slgirgis/horizonscale/pkg/config"
	"github.com/slgirgis/horizonscale/pkg/database"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "예측 run 1회 실행",
	Long: `전체 예측 파이프라인을 한 번 실행합니다.

이 명령어는:
- 카탈로그에서 예측 가능 시리즈 열거
- (시리즈 × 모델 계열) 작업 단위로 분할 후 병렬 적합
- 백테스트 MAPE 토너먼트로 시리즈별 챔피언 선정
- 챔피언 호라이즌에 대한 용량 위험 탐지
- run 요약 저장

Example:
  go run ./cmd/horizon run
  go run ./cmd/horizon run --workers 8
  go run ./cmd/horizon run --profile profiles/fleet.yaml`,
	RunE: runForecast,
}

var runWorkers int

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "worker pool size (0 = all CPUs)")
}

func runForecast(cmd *cobra.Command, args []string) error {
	fmt.Println("=== HorizonScale Forecast Run ===")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	profile, err := loadProfile()
	if err != nil {
		return err
	}
	if runWorkers > 0 {
		profile.Execution.Workers = runWorkers
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

	// 4. Run the pipeline (Ctrl+C aborts cleanly)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := engine.NewOrchestrator(profile, buildStores(db, log), models.DefaultRegistry(), log)
	orch.OnProgress = func(done, total int) {
		if done%100 == 0 || done == total {
			fmt.Printf("  progress: %d/%d units\n", done, total)
		}
	}

	summary, err := orch.Run(ctx)
	if err != nil {
		return fmt.Errorf("forecast run: %w", err)
	}

	// 5. Print outcome
	fmt.Printf("\n✅ Run %s finished in %s\n", summary.RunID, summary.FinishedAt.Sub(summary.StartedAt))
	fmt.Printf("  series:    %d (excluded %d)\n", summary.TotalSeries, summary.ExcludedSeries)
	fmt.Printf("  failures:  %d units, %d series without champion\n", summary.FailedUnits, summary.NoChampion)
	fmt.Printf("  avg MAPE:  %.2f%%\n", summary.AvgChampionMAPE)
	fmt.Printf("  risks:     %d\n", summary.RiskCount)
	for family, wins := range summary.WinCounts {
		fmt.Printf("  wins[%s]: %d\n", family, wins)
	}

	return nil
}
