package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/slgirgis/horizonscale/internal/results"
	"github.com/slgirgis/horizonscale/internal/risk"
	"github.com/slgirgis/horizonscale/pkg/config"
	"github.com/slgirgis/horizonscale/pkg/database"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "최근 run 상태 조회",
	Long: `가장 최근 예측 run의 요약과 용량 위험을 표시합니다.

Example:
  go run ./cmd/horizon status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== HorizonScale Status ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	runRepo := results.NewRunRepository(db.Pool)

	runID, err := runRepo.LatestRunID(ctx)
	if errors.Is(err, results.ErrNoRuns) {
		fmt.Println("No completed runs yet. Start one with: go run ./cmd/horizon run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("latest run: %w", err)
	}

	summary, err := runRepo.GetSummary(ctx, runID)
	if err != nil {
		return fmt.Errorf("run summary: %w", err)
	}

	fmt.Printf("\n📊 Run %s\n", summary.RunID)
	fmt.Printf("   Finished:   %s (%s)\n",
		summary.FinishedAt.Format("2006-01-02 15:04:05"),
		summary.FinishedAt.Sub(summary.StartedAt))
	fmt.Printf("   Config:     %s\n", summary.ConfigHash[:12])
	fmt.Printf("   Series:     %d total, %d excluded, %d without champion\n",
		summary.TotalSeries, summary.ExcludedSeries, summary.NoChampion)
	fmt.Printf("   Failures:   %d units\n", summary.FailedUnits)
	fmt.Printf("   Avg MAPE:   %.2f%%\n", summary.AvgChampionMAPE)
	for family, wins := range summary.WinCounts {
		fmt.Printf("   Wins[%s]: %d\n", family, wins)
	}

	risks, err := risk.NewRepository(db.Pool).GetRisks(ctx, runID)
	if err != nil {
		return fmt.Errorf("risks: %w", err)
	}

	fmt.Printf("\n⚠️  Capacity risks: %d\n", len(risks))
	for i, r := range risks {
		if i >= 10 {
			fmt.Printf("   ... and %d more\n", len(risks)-10)
			break
		}
		marker := " "
		if r.Priority {
			marker = "!"
		}
		fmt.Printf("  %s %-32s breach=%s peak=%.1f%%\n",
			marker, r.Key.String(), r.EarliestBreach.Format("2006-01-02"), r.ProjectedPeak)
	}

	return nil
}
