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

// riskCmd represents the risk command
var riskCmd = &cobra.Command{
	Use:   "risk [run_id]",
	Short: "용량 위험 목록 조회",
	Long: `run에서 탐지된 모든 용량 위험을 표시합니다 (priority 먼저).

run_id를 생략하면 가장 최근 run을 사용합니다.

Example:
  go run ./cmd/horizon risk
  go run ./cmd/horizon risk fleet_default-20260831T020000Z`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRiskView,
}

func init() {
	rootCmd.AddCommand(riskCmd)
}

func runRiskView(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	runID := ""
	if len(args) == 1 {
		runID = args[0]
	} else {
		runID, err = results.NewRunRepository(db.Pool).LatestRunID(ctx)
		if errors.Is(err, results.ErrNoRuns) {
			fmt.Println("No completed runs yet.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("latest run: %w", err)
		}
	}

	risks, err := risk.NewRepository(db.Pool).GetRisks(ctx, runID)
	if err != nil {
		return fmt.Errorf("risks: %w", err)
	}

	if len(risks) == 0 {
		fmt.Printf("No capacity risks in run %s\n", runID)
		return nil
	}

	fmt.Printf("=== Capacity risks: %s ===\n\n", runID)
	fmt.Printf("%-2s %-36s %-10s %-12s %8s %6s\n",
		"", "SERIES", "MODEL", "BREACH", "PEAK", "VOL")
	for _, r := range risks {
		marker := " "
		if r.Priority {
			marker = "!"
		}
		fmt.Printf("%-2s %-36s %-10s %-12s %7.1f%% %6.2f\n",
			marker, r.Key.String(), r.Family,
			r.EarliestBreach.Format("2006-01-02"), r.ProjectedPeak, r.Volatility)
	}
	fmt.Printf("\n%d risks (! = priority)\n", len(risks))

	return nil
}
