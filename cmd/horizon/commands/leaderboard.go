package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/slgirgis/horizonscale/internal/results"
	"github.com/slgirgis/horizonscale/internal/tournament"
	"github.com/slgirgis/horizonscale/pkg/config"
	"github.com/slgirgis/horizonscale/pkg/database"
)

// leaderboardCmd represents the leaderboard command
var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard [run_id]",
	Short: "토너먼트 리더보드 조회",
	Long: `run의 MAPE 리더보드와 챔피언 배정을 표시합니다.

run_id를 생략하면 가장 최근 run을 사용합니다.

Example:
  go run ./cmd/horizon leaderboard
  go run ./cmd/horizon leaderboard fleet_default-20260831T020000Z`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLeaderboard,
}

func init() {
	rootCmd.AddCommand(leaderboardCmd)
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
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

	repo := tournament.NewRepository(db.Pool)

	board, err := repo.GetLeaderboard(ctx, runID)
	if err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}
	if len(board) == 0 {
		fmt.Printf("No leaderboard rows for run %s\n", runID)
		return nil
	}

	wins, err := repo.WinCounts(ctx, runID)
	if err != nil {
		return fmt.Errorf("win counts: %w", err)
	}

	fmt.Printf("=== Leaderboard: %s ===\n\n", runID)
	fmt.Printf("%-40s %-10s %5s %10s %8s\n", "SERIES", "MODEL", "RANK", "MAPE", "SAMPLES")
	for _, row := range board {
		fmt.Printf("%-40s %-10s %5d %9.2f%% %8d\n",
			row.Key.String(), row.Family, row.Rank, row.MAPE, row.SampleCount)
	}

	fmt.Println("\nChampion wins:")
	for family, count := range wins {
		fmt.Printf("  %-10s %d\n", family, count)
	}

	return nil
}
