package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/slgirgis/horizonscale/internal/results"
	"github.com/slgirgis/horizonscale/pkg/config"
	"github.com/slgirgis/horizonscale/pkg/database"
)

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "오래된 run 정리",
	Long: `보존 기간을 지난 run과 종속 데이터를 삭제합니다.

Example:
  go run ./cmd/horizon cleanup
  go run ./cmd/horizon cleanup --older-than 30`,
	RunE: runCleanup,
}

var cleanupOlderThan int

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().IntVar(&cleanupOlderThan, "older-than", 90, "삭제 기준 (일)")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	fmt.Println("=== HorizonScale Cleanup ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -cleanupOlderThan)
	fmt.Printf("Deleting runs finished before %s...\n", cutoff.Format("2006-01-02"))

	deleted, err := results.NewRunRepository(db.Pool).DeleteRunsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}

	fmt.Printf("✅ Removed %d runs\n", deleted)
	return nil
}
