package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/slgirgis/horizonscale/internal/contracts"
	"github.com/slgirgis/horizonscale/internal/results"
	"github.com/slgirgis/horizonscale/pkg/config"
	"github.com/slgirgis/horizonscale/pkg/database"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

// forecastCmd represents the forecast command
var forecastCmd = &cobra.Command{
	Use:   "forecast [entity_id] [resource]",
	Short: "시리즈 챔피언 예측 조회",
	Long: `한 시리즈의 챔피언 모델 예측 호라이즌을 표시합니다.

Example:
  go run ./cmd/horizon forecast host-01 cpu
  go run ./cmd/horizon forecast host-01 cpu --run fleet_default-20260831T020000Z`,
	Args: cobra.ExactArgs(2),
	RunE: runForecastView,
}

var forecastRunID string

func init() {
	rootCmd.AddCommand(forecastCmd)

	forecastCmd.Flags().StringVar(&forecastRunID, "run", "", "run_id (기본: 최근 run)")
}

func runForecastView(cmd *cobra.Command, args []string) error {
	key := contracts.SeriesKey{
		EntityID: args[0],
		Resource: contracts.ResourceType(args[1]),
	}

	valid := false
	for _, rt := range contracts.AllResourceTypes() {
		if key.Resource == rt {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("resource must be one of cpu, memory, disk, network")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	runID := forecastRunID
	if runID == "" {
		runID, err = results.NewRunRepository(db.Pool).LatestRunID(ctx)
		if errors.Is(err, results.ErrNoRuns) {
			fmt.Println("No completed runs yet.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("latest run: %w", err)
		}
	}

	forecast, err := results.NewRepository(db, log).GetChampionForecast(ctx, runID, key)
	if err != nil {
		return fmt.Errorf("champion forecast: %w", err)
	}
	if len(forecast) == 0 {
		fmt.Printf("No champion forecast for %s in run %s\n", key, runID)
		return nil
	}

	fmt.Printf("=== Champion forecast: %s (run %s, model %s) ===\n\n",
		key, runID, forecast[0].Family)
	fmt.Printf("%-12s %8s %8s %8s\n", "DATE", "LOWER", "POINT", "UPPER")
	for _, row := range forecast {
		fmt.Printf("%-12s %7.1f%% %7.1f%% %7.1f%%\n",
			row.TS.Format("2006-01-02"), row.Lower, row.Point, row.Upper)
	}

	return nil
}
