package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/slgirgis/horizonscale/internal/schedule"
	"github.com/slgirgis/horizonscale/internal/schedule/jobs"
	"github.com/slgirgis/horizonscale/pkg/config"
	"github.com/slgirgis/horizonscale/pkg/database"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

등록되는 작업:
- forecast_run: 매일 새벽 2시 (전체 예측 run)
- run_retention: 일요일 새벽 3시 (오래된 run 정리)

Example:
  go run ./cmd/horizon schedule start
  go run ./cmd/horizon schedule list
  go run ./cmd/horizon schedule run forecast_run`,
}

var (
	scheduleStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러 데몬을 시작하고 등록된 모든 작업을 스케줄합니다.

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: startScheduler,
	}

	scheduleListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listScheduledJobs,
	}

	scheduleRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runScheduledJob,
	}
)

var retentionDays int

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleStartCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleRunCmd)

	scheduleStartCmd.Flags().IntVar(&retentionDays, "retention-days", 90, "run 보존 기간 (일)")
	scheduleRunCmd.Flags().IntVar(&retentionDays, "retention-days", 90, "run 보존 기간 (일)")
}

// buildScheduler wires the scheduler with every registered job.
func buildScheduler(db *database.DB, log *logger.Logger) (*schedule.Scheduler, error) {
	profile, err := loadProfile()
	if err != nil {
		return nil, err
	}

	sched := schedule.New(log)

	if err := sched.AddJob(jobs.NewForecastJob(db, profile, log)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewMaintenanceJob(db, retentionDays, log)); err != nil {
		return nil, err
	}

	return sched, nil
}

func startScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== HorizonScale Scheduler ===")

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

	sched, err := buildScheduler(db, log)
	if err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	fmt.Println("\n✅ Scheduler running")
	for _, name := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}

func listScheduledJobs(cmd *cobra.Command, args []string) error {
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

	sched, err := buildScheduler(db, log)
	if err != nil {
		return err
	}

	fmt.Println("Registered jobs:")
	for name, stats := range sched.GetJobStats() {
		fmt.Printf("  %-16s schedule=%q\n", name, stats.Schedule)
	}

	return nil
}

func runScheduledJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

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

	profile, err := loadProfile()
	if err != nil {
		return err
	}

	// CLI 실행은 동기: 프로세스 종료로 작업이 끊기지 않도록
	registered := []schedule.Job{
		jobs.NewForecastJob(db, profile, log),
		jobs.NewMaintenanceJob(db, retentionDays, log),
	}

	for _, job := range registered {
		if job.Name() != jobName {
			continue
		}
		fmt.Printf("Running job %s...\n", jobName)
		if err := job.Run(cmd.Context()); err != nil {
			return fmt.Errorf("job %s: %w", jobName, err)
		}
		fmt.Println("Job completed")
		return nil
	}

	return fmt.Errorf("job %s not found", jobName)
}
