package schedule

import (
	"context"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron schedule expression
	// Examples: "0 0 2 * * *" (every day at 2 AM)
	//           "@daily", "@weekly"
	Schedule() string
}

// JobStats summarizes the execution record of a registered job.
type JobStats struct {
	JobName     string     `json:"job_name"`
	Schedule    string     `json:"schedule"`
	TotalRuns   int        `json:"total_runs"`
	Failures    int        `json:"failures"`
	Skipped     int        `json:"skipped"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	LastElapsed string     `json:"last_elapsed,omitempty"`
}

// jobState tracks one job's registration and outcomes. The running flag is
// the overlap guard: a forecast run can outlast its cron slot.
type jobState struct {
	job     Job
	running bool

	totalRuns   int
	failures    int
	skipped     int
	lastRun     time.Time
	lastErr     string
	lastElapsed time.Duration
}
