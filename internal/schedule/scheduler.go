package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/slgirgis/horizonscale/pkg/logger"
)

// Scheduler runs registered jobs on their cron schedules.
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
//
// Concurrent fires of the same job are skipped, not queued: the nightly
// forecast run can take longer than its slot and overlapping runs would
// purge each other's results.
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger

	mu     sync.RWMutex
	states map[string]*jobState

	// base is cancelled on Stop so a long forecast run aborts with the daemon.
	base   context.Context
	cancel context.CancelFunc

	maxRetries int
	retryDelay time.Duration
}

// New creates a scheduler with second-resolution cron expressions.
func New(log *logger.Logger) *Scheduler {
	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		logger:     log.Component("schedule"),
		states:     make(map[string]*jobState),
		base:       base,
		cancel:     cancel,
		maxRetries: 3,
		retryDelay: 1 * time.Minute,
	}
}

// AddJob registers a job under its cron expression.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobName := job.Name()

	if _, exists := s.states[jobName]; exists {
		return fmt.Errorf("job %s already exists", jobName)
	}

	_, err := s.cron.AddFunc(job.Schedule(), func() {
		s.fire(jobName)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", jobName, err)
	}

	s.states[jobName] = &jobState{job: job}

	s.logger.WithFields(map[string]interface{}{
		"job":      jobName,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop cancels in-flight jobs and waits for the cron loop to drain.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// fire runs one scheduled occurrence of a job, skipping if the previous
// occurrence is still in flight.
func (s *Scheduler) fire(jobName string) {
	s.mu.Lock()
	state, exists := s.states[jobName]
	if !exists {
		s.mu.Unlock()
		return
	}
	if state.running {
		state.skipped++
		s.mu.Unlock()
		s.logger.WithField("job", jobName).Warn("Previous run still in flight; skipping this slot")
		return
	}
	state.running = true
	job := state.job
	s.mu.Unlock()

	started := time.Now()
	s.logger.WithField("job", jobName).Info("Job started")

	err := s.runWithRetries(job)
	elapsed := time.Since(started)

	s.mu.Lock()
	state.running = false
	state.totalRuns++
	state.lastRun = started
	state.lastElapsed = elapsed
	if err != nil {
		state.failures++
		state.lastErr = err.Error()
	} else {
		state.lastErr = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"job":     jobName,
			"elapsed": elapsed,
			"error":   err.Error(),
		}).Error("Job failed after all retries")
		return
	}

	s.logger.WithFields(map[string]interface{}{
		"job":     jobName,
		"elapsed": elapsed,
	}).Info("Job completed successfully")
}

// runWithRetries retries transient failures with a doubling delay. Shutdown
// cancels the wait as well as the job itself.
func (s *Scheduler) runWithRetries(job Job) error {
	delay := s.retryDelay
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := s.base.Err(); err != nil {
			return err
		}

		lastErr = job.Run(s.base)
		if lastErr == nil {
			return nil
		}

		s.logger.WithFields(map[string]interface{}{
			"job":     job.Name(),
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		}).Warn("Job execution failed")

		if attempt < s.maxRetries {
			select {
			case <-time.After(delay):
			case <-s.base.Done():
				return s.base.Err()
			}
			delay *= 2
		}
	}

	return lastErr
}

// GetAllJobs returns the names of all registered jobs.
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.states))
	for name := range s.states {
		names = append(names, name)
	}

	return names
}

// GetJobStats returns per-job execution statistics.
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats, len(s.states))
	for name, state := range s.states {
		entry := JobStats{
			JobName:   name,
			Schedule:  state.job.Schedule(),
			TotalRuns: state.totalRuns,
			Failures:  state.failures,
			Skipped:   state.skipped,
			LastError: state.lastErr,
		}
		if !state.lastRun.IsZero() {
			t := state.lastRun
			entry.LastRun = &t
			entry.LastElapsed = state.lastElapsed.String()
		}
		stats[name] = entry
	}

	return stats
}
