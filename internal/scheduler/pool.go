package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/slgirgis/horizonscale/internal/contracts"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

// Executor runs one work unit, bound to the correct model adapter.
// 순수 함수여야 한다: 불변 입력에 대한 닫힘, 공유 상태 없음.
type Executor func(ctx context.Context, unit contracts.WorkUnit) ([]contracts.ModelResult, error)

// UnitOutcome pairs a unit with its result set or failure.
// 완료 순서는 비결정적이다. 소비자는 순서에 의존하면 안 된다.
type UnitOutcome struct {
	Unit    contracts.WorkUnit
	Results []contracts.ModelResult
	Err     error
}

// Failed reports whether the unit produced no usable result.
func (o UnitOutcome) Failed() bool {
	return o.Err != nil
}

// Pool executes work units across a bounded set of workers.
// ⭐ SSOT: 병렬 실행은 이 풀에서만
// 단위 실패는 격리된다: 하나의 unit에서 난 에러/패닉이 형제 unit이나
// 풀 자체를 중단시키지 않는다. 재시도는 하지 않는다.
type Pool struct {
	workers int
	logger  *logger.Logger

	// OnProgress, when set, is called after each unit completes with
	// (done, total). Used for the run progress stream.
	OnProgress func(done, total int)
}

// NewPool creates a pool. workers <= 0 sizes the pool to NumCPU.
func NewPool(workers int, log *logger.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		workers: workers,
		logger:  log.Component("pool"),
	}
}

// Workers returns the effective pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes every unit and blocks until all have completed or failed.
// The returned slice holds one outcome per submitted unit, in completion
// order.
func (p *Pool) Run(ctx context.Context, units []contracts.WorkUnit, exec Executor) []UnitOutcome {
	if len(units) == 0 {
		return nil
	}

	p.logger.WithFields(map[string]interface{}{
		"units":   len(units),
		"workers": p.workers,
	}).Info("Starting parallel execution")

	unitCh := make(chan contracts.WorkUnit, len(units))
	outcomeCh := make(chan UnitOutcome, len(units))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.worker(ctx, workerID, unitCh, outcomeCh, exec)
		}(i)
	}

	// Send units to workers
	for _, unit := range units {
		unitCh <- unit
	}
	close(unitCh)

	// Wait for all workers to complete
	go func() {
		wg.Wait()
		close(outcomeCh)
	}()

	// Collect results as they complete, regardless of submission order
	outcomes := make([]UnitOutcome, 0, len(units))
	successCount, failCount := 0, 0
	for outcome := range outcomeCh {
		outcomes = append(outcomes, outcome)
		if outcome.Failed() {
			failCount++
		} else {
			successCount++
		}
		if p.OnProgress != nil {
			p.OnProgress(len(outcomes), len(units))
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"success": successCount,
		"failed":  failCount,
		"total":   len(outcomes),
	}).Info("Parallel execution completed")

	return outcomes
}

// worker drains the unit channel. Each unit is guarded individually:
// a panic inside exec becomes that unit's failure, nothing more.
func (p *Pool) worker(ctx context.Context, workerID int, unitCh <-chan contracts.WorkUnit, outcomeCh chan<- UnitOutcome, exec Executor) {
	for unit := range unitCh {
		select {
		case <-ctx.Done():
			outcomeCh <- UnitOutcome{Unit: unit, Err: ctx.Err()}
			continue
		default:
		}

		results, err := p.runUnit(ctx, unit, exec)
		if err != nil {
			p.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"series": unit.Key.String(),
				"model":  string(unit.Family),
			}).Error("Work unit failed")
			outcomeCh <- UnitOutcome{Unit: unit, Err: err}
			continue
		}

		outcomeCh <- UnitOutcome{Unit: unit, Results: results}
	}
}

// runUnit isolates one execution, converting panics into errors.
func (p *Pool) runUnit(ctx context.Context, unit contracts.WorkUnit, exec Executor) (results []contracts.ModelResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in work unit %s/%s: %v", unit.Key, unit.Family, r)
		}
	}()

	return exec(ctx, unit)
}
