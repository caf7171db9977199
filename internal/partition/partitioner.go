package partition

import (
	"github.com/slgirgis/horizonscale/internal/contracts"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

// Partitioner 카탈로그 × 모델 계열 → 독립 작업 단위
// 분할은 전수(total)여야 한다: 자격이 있는 모든 시리즈는 경쟁하는
// 모든 계열에 대해 정확히 하나의 WorkUnit을 만든다.
type Partitioner struct {
	logger *logger.Logger
}

// New creates a partitioner.
func New(log *logger.Logger) *Partitioner {
	return &Partitioner{
		logger: log.Component("partitioner"),
	}
}

// Result is the partitioning outcome: runnable units plus the series
// screened out for insufficient history.
type Result struct {
	Units    []contracts.WorkUnit
	Excluded []contracts.SeriesKey
}

// Build produces one WorkUnit per eligible series per family.
// Series whose history cannot cover one train window plus the backtest
// window are excluded and logged, never fatal to the run.
func (p *Partitioner) Build(metas []contracts.SeriesMeta, families []contracts.ModelFamily, w contracts.Windows) Result {
	if len(metas) == 0 {
		p.logger.Warn("catalog is empty, nothing to partition")
		return Result{}
	}

	var result Result
	for _, meta := range metas {
		if !p.eligible(meta, w) {
			result.Excluded = append(result.Excluded, meta.Key)
			continue
		}

		for _, family := range families {
			result.Units = append(result.Units, contracts.WorkUnit{
				Key:     meta.Key,
				Family:  family,
				Windows: w,
			})
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"series":   len(metas),
		"families": len(families),
		"units":    len(result.Units),
		"excluded": len(result.Excluded),
	}).Info("Work partitioning completed")

	return result
}

// eligible checks minimum-history coverage from catalog metadata alone,
// so ineligible series never load full histories.
func (p *Partitioner) eligible(meta contracts.SeriesMeta, w contracts.Windows) bool {
	if meta.ObsCount == 0 {
		p.logger.WithField("series", meta.Key.String()).
			Warn("Series has no observations, excluded")
		return false
	}

	// Split windows are half-open, so a history starting the day after the
	// window boundary still fills the train window completely.
	requiredStart := meta.Last.AddDate(0, -(w.TrainMonths + w.BacktestMonths), 0).AddDate(0, 0, 1)
	if meta.First.After(requiredStart) {
		p.logger.WithFields(map[string]interface{}{
			"series":         meta.Key.String(),
			"history_start":  meta.First.Format("2006-01-02"),
			"required_start": requiredStart.Format("2006-01-02"),
		}).Warn("Series history too short for train window, excluded")
		return false
	}

	return true
}
