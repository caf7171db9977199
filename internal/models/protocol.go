package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/slgirgis/horizonscale/internal/contracts"
)

// 공정 경쟁 규약: 모든 어댑터가 동일한 분할/클리핑을 적용해야
// 백테스트 점수 비교가 유효하다.
// ⭐ SSOT: 윈도우 분할과 물리 클리핑은 이 파일에서만 구현

var (
	// ErrInsufficientHistory is returned when a series cannot cover one
	// full train window plus the backtest window.
	ErrInsufficientHistory = errors.New("insufficient history for train window")

	// ErrEmptyHistory is returned for a series with no observations at all.
	ErrEmptyHistory = errors.New("series has no observations")
)

const (
	// utilization is a physical percentage: nothing below empty,
	// nothing above full.
	boundFloor = 0.0
	boundCap   = 100.0
)

// Split is the windowed view of one series history.
type Split struct {
	// Train covers TrainMonths months ending immediately before the
	// backtest window. Training input only.
	Train []contracts.Observation

	// Backtest covers the most recent BacktestMonths months of history.
	// Ground truth here is withheld from training and used only for
	// accuracy scoring.
	Backtest []contracts.Observation

	// TrainStart/BacktestStart/HistoryEnd are the window boundaries.
	TrainStart    time.Time
	BacktestStart time.Time
	HistoryEnd    time.Time
}

// SplitHistory divides a history according to the shared windowing contract.
// Returns ErrInsufficientHistory when the history does not reach back one
// full train window before the backtest window, or when the backtest
// window holds no observations.
func SplitHistory(series contracts.Series, w contracts.Windows) (Split, error) {
	if len(series.History) == 0 {
		return Split{}, ErrEmptyHistory
	}

	first, end := series.Span()
	backtestStart := end.AddDate(0, -w.BacktestMonths, 0)
	trainStart := backtestStart.AddDate(0, -w.TrainMonths, 0)

	// Windows are half-open (trainStart, backtestStart], so the earliest
	// observation a full train window can hold is the day after trainStart.
	earliest := trainStart.AddDate(0, 0, 1)
	if first.After(earliest) {
		return Split{}, fmt.Errorf("%w: history starts %s, need %s (series %s)",
			ErrInsufficientHistory,
			first.Format("2006-01-02"), earliest.Format("2006-01-02"), series.Key)
	}

	split := Split{
		TrainStart:    trainStart,
		BacktestStart: backtestStart,
		HistoryEnd:    end,
	}

	for _, obs := range series.History {
		switch {
		case obs.TS.After(backtestStart):
			split.Backtest = append(split.Backtest, obs)
		case obs.TS.After(trainStart):
			split.Train = append(split.Train, obs)
		}
	}

	if len(split.Train) == 0 || len(split.Backtest) == 0 {
		return Split{}, fmt.Errorf("%w: empty window (series %s)",
			ErrInsufficientHistory, series.Key)
	}

	return split, nil
}

// HorizonDates returns the daily forecast grid: HorizonDays days
// immediately following the full historical range.
func HorizonDates(historyEnd time.Time, horizonDays int) []time.Time {
	dates := make([]time.Time, 0, horizonDays)
	for d := 1; d <= horizonDays; d++ {
		dates = append(dates, historyEnd.AddDate(0, 0, d))
	}
	return dates
}

// ClipBounds clips a prediction to the physical [0,100] range and
// restores lower <= point <= upper ordering after clipping.
func ClipBounds(point, lower, upper float64) (float64, float64, float64) {
	point = clip(point)
	lower = clip(lower)
	upper = clip(upper)

	if lower > point {
		lower = point
	}
	if upper < point {
		upper = point
	}
	return point, lower, upper
}

func clip(v float64) float64 {
	if v < boundFloor {
		return boundFloor
	}
	if v > boundCap {
		return boundCap
	}
	return v
}
