package models

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slgirgis/horizonscale/internal/contracts"
)

// makeSeries builds a daily series ending 2026-06-30 spanning the given
// number of months, with values from fn (falling back to a mild
// trend + seasonality pattern).
func makeSeries(months int, fn func(ts time.Time, i int) float64) contracts.Series {
	if fn == nil {
		fn = func(ts time.Time, i int) float64 {
			trend := 40 + float64(i)*0.01
			season := 5 * math.Sin(2*math.Pi*float64(ts.YearDay())/365.25)
			return trend + season
		}
	}

	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, -months, 0)

	series := contracts.Series{
		Key: contracts.SeriesKey{EntityID: "server-ab12cd34", Resource: contracts.ResourceCPU},
	}
	for i, ts := 0, start.AddDate(0, 0, 1); !ts.After(end); i, ts = i+1, ts.AddDate(0, 0, 1) {
		series.History = append(series.History, contracts.Observation{TS: ts, Value: fn(ts, i)})
	}
	return series
}

func defaultWindows() contracts.Windows {
	return contracts.Windows{TrainMonths: 12, BacktestMonths: 2, HorizonDays: 30}
}

func TestSplitHistory(t *testing.T) {
	series := makeSeries(14, nil)
	w := defaultWindows()

	split, err := SplitHistory(series, w)
	require.NoError(t, err)

	assert.NotEmpty(t, split.Train)
	assert.NotEmpty(t, split.Backtest)

	// 모든 backtest 관측은 train 이후
	lastTrain := split.Train[len(split.Train)-1].TS
	firstBacktest := split.Backtest[0].TS
	assert.True(t, lastTrain.Before(firstBacktest), "train must end before backtest begins")

	// 경계 확인
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, end, split.HistoryEnd)
	assert.Equal(t, end.AddDate(0, -2, 0), split.BacktestStart)
	assert.Equal(t, end.AddDate(0, -14, 0), split.TrainStart)

	for _, obs := range split.Backtest {
		assert.True(t, obs.TS.After(split.BacktestStart))
	}
	for _, obs := range split.Train {
		assert.True(t, obs.TS.After(split.TrainStart))
		assert.False(t, obs.TS.After(split.BacktestStart))
	}
}

func TestSplitHistoryMinimalCoverage(t *testing.T) {
	// 정확히 train+backtest 개월만 커버하는 시리즈는 통과해야 한다:
	// 반개구간 윈도우에서 첫 관측은 trainStart 다음 날이다.
	series := makeSeries(14, nil)
	w := defaultWindows()

	split, err := SplitHistory(series, w)
	require.NoError(t, err)
	assert.Equal(t, split.TrainStart.AddDate(0, 0, 1), split.Train[0].TS)

	// 하루만 모자라면 거부
	short := series
	short.History = series.History[1:]
	_, err = SplitHistory(short, w)
	assert.True(t, errors.Is(err, ErrInsufficientHistory))
}

func TestSplitHistoryInsufficient(t *testing.T) {
	// 6개월치만 있는 시리즈에 12+2개월 윈도우 요구
	series := makeSeries(6, nil)

	_, err := SplitHistory(series, defaultWindows())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientHistory))
}

func TestSplitHistoryEmpty(t *testing.T) {
	series := contracts.Series{
		Key: contracts.SeriesKey{EntityID: "server-empty", Resource: contracts.ResourceDisk},
	}

	_, err := SplitHistory(series, defaultWindows())
	assert.True(t, errors.Is(err, ErrEmptyHistory))
}

func TestHorizonDates(t *testing.T) {
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	dates := HorizonDates(end, 180)
	require.Len(t, dates, 180)

	assert.Equal(t, end.AddDate(0, 0, 1), dates[0])
	assert.Equal(t, end.AddDate(0, 0, 180), dates[179])
	for i := 1; i < len(dates); i++ {
		assert.Equal(t, dates[i-1].AddDate(0, 0, 1), dates[i])
	}
}

func TestClipBounds(t *testing.T) {
	tests := []struct {
		name                string
		point, lower, upper float64
		wantP, wantL, wantU float64
	}{
		{"in range", 50, 45, 55, 50, 45, 55},
		{"point above cap", 120, 100, 140, 100, 100, 100},
		{"lower below floor", 5, -10, 12, 5, 0, 12},
		{"upper above cap", 90, 85, 130, 90, 85, 100},
		{"all negative", -20, -30, -10, 0, 0, 0},
		{"ordering restored", 50, 60, 40, 50, 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, l, u := ClipBounds(tt.point, tt.lower, tt.upper)
			assert.Equal(t, tt.wantP, p)
			assert.Equal(t, tt.wantL, l)
			assert.Equal(t, tt.wantU, u)

			// 불변식: 0 <= lower <= point <= upper <= 100
			assert.GreaterOrEqual(t, l, 0.0)
			assert.LessOrEqual(t, u, 100.0)
			assert.LessOrEqual(t, l, p)
			assert.LessOrEqual(t, p, u)
		})
	}
}
