package models

import (
	"math"
	"time"

	"github.com/slgirgis/horizonscale/internal/contracts"
)

// Seasonal 추세 + 월별 계절성 분해 엔진
// 선형 추세(OLS) 위에 월별 계절 성분을 얹고, 학습 잔차 표준편차로
// 신뢰구간을 만든다. 리드 타임이 길수록 구간이 넓어진다.
type Seasonal struct{}

// NewSeasonal creates the seasonal decomposition adapter.
func NewSeasonal() *Seasonal {
	return &Seasonal{}
}

// Family implements Adapter.
func (s *Seasonal) Family() contracts.ModelFamily {
	return contracts.FamilySeasonal
}

// z value for a ~90% central interval
const seasonalIntervalZ = 1.645

// FitAndProject implements Adapter.
func (s *Seasonal) FitAndProject(series contracts.Series, w contracts.Windows) ([]contracts.ModelResult, error) {
	split, err := SplitHistory(series, w)
	if err != nil {
		return nil, err
	}

	fit := fitSeasonal(split)

	trainSpan := daysBetween(split.TrainStart, split.BacktestStart)
	if trainSpan <= 0 {
		trainSpan = 1
	}

	predict := func(ts time.Time, segment contracts.Segment) contracts.ModelResult {
		x := daysBetween(split.TrainStart, ts)
		base := fit.intercept + fit.slope*x + fit.seasonal[int(ts.Month())]

		// interval widens with lead time past the training cutoff
		lead := daysBetween(split.BacktestStart, ts)
		if lead < 0 {
			lead = 0
		}
		width := seasonalIntervalZ * fit.residStd * (1 + lead/trainSpan)

		point, lower, upper := ClipBounds(base, base-width, base+width)
		return contracts.ModelResult{
			Key:     series.Key,
			Family:  s.Family(),
			TS:      ts,
			Point:   point,
			Lower:   lower,
			Upper:   upper,
			Segment: segment,
		}
	}

	results := make([]contracts.ModelResult, 0, len(split.Backtest)+w.HorizonDays)
	for _, obs := range split.Backtest {
		results = append(results, predict(obs.TS, contracts.SegmentBacktest))
	}
	for _, ts := range HorizonDates(split.HistoryEnd, w.HorizonDays) {
		results = append(results, predict(ts, contracts.SegmentForecast))
	}

	return results, nil
}

// seasonalFit holds the trained decomposition.
type seasonalFit struct {
	intercept float64
	slope     float64
	seasonal  [13]float64 // indexed by time.Month (1-12)
	residStd  float64
}

func fitSeasonal(split Split) seasonalFit {
	n := float64(len(split.Train))

	// OLS trend over days-since-train-start
	var sumX, sumY, sumXY, sumXX float64
	for _, obs := range split.Train {
		x := daysBetween(split.TrainStart, obs.TS)
		sumX += x
		sumY += obs.Value
		sumXY += x * obs.Value
		sumXX += x * x
	}

	var fit seasonalFit
	denom := n*sumXX - sumX*sumX
	if denom != 0 {
		fit.slope = (n*sumXY - sumX*sumY) / denom
	}
	fit.intercept = (sumY - fit.slope*sumX) / n

	// monthly seasonal component = mean detrended residual per month
	var monthSum [13]float64
	var monthCount [13]int
	for _, obs := range split.Train {
		x := daysBetween(split.TrainStart, obs.TS)
		resid := obs.Value - (fit.intercept + fit.slope*x)
		m := int(obs.TS.Month())
		monthSum[m] += resid
		monthCount[m]++
	}
	for m := 1; m <= 12; m++ {
		if monthCount[m] > 0 {
			fit.seasonal[m] = monthSum[m] / float64(monthCount[m])
		}
	}

	// residual stddev after removing trend and seasonality
	var sqSum float64
	for _, obs := range split.Train {
		x := daysBetween(split.TrainStart, obs.TS)
		resid := obs.Value - (fit.intercept + fit.slope*x + fit.seasonal[int(obs.TS.Month())])
		sqSum += resid * resid
	}
	fit.residStd = math.Sqrt(sqSum / n)

	return fit
}

// daysBetween returns the fractional number of days from a to b.
func daysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24
}
