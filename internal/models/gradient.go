package models

import (
	"math"
	"time"

	"github.com/slgirgis/horizonscale/internal/contracts"
)

// Gradient 시간 특징 회귀 엔진 (도전자)
// 서수 추세(t)와 월 주기 하모닉(sin/cos)을 특징으로 하는 최소제곱 회귀.
// 구간 추정이 없는 회귀라 원본과 같은 ±10% 밴드를 쓴다.
type Gradient struct{}

// NewGradient creates the temporal-feature regression adapter.
func NewGradient() *Gradient {
	return &Gradient{}
}

// Family implements Adapter.
func (g *Gradient) Family() contracts.ModelFamily {
	return contracts.FamilyGradient
}

// interval band as a fraction of the point estimate
const gradientBandRatio = 0.10

// FitAndProject implements Adapter.
func (g *Gradient) FitAndProject(series contracts.Series, w contracts.Windows) ([]contracts.ModelResult, error) {
	split, err := SplitHistory(series, w)
	if err != nil {
		return nil, err
	}

	weights := fitGradient(split)

	predict := func(ts time.Time, segment contracts.Segment) contracts.ModelResult {
		base := dot(weights, gradientFeatures(split.TrainStart, ts))

		point, lower, upper := ClipBounds(
			base,
			base*(1-gradientBandRatio),
			base*(1+gradientBandRatio),
		)
		return contracts.ModelResult{
			Key:     series.Key,
			Family:  g.Family(),
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

// gradientFeatures maps a timestamp to the engineered feature vector:
// bias, ordinal trend (days since train start), and annual harmonics.
func gradientFeatures(trainStart time.Time, ts time.Time) []float64 {
	t := daysBetween(trainStart, ts)
	yearPhase := 2 * math.Pi * float64(ts.YearDay()) / 365.25
	return []float64{
		1,
		t,
		math.Sin(yearPhase),
		math.Cos(yearPhase),
	}
}

// fitGradient solves the normal equations (XᵀX)w = Xᵀy for the
// least-squares weights. The feature dimension is tiny, so a direct
// Gaussian elimination is enough.
func fitGradient(split Split) []float64 {
	dim := len(gradientFeatures(split.TrainStart, split.TrainStart))

	xtx := make([][]float64, dim)
	for i := range xtx {
		xtx[i] = make([]float64, dim)
	}
	xty := make([]float64, dim)

	for _, obs := range split.Train {
		f := gradientFeatures(split.TrainStart, obs.TS)
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				xtx[i][j] += f[i] * f[j]
			}
			xty[i] += f[i] * obs.Value
		}
	}

	weights := solveLinear(xtx, xty)
	if weights == nil {
		// singular system: fall back to the train mean
		var sum float64
		for _, obs := range split.Train {
			sum += obs.Value
		}
		weights = make([]float64, dim)
		weights[0] = sum / float64(len(split.Train))
	}
	return weights
}

// solveLinear solves a small dense system in place via Gaussian
// elimination with partial pivoting. Returns nil for a singular matrix.
func solveLinear(a [][]float64, b []float64) []float64 {
	n := len(b)

	for col := 0; col < n; col++ {
		// pivot
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		// eliminate below
		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	// back substitution
	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		x[row] = sum / a[row][row]
	}
	return x
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
