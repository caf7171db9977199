package risk

import (
	"math"
	"sort"
	"time"

	"github.com/slgirgis/horizonscale/internal/contracts"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

// Detector scans champion forecasts for capacity breaches.
// 순수 계산 엔진: 저장소 의존 없음, 입력만으로 결정적 출력
type Detector struct {
	breachThreshold float64
	volThreshold    float64
	severePeak      float64
	logger          *logger.Logger
}

// NewDetector 새 위험 감지기 생성
func NewDetector(breachThreshold, volThreshold, severePeak float64, log *logger.Logger) *Detector {
	return &Detector{
		breachThreshold: breachThreshold,
		volThreshold:    volThreshold,
		severePeak:      severePeak,
		logger:          log.Component("risk"),
	}
}

// Detect flags every series whose champion forecast carries an upper
// bound at or above the breach threshold anywhere in the horizon.
// 규칙:
//   - breach: upper >= breachThreshold인 첫 시점 (forecast 구간만)
//   - peak: horizon 내 upper 최대값
//   - volatility: point 예측값의 모표준편차
//   - priority: volatility > volThreshold 또는 peak >= severePeak
//
// Output is sorted by series key so runs are reproducible.
func (d *Detector) Detect(champions []contracts.ChampionAssignment, merged []contracts.ModelResult) []contracts.RiskRecord {
	bySeries := make(map[contracts.SeriesKey][]contracts.ModelResult)
	for _, r := range merged {
		if r.Segment != contracts.SegmentForecast {
			continue
		}
		bySeries[r.Key] = append(bySeries[r.Key], r)
	}

	var records []contracts.RiskRecord
	for _, c := range champions {
		rows := bySeries[c.Key]
		if len(rows) == 0 {
			continue
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].TS.Before(rows[j].TS) })

		var breach time.Time
		peak := 0.0
		for _, r := range rows {
			if r.Upper > peak {
				peak = r.Upper
			}
			if breach.IsZero() && r.Upper >= d.breachThreshold {
				breach = r.TS
			}
		}
		if breach.IsZero() {
			continue
		}

		vol := pointStddev(rows)
		priority := vol > d.volThreshold || peak >= d.severePeak

		d.logger.WithFields(map[string]interface{}{
			"series":          c.Key.String(),
			"model":           string(c.Family),
			"earliest_breach": breach.Format("2006-01-02"),
			"projected_peak":  peak,
			"volatility":      vol,
			"priority":        priority,
		}).Warn("Capacity breach projected")

		records = append(records, contracts.RiskRecord{
			Key:            c.Key,
			Family:         c.Family,
			EarliestBreach: breach,
			ProjectedPeak:  peak,
			Volatility:     vol,
			Priority:       priority,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Key.EntityID != records[j].Key.EntityID {
			return records[i].Key.EntityID < records[j].Key.EntityID
		}
		return records[i].Key.Resource < records[j].Key.Resource
	})

	return records
}

// pointStddev 예측 포인트의 모표준편차 (population)
func pointStddev(rows []contracts.ModelResult) float64 {
	if len(rows) == 0 {
		return 0
	}
	mean := 0.0
	for _, r := range rows {
		mean += r.Point
	}
	mean /= float64(len(rows))

	variance := 0.0
	for _, r := range rows {
		diff := r.Point - mean
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(len(rows)))
}
