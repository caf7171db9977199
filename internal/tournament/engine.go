package tournament

import (
	"math"
	"sort"
	"time"

	"github.com/slgirgis/horizonscale/internal/contracts"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

// Engine arbitrates between competing model families.
// ⭐ SSOT: 챔피언 선정 규칙은 이 엔진에서만
// 순수 계산기: 저장은 Repository, 조립은 상위 레이어(engine 패키지).
type Engine struct {
	precedence []contracts.ModelFamily
	logger     *logger.Logger
}

// NewEngine creates a tournament engine.
// precedence breaks exact metric ties deterministically: the family
// listed first wins the tie, so repeated runs are stable.
func NewEngine(precedence []contracts.ModelFamily, log *logger.Logger) *Engine {
	return &Engine{
		precedence: precedence,
		logger:     log.Component("tournament"),
	}
}

// Score computes one AccuracyRecord per (series, family) from backtest
// rows compared against withheld ground truth at the same timestamp.
// 규칙 (원본 대회 레이어와 동일):
//   - backtest 구간 행만 사용
//   - actual이 0인 시점은 제외 (0으로 나누기 방지)
//   - 유효 시점이 하나도 없으면 해당 (series, family)는 탈락
func (e *Engine) Score(results []contracts.ModelResult, actuals map[contracts.SeriesKey]contracts.Series) []contracts.AccuracyRecord {
	type pairKey struct {
		key    contracts.SeriesKey
		family contracts.ModelFamily
	}
	type accumulator struct {
		sum   float64
		count int
	}

	truth := indexActuals(actuals)

	accs := make(map[pairKey]*accumulator)
	var order []pairKey
	for _, r := range results {
		if r.Segment != contracts.SegmentBacktest {
			continue
		}

		actual, ok := truth[r.Key][r.TS]
		if !ok || actual == 0 {
			continue
		}

		pk := pairKey{key: r.Key, family: r.Family}
		acc, exists := accs[pk]
		if !exists {
			acc = &accumulator{}
			accs[pk] = acc
			order = append(order, pk)
		}
		acc.sum += math.Abs(r.Point-actual) / actual
		acc.count++
	}

	records := make([]contracts.AccuracyRecord, 0, len(order))
	for _, pk := range order {
		acc := accs[pk]
		records = append(records, contracts.AccuracyRecord{
			Key:         pk.key,
			Family:      pk.family,
			MAPE:        acc.sum / float64(acc.count) * 100,
			SampleCount: acc.count,
		})
	}

	// 결정적 출력 순서
	sort.Slice(records, func(i, j int) bool {
		if records[i].Key != records[j].Key {
			return lessKey(records[i].Key, records[j].Key)
		}
		return records[i].Family < records[j].Family
	})

	return records
}

// SelectChampions picks exactly one champion per series: rank 1 by
// ascending MAPE, ties broken by configured family precedence.
// A series with a single surviving family is champion by default,
// recorded as policy and not as an error.
// Returns the champion set and the full rank table for the leaderboard.
func (e *Engine) SelectChampions(records []contracts.AccuracyRecord) ([]contracts.ChampionAssignment, map[contracts.SeriesKey]map[contracts.ModelFamily]int) {
	bySeries := make(map[contracts.SeriesKey][]contracts.AccuracyRecord)
	var keys []contracts.SeriesKey
	for _, rec := range records {
		if _, seen := bySeries[rec.Key]; !seen {
			keys = append(keys, rec.Key)
		}
		bySeries[rec.Key] = append(bySeries[rec.Key], rec)
	}
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })

	champions := make([]contracts.ChampionAssignment, 0, len(keys))
	ranks := make(map[contracts.SeriesKey]map[contracts.ModelFamily]int, len(keys))

	for _, key := range keys {
		contenders := bySeries[key]
		sort.Slice(contenders, func(i, j int) bool {
			if contenders[i].MAPE != contenders[j].MAPE {
				return contenders[i].MAPE < contenders[j].MAPE
			}
			return e.precedenceIndex(contenders[i].Family) < e.precedenceIndex(contenders[j].Family)
		})

		ranks[key] = make(map[contracts.ModelFamily]int, len(contenders))
		for i, c := range contenders {
			ranks[key][c.Family] = i + 1
		}

		winner := contenders[0]
		champions = append(champions, contracts.ChampionAssignment{
			Key:       key,
			Family:    winner.Family,
			MAPE:      winner.MAPE,
			ByDefault: len(contenders) == 1,
		})
	}

	return champions, ranks
}

// MergeChampionForecasts extracts the champion's forecast-segment rows
// for each series into one champion dataset, ordered by series then
// timestamp. Non-champion results are excluded here but remain in the
// per-model result sets.
func (e *Engine) MergeChampionForecasts(champions []contracts.ChampionAssignment, results []contracts.ModelResult) []contracts.ModelResult {
	winner := make(map[contracts.SeriesKey]contracts.ModelFamily, len(champions))
	for _, c := range champions {
		winner[c.Key] = c.Family
	}

	var merged []contracts.ModelResult
	for _, r := range results {
		if r.Segment != contracts.SegmentForecast {
			continue
		}
		if family, ok := winner[r.Key]; ok && family == r.Family {
			merged = append(merged, r)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Key != merged[j].Key {
			return lessKey(merged[i].Key, merged[j].Key)
		}
		return merged[i].TS.Before(merged[j].TS)
	})

	return merged
}

// Standings 최종 대회 성적표
type Standings struct {
	WinCounts       map[contracts.ModelFamily]int
	AvgChampionMAPE float64
}

// ComputeStandings aggregates per-family win counts and the mean
// champion MAPE, and logs them the way operators expect to read them.
func (e *Engine) ComputeStandings(champions []contracts.ChampionAssignment) Standings {
	standings := Standings{
		WinCounts: make(map[contracts.ModelFamily]int),
	}

	var mapeSum float64
	for _, c := range champions {
		standings.WinCounts[c.Family]++
		mapeSum += c.MAPE
	}
	if len(champions) > 0 {
		standings.AvgChampionMAPE = mapeSum / float64(len(champions))
	}

	for _, family := range e.precedence {
		e.logger.WithFields(map[string]interface{}{
			"model":       string(family),
			"series_won":  standings.WinCounts[family],
			"total":       len(champions),
		}).Info("Tournament standings")
	}

	return standings
}

func (e *Engine) precedenceIndex(family contracts.ModelFamily) int {
	for i, f := range e.precedence {
		if f == family {
			return i
		}
	}
	// 미등록 계열은 항상 뒤로
	return len(e.precedence)
}

func indexActuals(actuals map[contracts.SeriesKey]contracts.Series) map[contracts.SeriesKey]map[time.Time]float64 {
	truth := make(map[contracts.SeriesKey]map[time.Time]float64, len(actuals))
	for key, series := range actuals {
		byTS := make(map[time.Time]float64, len(series.History))
		for _, obs := range series.History {
			byTS[obs.TS] = obs.Value
		}
		truth[key] = byTS
	}
	return truth
}

func lessKey(a, b contracts.SeriesKey) bool {
	if a.EntityID != b.EntityID {
		return a.EntityID < b.EntityID
	}
	return a.Resource < b.Resource
}
