package partition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slgirgis/horizonscale/internal/contracts"
	"github.com/slgirgis/horizonscale/pkg/config"
	"github.com/slgirgis/horizonscale/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func meta(entity string, resource contracts.ResourceType, months int) contracts.SeriesMeta {
	last := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	return contracts.SeriesMeta{
		Key:      contracts.SeriesKey{EntityID: entity, Resource: resource},
		ObsCount: months * 30,
		First:    last.AddDate(0, -months, 0),
		Last:     last,
	}
}

func TestBuildIsTotal(t *testing.T) {
	p := New(testLogger())
	w := contracts.Windows{TrainMonths: 12, BacktestMonths: 2, HorizonDays: 30}

	metas := []contracts.SeriesMeta{
		meta("server-a", contracts.ResourceCPU, 36),
		meta("server-a", contracts.ResourceMemory, 36),
		meta("server-b", contracts.ResourceCPU, 36),
	}
	families := []contracts.ModelFamily{contracts.FamilySeasonal, contracts.FamilyGradient}

	result := p.Build(metas, families, w)

	// 시리즈 × 계열 당 정확히 하나
	require.Len(t, result.Units, len(metas)*len(families))
	assert.Empty(t, result.Excluded)

	seen := make(map[contracts.WorkUnit]int)
	for _, unit := range result.Units {
		seen[unit]++
		assert.Equal(t, w, unit.Windows, "unit must carry its windows")
	}
	for unit, count := range seen {
		assert.Equal(t, 1, count, "duplicate unit for %s/%s", unit.Key, unit.Family)
	}
}

func TestBuildExcludesShortHistory(t *testing.T) {
	p := New(testLogger())
	w := contracts.Windows{TrainMonths: 12, BacktestMonths: 2, HorizonDays: 30}

	short := meta("server-short", contracts.ResourceDisk, 6)
	ok := meta("server-ok", contracts.ResourceDisk, 24)

	result := p.Build([]contracts.SeriesMeta{short, ok}, []contracts.ModelFamily{contracts.FamilySeasonal}, w)

	require.Len(t, result.Units, 1)
	assert.Equal(t, ok.Key, result.Units[0].Key)

	require.Len(t, result.Excluded, 1)
	assert.Equal(t, short.Key, result.Excluded[0])
}

func TestBuildAcceptsMinimalCoverage(t *testing.T) {
	p := New(testLogger())
	w := contracts.Windows{TrainMonths: 12, BacktestMonths: 2, HorizonDays: 30}

	// 반개구간 윈도우: 일별 시리즈의 첫 관측이 경계 다음 날이어도
	// train 윈도우는 완전히 채워진다.
	minimal := meta("server-min", contracts.ResourceCPU, 14)
	minimal.First = minimal.First.AddDate(0, 0, 1)

	oneShort := meta("server-short", contracts.ResourceCPU, 14)
	oneShort.First = oneShort.First.AddDate(0, 0, 2)

	result := p.Build([]contracts.SeriesMeta{minimal, oneShort}, []contracts.ModelFamily{contracts.FamilySeasonal}, w)

	require.Len(t, result.Units, 1)
	assert.Equal(t, minimal.Key, result.Units[0].Key)
	require.Len(t, result.Excluded, 1)
	assert.Equal(t, oneShort.Key, result.Excluded[0])
}

func TestBuildExcludesEmptySeries(t *testing.T) {
	p := New(testLogger())
	w := contracts.Windows{TrainMonths: 12, BacktestMonths: 2, HorizonDays: 30}

	empty := contracts.SeriesMeta{
		Key: contracts.SeriesKey{EntityID: "server-empty", Resource: contracts.ResourceNetwork},
	}

	result := p.Build([]contracts.SeriesMeta{empty}, []contracts.ModelFamily{contracts.FamilySeasonal}, w)
	assert.Empty(t, result.Units)
	assert.Len(t, result.Excluded, 1)
}

func TestBuildEmptyCatalog(t *testing.T) {
	p := New(testLogger())
	w := contracts.Windows{TrainMonths: 12, BacktestMonths: 2, HorizonDays: 30}

	result := p.Build(nil, []contracts.ModelFamily{contracts.FamilySeasonal}, w)
	assert.Empty(t, result.Units)
	assert.Empty(t, result.Excluded)
}
