package contracts

import (
	"fmt"
	"time"
)

// ResourceType 자원 종류 (호스트당 4개 시계열)
type ResourceType string

const (
	ResourceCPU     ResourceType = "cpu"
	ResourceMemory  ResourceType = "memory"
	ResourceDisk    ResourceType = "disk"
	ResourceNetwork ResourceType = "network"
)

// AllResourceTypes returns every resource type in fixed order
func AllResourceTypes() []ResourceType {
	return []ResourceType{ResourceCPU, ResourceMemory, ResourceDisk, ResourceNetwork}
}

// SeriesKey identifies one (entity, resource) utilization series
// ⭐ SSOT: 시리즈 식별자는 이 타입으로만 전달
type SeriesKey struct {
	EntityID string       `json:"entity_id"`
	Resource ResourceType `json:"resource"`
}

// String returns the canonical "entity/resource" form used in logs and errors
func (k SeriesKey) String() string {
	return fmt.Sprintf("%s/%s", k.EntityID, k.Resource)
}

// Observation is one telemetry point. Value is a utilization percentage in [0,100].
type Observation struct {
	TS    time.Time `json:"ts"`
	Value float64   `json:"value"`
}

// Series is the full chronologically ordered history for one key.
// Immutable once constructed for a run; workers share it without locking.
type Series struct {
	Key     SeriesKey     `json:"key"`
	History []Observation `json:"history"`
}

// Span returns the first and last observation timestamps.
// Returns zero times for an empty series.
func (s Series) Span() (time.Time, time.Time) {
	if len(s.History) == 0 {
		return time.Time{}, time.Time{}
	}
	return s.History[0].TS, s.History[len(s.History)-1].TS
}

// SeriesMeta is a catalog row: one series plus its observation count.
// Used by the partitioner for minimum-history screening without
// loading full histories.
type SeriesMeta struct {
	Key      SeriesKey `json:"key"`
	ObsCount int       `json:"obs_count"`
	First    time.Time `json:"first"`
	Last     time.Time `json:"last"`
}
