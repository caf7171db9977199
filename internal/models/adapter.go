package models

import (
	"fmt"

	"github.com/slgirgis/horizonscale/internal/contracts"
)

// Adapter wraps one forecasting algorithm behind a uniform capability.
// 구현 조건:
//   - 동일 입력/윈도우 → 동일 출력 (결정적)
//   - 호출 간 공유 상태 없음 (동시 호출 안전)
//   - 출력 전 ClipBounds 적용
type Adapter interface {
	// Family returns the model family identifier.
	Family() contracts.ModelFamily

	// FitAndProject trains on the train window and emits predictions
	// over the backtest window and the forward horizon.
	FitAndProject(series contracts.Series, w contracts.Windows) ([]contracts.ModelResult, error)
}

// Registry is a lookup of adapters keyed by family identifier.
// ⭐ SSOT: 모델 계열 → 어댑터 매핑은 여기서만
// 하드코딩된 모델 분기 대신 등록 기반 조회를 쓴다.
type Registry struct {
	adapters map[contracts.ModelFamily]Adapter
	order    []contracts.ModelFamily
}

// NewRegistry registers adapters in the given order.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{
		adapters: make(map[contracts.ModelFamily]Adapter, len(adapters)),
	}
	for _, a := range adapters {
		family := a.Family()
		if _, exists := r.adapters[family]; exists {
			return nil, fmt.Errorf("adapter %q registered twice", family)
		}
		r.adapters[family] = a
		r.order = append(r.order, family)
	}
	return r, nil
}

// DefaultRegistry returns the registry with both competing families.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(NewSeasonal(), NewGradient())
	if err != nil {
		// both families have distinct identifiers
		panic(err)
	}
	return r
}

// Get returns the adapter for a family.
func (r *Registry) Get(family contracts.ModelFamily) (Adapter, bool) {
	a, ok := r.adapters[family]
	return a, ok
}

// Families returns registered families in registration order.
func (r *Registry) Families() []contracts.ModelFamily {
	out := make([]contracts.ModelFamily, len(r.order))
	copy(out, r.order)
	return out
}
