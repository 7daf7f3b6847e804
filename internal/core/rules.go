package core

import (
	"fmt"

	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

// Rule names reported in violations.
const (
	ruleInventoryBounds     = "inventory_bounds"
	ruleLifecycleTransition = "lifecycle_transition"
	ruleAllocationIntegrity = "allocation_integrity"
)

// NewRulesEngine constructs an engine without any rules registered.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the allocation invariants
// re-checked on every commit.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(InventoryBoundsRule())
	engine.Register(LifecycleTransitionRule())
	engine.Register(AllocationIntegrityRule())
	return engine
}

func blockf(rule string, entity EntityType, id, format string, args ...any) Violation {
	return Violation{
		Rule:     rule,
		Severity: SeverityBlock,
		Message:  fmt.Sprintf(format, args...),
		Entity:   entity,
		EntityID: id,
	}
}

// changeAs extracts a typed before/after payload from a change.
func changeAs[T any](payload any) (T, bool) {
	switch v := payload.(type) {
	case T:
		return v, true
	case *T:
		if v != nil {
			return *v, true
		}
	}
	var zero T
	return zero, false
}
