package core

import (
	"context"

	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

// InventoryBoundsRule blocks commits that leave a project with a negative
// quota or an officer slot counter outside [0, MaxOfficerSlots].
func InventoryBoundsRule() domain.Rule {
	return inventoryBoundsRule{}
}

type inventoryBoundsRule struct{}

func (inventoryBoundsRule) Name() string { return ruleInventoryBounds }

func (inventoryBoundsRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityProject || change.Action == domain.ActionDelete {
			continue
		}
		project, ok := changeAs[domain.Project](change.After)
		if !ok {
			continue
		}
		current, found := view.FindProject(project.ID)
		if !found {
			continue
		}
		for _, ft := range current.FlatTypes() {
			if n := current.Inventory.Units[ft]; n < 0 {
				res.Violations = append(res.Violations, blockf(ruleInventoryBounds, domain.EntityProject, current.ID,
					"project %s quota for %s is negative (%d)", current.Name, ft, n))
			}
		}
		if slots := current.Inventory.OfficerSlots; slots < 0 || slots > domain.MaxOfficerSlots {
			res.Violations = append(res.Violations, blockf(ruleInventoryBounds, domain.EntityProject, current.ID,
				"project %s officer slots %d outside [0,%d]", current.Name, slots, domain.MaxOfficerSlots))
		}
	}
	return res, nil
}
