package core

import (
	"context"
	"strings"

	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

// ProjectEdit lists the project fields a manager may change. Nil fields are
// left untouched; a nil Prices map keeps the current prices.
type ProjectEdit struct {
	Name         *string
	Neighborhood *string
	Window       *domain.Window
	Prices       map[FlatType]int
}

// CreateProject validates and stores a project owned by managerNRIC. The
// manager may not own another project whose window overlaps the new one.
func (s *Service) CreateProject(ctx context.Context, managerNRIC string, project Project) (Project, Result, error) {
	var created Project
	res, err := s.run(ctx, "create_project", []any{"manager", managerNRIC, "name", project.Name}, func(tx Transaction) error {
		view := tx.Snapshot()
		manager, err := findPerson(view, managerNRIC)
		if err != nil {
			return err
		}
		if err := manager.Require(domain.RoleManager); err != nil {
			return err
		}
		project.ID = ""
		project.ManagerNRIC = manager.NRIC
		project.Name = strings.TrimSpace(project.Name)
		project.Neighborhood = strings.TrimSpace(project.Neighborhood)
		window, err := domain.NewWindow(project.Window.Open, project.Window.Close)
		if err != nil {
			return err
		}
		project.Window = window
		if err := validateProject(project); err != nil {
			return err
		}
		if err := checkProjectConflicts(view, project); err != nil {
			return err
		}
		created, err = tx.CreateProject(project)
		return err
	})
	return created, res, err
}

// EditProject applies a partial update to a project owned by managerNRIC.
// Counters are not editable here; use AddUnits.
func (s *Service) EditProject(ctx context.Context, managerNRIC, projectID string, edit ProjectEdit) (Project, Result, error) {
	var updated Project
	res, err := s.run(ctx, "edit_project", []any{"manager", managerNRIC, "project_id", projectID}, func(tx Transaction) error {
		view := tx.Snapshot()
		project, err := findProject(view, projectID)
		if err != nil {
			return err
		}
		if _, err := requireManagerOf(view, managerNRIC, project); err != nil {
			return err
		}
		if edit.Name != nil {
			project.Name = strings.TrimSpace(*edit.Name)
		}
		if edit.Neighborhood != nil {
			project.Neighborhood = strings.TrimSpace(*edit.Neighborhood)
		}
		if edit.Window != nil {
			window, err := domain.NewWindow(edit.Window.Open, edit.Window.Close)
			if err != nil {
				return err
			}
			project.Window = window
		}
		if edit.Prices != nil {
			project.Prices = make(map[FlatType]int, len(edit.Prices))
			for ft, price := range edit.Prices {
				project.Prices[ft] = price
			}
		}
		if err := validateProject(project); err != nil {
			return err
		}
		if err := checkProjectConflicts(view, project); err != nil {
			return err
		}
		updated, err = tx.UpdateProject(projectID, func(p *Project) error {
			p.Name = project.Name
			p.Neighborhood = project.Neighborhood
			p.Window = project.Window
			p.Prices = project.Prices
			return nil
		})
		return err
	})
	return updated, res, err
}

// AddUnits releases count additional units of a flat type into the project's
// quota. A flat type not yet offered becomes offered.
func (s *Service) AddUnits(ctx context.Context, managerNRIC, projectID string, flatType FlatType, count int) (Project, Result, error) {
	var updated Project
	res, err := s.run(ctx, "add_units", []any{"manager", managerNRIC, "project_id", projectID, "flat_type", flatType, "count", count}, func(tx Transaction) error {
		view := tx.Snapshot()
		project, err := findProject(view, projectID)
		if err != nil {
			return err
		}
		if _, err := requireManagerOf(view, managerNRIC, project); err != nil {
			return err
		}
		updated, err = tx.UpdateProject(projectID, func(p *Project) error {
			return p.Inventory.ReleaseUnit(flatType, count)
		})
		return err
	})
	return updated, res, err
}

// DeleteProject removes a project that no application or registration references.
func (s *Service) DeleteProject(ctx context.Context, managerNRIC, projectID string) (Result, error) {
	return s.run(ctx, "delete_project", []any{"manager", managerNRIC, "project_id", projectID}, func(tx Transaction) error {
		view := tx.Snapshot()
		project, err := findProject(view, projectID)
		if err != nil {
			return err
		}
		if _, err := requireManagerOf(view, managerNRIC, project); err != nil {
			return err
		}
		return tx.DeleteProject(projectID)
	})
}

// ToggleVisibility flips whether applicants can see the project.
func (s *Service) ToggleVisibility(ctx context.Context, managerNRIC, projectID string) (Project, Result, error) {
	var updated Project
	res, err := s.run(ctx, "toggle_visibility", []any{"manager", managerNRIC, "project_id", projectID}, func(tx Transaction) error {
		view := tx.Snapshot()
		project, err := findProject(view, projectID)
		if err != nil {
			return err
		}
		if _, err := requireManagerOf(view, managerNRIC, project); err != nil {
			return err
		}
		updated, err = tx.UpdateProject(projectID, func(p *Project) error {
			p.Visible = !p.Visible
			return nil
		})
		return err
	})
	return updated, res, err
}

func validateProject(p Project) error {
	if p.Name == "" {
		return domain.EntityError(domain.KindInvalidArgument, EntityProject, p.ID, "name required")
	}
	if err := p.Window.Validate(); err != nil {
		return err
	}
	if err := p.Inventory.Validate(); err != nil {
		return err
	}
	for ft, price := range p.Prices {
		if !ft.Valid() {
			return domain.EntityError(domain.KindInvalidArgument, EntityProject, p.ID, "price for unknown flat type %q", ft)
		}
		if price < 0 {
			return domain.EntityError(domain.KindInvalidArgument, EntityProject, p.ID, "price for %s cannot be negative", ft)
		}
	}
	return nil
}

// checkProjectConflicts enforces case-insensitive name uniqueness and that a
// manager's project windows never overlap. p itself is skipped by ID.
func checkProjectConflicts(view TransactionView, p Project) error {
	for _, other := range view.ListProjects() {
		if p.ID != "" && other.ID == p.ID {
			continue
		}
		if domain.SameName(other.Name, p.Name) {
			return domain.EntityError(domain.KindInvalidArgument, EntityProject, other.ID, "project name %q already taken", p.Name)
		}
		if other.ManagerNRIC == p.ManagerNRIC && other.Window.Overlaps(p.Window) {
			return domain.EntityError(domain.KindOverlappingCommitment, EntityProject, other.ID,
				"manager %s already handles %s during %s", p.ManagerNRIC, other.Name, other.Window)
		}
	}
	return nil
}
