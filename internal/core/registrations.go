package core

import (
	"context"
	"strconv"

	"github.com/tdfffffffff/bto-housing-management-system/internal/events"
	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

// SubmitRegistration files an officer's request to administer a project.
func (s *Service) SubmitRegistration(ctx context.Context, officerNRIC, projectID string) (Registration, Result, error) {
	var created Registration
	res, err := s.run(ctx, "submit_registration", []any{"officer", officerNRIC, "project_id", projectID}, func(tx Transaction) error {
		view := tx.Snapshot()
		officer, err := findPerson(view, officerNRIC)
		if err != nil {
			return err
		}
		project, err := findProject(view, projectID)
		if err != nil {
			return err
		}
		if err := officer.Require(domain.RoleOfficer); err != nil {
			return err
		}
		if existing, ok := heldRegistration(view, officer.NRIC, project.ID); ok {
			return domain.EntityError(domain.KindInvalidState, EntityRegistration, existing.ID,
				"duplicate registration: officer %s already %s for project %s", officer.NRIC, existing.Status, project.ID)
		}
		_, hasApplication := applicationOf(view, officer.NRIC)
		reg, err := domain.NewRegistration(officer, project, hasApplication, approvedCommitments(view, officer.NRIC, ""), tx.Now())
		if err != nil {
			return err
		}
		created, err = tx.CreateRegistration(reg)
		return err
	})
	if err != nil {
		return Registration{}, res, err
	}
	s.publish(ctx, events.RegistrationSubmitted, created.ID, created.ProjectID, created.OfficerNRIC, nil)
	return created, res, nil
}

// ReviewRegistration records the project manager's decision on a PENDING
// registration. Approval takes an officer slot and re-checks the officer's
// approved windows, which may have changed since submission.
func (s *Service) ReviewRegistration(ctx context.Context, managerNRIC, registrationID string, approve bool) (Registration, Result, error) {
	var reviewed Registration
	res, err := s.run(ctx, "review_registration", []any{"manager", managerNRIC, "registration_id", registrationID, "approve", approve}, func(tx Transaction) error {
		view := tx.Snapshot()
		reg, err := findRegistration(view, registrationID)
		if err != nil {
			return err
		}
		project, err := findProject(view, reg.ProjectID)
		if err != nil {
			return err
		}
		if _, err := requireManagerOf(view, managerNRIC, project); err != nil {
			return err
		}
		decided := reg
		now := tx.Now()
		if approve && reg.Status == domain.RegistrationPending {
			for _, c := range approvedCommitments(view, reg.OfficerNRIC, reg.ID) {
				if c.Window.Overlaps(project.Window) {
					return domain.EntityError(domain.KindOverlappingCommitment, EntityRegistration, reg.ID,
						"officer already approved for project %s during %s", c.ProjectID, c.Window)
				}
			}
			if _, err := tx.UpdateProject(project.ID, func(p *Project) error {
				return decided.Review(true, &p.Inventory, now)
			}); err != nil {
				return err
			}
		} else {
			inv := project.Inventory.Clone()
			if err := decided.Review(approve, &inv, now); err != nil {
				return err
			}
		}
		reviewed, err = tx.UpdateRegistration(reg.ID, func(r *Registration) error {
			r.Status = decided.Status
			r.ReviewedAt = decided.ReviewedAt
			return nil
		})
		return err
	})
	if err != nil {
		return Registration{}, res, err
	}
	s.publish(ctx, events.RegistrationReviewed, reviewed.ID, reviewed.ProjectID, normalizeNRIC(managerNRIC), map[string]string{
		"approved": strconv.FormatBool(approve),
		"status":   string(reviewed.Status),
	})
	return reviewed, res, nil
}
