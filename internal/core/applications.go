package core

import (
	"context"
	"strconv"

	"github.com/tdfffffffff/bto-housing-management-system/internal/events"
	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

// WithdrawalDecision reports the outcome of a withdrawal review together with
// the application as it stands afterwards.
type WithdrawalDecision struct {
	Application Application       `json:"application"`
	Outcome     WithdrawalOutcome `json:"outcome"`
}

// SubmitApplication creates a PENDING application for one flat type. An
// applicant gets exactly one application ever, and an officer holding a
// pending or approved registration cannot apply.
func (s *Service) SubmitApplication(ctx context.Context, applicantNRIC, projectID string, flatType FlatType) (Application, Result, error) {
	var created Application
	res, err := s.run(ctx, "submit_application", []any{"applicant", applicantNRIC, "project_id", projectID, "flat_type", flatType}, func(tx Transaction) error {
		view := tx.Snapshot()
		applicant, err := findPerson(view, applicantNRIC)
		if err != nil {
			return err
		}
		project, err := findProject(view, projectID)
		if err != nil {
			return err
		}
		if existing, ok := applicationOf(view, applicant.NRIC); ok {
			return domain.EntityError(domain.KindDuplicateApplication, EntityPerson, applicant.NRIC, "already holds application %s (%s)", existing.ID, existing.Status)
		}
		if reg, ok := heldRegistration(view, applicant.NRIC, ""); ok {
			return domain.EntityError(domain.KindRoleConflict, EntityPerson, applicant.NRIC, "holds %s registration %s for project %s", reg.Status, reg.ID, reg.ProjectID)
		}
		app, err := domain.NewApplication(applicant, project, flatType)
		if err != nil {
			return err
		}
		created, err = tx.CreateApplication(app)
		return err
	})
	if err != nil {
		return Application{}, res, err
	}
	s.publish(ctx, events.ApplicationSubmitted, created.ID, created.ProjectID, created.ApplicantNRIC, map[string]string{
		"flat_type": string(created.FlatType),
	})
	return created, res, nil
}

// ReviewApplication records the project manager's decision on a PENDING
// application. Approval checks the remaining quota but does not reserve it.
func (s *Service) ReviewApplication(ctx context.Context, managerNRIC, applicationID string, approve bool) (Application, Result, error) {
	var reviewed Application
	res, err := s.run(ctx, "review_application", []any{"manager", managerNRIC, "application_id", applicationID, "approve", approve}, func(tx Transaction) error {
		view := tx.Snapshot()
		app, err := findApplication(view, applicationID)
		if err != nil {
			return err
		}
		project, err := findProject(view, app.ProjectID)
		if err != nil {
			return err
		}
		if _, err := requireManagerOf(view, managerNRIC, project); err != nil {
			return err
		}
		reviewed, err = tx.UpdateApplication(app.ID, func(a *Application) error {
			return a.Review(approve, project.Inventory)
		})
		return err
	})
	if err != nil {
		return Application{}, res, err
	}
	s.publish(ctx, events.ApplicationReviewed, reviewed.ID, reviewed.ProjectID, normalizeNRIC(managerNRIC), map[string]string{
		"approved": strconv.FormatBool(approve),
		"status":   string(reviewed.Status),
	})
	return reviewed, res, nil
}

// RequestBooking queues the applicant's SUCCESSFUL application for an officer.
func (s *Service) RequestBooking(ctx context.Context, applicantNRIC, applicationID string) (Application, Result, error) {
	var queued Application
	res, err := s.run(ctx, "request_booking", []any{"applicant", applicantNRIC, "application_id", applicationID}, func(tx Transaction) error {
		app, err := ownApplication(tx.Snapshot(), applicantNRIC, applicationID)
		if err != nil {
			return err
		}
		queued, err = tx.UpdateApplication(app.ID, func(a *Application) error {
			return a.RequestBooking()
		})
		return err
	})
	return queued, res, err
}

// BookFlat consumes one unit for a PENDING_BOOKING application and issues the
// receipt. The officer must hold an APPROVED registration for the project.
// The quota is re-checked here since approval did not reserve it.
func (s *Service) BookFlat(ctx context.Context, officerNRIC, applicationID string) (Receipt, Result, error) {
	var receipt Receipt
	res, err := s.run(ctx, "book_flat", []any{"officer", officerNRIC, "application_id", applicationID}, func(tx Transaction) error {
		view := tx.Snapshot()
		officer, err := findPerson(view, officerNRIC)
		if err != nil {
			return err
		}
		if err := officer.Require(domain.RoleOfficer); err != nil {
			return err
		}
		app, err := findApplication(view, applicationID)
		if err != nil {
			return err
		}
		if !officerApprovedFor(view, officer.NRIC, app.ProjectID) {
			return domain.EntityError(domain.KindForbidden, EntityProject, app.ProjectID, "officer %s is not approved for this project", officer.NRIC)
		}
		applicant, err := findPerson(view, app.ApplicantNRIC)
		if err != nil {
			return err
		}
		booked := app
		project, err := tx.UpdateProject(app.ProjectID, func(p *Project) error {
			return booked.Book(&p.Inventory)
		})
		if err != nil {
			return err
		}
		booked, err = tx.UpdateApplication(app.ID, func(a *Application) error {
			a.Status = booked.Status
			return nil
		})
		if err != nil {
			return err
		}
		receipt = domain.NewReceipt(s.newID(), booked, applicant, project, officer, tx.Now())
		return nil
	})
	if err != nil {
		return Receipt{}, res, err
	}
	s.archiveReceipt(ctx, receipt)
	s.publish(ctx, events.BookingConfirmed, receipt.ApplicationID, receipt.ProjectID, receipt.OfficerNRIC, map[string]string{
		"receipt_id": receipt.ID,
		"applicant":  receipt.ApplicantNRIC,
		"flat_type":  string(receipt.FlatType),
	})
	return receipt, res, nil
}

// RequestWithdrawal flags the applicant's SUCCESSFUL or BOOKED application for
// manager review.
func (s *Service) RequestWithdrawal(ctx context.Context, applicantNRIC, applicationID string) (Application, Result, error) {
	var flagged Application
	res, err := s.run(ctx, "request_withdrawal", []any{"applicant", applicantNRIC, "application_id", applicationID}, func(tx Transaction) error {
		app, err := ownApplication(tx.Snapshot(), applicantNRIC, applicationID)
		if err != nil {
			return err
		}
		flagged, err = tx.UpdateApplication(app.ID, func(a *Application) error {
			return a.RequestWithdrawal()
		})
		return err
	})
	if err != nil {
		return Application{}, res, err
	}
	s.publish(ctx, events.WithdrawalRequested, flagged.ID, flagged.ProjectID, flagged.ApplicantNRIC, map[string]string{
		"status": string(flagged.Status),
	})
	return flagged, res, nil
}

// ReviewWithdrawal decides an outstanding withdrawal request. Approval returns
// a booked unit to the quota and retires the application. Rejection is not an
// error: it reports WithdrawalDeclined and changes nothing, so the request
// stays outstanding.
func (s *Service) ReviewWithdrawal(ctx context.Context, managerNRIC, applicationID string, approve bool) (WithdrawalDecision, Result, error) {
	attrs := []any{"manager", managerNRIC, "application_id", applicationID, "approve", approve}
	if !approve {
		var decision WithdrawalDecision
		err := s.view(ctx, "review_withdrawal", attrs, func(view TransactionView) error {
			app, err := findApplication(view, applicationID)
			if err != nil {
				return err
			}
			project, err := findProject(view, app.ProjectID)
			if err != nil {
				return err
			}
			if _, err := requireManagerOf(view, managerNRIC, project); err != nil {
				return err
			}
			if err := app.CanReviewWithdrawal(); err != nil {
				return err
			}
			decision = WithdrawalDecision{Application: app, Outcome: domain.WithdrawalDeclined}
			return nil
		})
		return decision, Result{}, err
	}

	var decision WithdrawalDecision
	var released bool
	res, err := s.run(ctx, "review_withdrawal", attrs, func(tx Transaction) error {
		view := tx.Snapshot()
		app, err := findApplication(view, applicationID)
		if err != nil {
			return err
		}
		project, err := findProject(view, app.ProjectID)
		if err != nil {
			return err
		}
		if _, err := requireManagerOf(view, managerNRIC, project); err != nil {
			return err
		}
		withdrawn := app
		released = app.Status == domain.ApplicationBooked
		if released {
			if _, err := tx.UpdateProject(project.ID, func(p *Project) error {
				return withdrawn.ApproveWithdrawal(&p.Inventory)
			}); err != nil {
				return err
			}
		} else {
			inv := project.Inventory.Clone()
			if err := withdrawn.ApproveWithdrawal(&inv); err != nil {
				return err
			}
		}
		updated, err := tx.UpdateApplication(app.ID, func(a *Application) error {
			a.Status = withdrawn.Status
			a.WithdrawalRequested = withdrawn.WithdrawalRequested
			return nil
		})
		if err != nil {
			return err
		}
		decision = WithdrawalDecision{Application: updated, Outcome: domain.WithdrawalApproved}
		return nil
	})
	if err != nil {
		return WithdrawalDecision{}, res, err
	}
	s.publish(ctx, events.WithdrawalApproved, decision.Application.ID, decision.Application.ProjectID, normalizeNRIC(managerNRIC), map[string]string{
		"unit_released": strconv.FormatBool(released),
		"flat_type":     string(decision.Application.FlatType),
	})
	return decision, res, nil
}

// ownApplication loads an application and checks that nric submitted it.
func ownApplication(view TransactionView, nric, applicationID string) (Application, error) {
	applicant, err := findPerson(view, nric)
	if err != nil {
		return Application{}, err
	}
	app, err := findApplication(view, applicationID)
	if err != nil {
		return Application{}, err
	}
	if app.ApplicantNRIC != applicant.NRIC {
		return Application{}, domain.EntityError(domain.KindForbidden, EntityApplication, app.ID, "application belongs to another applicant")
	}
	return app, nil
}

func officerApprovedFor(view TransactionView, nric, projectID string) bool {
	for _, r := range registrationsOf(view, nric) {
		if r.ProjectID == projectID && r.Status == domain.RegistrationApproved {
			return true
		}
	}
	return false
}
