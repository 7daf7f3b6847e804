package core

import (
	"strings"

	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

func normalizeNRIC(nric string) string {
	return strings.ToUpper(strings.TrimSpace(nric))
}

func findPerson(view TransactionView, nric string) (Person, error) {
	nric = normalizeNRIC(nric)
	p, ok := view.FindPerson(nric)
	if !ok {
		return Person{}, domain.NotFound(EntityPerson, nric)
	}
	return p, nil
}

func findProject(view TransactionView, id string) (Project, error) {
	p, ok := view.FindProject(id)
	if !ok {
		return Project{}, domain.NotFound(EntityProject, id)
	}
	return p, nil
}

func findApplication(view TransactionView, id string) (Application, error) {
	a, ok := view.FindApplication(id)
	if !ok {
		return Application{}, domain.NotFound(EntityApplication, id)
	}
	return a, nil
}

func findRegistration(view TransactionView, id string) (Registration, error) {
	r, ok := view.FindRegistration(id)
	if !ok {
		return Registration{}, domain.NotFound(EntityRegistration, id)
	}
	return r, nil
}

// applicationOf returns the applicant's application, if any. Retired
// (UNSUCCESSFUL) applications still count.
func applicationOf(view TransactionView, nric string) (Application, bool) {
	for _, a := range view.ListApplications() {
		if a.ApplicantNRIC == nric {
			return a, true
		}
	}
	return Application{}, false
}

func registrationsOf(view TransactionView, nric string) []Registration {
	var out []Registration
	for _, r := range view.ListRegistrations() {
		if r.OfficerNRIC == nric {
			out = append(out, r)
		}
	}
	return out
}

func heldRegistration(view TransactionView, nric, projectID string) (Registration, bool) {
	for _, r := range registrationsOf(view, nric) {
		if r.Status.Held() && (projectID == "" || r.ProjectID == projectID) {
			return r, true
		}
	}
	return Registration{}, false
}

// approvedCommitments lists the windows of the officer's APPROVED registrations,
// skipping the registration identified by exclude.
func approvedCommitments(view TransactionView, nric, exclude string) []domain.Commitment {
	var out []domain.Commitment
	for _, r := range registrationsOf(view, nric) {
		if r.Status != domain.RegistrationApproved || r.ID == exclude {
			continue
		}
		p, ok := view.FindProject(r.ProjectID)
		if !ok {
			continue
		}
		out = append(out, domain.Commitment{ProjectID: p.ID, Window: p.Window})
	}
	return out
}

// requireManagerOf checks that nric names a manager owning project.
func requireManagerOf(view TransactionView, nric string, project Project) (Person, error) {
	manager, err := findPerson(view, nric)
	if err != nil {
		return Person{}, err
	}
	if err := manager.Require(domain.RoleManager); err != nil {
		return Person{}, err
	}
	if project.ManagerNRIC != manager.NRIC {
		return Person{}, domain.EntityError(domain.KindForbidden, EntityProject, project.ID, "%s does not manage %s", manager.NRIC, project.Name)
	}
	return manager, nil
}
