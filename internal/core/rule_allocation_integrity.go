package core

import (
	"context"

	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

// AllocationIntegrityRule re-checks the cross-entity invariants after every
// transaction: one application per applicant, no person holding both an
// application and a live registration, and no overlapping approved
// registrations for one officer.
func AllocationIntegrityRule() domain.Rule {
	return allocationIntegrityRule{}
}

type allocationIntegrityRule struct{}

func (allocationIntegrityRule) Name() string { return ruleAllocationIntegrity }

func (allocationIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	if !touchesAllocation(changes) {
		return res, nil
	}

	applications := make(map[string][]string)
	for _, app := range view.ListApplications() {
		applications[app.ApplicantNRIC] = append(applications[app.ApplicantNRIC], app.ID)
	}
	for nric, ids := range applications {
		if len(ids) > 1 {
			res.Violations = append(res.Violations, blockf(ruleAllocationIntegrity, domain.EntityPerson, nric,
				"applicant %s holds %d applications %v", nric, len(ids), ids))
		}
	}

	projects := make(map[string]domain.Project)
	for _, p := range view.ListProjects() {
		projects[p.ID] = p
	}
	approved := make(map[string][]domain.Registration)
	for _, reg := range view.ListRegistrations() {
		if !reg.Status.Held() {
			continue
		}
		if ids, ok := applications[reg.OfficerNRIC]; ok {
			res.Violations = append(res.Violations, blockf(ruleAllocationIntegrity, domain.EntityRegistration, reg.ID,
				"officer %s holds registration %s and application %s", reg.OfficerNRIC, reg.ID, ids[0]))
		}
		if reg.Status == domain.RegistrationApproved {
			approved[reg.OfficerNRIC] = append(approved[reg.OfficerNRIC], reg)
		}
	}
	for nric, regs := range approved {
		for i := 0; i < len(regs); i++ {
			for j := i + 1; j < len(regs); j++ {
				a, b := projects[regs[i].ProjectID], projects[regs[j].ProjectID]
				if a.Window.Overlaps(b.Window) {
					res.Violations = append(res.Violations, blockf(ruleAllocationIntegrity, domain.EntityRegistration, regs[j].ID,
						"officer %s approved for overlapping projects %s %s and %s %s", nric, a.ID, a.Window, b.ID, b.Window))
				}
			}
		}
	}
	return res, nil
}

func touchesAllocation(changes []domain.Change) bool {
	for _, c := range changes {
		switch c.Entity {
		case domain.EntityApplication, domain.EntityRegistration, domain.EntityProject:
			return true
		}
	}
	return false
}
