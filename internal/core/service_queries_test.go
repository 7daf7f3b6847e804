package core_test

import (
	"testing"
	"time"

	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

func projectNames(ps []domain.Project) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestProjectQueries(t *testing.T) {
	f := newFixture(t)
	acacia := f.defaultProject()
	bedok := f.project(managerNed, "Bedok Vista", map[domain.FlatType]int{domain.FlatThreeRoom: 4}, 2,
		window(t, domain.Date(2024, time.January, 1), domain.Date(2024, time.March, 1)))
	hidden := f.project(managerMabel, "Clementi Court", map[domain.FlatType]int{domain.FlatTwoRoom: 1}, 2,
		window(t, domain.Date(2024, time.April, 1), domain.Date(2024, time.May, 1)))
	if _, _, err := f.svc.ToggleVisibility(f.ctx, managerMabel, hidden.ID); err != nil {
		t.Fatalf("hide: %v", err)
	}

	if got := projectNames(f.svc.ListVisibleProjects()); len(got) != 2 || got[0] != "Acacia Breeze" || got[1] != "Bedok Vista" {
		t.Fatalf("unexpected visible projects %v", got)
	}
	if got := f.svc.ListProjectsByManager(managerMabel); len(got) != 2 {
		t.Fatalf("expected two projects for Mabel, got %v", projectNames(got))
	}
	if len(f.svc.ListProjects()) != 3 {
		t.Fatalf("expected three projects")
	}
	desc := f.svc.FilterProjects(domain.ProjectFilter{Sort: domain.SortNameDesc})
	if got := projectNames(desc); got[0] != "Clementi Court" || got[2] != "Acacia Breeze" {
		t.Fatalf("unexpected descending order %v", got)
	}
	byType := f.svc.FilterProjects(domain.ProjectFilter{FlatType: domain.FlatThreeRoom})
	if got := projectNames(byType); len(got) != 2 {
		t.Fatalf("expected two projects offering three-room, got %v", got)
	}
	p, err := f.svc.GetProjectByName("BEDOK vista")
	if err != nil || p.ID != bedok.ID {
		t.Fatalf("case-insensitive lookup failed: %v %+v", err, p)
	}
	_, err = f.svc.GetProjectByName("nowhere")
	expectKind(t, err, domain.ErrNotFound)

	// Single 36: two-room only, so Bedok (three-room only) is filtered out.
	single, err := f.svc.ListProjectsForApplicant(applicantSingle, domain.ProjectFilter{})
	if err != nil {
		t.Fatalf("list for applicant: %v", err)
	}
	if got := projectNames(single); len(got) != 1 || got[0] != acacia.Name {
		t.Fatalf("unexpected projects for single applicant %v", got)
	}
	young, _ := f.svc.ListProjectsForApplicant(applicantYoung, domain.ProjectFilter{})
	if len(young) != 0 {
		t.Fatalf("ineligible applicant should see nothing, got %v", projectNames(young))
	}
	if _, _, err := f.svc.SubmitRegistration(f.ctx, officerDan, bedok.ID); err != nil {
		t.Fatalf("submit registration: %v", err)
	}
	officer, _ := f.svc.ListProjectsForApplicant(officerDan, domain.ProjectFilter{})
	if got := projectNames(officer); len(got) != 1 || got[0] != acacia.Name {
		t.Fatalf("officer should not see registered project, got %v", got)
	}
	_, err = f.svc.ListProjectsForApplicant("S9999999Z", domain.ProjectFilter{})
	expectKind(t, err, domain.ErrNotFound)
}

func TestApplicationAndRegistrationQueries(t *testing.T) {
	f := newFixture(t)
	acacia := f.defaultProject()
	bedok := f.project(managerNed, "Bedok Vista", map[domain.FlatType]int{domain.FlatTwoRoom: 2, domain.FlatThreeRoom: 4}, 2,
		window(t, domain.Date(2024, time.May, 1), domain.Date(2024, time.June, 1)))
	f.approvedOfficer(officerDan, acacia.ID, managerMabel)
	eveReg, _, err := f.svc.SubmitRegistration(f.ctx, officerEve, bedok.ID)
	if err != nil {
		t.Fatalf("submit eve: %v", err)
	}

	booked, _ := f.booked(applicantSingle, officerDan, acacia.ID, domain.FlatTwoRoom)
	queued := f.successful(applicantMarried, acacia.ID, domain.FlatThreeRoom)
	if _, _, err := f.svc.RequestBooking(f.ctx, applicantMarried, queued.ID); err != nil {
		t.Fatalf("request booking: %v", err)
	}
	if _, _, err := f.svc.RequestWithdrawal(f.ctx, applicantSingle, booked.ID); err != nil {
		t.Fatalf("request withdrawal: %v", err)
	}

	got, err := f.svc.GetApplicationByApplicant(applicantMarried)
	if err != nil || got.ID != queued.ID {
		t.Fatalf("application by applicant: %v %+v", err, got)
	}
	_, err = f.svc.GetApplicationByApplicant(applicantYoung)
	expectKind(t, err, domain.ErrNotFound)
	if n := len(f.svc.ListApplicationsByProject(acacia.ID)); n != 2 {
		t.Fatalf("expected two applications for acacia, got %d", n)
	}
	if n := len(f.svc.ListApplicationsByStatus(domain.ApplicationPendingBooking)); n != 1 {
		t.Fatalf("expected one pending booking, got %d", n)
	}
	if w := f.svc.ListWithdrawalRequests(); len(w) != 1 || w[0].ID != booked.ID {
		t.Fatalf("unexpected withdrawal requests %+v", w)
	}
	if b := f.svc.ListBookedApplications(); len(b) != 1 || b[0].ID != booked.ID {
		t.Fatalf("unexpected booked applications %+v", b)
	}
	if q := f.svc.ListBookingQueue(officerDan); len(q) != 1 || q[0].ID != queued.ID {
		t.Fatalf("unexpected booking queue %+v", q)
	}
	if q := f.svc.ListBookingQueue(officerEve); len(q) != 0 {
		t.Fatalf("pending officer has no queue, got %+v", q)
	}

	if regs := f.svc.ListRegistrationsByOfficer(officerDan); len(regs) != 1 || regs[0].Status != domain.RegistrationApproved {
		t.Fatalf("unexpected officer registrations %+v", regs)
	}
	pending := domain.RegistrationPending
	if regs := f.svc.ListRegistrationsByProject(bedok.ID, &pending); len(regs) != 1 || regs[0].ID != eveReg.ID {
		t.Fatalf("unexpected pending registrations %+v", regs)
	}
	if regs := f.svc.ListRegistrationsByProject(bedok.ID, nil); len(regs) != 1 {
		t.Fatalf("unexpected registrations %+v", regs)
	}
	if regs := f.svc.ListApprovedRegistrations(acacia.ID); len(regs) != 1 || regs[0].OfficerNRIC != officerDan {
		t.Fatalf("unexpected approved registrations %+v", regs)
	}
	if regs := f.svc.ListRegistrationsByManager(managerNed); len(regs) != 1 || regs[0].OfficerNRIC != officerEve {
		t.Fatalf("unexpected manager registrations %+v", regs)
	}
	if _, err := f.svc.GetRegistration("404"); err == nil {
		t.Fatalf("expected missing registration")
	}
}
