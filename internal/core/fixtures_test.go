package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tdfffffffff/bto-housing-management-system/internal/core"
	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

const (
	applicantSingle  = "S1234567A" // single, 36
	applicantMarried = "S2345678B" // married, 25
	applicantYoung   = "S3456789C" // single, 30
	officerDan       = "T7654321B"
	officerEve       = "T1111111E"
	managerMabel     = "S5555555M"
	managerNed       = "S6666666N"
)

var fixedNow = time.Date(2024, time.February, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	t   *testing.T
	ctx context.Context
	svc *core.Service
}

func newFixture(t *testing.T, opts ...core.Option) *fixture {
	t.Helper()
	opts = append([]core.Option{core.WithClock(core.ClockFunc(func() time.Time { return fixedNow }))}, opts...)
	f := &fixture{t: t, ctx: context.Background(), svc: core.NewInMemoryService(core.NewDefaultRulesEngine(), opts...)}
	for _, p := range []domain.Person{
		{NRIC: applicantSingle, Name: "Alice", Age: 36, MaritalStatus: domain.MaritalSingle, Roles: domain.NewRoles(domain.RoleApplicant)},
		{NRIC: applicantMarried, Name: "Bala", Age: 25, MaritalStatus: domain.MaritalMarried, Roles: domain.NewRoles(domain.RoleApplicant)},
		{NRIC: applicantYoung, Name: "Chloe", Age: 30, MaritalStatus: domain.MaritalSingle, Roles: domain.NewRoles(domain.RoleApplicant)},
		{NRIC: officerDan, Name: "Daniel", Age: 29, MaritalStatus: domain.MaritalMarried, Roles: domain.NewRoles(domain.RoleOfficer)},
		{NRIC: officerEve, Name: "Eve", Age: 40, MaritalStatus: domain.MaritalSingle, Roles: domain.NewRoles(domain.RoleOfficer)},
		{NRIC: managerMabel, Name: "Mabel", Age: 50, MaritalStatus: domain.MaritalMarried, Roles: domain.NewRoles(domain.RoleManager)},
		{NRIC: managerNed, Name: "Ned", Age: 45, MaritalStatus: domain.MaritalMarried, Roles: domain.NewRoles(domain.RoleManager)},
	} {
		if _, _, err := f.svc.RegisterPerson(f.ctx, p); err != nil {
			t.Fatalf("register %s: %v", p.NRIC, err)
		}
	}
	return f
}

func window(t *testing.T, open, close time.Time) domain.Window {
	t.Helper()
	w, err := domain.NewWindow(open, close)
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	return w
}

// project creates a visible project owned by manager.
func (f *fixture) project(manager, name string, units map[domain.FlatType]int, slots int, w domain.Window) domain.Project {
	f.t.Helper()
	inv, err := domain.NewInventory(units, slots)
	if err != nil {
		f.t.Fatalf("inventory: %v", err)
	}
	p, _, err := f.svc.CreateProject(f.ctx, manager, domain.Project{Name: name, Neighborhood: "Yishun", Inventory: inv, Window: w})
	if err != nil {
		f.t.Fatalf("create project %s: %v", name, err)
	}
	p, _, err = f.svc.ToggleVisibility(f.ctx, manager, p.ID)
	if err != nil {
		f.t.Fatalf("toggle %s: %v", name, err)
	}
	return p
}

func (f *fixture) defaultProject() domain.Project {
	return f.project(managerMabel, "Acacia Breeze",
		map[domain.FlatType]int{domain.FlatTwoRoom: 2, domain.FlatThreeRoom: 3}, 3,
		window(f.t, domain.Date(2024, time.January, 1), domain.Date(2024, time.March, 1)))
}

func (f *fixture) approvedOfficer(officer, projectID, manager string) domain.Registration {
	f.t.Helper()
	reg, _, err := f.svc.SubmitRegistration(f.ctx, officer, projectID)
	if err != nil {
		f.t.Fatalf("submit registration: %v", err)
	}
	reg, _, err = f.svc.ReviewRegistration(f.ctx, manager, reg.ID, true)
	if err != nil {
		f.t.Fatalf("approve registration: %v", err)
	}
	return reg
}

// successful drives an application to SUCCESSFUL.
func (f *fixture) successful(applicant, projectID string, ft domain.FlatType) domain.Application {
	f.t.Helper()
	app, _, err := f.svc.SubmitApplication(f.ctx, applicant, projectID, ft)
	if err != nil {
		f.t.Fatalf("submit application: %v", err)
	}
	p, err := f.svc.GetProject(projectID)
	if err != nil {
		f.t.Fatalf("get project: %v", err)
	}
	app, _, err = f.svc.ReviewApplication(f.ctx, p.ManagerNRIC, app.ID, true)
	if err != nil {
		f.t.Fatalf("approve application: %v", err)
	}
	return app
}

// booked drives an application to BOOKED through an approved officer.
func (f *fixture) booked(applicant, officer, projectID string, ft domain.FlatType) (domain.Application, domain.Receipt) {
	f.t.Helper()
	app := f.successful(applicant, projectID, ft)
	if _, _, err := f.svc.RequestBooking(f.ctx, applicant, app.ID); err != nil {
		f.t.Fatalf("request booking: %v", err)
	}
	receipt, _, err := f.svc.BookFlat(f.ctx, officer, app.ID)
	if err != nil {
		f.t.Fatalf("book flat: %v", err)
	}
	app, err = f.svc.GetApplication(app.ID)
	if err != nil {
		f.t.Fatalf("get application: %v", err)
	}
	return app, receipt
}

func (f *fixture) available(projectID string, ft domain.FlatType) int {
	f.t.Helper()
	p, err := f.svc.GetProject(projectID)
	if err != nil {
		f.t.Fatalf("get project: %v", err)
	}
	return p.Inventory.Available(ft)
}

func expectKind(t *testing.T, err error, sentinel *domain.Error) {
	t.Helper()
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected %s, got %v", sentinel.Kind, err)
	}
}
