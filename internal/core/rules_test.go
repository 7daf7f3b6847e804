package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

func ruleStore(t *testing.T) (PersistentStore, Project) {
	t.Helper()
	store := NewMemoryStore(NewDefaultRulesEngine())
	var project Project
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		for _, p := range []Person{
			{NRIC: "S1234567A", Name: "Alice", Age: 36, MaritalStatus: domain.MaritalSingle, Roles: domain.NewRoles(domain.RoleApplicant)},
			{NRIC: "T7654321B", Name: "Daniel", Age: 29, MaritalStatus: domain.MaritalMarried, Roles: domain.NewRoles(domain.RoleOfficer)},
		} {
			if _, err := tx.CreatePerson(p); err != nil {
				return err
			}
		}
		inv, _ := domain.NewInventory(map[FlatType]int{domain.FlatTwoRoom: 2}, 2)
		w, _ := domain.NewWindow(domain.Date(2024, time.January, 1), domain.Date(2024, time.March, 1))
		var err error
		project, err = tx.CreateProject(Project{Name: "Acacia", Inventory: inv, Window: w, ManagerNRIC: "S5555555M"})
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store, project
}

func expectBlockedBy(t *testing.T, err error, rule string) {
	t.Helper()
	var violation RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation from %s, got %v", rule, err)
	}
	for _, v := range violation.Result.Violations {
		if v.Rule == rule && v.Severity == SeverityBlock {
			return
		}
	}
	t.Fatalf("expected %s violation, got %+v", rule, violation.Result.Violations)
}

func pendingApp(nric, projectID string) Application {
	return Application{ApplicantNRIC: nric, ProjectID: projectID, FlatType: domain.FlatTwoRoom, Status: domain.ApplicationPending}
}

func TestDefaultRulesEngineRegistersInvariants(t *testing.T) {
	names := NewDefaultRulesEngine().Rules()
	want := map[string]bool{ruleInventoryBounds: true, ruleLifecycleTransition: true, ruleAllocationIntegrity: true}
	if len(names) != len(want) {
		t.Fatalf("unexpected rules %v", names)
	}
	for _, n := range names {
		if !want[n] {
			t.Fatalf("unexpected rule %s", n)
		}
	}
	if len(NewRulesEngine().Rules()) != 0 {
		t.Fatalf("expected empty engine")
	}
}

func TestInventoryBoundsRuleBlocksNegativeCounters(t *testing.T) {
	store, project := ruleStore(t)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateProject(project.ID, func(p *Project) error {
			p.Inventory.Units[domain.FlatTwoRoom] = -1
			return nil
		})
		return err
	})
	expectBlockedBy(t, err, ruleInventoryBounds)
	_, err = store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateProject(project.ID, func(p *Project) error {
			p.Inventory.OfficerSlots = domain.MaxOfficerSlots + 1
			return nil
		})
		return err
	})
	expectBlockedBy(t, err, ruleInventoryBounds)
	got, _ := store.GetProject(project.ID)
	if got.Inventory.Available(domain.FlatTwoRoom) != 2 || got.Inventory.OfficerSlots != 2 {
		t.Fatalf("blocked commit leaked: %+v", got.Inventory)
	}
}

func TestLifecycleTransitionRule(t *testing.T) {
	store, project := ruleStore(t)
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		app := pendingApp("S1234567A", project.ID)
		app.Status = domain.ApplicationBooked
		_, err := tx.CreateApplication(app)
		return err
	})
	expectBlockedBy(t, err, ruleLifecycleTransition)

	var app Application
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		app, err = tx.CreateApplication(pendingApp("S1234567A", project.ID))
		return err
	}); err != nil {
		t.Fatalf("create pending: %v", err)
	}
	for name, mutate := range map[string]func(*Application){
		"skip to booked":     func(a *Application) { a.Status = domain.ApplicationBooked },
		"unknown status":     func(a *Application) { a.Status = "LOST" },
		"flag while pending": func(a *Application) { a.WithdrawalRequested = true },
	} {
		_, err := store.RunInTransaction(ctx, func(tx Transaction) error {
			_, err := tx.UpdateApplication(app.ID, func(a *Application) error {
				mutate(a)
				return nil
			})
			return err
		})
		if err == nil {
			t.Fatalf("%s: expected block", name)
		}
		expectBlockedBy(t, err, ruleLifecycleTransition)
	}

	var reg Registration
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		reg, err = tx.CreateRegistration(Registration{OfficerNRIC: "T7654321B", ProjectID: project.ID, Status: domain.RegistrationPending})
		return err
	}); err != nil {
		t.Fatalf("create registration: %v", err)
	}
	_, err = store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateRegistration(reg.ID, func(r *Registration) error {
			r.Status = domain.RegistrationRejected
			return nil
		})
		return err
	})
	expectBlockedBy(t, err, ruleLifecycleTransition)

	reviewed := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateRegistration(reg.ID, func(r *Registration) error {
			r.Status = domain.RegistrationRejected
			r.ReviewedAt = &reviewed
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("reject: %v", err)
	}
	_, err = store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateRegistration(reg.ID, func(r *Registration) error {
			r.Status = domain.RegistrationPending
			return nil
		})
		return err
	})
	expectBlockedBy(t, err, ruleLifecycleTransition)
}

func TestAllocationIntegrityRule(t *testing.T) {
	store, project := ruleStore(t)
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, err := tx.CreateApplication(pendingApp("S1234567A", project.ID)); err != nil {
			return err
		}
		_, err := tx.CreateApplication(pendingApp("S1234567A", project.ID))
		return err
	})
	expectBlockedBy(t, err, ruleAllocationIntegrity)

	_, err = store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, err := tx.CreateApplication(pendingApp("T7654321B", project.ID)); err != nil {
			return err
		}
		_, err := tx.CreateRegistration(Registration{OfficerNRIC: "T7654321B", ProjectID: project.ID, Status: domain.RegistrationPending})
		return err
	})
	expectBlockedBy(t, err, ruleAllocationIntegrity)

	reviewed := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	_, err = store.RunInTransaction(ctx, func(tx Transaction) error {
		w, _ := domain.NewWindow(domain.Date(2024, time.February, 1), domain.Date(2024, time.April, 1))
		other, err := tx.CreateProject(Project{Name: "Bedok", Window: w, ManagerNRIC: "S6666666N"})
		if err != nil {
			return err
		}
		for _, pid := range []string{project.ID, other.ID} {
			if _, err := tx.CreateRegistration(Registration{OfficerNRIC: "T7654321B", ProjectID: pid, Status: domain.RegistrationApproved, ReviewedAt: &reviewed}); err != nil {
				return err
			}
		}
		return nil
	})
	expectBlockedBy(t, err, ruleAllocationIntegrity)
}

func TestChangeAsAcceptsValuesAndPointers(t *testing.T) {
	app := Application{Base: Base{ID: "7"}}
	if got, ok := changeAs[Application](app); !ok || got.ID != "7" {
		t.Fatalf("value payload not decoded")
	}
	if got, ok := changeAs[Application](&app); !ok || got.ID != "7" {
		t.Fatalf("pointer payload not decoded")
	}
	var nilApp *Application
	if _, ok := changeAs[Application](nilApp); ok {
		t.Fatalf("nil pointer should not decode")
	}
	if _, ok := changeAs[Application](Project{}); ok {
		t.Fatalf("foreign payload should not decode")
	}
}
