package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

func seed(t *testing.T, store *Store) domain.Application {
	t.Helper()
	var app domain.Application
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreatePerson(domain.Person{NRIC: "S1234567A", Name: "Alice", Age: 36, MaritalStatus: domain.MaritalSingle, Roles: domain.NewRoles(domain.RoleApplicant)}); err != nil {
			return err
		}
		inv, _ := domain.NewInventory(map[domain.FlatType]int{domain.FlatTwoRoom: 2}, 3)
		w, _ := domain.NewWindow(domain.Date(2024, time.January, 1), domain.Date(2024, time.March, 1))
		p, err := tx.CreateProject(domain.Project{Name: "Acacia", Inventory: inv, Window: w, Prices: map[domain.FlatType]int{domain.FlatTwoRoom: 250000}})
		if err != nil {
			return err
		}
		app, err = tx.CreateApplication(domain.Application{ApplicantNRIC: "S1234567A", ProjectID: p.ID, FlatType: domain.FlatTwoRoom, Status: domain.ApplicationPending})
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return app
}

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	app := seed(t, store)
	if store.Path() != path {
		t.Fatalf("unexpected path %q", store.Path())
	}
	_ = store.Close()

	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if got := len(reloaded.ListPeople()); got != 1 {
		t.Fatalf("expected 1 person, got %d", got)
	}
	p, ok := reloaded.GetProject("1")
	if !ok {
		t.Fatalf("expected project 1 after reload")
	}
	if p.Inventory.Available(domain.FlatTwoRoom) != 2 || p.Inventory.OfficerSlots != 3 || p.PriceFor(domain.FlatTwoRoom) != 250000 {
		t.Fatalf("inventory not round-tripped: %+v", p)
	}
	got, ok := reloaded.GetApplication(app.ID)
	if !ok || got.Status != domain.ApplicationPending {
		t.Fatalf("application not round-tripped: %+v", got)
	}

	var next domain.Project
	if _, err := reloaded.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		next, err = tx.CreateProject(domain.Project{Name: "Second"})
		return err
	}); err != nil {
		t.Fatalf("create after reload: %v", err)
	}
	if next.ID != "2" {
		t.Fatalf("sequence not restored, got id %q", next.ID)
	}
}

func TestSQLiteStoreSkipsPersistOnFailure(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	boom := errors.New("boom")
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateProject(domain.Project{Name: "Never"}); err != nil {
			return err
		}
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	var rows int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 0 {
		t.Fatalf("failed transaction must not write a snapshot, found %d buckets", rows)
	}
}

func TestSQLiteStoreWritesEveryBucket(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	seed(t, store)
	rows, err := store.DB().Query(`SELECT bucket FROM state ORDER BY bucket`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer func() { _ = rows.Close() }()
	var buckets []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			t.Fatalf("scan: %v", err)
		}
		buckets = append(buckets, b)
	}
	want := []string{"applications", "meta", "people", "projects", "registrations"}
	if len(buckets) != len(want) {
		t.Fatalf("expected buckets %v, got %v", want, buckets)
	}
	for i := range want {
		if buckets[i] != want[i] {
			t.Fatalf("expected buckets %v, got %v", want, buckets)
		}
	}
}

func TestSQLiteStoreDiscardsTransactionWhenWriteFails(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	app := seed(t, store)
	if err := store.DB().Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateApplication(app.ID, func(a *domain.Application) error {
			a.Status = domain.ApplicationSuccessful
			return nil
		})
		return err
	})
	if err == nil {
		t.Fatalf("expected persist error on a closed database")
	}
	got, ok := store.GetApplication(app.ID)
	if !ok || got.Status != domain.ApplicationPending {
		t.Fatalf("failed write must leave the application PENDING, got %+v", got)
	}
}
