package domain

import (
	"context"
	"time"
)

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Nothing written through a transaction is
// visible outside it until the enclosing RunInTransaction commits.
type Transaction interface {
	Snapshot() TransactionView
	Now() time.Time
	CreatePerson(Person) (Person, error)
	UpdatePerson(nric string, mutator func(*Person) error) (Person, error)
	CreateProject(Project) (Project, error)
	UpdateProject(id string, mutator func(*Project) error) (Project, error)
	DeleteProject(id string) error
	CreateApplication(Application) (Application, error)
	UpdateApplication(id string, mutator func(*Application) error) (Application, error)
	CreateRegistration(Registration) (Registration, error)
	UpdateRegistration(id string, mutator func(*Registration) error) (Registration, error)
	FindPerson(nric string) (Person, bool)
	FindProject(id string) (Project, bool)
	FindApplication(id string) (Application, bool)
	FindRegistration(id string) (Registration, bool)
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	RuleView
}

// PersistentStore is a minimal abstraction over durable backends. Each
// successful RunInTransaction is a full-snapshot persist point.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetPerson(nric string) (Person, bool)
	GetProject(id string) (Project, bool)
	GetApplication(id string) (Application, bool)
	GetRegistration(id string) (Registration, bool)
	ListPeople() []Person
	ListProjects() []Project
	ListApplications() []Application
	ListRegistrations() []Registration
}
