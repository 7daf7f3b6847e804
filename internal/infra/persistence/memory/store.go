// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Person aliases domain.Person for in-memory persistence operations.
	Person = domain.Person
	// Project aliases domain.Project.
	Project = domain.Project
	// Application aliases domain.Application.
	Application = domain.Application
	// Registration aliases domain.Registration.
	Registration = domain.Registration
	// EntityType aliases domain.EntityType keying the ID sequences.
	EntityType = domain.EntityType
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	people        map[string]Person
	projects      map[string]Project
	applications  map[string]Application
	registrations map[string]Registration
	seq           map[domain.EntityType]int
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	People        map[string]Person         `json:"people"`
	Projects      map[string]Project        `json:"projects"`
	Applications  map[string]Application    `json:"applications"`
	Registrations map[string]Registration   `json:"registrations"`
	Sequences     map[domain.EntityType]int `json:"sequences"`
}

func newMemoryState() memoryState {
	return memoryState{
		people:        make(map[string]Person),
		projects:      make(map[string]Project),
		applications:  make(map[string]Application),
		registrations: make(map[string]Registration),
		seq:           make(map[domain.EntityType]int),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		People:        make(map[string]Person, len(state.people)),
		Projects:      make(map[string]Project, len(state.projects)),
		Applications:  make(map[string]Application, len(state.applications)),
		Registrations: make(map[string]Registration, len(state.registrations)),
		Sequences:     make(map[domain.EntityType]int, len(state.seq)),
	}
	for k, v := range state.people {
		s.People[k] = clonePerson(v)
	}
	for k, v := range state.projects {
		s.Projects[k] = cloneProject(v)
	}
	for k, v := range state.applications {
		s.Applications[k] = v
	}
	for k, v := range state.registrations {
		s.Registrations[k] = cloneRegistration(v)
	}
	for k, v := range state.seq {
		s.Sequences[k] = v
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.People {
		state.people[k] = clonePerson(v)
	}
	for k, v := range s.Projects {
		state.projects[k] = cloneProject(v)
	}
	for k, v := range s.Applications {
		state.applications[k] = v
	}
	for k, v := range s.Registrations {
		state.registrations[k] = cloneRegistration(v)
	}
	for k, v := range s.Sequences {
		state.seq[k] = v
	}
	return state
}

// migrateSnapshot normalises a loaded snapshot: nil buckets become empty, role
// sets are re-normalised and each sequence is advanced past the largest ID
// observed so that issued identifiers never collide with persisted ones.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.People == nil {
		snapshot.People = map[string]Person{}
	}
	if snapshot.Projects == nil {
		snapshot.Projects = map[string]Project{}
	}
	if snapshot.Applications == nil {
		snapshot.Applications = map[string]Application{}
	}
	if snapshot.Registrations == nil {
		snapshot.Registrations = map[string]Registration{}
	}
	if snapshot.Sequences == nil {
		snapshot.Sequences = map[domain.EntityType]int{}
	}

	for nric, person := range snapshot.People {
		person.NRIC = nric
		person.Roles = domain.NewRoles(person.Roles...)
		snapshot.People[nric] = person
	}
	for id, project := range snapshot.Projects {
		project.ID = id
		if project.Inventory.Units == nil {
			project.Inventory.Units = map[domain.FlatType]int{}
		}
		snapshot.Projects[id] = project
		advanceSequence(snapshot.Sequences, domain.EntityProject, id)
	}
	for id, app := range snapshot.Applications {
		app.ID = id
		snapshot.Applications[id] = app
		advanceSequence(snapshot.Sequences, domain.EntityApplication, id)
	}
	for id, reg := range snapshot.Registrations {
		reg.ID = id
		snapshot.Registrations[id] = reg
		advanceSequence(snapshot.Sequences, domain.EntityRegistration, id)
	}
	return snapshot
}

func advanceSequence(seq map[domain.EntityType]int, entity domain.EntityType, id string) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return
	}
	if n > seq[entity] {
		seq[entity] = n
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.people {
		cloned.people[k] = clonePerson(v)
	}
	for k, v := range s.projects {
		cloned.projects[k] = cloneProject(v)
	}
	for k, v := range s.applications {
		cloned.applications[k] = v
	}
	for k, v := range s.registrations {
		cloned.registrations[k] = cloneRegistration(v)
	}
	for k, v := range s.seq {
		cloned.seq[k] = v
	}
	return cloned
}

func clonePerson(p Person) Person {
	cp := p
	cp.Roles = append(domain.Roles(nil), p.Roles...)
	return cp
}

func cloneProject(p Project) Project {
	cp := p
	cp.Inventory = p.Inventory.Clone()
	if p.Prices != nil {
		cp.Prices = make(map[domain.FlatType]int, len(p.Prices))
		for k, v := range p.Prices {
			cp.Prices[k] = v
		}
	}
	return cp
}

func cloneRegistration(r Registration) Registration {
	cp := r
	if r.ReviewedAt != nil {
		t := *r.ReviewedAt
		cp.ReviewedAt = &t
	}
	return cp
}

// lessID orders sequence identifiers numerically, falling back to lexical order.
func lessID(a, b string) bool {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}

func sortedPeople(m map[string]Person) []Person {
	out := make([]Person, 0, len(m))
	for _, p := range m {
		out = append(out, clonePerson(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NRIC < out[j].NRIC })
	return out
}

func sortedProjects(m map[string]Project) []Project {
	out := make([]Project, 0, len(m))
	for _, p := range m {
		out = append(out, cloneProject(p))
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].ID, out[j].ID) })
	return out
}

func sortedApplications(m map[string]Application) []Application {
	out := make([]Application, 0, len(m))
	for _, a := range m {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].ID, out[j].ID) })
	return out
}

func sortedRegistrations(m map[string]Registration) []Registration {
	out := make([]Registration, 0, len(m))
	for _, r := range m {
		out = append(out, cloneRegistration(r))
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].ID, out[j].ID) })
	return out
}

// Store provides an in-memory transactional store for the allocation domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc replaces the time provider stamping CreatedAt/UpdatedAt. A nil fn restores wall-clock UTC.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		fn = func() time.Time { return time.Now().UTC() }
	}
	s.nowFn = fn
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) ListPeople() []Person { return sortedPeople(v.state.people) }

func (v transactionView) ListProjects() []Project { return sortedProjects(v.state.projects) }

func (v transactionView) ListApplications() []Application {
	return sortedApplications(v.state.applications)
}

func (v transactionView) ListRegistrations() []Registration {
	return sortedRegistrations(v.state.registrations)
}

// FindPerson retrieves a person by NRIC from the snapshot.
func (v transactionView) FindPerson(nric string) (Person, bool) {
	p, ok := v.state.people[nric]
	if !ok {
		return Person{}, false
	}
	return clonePerson(p), true
}

// FindProject retrieves a project by ID from the snapshot.
func (v transactionView) FindProject(id string) (Project, bool) {
	p, ok := v.state.projects[id]
	if !ok {
		return Project{}, false
	}
	return cloneProject(p), true
}

func (v transactionView) FindApplication(id string) (Application, bool) {
	a, ok := v.state.applications[id]
	return a, ok
}

func (v transactionView) FindRegistration(id string) (Registration, bool) {
	r, ok := v.state.registrations[id]
	if !ok {
		return Registration{}, false
	}
	return cloneRegistration(r), true
}

// CommitHook receives the candidate state of a transaction the rules engine
// accepted. A hook error discards the transaction.
type CommitHook func(ctx context.Context, next Snapshot) error

// RunInTransaction executes fn within a transactional copy of the store state.
// Nothing fn writes is visible until the rules engine has accepted the change set.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	return s.RunInTransactionWithHook(ctx, fn, nil)
}

// RunInTransactionWithHook runs fn like RunInTransaction, then calls hook under
// the store lock before the candidate state replaces the live state.
func (s *Store) RunInTransactionWithHook(ctx context.Context, fn func(tx Transaction) error, hook CommitHook) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if hook != nil {
		if err := hook(ctx, snapshotFromMemoryState(tx.state)); err != nil {
			return result, err
		}
	}
	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

func (tx *transaction) nextID(entity domain.EntityType) string {
	tx.state.seq[entity]++
	return strconv.Itoa(tx.state.seq[entity])
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// Now returns the timestamp fixed for the transaction.
func (tx *transaction) Now() time.Time {
	return tx.now
}

func (tx *transaction) FindPerson(nric string) (Person, bool) {
	return transactionView{state: &tx.state}.FindPerson(nric)
}

func (tx *transaction) FindProject(id string) (Project, bool) {
	return transactionView{state: &tx.state}.FindProject(id)
}

func (tx *transaction) FindApplication(id string) (Application, bool) {
	return transactionView{state: &tx.state}.FindApplication(id)
}

func (tx *transaction) FindRegistration(id string) (Registration, bool) {
	return transactionView{state: &tx.state}.FindRegistration(id)
}

// CreatePerson stores a new person keyed by NRIC.
func (tx *transaction) CreatePerson(p Person) (Person, error) {
	p.NRIC = strings.ToUpper(strings.TrimSpace(p.NRIC))
	if p.NRIC == "" {
		return Person{}, domain.Errorf(domain.KindInvalidArgument, "person NRIC required")
	}
	if _, exists := tx.state.people[p.NRIC]; exists {
		return Person{}, domain.EntityError(domain.KindInvalidArgument, domain.EntityPerson, p.NRIC, "already registered")
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.people[p.NRIC] = clonePerson(p)
	tx.recordChange(Change{Entity: domain.EntityPerson, Action: domain.ActionCreate, After: clonePerson(p)})
	return clonePerson(p), nil
}

// UpdatePerson mutates a person. The NRIC is immutable.
func (tx *transaction) UpdatePerson(nric string, mutator func(*Person) error) (Person, error) {
	current, ok := tx.state.people[nric]
	if !ok {
		return Person{}, domain.NotFound(domain.EntityPerson, nric)
	}
	before := clonePerson(current)
	if err := mutator(&current); err != nil {
		return Person{}, err
	}
	current.NRIC = nric
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.people[nric] = clonePerson(current)
	tx.recordChange(Change{Entity: domain.EntityPerson, Action: domain.ActionUpdate, Before: before, After: clonePerson(current)})
	return clonePerson(current), nil
}

// CreateProject stores a new project under the next project sequence number.
func (tx *transaction) CreateProject(p Project) (Project, error) {
	if p.ID == "" {
		p.ID = tx.nextID(domain.EntityProject)
	}
	if _, exists := tx.state.projects[p.ID]; exists {
		return Project{}, fmt.Errorf("project %q already exists", p.ID)
	}
	if p.Inventory.Units == nil {
		p.Inventory.Units = map[domain.FlatType]int{}
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.projects[p.ID] = cloneProject(p)
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionCreate, After: cloneProject(p)})
	return cloneProject(p), nil
}

// UpdateProject mutates an existing project.
func (tx *transaction) UpdateProject(id string, mutator func(*Project) error) (Project, error) {
	current, ok := tx.state.projects[id]
	if !ok {
		return Project{}, domain.NotFound(domain.EntityProject, id)
	}
	before := cloneProject(current)
	current = cloneProject(current)
	if err := mutator(&current); err != nil {
		return Project{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.projects[id] = cloneProject(current)
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionUpdate, Before: before, After: cloneProject(current)})
	return cloneProject(current), nil
}

// DeleteProject removes a project that no application or registration references.
func (tx *transaction) DeleteProject(id string) error {
	current, ok := tx.state.projects[id]
	if !ok {
		return domain.NotFound(domain.EntityProject, id)
	}
	for _, app := range tx.state.applications {
		if app.ProjectID == id {
			return domain.EntityError(domain.KindInvalidState, domain.EntityProject, id, "still referenced by application %s", app.ID)
		}
	}
	for _, reg := range tx.state.registrations {
		if reg.ProjectID == id {
			return domain.EntityError(domain.KindInvalidState, domain.EntityProject, id, "still referenced by registration %s", reg.ID)
		}
	}
	delete(tx.state.projects, id)
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionDelete, Before: cloneProject(current)})
	return nil
}

// CreateApplication stores a new application.
func (tx *transaction) CreateApplication(a Application) (Application, error) {
	if _, ok := tx.state.people[a.ApplicantNRIC]; !ok {
		return Application{}, domain.NotFound(domain.EntityPerson, a.ApplicantNRIC)
	}
	if _, ok := tx.state.projects[a.ProjectID]; !ok {
		return Application{}, domain.NotFound(domain.EntityProject, a.ProjectID)
	}
	if a.ID == "" {
		a.ID = tx.nextID(domain.EntityApplication)
	}
	if _, exists := tx.state.applications[a.ID]; exists {
		return Application{}, fmt.Errorf("application %q already exists", a.ID)
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.applications[a.ID] = a
	tx.recordChange(Change{Entity: domain.EntityApplication, Action: domain.ActionCreate, After: a})
	return a, nil
}

// UpdateApplication mutates an application. Identity and references are immutable.
func (tx *transaction) UpdateApplication(id string, mutator func(*Application) error) (Application, error) {
	current, ok := tx.state.applications[id]
	if !ok {
		return Application{}, domain.NotFound(domain.EntityApplication, id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Application{}, err
	}
	current.ID = id
	current.ApplicantNRIC = before.ApplicantNRIC
	current.ProjectID = before.ProjectID
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.applications[id] = current
	tx.recordChange(Change{Entity: domain.EntityApplication, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// CreateRegistration stores a new officer registration.
func (tx *transaction) CreateRegistration(r Registration) (Registration, error) {
	if _, ok := tx.state.people[r.OfficerNRIC]; !ok {
		return Registration{}, domain.NotFound(domain.EntityPerson, r.OfficerNRIC)
	}
	if _, ok := tx.state.projects[r.ProjectID]; !ok {
		return Registration{}, domain.NotFound(domain.EntityProject, r.ProjectID)
	}
	if r.ID == "" {
		r.ID = tx.nextID(domain.EntityRegistration)
	}
	if _, exists := tx.state.registrations[r.ID]; exists {
		return Registration{}, fmt.Errorf("registration %q already exists", r.ID)
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = tx.now
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.registrations[r.ID] = cloneRegistration(r)
	tx.recordChange(Change{Entity: domain.EntityRegistration, Action: domain.ActionCreate, After: cloneRegistration(r)})
	return cloneRegistration(r), nil
}

// UpdateRegistration mutates a registration.
func (tx *transaction) UpdateRegistration(id string, mutator func(*Registration) error) (Registration, error) {
	current, ok := tx.state.registrations[id]
	if !ok {
		return Registration{}, domain.NotFound(domain.EntityRegistration, id)
	}
	before := cloneRegistration(current)
	current = cloneRegistration(current)
	if err := mutator(&current); err != nil {
		return Registration{}, err
	}
	current.ID = id
	current.OfficerNRIC = before.OfficerNRIC
	current.ProjectID = before.ProjectID
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.registrations[id] = cloneRegistration(current)
	tx.recordChange(Change{Entity: domain.EntityRegistration, Action: domain.ActionUpdate, Before: before, After: cloneRegistration(current)})
	return cloneRegistration(current), nil
}

// Read helpers ---------------------------------------------------------------

// GetPerson retrieves a person by NRIC from committed state.
func (s *Store) GetPerson(nric string) (Person, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.people[nric]
	if !ok {
		return Person{}, false
	}
	return clonePerson(p), true
}

// GetProject retrieves a project by ID from committed state.
func (s *Store) GetProject(id string) (Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.projects[id]
	if !ok {
		return Project{}, false
	}
	return cloneProject(p), true
}

// GetApplication retrieves an application by ID from committed state.
func (s *Store) GetApplication(id string) (Application, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.state.applications[id]
	return a, ok
}

// GetRegistration retrieves a registration by ID from committed state.
func (s *Store) GetRegistration(id string) (Registration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.registrations[id]
	if !ok {
		return Registration{}, false
	}
	return cloneRegistration(r), true
}

// ListPeople returns all people ordered by NRIC.
func (s *Store) ListPeople() []Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedPeople(s.state.people)
}

// ListProjects returns all projects in ID order.
func (s *Store) ListProjects() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedProjects(s.state.projects)
}

// ListApplications returns all applications in ID order.
func (s *Store) ListApplications() []Application {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedApplications(s.state.applications)
}

// ListRegistrations returns all registrations in ID order.
func (s *Store) ListRegistrations() []Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedRegistrations(s.state.registrations)
}
