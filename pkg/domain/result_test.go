package domain

import (
	"context"
	"errors"
	"testing"
)

func TestResultBlocking(t *testing.T) {
	warn := Violation{Rule: "slots_low", Severity: SeverityWarn, Message: "one officer slot left"}
	block := Violation{Rule: "inventory_bounds", Severity: SeverityBlock, Message: "units below zero", Entity: EntityProject, EntityID: "1"}

	var res Result
	res.Merge(Result{})
	res.Merge(Result{Violations: []Violation{warn}})
	if res.HasBlocking() || len(res.Blocking()) != 0 {
		t.Fatalf("warnings must not block: %+v", res)
	}
	res.Merge(Result{Violations: []Violation{block}})
	if got := res.Blocking(); len(got) != 1 || got[0] != block {
		t.Fatalf("expected only the blocking violation, got %+v", got)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("merge must keep every violation, got %+v", res.Violations)
	}
	if got := (RuleViolationError{Result: res}).Error(); got != "transaction blocked by rules: inventory_bounds: units below zero" {
		t.Fatalf("unexpected error text %q", got)
	}
	if got := (RuleViolationError{}).Error(); got != "transaction blocked by rules" {
		t.Fatalf("unexpected error text %q", got)
	}
}

type ruleFunc struct {
	name string
	fn   func(RuleView, []Change) (Result, error)
}

func (r ruleFunc) Name() string { return r.name }

func (r ruleFunc) Evaluate(_ context.Context, view RuleView, changes []Change) (Result, error) {
	return r.fn(view, changes)
}

type noEntities struct{}

func (noEntities) ListPeople() []Person                         { return nil }
func (noEntities) ListProjects() []Project                      { return nil }
func (noEntities) ListApplications() []Application              { return nil }
func (noEntities) ListRegistrations() []Registration            { return nil }
func (noEntities) FindPerson(string) (Person, bool)             { return Person{}, false }
func (noEntities) FindProject(string) (Project, bool)           { return Project{}, false }
func (noEntities) FindApplication(string) (Application, bool)   { return Application{}, false }
func (noEntities) FindRegistration(string) (Registration, bool) { return Registration{}, false }

func TestRulesEngineRunsRulesInOrder(t *testing.T) {
	var seen []string
	record := func(name string, sev Severity) Rule {
		return ruleFunc{name: name, fn: func(_ RuleView, changes []Change) (Result, error) {
			seen = append(seen, name)
			return Result{Violations: []Violation{{Rule: name, Severity: sev, EntityID: changes[0].After.(Project).ID}}}, nil
		}}
	}
	engine := NewRulesEngine()
	engine.Register(record("first", SeverityLog))
	engine.Register(nil)
	engine.Register(record("second", SeverityWarn))

	changes := []Change{{Entity: EntityProject, Action: ActionUpdate, After: Project{Base: Base{ID: "7"}}}}
	res, err := engine.Evaluate(context.Background(), noEntities{}, changes)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if names := engine.Rules(); len(names) != 2 || names[0] != "first" || names[1] != "second" {
		t.Fatalf("unexpected rule names %v", names)
	}
	if len(seen) != 2 || seen[0] != "first" || len(res.Violations) != 2 || res.Violations[1].EntityID != "7" {
		t.Fatalf("unexpected evaluation: seen=%v res=%+v", seen, res)
	}
}

func TestRulesEngineStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	var ranAfter bool
	engine := NewRulesEngine()
	engine.Register(ruleFunc{name: "broken", fn: func(RuleView, []Change) (Result, error) { return Result{}, boom }})
	engine.Register(ruleFunc{name: "after", fn: func(RuleView, []Change) (Result, error) { ranAfter = true; return Result{}, nil }})

	_, err := engine.Evaluate(context.Background(), noEntities{}, nil)
	if !errors.Is(err, boom) || err.Error() != "rule broken: boom" {
		t.Fatalf("expected wrapped rule error, got %v", err)
	}
	if ranAfter {
		t.Fatalf("rules after a failing rule must not run")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.Evaluate(ctx, noEntities{}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
