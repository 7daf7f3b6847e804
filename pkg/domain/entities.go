// Package domain defines the persistent entities, value types, lifecycle
// transitions and rule evaluation primitives of the BTO allocation engine.
package domain

import (
	"sort"
	"time"
)

// EntityType identifies the type of record stored in the allocation domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityPerson identifies a person record (applicant, officer or manager).
	EntityPerson EntityType = "person"
	// EntityProject identifies a housing project record.
	EntityProject EntityType = "project"
	// EntityApplication identifies a flat application record.
	EntityApplication EntityType = "application"
	// EntityRegistration identifies an officer registration record.
	EntityRegistration EntityType = "registration"
)

// FlatType is a category of housing unit with its own quota and price per project.
type FlatType string

// Flat types offered by projects.
const (
	FlatTwoRoom   FlatType = "TWO_ROOM"
	FlatThreeRoom FlatType = "THREE_ROOM"
)

// Valid reports whether the flat type is one of the known categories.
func (f FlatType) Valid() bool {
	return f == FlatTwoRoom || f == FlatThreeRoom
}

// MaritalStatus captures the applicant's marital status used by eligibility.
type MaritalStatus string

// Marital statuses recognised by the eligibility policy.
const (
	MaritalSingle  MaritalStatus = "SINGLE"
	MaritalMarried MaritalStatus = "MARRIED"
)

// Valid reports whether the status is known.
func (m MaritalStatus) Valid() bool {
	return m == MaritalSingle || m == MaritalMarried
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for sequenced domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project is a housing project owning its inventory counters.
type Project struct {
	Base
	Name         string           `json:"name"`
	Neighborhood string           `json:"neighborhood"`
	Inventory    Inventory        `json:"inventory"`
	Prices       map[FlatType]int `json:"prices,omitempty"`
	Window       Window           `json:"window"`
	Visible      bool             `json:"visible"`
	ManagerNRIC  string           `json:"manager_nric"`
}

// Offers reports whether the project lists the flat type at all, regardless of remaining quota.
func (p Project) Offers(flatType FlatType) bool {
	return p.Inventory.Offers(flatType)
}

// FlatTypes returns the offered flat types in a stable order.
func (p Project) FlatTypes() []FlatType {
	out := make([]FlatType, 0, len(p.Inventory.Units))
	for ft := range p.Inventory.Units {
		out = append(out, ft)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PriceFor returns the informational selling price for a flat type, zero when unset.
func (p Project) PriceFor(flatType FlatType) int {
	return p.Prices[flatType]
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in transactions.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string     `json:"rule"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Entity   EntityType `json:"entity,omitempty"`
	EntityID string     `json:"entity_id,omitempty"`
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation `json:"violations,omitempty"`
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// Blocking returns the violations that veto the transaction.
func (r Result) Blocking() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// HasBlocking reports whether any violation vetoes the transaction.
func (r Result) HasBlocking() bool {
	return len(r.Blocking()) > 0
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	if blocking := e.Result.Blocking(); len(blocking) > 0 {
		return "transaction blocked by rules: " + blocking[0].Rule + ": " + blocking[0].Message
	}
	return "transaction blocked by rules"
}
