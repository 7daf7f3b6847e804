package domain

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Role is a capability held by a person.
type Role string

// Roles recognised by the allocation engine.
const (
	RoleApplicant Role = "applicant"
	RoleOfficer   Role = "officer"
	RoleManager   Role = "manager"
)

// Roles is a set of capabilities, kept sorted and free of duplicates.
type Roles []Role

// NewRoles builds a normalised role set. Officers always carry the applicant capability.
func NewRoles(roles ...Role) Roles {
	seen := make(map[Role]struct{}, len(roles)+1)
	for _, r := range roles {
		seen[r] = struct{}{}
	}
	if _, ok := seen[RoleOfficer]; ok {
		seen[RoleApplicant] = struct{}{}
	}
	out := make(Roles, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Has reports whether the set contains role.
func (r Roles) Has(role Role) bool {
	for _, v := range r {
		if v == role {
			return true
		}
	}
	return false
}

var nricPattern = regexp.MustCompile(`^[ST]\d{7}[A-Z]$`)

// ValidNRIC checks the national identity number format.
func ValidNRIC(nric string) bool {
	return nricPattern.MatchString(nric)
}

// Person is an identity with a fixed role set.
type Person struct {
	NRIC          string        `json:"nric"`
	Name          string        `json:"name"`
	Age           int           `json:"age"`
	MaritalStatus MaritalStatus `json:"marital_status"`
	Roles         Roles         `json:"roles"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewPerson validates identity fields and normalises the role set.
func NewPerson(nric, name string, age int, status MaritalStatus, roles ...Role) (Person, error) {
	p := Person{
		NRIC:          strings.ToUpper(strings.TrimSpace(nric)),
		Name:          strings.TrimSpace(name),
		Age:           age,
		MaritalStatus: status,
		Roles:         NewRoles(roles...),
	}
	if err := p.Validate(); err != nil {
		return Person{}, err
	}
	return p, nil
}

// Validate checks identity invariants.
func (p Person) Validate() error {
	if !ValidNRIC(p.NRIC) {
		return EntityError(KindInvalidArgument, EntityPerson, p.NRIC, "malformed NRIC")
	}
	if p.Name == "" {
		return EntityError(KindInvalidArgument, EntityPerson, p.NRIC, "name required")
	}
	if p.Age <= 0 {
		return EntityError(KindInvalidArgument, EntityPerson, p.NRIC, "age must be positive")
	}
	if len(p.Roles) == 0 {
		return EntityError(KindInvalidArgument, EntityPerson, p.NRIC, "at least one role required")
	}
	for _, r := range p.Roles {
		switch r {
		case RoleApplicant, RoleOfficer, RoleManager:
		default:
			return EntityError(KindInvalidArgument, EntityPerson, p.NRIC, "unknown role %q", r)
		}
	}
	return nil
}

// HasRole reports whether the person holds role.
func (p Person) HasRole(role Role) bool {
	return p.Roles.Has(role)
}

// Require fails with Forbidden when the person lacks role.
func (p Person) Require(role Role) error {
	if !p.HasRole(role) {
		return EntityError(KindForbidden, EntityPerson, p.NRIC, "requires %s role", role)
	}
	return nil
}
