package core

import (
	"context"

	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

// RegisterPerson validates identity fields and stores a new person. Roles are
// fixed from here on.
func (s *Service) RegisterPerson(ctx context.Context, person Person) (Person, Result, error) {
	var created Person
	res, err := s.run(ctx, "register_person", []any{"nric", person.NRIC}, func(tx Transaction) error {
		valid, err := domain.NewPerson(person.NRIC, person.Name, person.Age, person.MaritalStatus, person.Roles...)
		if err != nil {
			return err
		}
		created, err = tx.CreatePerson(valid)
		return err
	})
	return created, res, err
}

// GetPerson returns the person registered under nric.
func (s *Service) GetPerson(nric string) (Person, error) {
	nric = normalizeNRIC(nric)
	p, ok := s.store.GetPerson(nric)
	if !ok {
		return Person{}, domain.NotFound(EntityPerson, nric)
	}
	return p, nil
}

// ListPeople returns every registered person.
func (s *Service) ListPeople() []Person {
	return s.store.ListPeople()
}
