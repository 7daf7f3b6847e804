package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

func newPersonCommand(rt *runtime) *cobra.Command {
	return groupCommand("person", "Register and inspect people",
		newPersonAddCommand(rt),
		newPersonShowCommand(rt),
		newPersonListCommand(rt),
	)
}

func newPersonAddCommand(rt *runtime) *cobra.Command {
	var (
		nric, name, marital string
		age                 int
		roles               []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a person with one or more roles",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rs := make([]domain.Role, 0, len(roles))
			for _, r := range roles {
				rs = append(rs, domain.Role(strings.ToLower(strings.TrimSpace(r))))
			}
			person, err := domain.NewPerson(nric, name, age, domain.MaritalStatus(strings.ToUpper(marital)), rs...)
			if err != nil {
				return err
			}
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			created, _, err := svc.RegisterPerson(cmd.Context(), person)
			if err != nil {
				return err
			}
			return rt.print(created)
		},
	}
	cmd.Flags().StringVar(&nric, "nric", "", "national identity number, e.g. S1234567A")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().IntVar(&age, "age", 0, "age in years")
	cmd.Flags().StringVar(&marital, "marital", "single", "marital status: single or married")
	cmd.Flags().StringSliceVar(&roles, "role", []string{"applicant"}, "roles: applicant, officer, manager (repeatable)")
	_ = cmd.MarkFlagRequired("nric")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("age")
	return cmd
}

func newPersonShowCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show NRIC",
		Short: "Show one person",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			person, err := svc.GetPerson(args[0])
			if err != nil {
				return err
			}
			return rt.print(person)
		},
	}
}

func newPersonListCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every registered person",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			return printEach(rt, svc.ListPeople())
		},
	}
}
