package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tdfffffffff/bto-housing-management-system/internal/core"
	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

func newRegistrationCommand(rt *runtime) *cobra.Command {
	return groupCommand("registration", "Manage officer registrations",
		newRegistrationSubmitCommand(rt),
		newRegistrationReviewCommand(rt),
		newRegistrationShowCommand(rt),
		newRegistrationListCommand(rt),
	)
}

func newRegistrationSubmitCommand(rt *runtime) *cobra.Command {
	var officer, projectID string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Register the acting officer to administer a project",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			reg, _, err := svc.SubmitRegistration(cmd.Context(), officer, projectID)
			if err != nil {
				return err
			}
			return rt.print(reg)
		},
	}
	actorFlag(cmd, &officer, "officer")
	cmd.Flags().StringVar(&projectID, "project", "", "project ID")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newRegistrationReviewCommand(rt *runtime) *cobra.Command {
	var decision func() (bool, error)
	cmd := entityAction(rt, "review", "Approve or reject a pending officer registration", "manager",
		func(ctx context.Context, svc *core.Service, manager, id string) (any, error) {
			approve, err := decision()
			if err != nil {
				return nil, err
			}
			reg, _, err := svc.ReviewRegistration(ctx, manager, id, approve)
			return reg, err
		})
	decision = decisionFlag(cmd)
	return cmd
}

func newRegistrationShowCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one registration",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			reg, err := svc.GetRegistration(args[0])
			if err != nil {
				return err
			}
			return rt.print(reg)
		},
	}
}

func newRegistrationListCommand(rt *runtime) *cobra.Command {
	var officer, projectID, manager, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registrations by officer, project or managing manager",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := noArgs(cmd, args); err != nil {
				return err
			}
			if officer == "" && projectID == "" && manager == "" {
				return usageError{err: fmt.Errorf("one of --officer, --project or --manager is required")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var st *domain.RegistrationStatus
			if status != "" {
				s := domain.RegistrationStatus(strings.ToUpper(strings.TrimSpace(status)))
				switch s {
				case domain.RegistrationPending, domain.RegistrationApproved, domain.RegistrationRejected:
					st = &s
				default:
					return usageError{err: fmt.Errorf("invalid status %q", status)}
				}
			}
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			var regs []domain.Registration
			switch {
			case officer != "":
				regs = withStatus(svc.ListRegistrationsByOfficer(officer), st)
			case manager != "":
				regs = withStatus(svc.ListRegistrationsByManager(manager), st)
			default:
				regs = svc.ListRegistrationsByProject(projectID, st)
			}
			return printEach(rt, regs)
		},
	}
	cmd.Flags().StringVar(&officer, "officer", "", "registrations held by this officer")
	cmd.Flags().StringVar(&projectID, "project", "", "registrations for this project")
	cmd.Flags().StringVar(&manager, "manager", "", "registrations on projects this manager owns")
	cmd.Flags().StringVar(&status, "status", "", "PENDING, APPROVED or REJECTED")
	cmd.MarkFlagsMutuallyExclusive("officer", "project", "manager")
	return cmd
}

func withStatus(regs []domain.Registration, st *domain.RegistrationStatus) []domain.Registration {
	if st == nil {
		return regs
	}
	out := regs[:0:0]
	for _, r := range regs {
		if r.Status == *st {
			out = append(out, r)
		}
	}
	return out
}
