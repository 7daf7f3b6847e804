package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tdfffffffff/bto-housing-management-system/internal/core"
	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

func newApplicationCommand(rt *runtime) *cobra.Command {
	return groupCommand("application", "Drive flat applications from submission to booking",
		newApplicationSubmitCommand(rt),
		newApplicationReviewCommand(rt),
		newApplicationRequestBookingCommand(rt),
		newApplicationBookCommand(rt),
		newApplicationWithdrawCommand(rt),
		newApplicationReviewWithdrawalCommand(rt),
		newApplicationShowCommand(rt),
		newApplicationListCommand(rt),
	)
}

func newApplicationSubmitCommand(rt *runtime) *cobra.Command {
	var applicant, projectID, flatType string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Apply for a flat type in a project",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ft, err := parseFlatType(flatType)
			if err != nil {
				return err
			}
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			app, _, err := svc.SubmitApplication(cmd.Context(), applicant, projectID, ft)
			if err != nil {
				return err
			}
			return rt.print(app)
		},
	}
	actorFlag(cmd, &applicant, "applicant")
	cmd.Flags().StringVar(&projectID, "project", "", "project ID")
	cmd.Flags().StringVar(&flatType, "flat-type", "", "TWO_ROOM or THREE_ROOM")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("flat-type")
	return cmd
}

// entityAction builds a command acting on one entity by ID. A nil
// result from do means the command already wrote its output.
func entityAction(rt *runtime, use, short, role string, do func(ctx context.Context, svc *core.Service, actor, id string) (any, error)) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			out, err := do(cmd.Context(), svc, actor, args[0])
			if err != nil || out == nil {
				return err
			}
			return rt.print(out)
		},
	}
	actorFlag(cmd, &actor, role)
	return cmd
}

func newApplicationReviewCommand(rt *runtime) *cobra.Command {
	var decision func() (bool, error)
	cmd := entityAction(rt, "review", "Approve or reject a pending application", "manager",
		func(ctx context.Context, svc *core.Service, manager, id string) (any, error) {
			approve, err := decision()
			if err != nil {
				return nil, err
			}
			app, _, err := svc.ReviewApplication(ctx, manager, id, approve)
			return app, err
		})
	decision = decisionFlag(cmd)
	return cmd
}

func newApplicationRequestBookingCommand(rt *runtime) *cobra.Command {
	return entityAction(rt, "request-booking", "Ask an officer to book the flat of a successful application", "applicant",
		func(ctx context.Context, svc *core.Service, applicant, id string) (any, error) {
			app, _, err := svc.RequestBooking(ctx, applicant, id)
			return app, err
		})
}

func newApplicationBookCommand(rt *runtime) *cobra.Command {
	var text bool
	cmd := entityAction(rt, "book", "Book the flat and issue a receipt", "officer",
		func(ctx context.Context, svc *core.Service, officer, id string) (any, error) {
			receipt, _, err := svc.BookFlat(ctx, officer, id)
			if err != nil {
				return nil, err
			}
			if text {
				_, err := io.WriteString(rt.stdout, receipt.Text())
				return nil, err
			}
			return receipt, nil
		})
	cmd.Flags().BoolVar(&text, "text", false, "print the receipt as text instead of JSON")
	return cmd
}

func newApplicationWithdrawCommand(rt *runtime) *cobra.Command {
	return entityAction(rt, "withdraw", "Request withdrawal of an application", "applicant",
		func(ctx context.Context, svc *core.Service, applicant, id string) (any, error) {
			app, _, err := svc.RequestWithdrawal(ctx, applicant, id)
			return app, err
		})
}

func newApplicationReviewWithdrawalCommand(rt *runtime) *cobra.Command {
	var decision func() (bool, error)
	cmd := entityAction(rt, "review-withdrawal", "Approve or reject a withdrawal request", "manager",
		func(ctx context.Context, svc *core.Service, manager, id string) (any, error) {
			approve, err := decision()
			if err != nil {
				return nil, err
			}
			out, _, err := svc.ReviewWithdrawal(ctx, manager, id, approve)
			return out, err
		})
	decision = decisionFlag(cmd)
	return cmd
}

func newApplicationShowCommand(rt *runtime) *cobra.Command {
	var applicant string
	cmd := &cobra.Command{
		Use:   "show [ID]",
		Short: "Show an application by ID or by applicant",
		Args: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (applicant != "") {
				return usageError{err: fmt.Errorf("pass either an application ID or --applicant")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			var app domain.Application
			if applicant != "" {
				app, err = svc.GetApplicationByApplicant(applicant)
			} else {
				app, err = svc.GetApplication(args[0])
			}
			if err != nil {
				return err
			}
			return rt.print(app)
		},
	}
	cmd.Flags().StringVar(&applicant, "applicant", "", "look up the application held by this NRIC")
	return cmd
}

func newApplicationListCommand(rt *runtime) *cobra.Command {
	var (
		projectID, status, queueFor string
		withdrawals, booked         bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications by project, status, withdrawal request or booking queue",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			var apps []domain.Application
			switch {
			case queueFor != "":
				apps = svc.ListBookingQueue(queueFor)
			case withdrawals:
				apps = svc.ListWithdrawalRequests()
			case booked:
				apps = svc.ListBookedApplications()
			case status != "":
				st := domain.ApplicationStatus(strings.ToUpper(strings.TrimSpace(status)))
				if _, known := domain.ApplicationTransitions[st]; !known {
					return usageError{err: fmt.Errorf("invalid status %q", status)}
				}
				apps = svc.ListApplicationsByStatus(st)
			case projectID != "":
				apps = svc.ListApplicationsByProject(projectID)
			default:
				apps = svc.Store().ListApplications()
			}
			if projectID != "" {
				apps = onProject(apps, projectID)
			}
			return printEach(rt, apps)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "only applications for this project; narrows every other filter")
	cmd.Flags().StringVar(&status, "status", "", "only applications in this status")
	cmd.Flags().BoolVar(&withdrawals, "withdrawals", false, "only applications awaiting a withdrawal review")
	cmd.Flags().BoolVar(&booked, "booked", false, "only booked applications")
	cmd.Flags().StringVar(&queueFor, "queue-for", "", "PENDING_BOOKING applications this officer can book")
	cmd.MarkFlagsMutuallyExclusive("status", "withdrawals", "booked", "queue-for")
	return cmd
}

func onProject(apps []domain.Application, projectID string) []domain.Application {
	out := apps[:0:0]
	for _, a := range apps {
		if a.ProjectID == projectID {
			out = append(out, a)
		}
	}
	return out
}
