package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

func newRootCommand(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:   "btoctl",
		Short: "Operate the BTO flat allocation service",
		Long: `btoctl drives the BTO allocation lifecycle against the configured store.

Configuration is read from BTO_* environment variables, optionally seeded
from a .env file. Every command prints its result as JSON lines on stdout;
failures are reported as a JSON line on stderr.

Examples:
  # Register an applicant and submit an application
  btoctl person add --nric S1234567A --name Alice --age 36 --marital single --role applicant
  btoctl application submit --as S1234567A --project 1 --flat-type TWO_ROOM

  # Approve it as the project's manager
  btoctl application review 1 --as S5555555M --decision approve`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})
	root.PersistentFlags().StringSliceVar(&rt.envFiles, "env-file", nil, "dotenv files to load before reading the environment (default .env)")
	root.PersistentFlags().BoolVar(&rt.trace, "trace", false, "write one JSON trace entry per service operation to stderr")
	root.PersistentFlags().BoolVar(&rt.stats, "stats", false, "print per-operation call statistics to stderr on exit")

	root.AddCommand(
		newPersonCommand(rt),
		newProjectCommand(rt),
		newApplicationCommand(rt),
		newRegistrationCommand(rt),
		newReceiptCommand(rt),
	)
	return root
}

// groupCommand builds a parent command that only hosts subcommands.
func groupCommand(use, short string, children ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return usageError{err: fmt.Errorf("%s requires a subcommand", cmd.CommandPath())}
		},
	}
	cmd.AddCommand(children...)
	return cmd
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError{err: err}
	}
	return nil
}

// actorFlag binds the --as flag naming the acting person.
func actorFlag(cmd *cobra.Command, target *string, role string) {
	cmd.Flags().StringVar(target, "as", "", "NRIC of the acting "+role)
	_ = cmd.MarkFlagRequired("as")
}

// decisionFlag binds --decision and returns a parser for it.
func decisionFlag(cmd *cobra.Command) func() (bool, error) {
	var decision string
	cmd.Flags().StringVar(&decision, "decision", "", "approve or reject")
	_ = cmd.MarkFlagRequired("decision")
	return func() (bool, error) {
		return parseDecision(decision)
	}
}

func parseDecision(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", "approved", "yes":
		return true, nil
	case "reject", "rejected", "no":
		return false, nil
	}
	return false, usageError{err: fmt.Errorf("invalid decision %q: want approve or reject", s)}
}

// parseFlatType accepts the canonical names and the 2-room / 3-room shorthands.
func parseFlatType(s string) (domain.FlatType, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	switch norm {
	case "2_ROOM", "2ROOM", "2":
		norm = string(domain.FlatTwoRoom)
	case "3_ROOM", "3ROOM", "3":
		norm = string(domain.FlatThreeRoom)
	}
	ft := domain.FlatType(norm)
	if !ft.Valid() {
		return "", usageError{err: fmt.Errorf("invalid flat type %q", s)}
	}
	return ft, nil
}

func parseFlatTypeCounts(in map[string]int) (map[domain.FlatType]int, error) {
	out := make(map[domain.FlatType]int, len(in))
	for k, v := range in {
		ft, err := parseFlatType(k)
		if err != nil {
			return nil, err
		}
		out[ft] = v
	}
	return out, nil
}

func parseDate(flag, s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, usageError{err: fmt.Errorf("--%s: want YYYY-MM-DD, got %q", flag, s)}
	}
	return t, nil
}
