package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tdfffffffff/bto-housing-management-system/internal/core"
	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

func newProjectCommand(rt *runtime) *cobra.Command {
	return groupCommand("project", "Administer housing projects",
		newProjectCreateCommand(rt),
		newProjectListCommand(rt),
		newProjectShowCommand(rt),
		newProjectEditCommand(rt),
		newProjectAddUnitsCommand(rt),
		newProjectToggleCommand(rt),
		newProjectDeleteCommand(rt),
	)
}

func newProjectCreateCommand(rt *runtime) *cobra.Command {
	var (
		manager, name, neighborhood, openDate, closeDate string
		units, prices                                    map[string]int
		slots                                            int
		visible                                          bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project owned by the acting manager",
		Long: `Create a project with its flat quotas, officer slots and application window.

Example:
  btoctl project create --as S5555555M --name "Acacia Breeze" --neighborhood Yishun \
    --units TWO_ROOM=2,THREE_ROOM=3 --prices TWO_ROOM=350000 --officer-slots 3 \
    --open 2024-01-01 --close 2024-03-01 --visible`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			quota, err := parseFlatTypeCounts(units)
			if err != nil {
				return err
			}
			priceList, err := parseFlatTypeCounts(prices)
			if err != nil {
				return err
			}
			inventory, err := domain.NewInventory(quota, slots)
			if err != nil {
				return err
			}
			openAt, err := parseDate("open", openDate)
			if err != nil {
				return err
			}
			closeAt, err := parseDate("close", closeDate)
			if err != nil {
				return err
			}
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			project, _, err := svc.CreateProject(cmd.Context(), manager, domain.Project{
				Name:         name,
				Neighborhood: neighborhood,
				Inventory:    inventory,
				Prices:       priceList,
				Window:       domain.Window{Open: openAt, Close: closeAt},
			})
			if err != nil {
				return err
			}
			if visible {
				if project, _, err = svc.ToggleVisibility(cmd.Context(), manager, project.ID); err != nil {
					return err
				}
			}
			return rt.print(project)
		},
	}
	actorFlag(cmd, &manager, "manager")
	cmd.Flags().StringVar(&name, "name", "", "project name, unique ignoring case")
	cmd.Flags().StringVar(&neighborhood, "neighborhood", "", "neighbourhood")
	cmd.Flags().StringToIntVar(&units, "units", nil, "flat quotas, e.g. TWO_ROOM=2,THREE_ROOM=3")
	cmd.Flags().StringToIntVar(&prices, "prices", nil, "selling prices per flat type")
	cmd.Flags().IntVar(&slots, "officer-slots", 0, "officer slots (0-10)")
	cmd.Flags().StringVar(&openDate, "open", "", "first day of the application window (YYYY-MM-DD)")
	cmd.Flags().StringVar(&closeDate, "close", "", "last day of the application window (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&visible, "visible", false, "make the project visible to applicants immediately")
	for _, f := range []string{"name", "units", "open", "close"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newProjectListCommand(rt *runtime) *cobra.Command {
	var (
		filter          domain.ProjectFilter
		flatType, sort  string
		manager, viewer string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, optionally as seen by an applicant",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flatType != "" {
				ft, err := parseFlatType(flatType)
				if err != nil {
					return err
				}
				filter.FlatType = ft
			}
			switch domain.SortOrder(sort) {
			case "", domain.SortNameAsc, domain.SortNameDesc:
				filter.Sort = domain.SortOrder(sort)
			default:
				return usageError{err: fmt.Errorf("invalid sort %q", sort)}
			}
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			var projects []domain.Project
			switch {
			case viewer != "":
				projects, err = svc.ListProjectsForApplicant(viewer, filter)
				if err != nil {
					return err
				}
			case manager != "":
				projects = filter.Apply(svc.ListProjectsByManager(manager))
			default:
				projects = svc.FilterProjects(filter)
			}
			return printEach(rt, projects)
		},
	}
	cmd.Flags().StringVar(&filter.Name, "name", "", "case-insensitive name substring")
	cmd.Flags().StringVar(&filter.Neighborhood, "neighborhood", "", "case-insensitive neighbourhood substring")
	cmd.Flags().StringVar(&flatType, "flat-type", "", "only projects offering this flat type")
	cmd.Flags().BoolVar(&filter.VisibleOnly, "visible-only", false, "hide projects applicants cannot see")
	cmd.Flags().StringVar(&sort, "sort", "", "name_asc (default) or name_desc")
	cmd.Flags().StringVar(&manager, "manager", "", "only projects owned by this manager")
	cmd.Flags().StringVar(&viewer, "for", "", "visible projects this person is eligible to apply for")
	cmd.MarkFlagsMutuallyExclusive("manager", "for")
	return cmd
}

func newProjectShowCommand(rt *runtime) *cobra.Command {
	var byName bool
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one project by ID, or by name with --by-name",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			var project domain.Project
			if byName {
				project, err = svc.GetProjectByName(args[0])
			} else {
				project, err = svc.GetProject(args[0])
			}
			if err != nil {
				return err
			}
			return rt.print(project)
		},
	}
	cmd.Flags().BoolVar(&byName, "by-name", false, "treat the argument as a project name")
	return cmd
}

func newProjectEditCommand(rt *runtime) *cobra.Command {
	var (
		manager, name, neighborhood, openDate, closeDate string
		prices                                           map[string]int
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a project's name, neighbourhood, window or prices",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var edit core.ProjectEdit
			if flags.Changed("name") {
				edit.Name = &name
			}
			if flags.Changed("neighborhood") {
				edit.Neighborhood = &neighborhood
			}
			if flags.Changed("prices") {
				p, err := parseFlatTypeCounts(prices)
				if err != nil {
					return err
				}
				edit.Prices = p
			}
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			if flags.Changed("open") || flags.Changed("close") {
				current, err := svc.GetProject(args[0])
				if err != nil {
					return err
				}
				w := current.Window
				if flags.Changed("open") {
					if w.Open, err = parseDate("open", openDate); err != nil {
						return err
					}
				}
				if flags.Changed("close") {
					if w.Close, err = parseDate("close", closeDate); err != nil {
						return err
					}
				}
				edit.Window = &w
			}
			project, _, err := svc.EditProject(cmd.Context(), manager, args[0], edit)
			if err != nil {
				return err
			}
			return rt.print(project)
		},
	}
	actorFlag(cmd, &manager, "manager")
	cmd.Flags().StringVar(&name, "name", "", "new project name")
	cmd.Flags().StringVar(&neighborhood, "neighborhood", "", "new neighbourhood")
	cmd.Flags().StringVar(&openDate, "open", "", "new first day of the window (YYYY-MM-DD)")
	cmd.Flags().StringVar(&closeDate, "close", "", "new last day of the window (YYYY-MM-DD)")
	cmd.Flags().StringToIntVar(&prices, "prices", nil, "replacement price list")
	return cmd
}

func newProjectAddUnitsCommand(rt *runtime) *cobra.Command {
	var (
		manager, flatType string
		count             int
	)
	cmd := &cobra.Command{
		Use:   "add-units ID",
		Short: "Release additional units of a flat type",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ft, err := parseFlatType(flatType)
			if err != nil {
				return err
			}
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			project, _, err := svc.AddUnits(cmd.Context(), manager, args[0], ft, count)
			if err != nil {
				return err
			}
			return rt.print(project)
		},
	}
	actorFlag(cmd, &manager, "manager")
	cmd.Flags().StringVar(&flatType, "flat-type", "", "flat type to release")
	cmd.Flags().IntVar(&count, "count", 1, "units to add")
	_ = cmd.MarkFlagRequired("flat-type")
	return cmd
}

func newProjectToggleCommand(rt *runtime) *cobra.Command {
	var manager string
	cmd := &cobra.Command{
		Use:   "toggle ID",
		Short: "Flip whether applicants can see the project",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			project, _, err := svc.ToggleVisibility(cmd.Context(), manager, args[0])
			if err != nil {
				return err
			}
			return rt.print(project)
		},
	}
	actorFlag(cmd, &manager, "manager")
	return cmd
}

func newProjectDeleteCommand(rt *runtime) *cobra.Command {
	var manager string
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a project nobody has applied or registered for",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := svc.DeleteProject(cmd.Context(), manager, args[0]); err != nil {
				return err
			}
			return rt.print(map[string]string{"deleted": args[0]})
		},
	}
	actorFlag(cmd, &manager, "manager")
	return cmd
}
