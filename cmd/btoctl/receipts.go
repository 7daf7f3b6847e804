package main

import (
	"io"

	"github.com/spf13/cobra"
)

func newReceiptCommand(rt *runtime) *cobra.Command {
	return groupCommand("receipt", "Read archived booking receipts",
		newReceiptShowCommand(rt),
		newReceiptListCommand(rt),
		newReceiptURLCommand(rt),
	)
}

func newReceiptShowCommand(rt *runtime) *cobra.Command {
	var (
		projectID string
		text      bool
	)
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one archived receipt",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			receipt, err := svc.GetReceipt(cmd.Context(), projectID, args[0])
			if err != nil {
				return err
			}
			if text {
				_, err = io.WriteString(rt.stdout, receipt.Text())
				return err
			}
			return rt.print(receipt)
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "print the receipt as text instead of JSON")
	projectFlag(cmd, &projectID)
	return cmd
}

// projectFlag binds --project, which lets receipt lookups skip the full scan.
func projectFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "project", "", "project the receipt was issued for, if known")
}

func newReceiptListCommand(rt *runtime) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived receipts",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			receipts, err := svc.ListReceipts(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			return printEach(rt, receipts)
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "only receipts for this project")
	return cmd
}

func newReceiptURLCommand(rt *runtime) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "url ID",
		Short: "Print a time-limited download URL for a receipt",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			url, err := svc.ReceiptURL(cmd.Context(), projectID, args[0])
			if err != nil {
				return err
			}
			return rt.print(map[string]string{"receipt_id": args[0], "url": url})
		},
	}
	projectFlag(cmd, &projectID)
	return cmd
}
