package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"finledger/internal/models"
	"finledger/internal/services"
)

func (a *cli) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <category-id>",
		Short: "Monthly totals of a category",
		Long: `Sum the transactions of a category, together with every category of the same
name and type, per month. The date range applies only when both --from and
--to are given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := services.ReportRequest{}
			var err error
			if req.CategoryID, err = parseID(args[0]); err != nil {
				return err
			}
			if req.StartDate, err = optionalDateFlag(cmd, "from"); err != nil {
				return err
			}
			if req.EndDate, err = optionalDateFlag(cmd, "to"); err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := a.open(ctx, true)
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := s.statistics.MonthlyReport(ctx, s.user.ID, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", report.CategoryName)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			for _, b := range report.Buckets {
				fmt.Fprintf(w, "%s\t%s\t\n", b.Month, b.Total.StringFixed(models.AmountScale))
			}
			_ = w.Flush()
			fmt.Fprintf(out, "Max: %s\n", report.MaxValue.StringFixed(models.AmountScale))
			return nil
		},
	}

	cmd.Flags().String("from", "", "inclusive start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "inclusive end date (YYYY-MM-DD)")
	return cmd
}
