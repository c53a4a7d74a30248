package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"finledger/internal/models"
	"finledger/internal/services"
	"finledger/internal/validator"
)

func (a *cli) transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "Record and edit transactions",
	}

	cmd.AddCommand(a.recordCmd())
	cmd.AddCommand(a.listTransactionsCmd())
	cmd.AddCommand(a.updateTransactionCmd())
	cmd.AddCommand(a.deleteTransactionCmd())

	return cmd
}

func (a *cli) recordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record <category-id> <name> <amount> <date>",
		Short: "Record a transaction",
		Long: `Record a transaction under a category. Amounts take at most two decimals and
may be negative. Dates use YYYY-MM-DD.`,
		Example: `  ledgerctl tx record 0190a5e4-... "Market" 10.00 2024-01-05`,
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			categoryID, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			date, err := parseDate(args[3])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := a.open(ctx, true)
			if err != nil {
				return err
			}
			defer s.Close()

			tx, err := s.transactions.Record(ctx, s.user.ID, categoryID, services.RecordInput{
				Name:   args[1],
				Amount: amount,
				Date:   date,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s on %s (%s)\n",
				tx.Name, tx.Amount.StringFixed(models.AmountScale), tx.Date.Format(validator.DateLayout), tx.ID)
			return nil
		},
	}
}

func (a *cli) listTransactionsCmd() *cobra.Command {
	var categoryID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter services.TransactionFilter
			var err error
			if filter.StartDate, err = optionalDateFlag(cmd, "from"); err != nil {
				return err
			}
			if filter.EndDate, err = optionalDateFlag(cmd, "to"); err != nil {
				return err
			}
			if categoryID != "" {
				if filter.CategoryID, err = parseID(categoryID); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			s, err := a.open(ctx, true)
			if err != nil {
				return err
			}
			defer s.Close()

			transactions, err := s.transactions.Query(ctx, s.user.ID, filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "DATE\tCATEGORY\tNAME\tAMOUNT\tID")
			for _, tx := range transactions {
				category := ""
				if tx.Category != nil {
					category = tx.Category.Name
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					tx.Date.Format(validator.DateLayout), category, tx.Name, tx.Amount.StringFixed(models.AmountScale), tx.ID)
			}
			return nil
		},
	}

	cmd.Flags().String("from", "", "inclusive start date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "inclusive end date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&categoryID, "category", "c", "", "only this category")
	return cmd
}

func (a *cli) updateTransactionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a transaction",
		Long:  `Overwrite the given fields. The mirror in the reserved category keeps its old values.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var upd services.TransactionUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				name, _ := flags.GetString("name")
				upd.Name = &name
			}
			if flags.Changed("amount") {
				raw, _ := flags.GetString("amount")
				amount, err := parseAmount(raw)
				if err != nil {
					return err
				}
				upd.Amount = &amount
			}
			if flags.Changed("date") {
				raw, _ := flags.GetString("date")
				date, err := parseDate(raw)
				if err != nil {
					return err
				}
				upd.Date = &date
			}
			if flags.Changed("category") {
				raw, _ := flags.GetString("category")
				categoryID, err := parseID(raw)
				if err != nil {
					return err
				}
				upd.CategoryID = &categoryID
			}

			ctx := cmd.Context()
			s, err := a.open(ctx, true)
			if err != nil {
				return err
			}
			defer s.Close()

			tx, err := s.transactions.UpdateTransaction(ctx, s.user.ID, id, upd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s %s on %s\n",
				tx.ID, tx.Name, tx.Amount.StringFixed(models.AmountScale), tx.Date.Format(validator.DateLayout))
			return nil
		},
	}

	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("amount", "", "new amount")
	cmd.Flags().String("date", "", "new date (YYYY-MM-DD)")
	cmd.Flags().String("category", "", "move to this category")
	return cmd
}

func (a *cli) deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Long:  `Delete a transaction. Its mirror in the reserved category is kept.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := a.open(ctx, true)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.transactions.DeleteTransaction(ctx, s.user.ID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction %s\n", id)
			return nil
		},
	}
}
