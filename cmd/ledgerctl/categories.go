package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/pagination"
)

func (a *cli) categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cat"},
		Short:   "Manage income and expense categories",
	}

	cmd.AddCommand(a.listCategoriesCmd())
	cmd.AddCommand(a.addCategoryCmd())
	cmd.AddCommand(a.renameCategoryCmd())
	cmd.AddCommand(a.deleteCategoryCmd())

	return cmd
}

func (a *cli) listCategoriesCmd() *cobra.Command {
	var (
		rawType  string
		editable bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Long:  `List categories ordered by name. --editable hides the reserved catch-all categories.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := a.open(ctx, true)
			if err != nil {
				return err
			}
			defer s.Close()

			var categories []models.Category
			if rawType != "" {
				categoryType, ok := models.ParseCategoryType(rawType)
				if !ok {
					return apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be income or expense")
				}
				categories, err = s.categories.ListByTypeAndUser(ctx, s.user.ID, categoryType, !editable)
			} else {
				var page *pagination.PageResponse[models.Category]
				page, err = s.categories.ListUserCategories(ctx, s.user.ID, pagination.PageRequest{Page: 1, PageSize: pagination.MaxPageSize})
				if page != nil {
					for _, c := range page.Data {
						if !editable || !c.IsReserved() {
							categories = append(categories, c)
						}
					}
				}
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "ID\tTYPE\tNAME\tRESERVED")
			for _, c := range categories {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", c.ID, c.Type, c.Name, c.IsReserved())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&rawType, "type", "t", "", "only list income or expense categories")
	cmd.Flags().BoolVar(&editable, "editable", false, "hide reserved categories")
	return cmd
}

func (a *cli) addCategoryCmd() *cobra.Command {
	var rawType string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			categoryType, ok := models.ParseCategoryType(rawType)
			if !ok {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be income or expense")
			}

			ctx := cmd.Context()
			s, err := a.open(ctx, true)
			if err != nil {
				return err
			}
			defer s.Close()

			category, err := s.categories.CreateCategory(ctx, s.user.ID, args[0], categoryType)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s category %q (%s)\n", category.Type, category.Name, category.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&rawType, "type", "t", "", "income or expense")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func (a *cli) renameCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <new-name>",
		Short: "Rename a user-defined category",
		Args:  cobra.ExactArgs(2),
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

			if _, err := s.editableCategory(ctx, id); err != nil {
				return err
			}
			category, err := s.categories.RenameCategory(ctx, s.user.ID, id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed category to %q\n", category.Name)
			return nil
		},
	}
}

func (a *cli) deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user-defined category and its transactions",
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

			category, err := s.editableCategory(ctx, id)
			if err != nil {
				return err
			}
			if err := s.categories.DeleteCategory(ctx, s.user.ID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %q\n", category.Name)
			return nil
		},
	}
}
