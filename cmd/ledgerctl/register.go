package main

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "finledger/internal/errors"
)

func (a *cli) registerCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create the account named by --username",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			username, password := a.v.GetString("auth.username"), a.v.GetString("auth.password")
			if username == "" || password == "" {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "--username and --password are required")
			}

			ctx := cmd.Context()
			s, err := a.open(ctx, false)
			if err != nil {
				return err
			}
			defer s.Close()

			user, err := s.users.Register(ctx, username, email, password)
			if err != nil {
				return err
			}
			if err := s.categories.EnsureDefaults(ctx, user.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "contact email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
