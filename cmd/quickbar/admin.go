package main

import (
	"fmt"

	"quickbar/config"
	"quickbar/internal/auth"
	"quickbar/internal/docstore"
	"quickbar/internal/service"

	"github.com/spf13/cobra"
)

func NewGrantCommand(opts *RootOptions) *cobra.Command {
	var input service.GrantInput

	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Set the admin role of an account",
		Long: `Write the role record of an account under users/{uid}.

The uid is shown on /admin/me after signing in. --role none removes the
record and with it every admin screen.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := opts.Config, opts.Log
			db := config.MustInitPostgres(cfg.Database, log)
			defer db.Close()

			record, err := service.NewUserService(docstore.NewPostgresStore(db, log)).Grant(cmd.Context(), input)
			if err != nil {
				return err
			}
			if record == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "removed role of %s\n", input.UID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s %v\n", record.UID, record.Role, record.ClubAccess)
			return nil
		},
	}
	cmd.Flags().StringVar(&input.UID, "uid", "", "account uid")
	cmd.Flags().StringVar(&input.Email, "email", "", "account email, kept for display")
	cmd.Flags().StringVar(&input.DisplayName, "name", "", "display name")
	cmd.Flags().StringVar(&input.Role, "role", "", "club_admin, super_admin or none")
	cmd.Flags().StringSliceVar(&input.ClubAccess, "club", nil, "venue id a club_admin may manage (repeatable)")
	cmd.MarkFlagRequired("uid")
	cmd.MarkFlagRequired("role")

	return cmd
}

func NewPasswdCommand(opts *RootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Create an account or reset its password",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := opts.Config, opts.Log
			db := config.MustInitPostgres(cfg.Database, log)
			defer db.Close()

			identity, err := auth.NewPostgresCredentials(db).SetPassword(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s uid=%s\n", identity.Email, identity.UID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "new password, at least 6 characters")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}
