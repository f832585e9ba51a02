package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfaphoenix/notio/internal/auth"
)

// newUserCmd builds the account management commands.
func newUserCmd(configPath *string) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var username, email, password string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer e.close()

			user, err := auth.NewDirectory(e.store).Register(contextOf(cmd), auth.RegisterParams{
				Username: username,
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s created with id %d\n", user.Username, user.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&username, "username", "", "login name")
	addCmd.Flags().StringVar(&email, "email", "", "email address")
	addCmd.Flags().StringVar(&password, "password", "", "password")
	for _, name := range []string{"username", "email", "password"} {
		_ = addCmd.MarkFlagRequired(name)
	}

	userCmd.AddCommand(addCmd)
	return userCmd
}
