package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func loginCommand(settings *Settings) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("BANTAYANI_PASSWORD")
			}
			if email == "" || password == "" {
				return errors.New("--email and --password (or BANTAYANI_PASSWORD) are required")
			}
			c := settings.newClient()
			resp, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := settings.saveToken(resp.AccessToken); err != nil {
				return fmt.Errorf("logged in but could not save token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", resp.User.DisplayName, resp.User.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account e-mail")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

func logoutCommand(settings *Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := settings.requireSession()
			if err != nil {
				return err
			}
			logoutErr := c.Logout(cmd.Context())
			if err := os.Remove(settings.TokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			return logoutErr
		},
	}
}
