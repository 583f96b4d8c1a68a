package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"market-admin/pkg/adminclient"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password, totp string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as an admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if email == "" {
				if email, err = prompt(cmd.OutOrStdout(), in, "Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(cmd.OutOrStdout(), in, "Password: "); err != nil {
					return err
				}
			}

			admin, err := a.gate.Login(cmd.Context(), email, password, totp)
			if adminclient.NeedsTOTP(err) && totp == "" {
				if totp, err = prompt(cmd.OutOrStdout(), in, "Authenticator code: "); err != nil {
					return err
				}
				admin, err = a.gate.Login(cmd.Context(), email, password, totp)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", admin.Email, admin.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "admin email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	cmd.Flags().StringVar(&totp, "totp", "", "authenticator code when 2FA is enabled")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The local session is cleared even when the server call fails.
			if err := a.gate.Logout(cmd.Context()); err != nil {
				a.log.WithError(err).Warn("Server sign-out failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if err := a.gate.Check(cmd.Context()); err == nil {
				admin := a.gate.Admin()
				fmt.Fprintf(out, "%s\t%s\tadmin id %s\n", admin.Email, admin.Role, admin.ID)
				return nil
			}
			if a.gate.IsAuthenticated() {
				if cached := a.gate.CachedAdmin(); cached != nil {
					fmt.Fprintf(out, "%s\t%s\t(cached, server unreachable)\n", cached.Email, cached.Role)
					return nil
				}
			}
			return errors.New("not signed in")
		},
	}
}

func prompt(out io.Writer, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
