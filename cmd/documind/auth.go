package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"documind/internal/model"
	"documind/internal/state"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:     "login",
		GroupID: groupAccount,
		Short:   "Log in and persist the session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password is required")
				}
				password = strings.TrimRight(line, "\r\n")
			}
			u, err := a.sess.ctrl.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if a.json {
				return a.printJSON(cmd.OutOrStdout(), u)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", u.Name, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "logout",
		GroupID: groupAccount,
		Short:   "End the persisted session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.sess.ctrl.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		GroupID: groupAccount,
		Short:   "Show the logged in user",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, ok := a.sess.ctrl.CurrentUser()
			if !ok {
				return state.ErrNotLoggedIn
			}
			if a.json {
				return a.printJSON(cmd.OutOrStdout(), u)
			}
			return a.printUsers(cmd.OutOrStdout(), []model.User{u})
		},
	}
}

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		GroupID: groupAccount,
		Short:   "List and manage accounts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := a.sess.ctrl.Users()
			if err != nil {
				return err
			}
			return a.printUsers(cmd.OutOrStdout(), users)
		},
	}
	cmd.AddCommand(newUsersAddCmd(a), newUsersUpdateCmd(a))
	return cmd
}

func newUsersAddCmd(a *app) *cobra.Command {
	var in state.NewUser
	var role string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account (administrators only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Role = model.Role(role)
			u, err := a.sess.ctrl.AddUser(cmd.Context(), in)
			if err != nil {
				return err
			}
			if a.json {
				return a.printJSON(cmd.OutOrStdout(), u)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", u.ID, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", string(model.RoleUser), "Admin or User")
	for _, f := range []string{"name", "email", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newUsersUpdateCmd(a *app) *cobra.Command {
	var name, role, status, password string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an account (administrators only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var up state.UserUpdate
			fl := cmd.Flags()
			if fl.Changed("name") {
				up.Name = &name
			}
			if fl.Changed("role") {
				r := model.Role(role)
				up.Role = &r
			}
			if fl.Changed("status") {
				s := model.UserStatus(status)
				up.Status = &s
			}
			if fl.Changed("password") {
				up.Password = &password
			}

			u, err := a.sess.ctrl.UpdateUser(cmd.Context(), args[0], up)
			if err != nil {
				return err
			}
			if a.json {
				return a.printJSON(cmd.OutOrStdout(), u)
			}
			return a.printUsers(cmd.OutOrStdout(), []model.User{u})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&role, "role", "", "Admin or User")
	cmd.Flags().StringVar(&status, "status", "", "Active or Deactivated")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	return cmd
}
