package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kirinyoku/sunset-go/internal/app"
	"github.com/kirinyoku/sunset-go/internal/domain"
	"github.com/spf13/cobra"
)

// userView is a user without its password digest.
type userView struct {
	ID      int64       `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Role    domain.Role `json:"role"`
	Created time.Time   `json:"created"`
}

func viewUser(u *domain.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Created: u.Created}
}

func newRegisterCommand(r *runner) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter) error {
				u, err := a.Services.Credentials.Register(ctx, name, email, password)
				if err != nil {
					return fail(f, err)
				}

				v := viewUser(u)
				return f.Success(v, func(w io.Writer) {
					fmt.Fprintln(w, okStyle.Render("Account created."))
					renderFields(w, "ID", fmt.Sprint(v.ID), "Name", v.Name, "Email", v.Email, "Role", string(v.Role))
				})
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 6 characters")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLoginCommand(r *runner) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open the session, replacing any current one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter) error {
				sess, err := a.Services.Session.Login(ctx, email, password)
				if err != nil {
					return fail(f, err)
				}

				return f.Success(sess, func(w io.Writer) {
					fmt.Fprintf(w, "%s %s (%s)\n", okStyle.Render("Logged in as"), sess.Name, sess.Role)
				})
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Close the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter) error {
				if err := a.Services.Session.Logout(ctx); err != nil {
					return fail(f, err)
				}

				return f.Success(map[string]bool{"loggedOut": true}, func(w io.Writer) {
					fmt.Fprintln(w, "Logged out.")
				})
			})
		},
	}
}

func newWhoamiCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter) error {
				sess, err := a.Services.Session.Current(ctx)
				if err != nil {
					return fail(f, err)
				}

				if sess == nil {
					_ = f.Error("not_authenticated", "nobody is logged in")
					return NewExitError(ExitFailure, "nobody is logged in")
				}

				return f.Success(sess, func(w io.Writer) {
					renderFields(w,
						"Name", sess.Name,
						"Email", sess.Email,
						"Role", string(sess.Role),
						"Since", sess.LoginTime.Local().Format(time.DateTime),
					)
				})
			})
		},
	}
}
