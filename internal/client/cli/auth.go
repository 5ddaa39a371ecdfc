package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/isdelr/grandline-guide/internal/client/session"
)

// ErrPasswordMismatch is returned when the confirmation differs.
var ErrPasswordMismatch = errors.New("Passwords do not match")

func newSignupCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runSignup(cmd.Context())
		},
	}
}

func newLoginCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runLogin(cmd.Context())
		},
	}
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.sessions.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("failed to log out: %w", err)
			}
			app.printf("Logged out.\n")
			return nil
		},
	}
}

func newWhoamiCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Check the stored session against the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.sessions.Bootstrap(cmd.Context())
			if errors.Is(err, session.ErrLoginRequired) {
				app.printf("Not logged in.\n")
				return nil
			}
			if err != nil {
				return err
			}
			app.printf("Logged in as %s.\n", sess.DisplayName())
			return nil
		},
	}
}

func (a *App) runSignup(ctx context.Context) error {
	username, err := a.prompter.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	password, err := a.prompter.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := a.prompter.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password != confirm {
		return ErrPasswordMismatch
	}

	username = strings.TrimSpace(username)
	token, err := a.api.Signup(ctx, username, password)
	if err != nil {
		return err
	}
	if err := a.sessions.Save(ctx, token, username); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	sess := session.Session{Token: token, Username: username}
	a.printf("Account created. Welcome, %s!\n", sess.DisplayName())
	return nil
}

func (a *App) runLogin(ctx context.Context) error {
	username, err := a.prompter.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	password, err := a.prompter.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	username = strings.TrimSpace(username)
	token, err := a.api.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := a.sessions.Save(ctx, token, username); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	sess := session.Session{Token: token, Username: username}
	a.printf("Welcome back, %s!\n", sess.DisplayName())
	return nil
}

// requireSession returns the stored session, asking the user to log in when
// there is none or the server rejects it.
func (a *App) requireSession(ctx context.Context) (session.Session, error) {
	sess, err := a.sessions.Bootstrap(ctx)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, session.ErrLoginRequired) {
		return session.Session{}, err
	}

	a.printf("Please log in to continue.\n")
	if err := a.runLogin(ctx); err != nil {
		return session.Session{}, err
	}
	return a.sessions.Load(ctx)
}
