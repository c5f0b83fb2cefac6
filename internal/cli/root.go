package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/kirinyoku/sunset-go/internal/app"
	"github.com/kirinyoku/sunset-go/internal/domain"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// AppFactory opens the application a command runs against.
type AppFactory func(ctx context.Context, opts *RootOptions) (*app.App, error)

// NewRootCommand creates the root command for the sunset CLI.
func NewRootCommand(open AppFactory) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sunset",
		Short: "Sunset 2025 event administration",
		Long: `Manage the Sunset 2025 event site: accounts and sessions, the event
configuration and site content, ticket sales and ticket validation at the door.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	r := &runner{opts: opts, open: open}

	cmd.AddCommand(newRegisterCommand(r))
	cmd.AddCommand(newLoginCommand(r))
	cmd.AddCommand(newLogoutCommand(r))
	cmd.AddCommand(newWhoamiCommand(r))
	cmd.AddCommand(newEventCommand(r))
	cmd.AddCommand(newContentCommand(r))
	cmd.AddCommand(newPurchaseCommand(r))
	cmd.AddCommand(newTicketsCommand(r))
	cmd.AddCommand(newSalesCommand(r))
	cmd.AddCommand(newImportCommand(r))
	cmd.AddCommand(newWatchCommand(r))

	return cmd
}

// Execute runs the command line and returns the process exit code. Errors
// the commands did not report themselves are printed to stderr.
func Execute(ctx context.Context, cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}

	return GetExitCode(err)
}

// runner carries what every command needs: the global options and the way
// to open the application.
type runner struct {
	opts *RootOptions
	open AppFactory
}

func (r *runner) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    r.opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   r.opts.Verbose,
	}
}

// run opens the application, hands it to fn and closes it afterwards.
func (r *runner) run(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, f *OutputFormatter) error) error {
	f := r.formatter(cmd)
	ctx := cmd.Context()

	a, err := r.open(ctx, r.opts)
	if err != nil {
		_ = f.Error("store_unavailable", err.Error())
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			f.VerboseLog("closing store: %v", err)
		}
	}()

	return fn(ctx, a, f)
}

// admin is run for commands restricted to an admin session.
func (r *runner) admin(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, f *OutputFormatter, sess *domain.Session) error) error {
	return r.run(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter) error {
		sess, err := a.Services.Session.RequireAdmin(ctx)
		if err != nil {
			return fail(f, err)
		}

		f.VerboseLog("acting as %s (%s)", sess.Email, sess.Role)

		return fn(ctx, a, f, sess)
	})
}
