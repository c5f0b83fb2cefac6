package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/kirinyoku/sunset-go/internal/app"
	"github.com/kirinyoku/sunset-go/internal/domain"
	"github.com/spf13/cobra"
)

func newEventCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Show and edit the event configuration",
	}

	cmd.AddCommand(newEventShowCommand(r))
	cmd.AddCommand(newEventSetCommand(r))
	cmd.AddCommand(newEventColorsCommand(r))
	cmd.AddCommand(newProgramCommand(r))

	return cmd
}

func newEventShowCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the event configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter) error {
				cfg, err := a.Services.Event.Get(ctx)
				if err != nil {
					return fail(f, err)
				}

				return f.Success(cfg, func(w io.Writer) { renderEvent(w, cfg) })
			})
		},
	}
}

func newEventSetCommand(r *runner) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the whole event configuration with a JSON document",
		Long: `Replace the whole event configuration with a JSON document read from
--file, or from standard input when --file is "-". Fields missing from the
document are cleared.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := r.formatter(cmd)

			var in io.Reader = cmd.InOrStdin()
			if file != "-" {
				fh, err := os.Open(file)
				if err != nil {
					_ = f.Error("usage", err.Error())
					return WrapExitError(ExitCommandError, "cannot read configuration", err)
				}
				defer fh.Close()
				in = fh
			}

			var cfg domain.EventConfig
			if err := json.NewDecoder(in).Decode(&cfg); err != nil {
				return usage(f, fmt.Sprintf("invalid configuration document: %v", err))
			}

			return r.admin(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter, _ *domain.Session) error {
				if err := a.Services.Event.Set(ctx, cfg); err != nil {
					return fail(f, err)
				}

				return f.Success(cfg, func(w io.Writer) {
					fmt.Fprintln(w, okStyle.Render("Event configuration saved."))
				})
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", `JSON file, "-" for stdin`)

	return cmd
}

func newEventColorsCommand(r *runner) *cobra.Command {
	var colors domain.Colors

	cmd := &cobra.Command{
		Use:   "colors",
		Short: "Change the site colors; unset flags keep their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.admin(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter, _ *domain.Session) error {
				cur, err := a.Services.Event.Get(ctx)
				if err != nil {
					return fail(f, err)
				}

				next := cur.Colors
				if cmd.Flags().Changed("primary") {
					next.Primary = colors.Primary
				}
				if cmd.Flags().Changed("secondary") {
					next.Secondary = colors.Secondary
				}
				if cmd.Flags().Changed("accent") {
					next.Accent = colors.Accent
				}

				cfg, err := a.Services.Event.SetColors(ctx, next)
				if err != nil {
					return fail(f, err)
				}

				return f.Success(cfg.Colors, func(w io.Writer) {
					fmt.Fprintln(w, okStyle.Render("Colors applied."))
					renderColors(w, cfg.Colors)
				})
			})
		},
	}

	cmd.Flags().StringVar(&colors.Primary, "primary", "", "primary color, e.g. #667eea")
	cmd.Flags().StringVar(&colors.Secondary, "secondary", "", "secondary color")
	cmd.Flags().StringVar(&colors.Accent, "accent", "", "accent color")

	return cmd
}

func newProgramCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "program",
		Short: "Edit the event program",
	}

	cmd.AddCommand(newProgramAddCommand(r))
	cmd.AddCommand(newProgramUpdateCommand(r))
	cmd.AddCommand(newProgramRemoveCommand(r))

	return cmd
}

func programFlags(cmd *cobra.Command, item *domain.ProgramItem) {
	cmd.Flags().StringVar(&item.Icon, "icon", "", "item icon")
	cmd.Flags().StringVar(&item.Title, "title", "", "item title")
	cmd.Flags().StringVar(&item.Description, "description", "", "item description")
	cmd.Flags().StringVar(&item.Time, "time", "", "item time, e.g. 22:00")
}

func newProgramAddCommand(r *runner) *cobra.Command {
	var item domain.ProgramItem

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a program item; without flags a placeholder item is added",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.admin(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter, _ *domain.Session) error {
				cfg, err := a.Services.Event.AddProgramItem(ctx, item)
				if err != nil {
					return fail(f, err)
				}

				return f.Success(cfg.Program, func(w io.Writer) { renderProgram(w, cfg.Program) })
			})
		},
	}

	programFlags(cmd, &item)

	return cmd
}

func newProgramUpdateCommand(r *runner) *cobra.Command {
	var item domain.ProgramItem

	cmd := &cobra.Command{
		Use:   "update <index>",
		Short: "Change the program item at index; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return usage(r.formatter(cmd), fmt.Sprintf("invalid index %q", args[0]))
			}

			return r.admin(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter, _ *domain.Session) error {
				cfg, err := a.Services.Event.UpdateProgramItem(ctx, index, item)
				if err != nil {
					return fail(f, err)
				}

				return f.Success(cfg.Program, func(w io.Writer) { renderProgram(w, cfg.Program) })
			})
		},
	}

	programFlags(cmd, &item)

	return cmd
}

func newProgramRemoveCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <index>",
		Short: "Remove the program item at index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return usage(r.formatter(cmd), fmt.Sprintf("invalid index %q", args[0]))
			}

			return r.admin(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter, _ *domain.Session) error {
				cfg, err := a.Services.Event.RemoveProgramItem(ctx, index)
				if err != nil {
					return fail(f, err)
				}

				return f.Success(cfg.Program, func(w io.Writer) { renderProgram(w, cfg.Program) })
			})
		},
	}
}

func renderEvent(w io.Writer, cfg *domain.EventConfig) {
	renderFields(w,
		"Title", cfg.Title,
		"Subtitle", cfg.Subtitle,
		"Location", cfg.Location,
		"Date", cfg.Date,
		"Price", cfg.Price.StringFixed(2)+"€",
		"Includes", cfg.Includes,
		"Description", cfg.Description,
	)
	renderColors(w, cfg.Colors)
	fmt.Fprintln(w)
	renderProgram(w, cfg.Program)
}

func renderColors(w io.Writer, c domain.Colors) {
	renderFields(w, "Colors", fmt.Sprintf("primary %s, secondary %s, accent %s", c.Primary, c.Secondary, c.Accent))
}

func renderProgram(w io.Writer, program []domain.ProgramItem) {
	rows := make([][]string, 0, len(program))
	for i, p := range program {
		rows = append(rows, []string{strconv.Itoa(i), p.Time, p.Icon, p.Title, p.Description})
	}

	renderTable(w, "No program items.", []string{"#", "TIME", "", "TITLE", "DESCRIPTION"}, rows)
}
