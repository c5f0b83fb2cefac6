package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/kirinyoku/sunset-go/internal/app"
	"github.com/kirinyoku/sunset-go/internal/domain"
	"github.com/spf13/cobra"
)

func newContentCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Show and edit the public site content",
	}

	cmd.AddCommand(newPastEventCommand(r))
	cmd.AddCommand(newSocialCommand(r))

	return cmd
}

func newPastEventCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "past-event",
		Short: "The summary of the previous edition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPastEventShow(r, cmd)
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the past-event summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPastEventShow(r, cmd)
		},
	}

	var pe domain.PastEvent
	set := &cobra.Command{
		Use:   "set",
		Short: "Save the past-event summary; unset flags are saved empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.admin(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter, _ *domain.Session) error {
				if err := a.Services.Content.SavePastEvent(ctx, pe); err != nil {
					return fail(f, err)
				}

				return f.Success(pe, func(w io.Writer) {
					fmt.Fprintln(w, okStyle.Render("Past event saved."))
				})
			})
		},
	}
	set.Flags().StringVar(&pe.Name, "name", "", "event name")
	set.Flags().StringVar(&pe.Location, "location", "", "location")
	set.Flags().StringVar(&pe.Description, "description", "", "description")
	set.Flags().StringVar(&pe.Participants, "participants", "", "participants, e.g. +500 participantes")
	set.Flags().StringVar(&pe.DJs, "djs", "", "line-up, e.g. 4 DJs")
	set.Flags().StringVar(&pe.Rating, "rating", "", "rating, e.g. 5/5 avaliação")

	cmd.AddCommand(show, set)

	return cmd
}

func runPastEventShow(r *runner, cmd *cobra.Command) error {
	return r.run(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter) error {
		pe, err := a.Services.Content.PastEvent(ctx)
		if err != nil {
			return fail(f, err)
		}

		return f.Success(pe, func(w io.Writer) {
			renderFields(w,
				"Name", pe.Name,
				"Location", pe.Location,
				"Description", pe.Description,
				"Participants", pe.Participants,
				"DJs", pe.DJs,
				"Rating", pe.Rating,
			)
		})
	})
}

func newSocialCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "social",
		Short: "The social profile links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSocialShow(r, cmd)
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the social links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSocialShow(r, cmd)
		},
	}

	var sl domain.SocialLinks
	set := &cobra.Command{
		Use:   "set",
		Short: "Save the social links; unset flags are saved empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.admin(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter, _ *domain.Session) error {
				if err := a.Services.Content.SaveSocialLinks(ctx, sl); err != nil {
					return fail(f, err)
				}

				return f.Success(sl, func(w io.Writer) {
					fmt.Fprintln(w, okStyle.Render("Social links saved."))
				})
			})
		},
	}
	set.Flags().StringVar(&sl.Instagram, "instagram", "", "Instagram profile URL")
	set.Flags().StringVar(&sl.TikTok, "tiktok", "", "TikTok profile URL")
	set.Flags().StringVar(&sl.Facebook, "facebook", "", "Facebook page URL")

	cmd.AddCommand(show, set)

	return cmd
}

func runSocialShow(r *runner, cmd *cobra.Command) error {
	return r.run(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter) error {
		sl, err := a.Services.Content.SocialLinks(ctx)
		if err != nil {
			return fail(f, err)
		}

		return f.Success(sl, func(w io.Writer) {
			renderFields(w, "Instagram", sl.Instagram, "TikTok", sl.TikTok, "Facebook", sl.Facebook)
		})
	})
}
