package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirinyoku/sunset-go/internal/app"
	redisrepo "github.com/kirinyoku/sunset-go/internal/repository/redis"
	"github.com/spf13/cobra"
)

func newWatchCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow site updates and ticket redemptions until interrupted",
		Long: `Follow site updates and ticket redemptions published by other sunset
processes sharing the redis store, until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter) error {
				err := a.Watch(ctx, func(ctx context.Context, msg redisrepo.SiteMessage) {
					if f.Format == "json" {
						_ = f.Success(msg, nil)
						return
					}

					switch msg.Type {
					case redisrepo.MsgSiteUpdated:
						if msg.Site != nil {
							fmt.Fprintf(f.Writer, "site updated: %s, %s€, %s\n",
								msg.Site.Title, msg.Site.Price.StringFixed(2), msg.Site.Location)
						}
					case redisrepo.MsgTicketRedeemed:
						fmt.Fprintf(f.Writer, "ticket redeemed: %s\n", msg.TicketID)
					}
				})
				if errors.Is(err, app.ErrWatchUnavailable) {
					_ = f.Error("usage", err.Error())
					return WrapExitError(ExitCommandError, "watch unavailable", err)
				}
				if err != nil {
					return fail(f, err)
				}
				return nil
			})
		},
	}
}
