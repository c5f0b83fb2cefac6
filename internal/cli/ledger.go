package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kirinyoku/sunset-go/internal/app"
	"github.com/kirinyoku/sunset-go/internal/domain"
	"github.com/kirinyoku/sunset-go/internal/service/ledger"
	"github.com/kirinyoku/sunset-go/internal/service/session"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newPurchaseCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purchase",
		Short: "Record ticket purchases",
	}

	var (
		p     domain.Purchase
		qty   int
		total string
	)

	record := &cobra.Command{
		Use:   "record",
		Short: "Record a purchase and issue its tickets",
		Long: `Record a purchase and issue its tickets for the current event.

The purchase is made for the logged-in user. Administrators may record it for
another user with --user-id and --user-name. Without --total the event price
times the quantity is charged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if total != "" {
				d, err := decimal.NewFromString(total)
				if err != nil {
					return usage(r.formatter(cmd), fmt.Sprintf("invalid total %q", total))
				}
				p.Total = d
			}
			p.Quantity = domain.Count(qty)

			return r.run(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter) error {
				sess, err := a.Services.Session.Current(ctx)
				if err != nil {
					return fail(f, err)
				}
				if sess == nil {
					return fail(f, session.ErrNotAuthenticated)
				}

				if p.UserID != 0 && p.UserID != sess.UserID && sess.Role != domain.RoleAdmin {
					return fail(f, session.ErrForbidden)
				}
				if p.UserID == 0 {
					p.UserID = sess.UserID
				}
				if p.UserName == "" && p.UserID == sess.UserID {
					p.UserName = sess.Name
				}

				stored, err := a.Services.Ledger.RecordPurchase(ctx, p)
				if err != nil {
					return fail(f, err)
				}

				return f.Success(stored, func(w io.Writer) {
					fmt.Fprintf(w, "%s %d ticket(s), %s€\n",
						okStyle.Render("Purchase recorded:"), int(stored.Quantity), stored.Total.StringFixed(2))
					renderTickets(w, stored.Tickets)
				})
			})
		},
	}

	record.Flags().Int64Var(&p.UserID, "user-id", 0, "buyer id (defaults to the logged-in user)")
	record.Flags().StringVar(&p.UserName, "user-name", "", "buyer name")
	record.Flags().StringVar(&p.Phone, "phone", "", "buyer phone")
	record.Flags().IntVarP(&qty, "quantity", "q", 1, "number of tickets")
	record.Flags().StringVar(&total, "total", "", "amount charged (defaults to price x quantity)")

	cmd.AddCommand(record)

	return cmd
}

func newTicketsCommand(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "Validate and inspect tickets",
	}

	cmd.AddCommand(newTicketsValidateCommand(r))
	cmd.AddCommand(newTicketsShowCommand(r))
	cmd.AddCommand(newTicketsListCommand(r))
	cmd.AddCommand(newTicketsMineCommand(r))

	return cmd
}

func newTicketsValidateCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <code>",
		Short: "Redeem a ticket at the door",
		Long: `Redeem a ticket at the door. The code is the scanned QR payload
(SUNSET2025-<id>) or the bare ticket id.

Exits 0 when the ticket was valid and is now used, 1 when it is unknown or
was already used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.admin(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter, _ *domain.Session) error {
				res, err := a.Services.Ledger.ValidateTicket(ctx, args[0])
				if err != nil {
					return fail(f, err)
				}

				if err := f.Success(res, func(w io.Writer) { renderValidation(w, res) }); err != nil {
					return err
				}

				if res.Outcome != domain.OutcomeValidated {
					return NewExitError(ExitFailure, string(res.Outcome))
				}
				return nil
			})
		},
	}
}

func newTicketsShowCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.admin(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter, _ *domain.Session) error {
				t, err := a.Services.Ledger.FindTicket(ctx, args[0])
				if err != nil {
					return fail(f, err)
				}

				return f.Success(t, func(w io.Writer) {
					renderFields(w,
						"ID", t.ID,
						"Name", t.UserName,
						"Event", t.EventName,
						"Date", t.EventDate,
						"Location", t.Location,
						"Status", statusLabel(t.Status),
						"QR code", t.QRData,
					)
				})
			})
		},
	}
}

func newTicketsListCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every ticket sold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.admin(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter, _ *domain.Session) error {
				tickets, err := a.Services.Ledger.AllTickets(ctx)
				if err != nil {
					return fail(f, err)
				}

				return f.Success(nonNil(tickets), func(w io.Writer) { renderTickets(w, tickets) })
			})
		},
	}
}

func newTicketsMineCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List the tickets of the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter) error {
				sess, err := a.Services.Session.Current(ctx)
				if err != nil {
					return fail(f, err)
				}
				if sess == nil {
					return fail(f, session.ErrNotAuthenticated)
				}

				tickets, err := a.Services.Ledger.TicketsForUser(ctx, sess.UserID)
				if err != nil {
					return fail(f, err)
				}

				return f.Success(nonNil(tickets), func(w io.Writer) { renderTickets(w, tickets) })
			})
		},
	}
}

func newSalesCommand(r *runner) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Show the latest purchases and their totals",
		Long: `Show the latest purchases, newest first, with the tickets sold, the
revenue and the tickets still available. The totals cover the listed
purchases only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.admin(cmd, func(ctx context.Context, a *app.App, f *OutputFormatter, _ *domain.Session) error {
				sum, err := a.Services.Ledger.SalesSummary(ctx, limit)
				if err != nil {
					return fail(f, err)
				}

				return f.Success(sum, func(w io.Writer) {
					rows := make([][]string, 0, len(sum.Rows))
					for _, p := range sum.Rows {
						rows = append(rows, []string{
							p.Date.Local().Format(time.DateTime),
							p.UserName,
							p.Phone,
							strconv.Itoa(int(p.Quantity)),
							p.Total.StringFixed(2) + "€",
						})
					}
					renderTable(w, "No purchases yet.", []string{"DATE", "NAME", "PHONE", "QTY", "TOTAL"}, rows)
					renderFields(w,
						"Sold", strconv.Itoa(sum.TotalSold),
						"Revenue", sum.TotalRevenue.StringFixed(2)+"€",
						"Available", strconv.Itoa(sum.TotalAvailable),
					)
				})
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", ledger.DefaultSalesLimit, "number of purchases to show")

	return cmd
}

func renderTickets(w io.Writer, tickets []domain.Ticket) {
	rows := make([][]string, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, []string{
			t.ID,
			t.UserName,
			t.EventName,
			t.PurchaseDate.Local().Format(time.DateOnly),
			statusLabel(t.Status),
		})
	}

	renderTable(w, "No tickets sold yet.", []string{"ID", "NAME", "EVENT", "PURCHASED", "STATUS"}, rows)
}

func renderValidation(w io.Writer, res *domain.ValidationResult) {
	switch res.Outcome {
	case domain.OutcomeNotFound:
		fmt.Fprintln(w, errorStyle.Render("INVALID TICKET"))
		renderFields(w, "Code", res.Code)
	case domain.OutcomeAlreadyUsed:
		used := "unknown"
		if res.UsedDate != nil {
			used = res.UsedDate.Local().Format(time.DateTime)
		}
		fmt.Fprintln(w, warnStyle.Render("TICKET ALREADY USED"))
		renderFields(w, "Name", res.UserName, "Validated at", used)
	case domain.OutcomeValidated:
		fmt.Fprintln(w, okStyle.Render("VALID TICKET"))
		renderFields(w,
			"Name", res.UserName,
			"Event", res.EventName,
			"Date", res.EventDate,
			"Location", res.Location,
		)
		fmt.Fprintln(w, okStyle.Render("Entry authorized."))
	}
}

func statusLabel(s domain.TicketStatus) string {
	if s == domain.TicketUsed {
		return "used"
	}
	return "valid"
}

// nonNil keeps empty lists as [] in JSON output.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
