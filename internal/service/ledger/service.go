package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kirinyoku/sunset-go/internal/domain"
	"github.com/kirinyoku/sunset-go/internal/repository"
	"github.com/kirinyoku/sunset-go/internal/uow"
	"github.com/shopspring/decimal"
)

// DefaultSalesLimit is the number of purchases the sales summary shows.
const DefaultSalesLimit = 10

// EventSource provides the event the generated tickets are for.
type EventSource interface {
	Get(ctx context.Context) (*domain.EventConfig, error)
}

// Notifier is told about every redeemed ticket.
type Notifier interface {
	PublishTicketRedeemed(ctx context.Context, ticketID string) error
}

type Config struct {
	Now   func() time.Time
	NewID func() string
}

// Service is the purchase ledger. The purchases record is the only copy of
// every ticket; per-user and per-ticket views are derived from it.
type Service struct {
	store    repository.Store
	uow      *uow.UoW
	events   EventSource
	notifier Notifier
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

func New(store repository.Store, events EventSource, notifier Notifier, logger *slog.Logger, cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	return &Service{
		store:    store,
		uow:      uow.NewUoW(store),
		events:   events,
		notifier: notifier,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		now:      cfg.Now,
		newID:    cfg.NewID,
	}
}

// RecordPurchase appends p to the ledger.
//
// Parameters:
//   - ctx: request-scoped context.
//   - p: the purchase. When it carries no tickets, Quantity tickets are issued
//     for the current event. A zero Total becomes price*Quantity and a zero
//     Date becomes now. Missing ticket fields are filled the same way.
//
// Returns:
//   - *domain.Purchase: the stored purchase.
//   - error: ledger.ErrInvalidPurchase or ledger.ErrDuplicateTicket.
func (s *Service) RecordPurchase(ctx context.Context, p domain.Purchase) (*domain.Purchase, error) {
	const op = "service.ledger.RecordPurchase"

	if p.Quantity == 0 && len(p.Tickets) > 0 {
		p.Quantity = domain.Count(len(p.Tickets))
	}

	if err := s.validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidPurchase, err)
	}

	if p.Total.IsNegative() {
		return nil, fmt.Errorf("%s: %w: negative total", op, ErrInvalidPurchase)
	}

	if len(p.Tickets) > 0 && int(p.Quantity) != len(p.Tickets) {
		return nil, fmt.Errorf("%s: %w: quantity %d but %d tickets", op, ErrInvalidPurchase, p.Quantity, len(p.Tickets))
	}

	cfg, err := s.events.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.fill(&p, cfg)

	seen := make(map[string]struct{}, len(p.Tickets))
	for _, t := range p.Tickets {
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%s: %w: %s", op, ErrDuplicateTicket, t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	err = uow.DoJSON(ctx, s.uow, repository.KeyPurchases, func(
		ctx context.Context,
		purchases []domain.Purchase,
		_ bool,
		after func(uow.AfterCommit),
	) ([]domain.Purchase, error) {
		for _, existing := range purchases {
			for _, t := range existing.Tickets {
				if _, dup := seen[t.ID]; dup {
					return nil, fmt.Errorf("%w: %s", ErrDuplicateTicket, t.ID)
				}
			}
		}

		after(func(ctx context.Context) {
			s.logger.InfoContext(ctx, "purchase recorded",
				"user_id", p.UserID,
				"quantity", int(p.Quantity),
				"total", p.Total.String(),
			)
		})

		return append(purchases, p), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &p, nil
}

func (s *Service) fill(p *domain.Purchase, cfg *domain.EventConfig) {
	if p.Date.IsZero() {
		p.Date = s.now().UTC()
	}

	if p.Total.IsZero() {
		p.Total = cfg.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
	}

	if len(p.Tickets) == 0 {
		p.Tickets = make([]domain.Ticket, int(p.Quantity))
	}

	for i := range p.Tickets {
		t := &p.Tickets[i]
		if t.ID == "" {
			t.ID = s.newID()
		}
		if t.QRData == "" {
			t.QRData = domain.TicketCodePrefix + t.ID
		}
		if t.Status == "" {
			t.Status = domain.TicketValid
		}
		if t.PurchaseDate.IsZero() {
			t.PurchaseDate = p.Date
		}
		if t.UserName == "" {
			t.UserName = p.UserName
		}
		if t.EventName == "" {
			t.EventName = cfg.Title
		}
		if t.EventDate == "" {
			t.EventDate = cfg.Date
		}
		if t.Location == "" {
			t.Location = cfg.Location
		}
	}
}

// Purchases returns the ledger in insertion order.
func (s *Service) Purchases(ctx context.Context) ([]domain.Purchase, error) {
	const op = "service.ledger.Purchases"

	purchases, _, err := repository.GetJSON[[]domain.Purchase](ctx, s.store, repository.KeyPurchases)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return purchases, nil
}

// SalesSummary reports the limit most recently inserted purchases, newest
// first. The totals cover those rows only, not the whole ledger. A limit of
// zero or less means DefaultSalesLimit.
func (s *Service) SalesSummary(ctx context.Context, limit int) (*domain.SalesSummary, error) {
	const op = "service.ledger.SalesSummary"

	if limit <= 0 {
		limit = DefaultSalesLimit
	}

	purchases, err := s.Purchases(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	n := min(limit, len(purchases))
	sum := &domain.SalesSummary{
		Rows:         make([]domain.Purchase, 0, n),
		TotalRevenue: decimal.Zero,
	}

	for i := len(purchases) - 1; i >= 0 && len(sum.Rows) < n; i-- {
		p := purchases[i]
		sum.Rows = append(sum.Rows, p)
		sum.TotalSold += int(p.Quantity)
		sum.TotalRevenue = sum.TotalRevenue.Add(p.Total)
	}

	sum.TotalAvailable = domain.Capacity - sum.TotalSold

	return sum, nil
}

// FindTicket returns the first ticket with the given id.
//
// Returns:
//   - error: ledger.ErrTicketNotFound if no purchase holds it.
func (s *Service) FindTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	const op = "service.ledger.FindTicket"

	purchases, err := s.Purchases(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pi, ti := findTicket(purchases, id)
	if pi < 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrTicketNotFound)
	}

	t := purchases[pi].Tickets[ti]

	return &t, nil
}

// ValidateTicket redeems the ticket named by a scanned code. The code is the
// ticket id, optionally preceded by domain.TicketCodePrefix.
//
// An unknown or already used ticket is reported in the result, not as an
// error, and leaves the ledger untouched. A ticket is redeemed at most once;
// its usedDate never changes afterwards.
//
// Returns:
//   - error: ledger.ErrEmptyCode for a blank code.
func (s *Service) ValidateTicket(ctx context.Context, code string) (*domain.ValidationResult, error) {
	const op = "service.ledger.ValidateTicket"

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCode)
	}

	id := strings.Replace(code, domain.TicketCodePrefix, "", 1)

	var res domain.ValidationResult

	err := uow.DoJSON(ctx, s.uow, repository.KeyPurchases, func(
		ctx context.Context,
		purchases []domain.Purchase,
		_ bool,
		after func(uow.AfterCommit),
	) ([]domain.Purchase, error) {
		res = domain.ValidationResult{Code: code, TicketID: id}

		pi, ti := findTicket(purchases, id)
		if pi < 0 {
			res.Outcome = domain.OutcomeNotFound
			return nil, repository.ErrSkipWrite
		}

		t := &purchases[pi].Tickets[ti]
		res.UserName = t.UserName

		if t.Status == domain.TicketUsed {
			res.Outcome = domain.OutcomeAlreadyUsed
			res.UsedDate = t.UsedDate
			return nil, repository.ErrSkipWrite
		}

		used := s.now().UTC()
		t.Status = domain.TicketUsed
		t.UsedDate = &used

		res.Outcome = domain.OutcomeValidated
		res.EventName = t.EventName
		res.EventDate = t.EventDate
		res.Location = t.Location
		res.UsedDate = &used

		after(func(ctx context.Context) {
			s.logger.InfoContext(ctx, "ticket redeemed", "ticket_id", id, "user_name", res.UserName)

			if s.notifier != nil {
				if err := s.notifier.PublishTicketRedeemed(ctx, id); err != nil {
					s.logger.ErrorContext(ctx, "failed to publish redemption", "ticket_id", id, "error", err)
				}
			}
		})

		return purchases, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &res, nil
}

// AllTickets lists every ticket in purchase order, then ticket order.
func (s *Service) AllTickets(ctx context.Context) ([]domain.Ticket, error) {
	const op = "service.ledger.AllTickets"

	purchases, err := s.Purchases(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out []domain.Ticket
	for _, p := range purchases {
		out = append(out, p.Tickets...)
	}

	return out, nil
}

// TicketsForUser lists the tickets of every purchase made by userID.
func (s *Service) TicketsForUser(ctx context.Context, userID int64) ([]domain.Ticket, error) {
	const op = "service.ledger.TicketsForUser"

	purchases, err := s.Purchases(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out []domain.Ticket
	for _, p := range purchases {
		if p.UserID == userID {
			out = append(out, p.Tickets...)
		}
	}

	return out, nil
}

// MigrationReport describes what Migrate did.
type MigrationReport struct {
	// LegacyLists is the number of per-user ticket lists found.
	LegacyLists int `json:"legacyLists"`
	// Reconciled counts ledger tickets marked used from a legacy copy.
	Reconciled int `json:"reconciled"`
	// Orphans counts legacy tickets with no ledger counterpart.
	Orphans int `json:"orphans"`
	// Removed is the number of legacy lists deleted.
	Removed int `json:"removed"`
	// Unreadable counts legacy lists left in place because they do not decode.
	Unreadable int `json:"unreadable"`
}

// Migrate folds the legacy per-user ticket lists into the ledger. A copy
// marked used wins over a valid one. A legacy list is deleted once all of
// its tickets are known to the ledger; lists holding orphans are kept.
func (s *Service) Migrate(ctx context.Context) (*MigrationReport, error) {
	const op = "service.ledger.Migrate"

	keys, err := s.store.Keys(ctx, repository.PrefixUserTickets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	report := &MigrationReport{}

	for _, key := range keys {
		if _, err := strconv.ParseInt(strings.TrimPrefix(key, repository.PrefixUserTickets), 10, 64); err != nil {
			continue
		}

		legacy, _, err := repository.GetJSON[[]domain.Ticket](ctx, s.store, key)
		if errors.Is(err, repository.ErrCorruptRecord) {
			s.logger.WarnContext(ctx, "legacy ticket list unreadable, skipped", "key", key, "error", err)
			report.Unreadable++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		report.LegacyLists++

		var reconciled, orphans int
		err = uow.DoJSON(ctx, s.uow, repository.KeyPurchases, func(
			ctx context.Context,
			purchases []domain.Purchase,
			_ bool,
			_ func(uow.AfterCommit),
		) ([]domain.Purchase, error) {
			reconciled, orphans = 0, 0

			for _, lt := range legacy {
				pi, ti := findTicket(purchases, lt.ID)
				if pi < 0 {
					orphans++
					continue
				}

				t := &purchases[pi].Tickets[ti]
				if lt.Status == domain.TicketUsed && t.Status != domain.TicketUsed {
					t.Status = domain.TicketUsed
					t.UsedDate = lt.UsedDate
					reconciled++
				}
			}

			if reconciled == 0 {
				return nil, repository.ErrSkipWrite
			}

			return purchases, nil
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		report.Reconciled += reconciled
		report.Orphans += orphans

		if orphans > 0 {
			s.logger.WarnContext(ctx, "legacy ticket list kept, it holds unknown tickets", "key", key, "orphans", orphans)
			continue
		}

		if err := s.store.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		report.Removed++
	}

	if report.LegacyLists > 0 || report.Unreadable > 0 {
		s.logger.InfoContext(ctx, "legacy ticket lists migrated",
			"lists", report.LegacyLists,
			"reconciled", report.Reconciled,
			"orphans", report.Orphans,
			"removed", report.Removed,
			"unreadable", report.Unreadable,
		)
	}

	return report, nil
}

// findTicket returns the purchase and ticket index of id, or -1, -1.
func findTicket(purchases []domain.Purchase, id string) (int, int) {
	for pi := range purchases {
		for ti := range purchases[pi].Tickets {
			if purchases[pi].Tickets[ti].ID == id {
				return pi, ti
			}
		}
	}
	return -1, -1
}
