package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fechamento/internal/closing"
	"fechamento/internal/core"
	"fechamento/internal/sheets"
)

var (
	// ErrInvalidPeriod is returned for a year or month outside the calendar.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrNotConfigured is returned when an optional collaborator is missing.
	ErrNotConfigured = errors.New("not configured")
)

// Publisher enqueues asynchronous closing requests.
type Publisher interface {
	PublishClosingRequest(ctx context.Context, year int, month time.Month) (messageID string, err error)
}

// ClosingService fetches the records of a period and runs the closing
// engine over them.
type ClosingService struct {
	source    sheets.Source
	snapshots sheets.SnapshotStore
	publisher Publisher
	now       func() time.Time
}

type Option func(*ClosingService)

// WithSnapshots enables Close and LatestClosing.
func WithSnapshots(store sheets.SnapshotStore) Option {
	return func(s *ClosingService) { s.snapshots = store }
}

// WithPublisher enables RequestClosing.
func WithPublisher(p Publisher) Option {
	return func(s *ClosingService) { s.publisher = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *ClosingService) { s.now = now }
}

func NewClosingService(source sheets.Source, opts ...Option) *ClosingService {
	s := &ClosingService{source: source, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock reading.
func (s *ClosingService) Now() time.Time {
	return s.now()
}

// CurrentPeriod returns the year and month of the service clock.
func (s *ClosingService) CurrentPeriod() (int, time.Month) {
	now := s.now()
	return now.Year(), now.Month()
}

// Summary computes the closing of one month.
func (s *ClosingService) Summary(ctx context.Context, year int, month time.Month) (core.MonthlySummary, error) {
	if err := validatePeriod(year, month); err != nil {
		return core.MonthlySummary{}, err
	}
	from, to := closing.FetchWindow(year, month)
	in, err := s.fetch(ctx, from, to)
	if err != nil {
		return core.MonthlySummary{}, err
	}

	summary := closing.Summarize(in, year, month)
	slog.DebugContext(ctx, "Month summarized",
		"year", year,
		"month", int(month),
		"invoices", len(summary.CreditInvoices),
		"members", len(summary.IndividualSummaries),
		"balance_cents", summary.Balance.Cents)
	return summary, nil
}

// Invoices returns the credit invoices due in one month.
func (s *ClosingService) Invoices(ctx context.Context, year int, month time.Month) ([]core.Invoice, error) {
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}
	from, to := closing.FetchWindow(year, month)
	in, err := s.fetch(ctx, from, to)
	if err != nil {
		return nil, err
	}
	classified := closing.Classify(in.Expenses)
	invoices := closing.Invoices(in.Cards, classified.Credit, year, month)
	if invoices == nil {
		invoices = []core.Invoice{}
	}
	return invoices, nil
}

// History builds the monthly series of a year up to the current month.
func (s *ClosingService) History(ctx context.Context, year int) ([]core.HistoricalEntry, error) {
	if err := validatePeriod(year, time.January); err != nil {
		return nil, err
	}
	from, to := closing.YearWindow(year)
	in, err := s.fetch(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return closing.History(in, year, s.now()), nil
}

// Close computes a month and stores the result as a snapshot.
func (s *ClosingService) Close(ctx context.Context, year int, month time.Month) (core.ClosingSnapshot, error) {
	return s.CloseRequest(ctx, "", year, month)
}

// CloseRequest is Close for a queued closing request. A request that
// already stored a snapshot gets that snapshot back instead of a new one,
// so redelivered requests store the month once.
func (s *ClosingService) CloseRequest(ctx context.Context, requestID string, year int, month time.Month) (core.ClosingSnapshot, error) {
	if s.snapshots == nil {
		return core.ClosingSnapshot{}, fmt.Errorf("snapshots: %w", ErrNotConfigured)
	}
	if requestID != "" {
		snap, err := s.snapshots.SnapshotForRequest(ctx, requestID)
		if err == nil {
			slog.InfoContext(ctx, "Closing request already stored",
				"message_id", requestID,
				"snapshot_id", snap.ID)
			return snap, nil
		}
		if !errors.Is(err, sheets.ErrSnapshotNotFound) {
			return core.ClosingSnapshot{}, fmt.Errorf("look up snapshot of request %s: %w", requestID, err)
		}
	}
	summary, err := s.Summary(ctx, year, month)
	if err != nil {
		return core.ClosingSnapshot{}, err
	}
	snap, err := s.snapshots.SaveSnapshot(ctx, summary, requestID, s.now())
	if err != nil {
		return core.ClosingSnapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	return snap, nil
}

// LatestClosing returns the last stored snapshot of a month.
func (s *ClosingService) LatestClosing(ctx context.Context, year int, month time.Month) (core.ClosingSnapshot, error) {
	if s.snapshots == nil {
		return core.ClosingSnapshot{}, fmt.Errorf("snapshots: %w", ErrNotConfigured)
	}
	if err := validatePeriod(year, month); err != nil {
		return core.ClosingSnapshot{}, err
	}
	return s.snapshots.LatestSnapshot(ctx, year, month)
}

// RequestClosing enqueues a closing to be computed by the worker.
func (s *ClosingService) RequestClosing(ctx context.Context, year int, month time.Month) (string, error) {
	if s.publisher == nil {
		return "", fmt.Errorf("publisher: %w", ErrNotConfigured)
	}
	if err := validatePeriod(year, month); err != nil {
		return "", err
	}
	id, err := s.publisher.PublishClosingRequest(ctx, year, month)
	if err != nil {
		return "", fmt.Errorf("publish closing request: %w", err)
	}
	slog.InfoContext(ctx, "Closing requested", "message_id", id, "year", year, "month", int(month))
	return id, nil
}

// fetch reads the four collections concurrently and fails if any read fails.
func (s *ClosingService) fetch(ctx context.Context, from, to core.Date) (closing.Input, error) {
	var in closing.Input
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cards, err := s.source.ListCards(ctx)
		if err != nil {
			return fmt.Errorf("list cards: %w", err)
		}
		in.Cards = cards
		return nil
	})
	g.Go(func() error {
		ccs, err := s.source.ListCostCenters(ctx)
		if err != nil {
			return fmt.Errorf("list cost centers: %w", err)
		}
		in.CostCenters = ccs
		return nil
	})
	g.Go(func() error {
		expenses, err := s.source.ListExpenses(ctx, from, to)
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		in.Expenses = expenses
		return nil
	})
	g.Go(func() error {
		allocations, err := s.source.ListAllocations(ctx, from, to)
		if err != nil {
			return fmt.Errorf("list allocations: %w", err)
		}
		in.Allocations = allocations
		return nil
	})

	if err := g.Wait(); err != nil {
		return closing.Input{}, err
	}
	return in, nil
}

func validatePeriod(year int, month time.Month) error {
	if year < 1 || year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, year)
	}
	if !core.ValidMonth(month) {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, int(month))
	}
	return nil
}
