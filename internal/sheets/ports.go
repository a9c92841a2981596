package sheets

import (
	"context"
	"errors"
	"time"

	"fechamento/internal/core"
)

// ErrSnapshotNotFound is returned when no closing was stored for a month.
var ErrSnapshotNotFound = errors.New("closing snapshot not found")

// Ports for inbound data and outbound reports.
type (
	CardReader interface {
		ListCards(ctx context.Context) ([]core.Card, error)
	}

	CostCenterReader interface {
		ListCostCenters(ctx context.Context) ([]core.CostCenter, error)
	}

	// ExpenseReader returns expenses dated within [from, to], both inclusive.
	ExpenseReader interface {
		ListExpenses(ctx context.Context, from, to core.Date) ([]core.Expense, error)
	}

	// AllocationReader returns allocations dated within [from, to], both inclusive.
	AllocationReader interface {
		ListAllocations(ctx context.Context, from, to core.Date) ([]core.Allocation, error)
	}

	// Source is everything the closing needs to read.
	Source interface {
		CardReader
		CostCenterReader
		ExpenseReader
		AllocationReader
	}

	// SnapshotStore persists computed closings.
	SnapshotStore interface {
		// SaveSnapshot stores s under a fresh id. requestID may be empty.
		SaveSnapshot(ctx context.Context, s core.MonthlySummary, requestID string, at time.Time) (core.ClosingSnapshot, error)
		// LatestSnapshot returns ErrSnapshotNotFound when the month was never closed.
		LatestSnapshot(ctx context.Context, year int, month time.Month) (core.ClosingSnapshot, error)
		// SnapshotForRequest returns the snapshot stored for a closing request,
		// or ErrSnapshotNotFound.
		SnapshotForRequest(ctx context.Context, requestID string) (core.ClosingSnapshot, error)
	}

	// ReportWriter exports closings to an external spreadsheet.
	ReportWriter interface {
		WriteMonth(ctx context.Context, s core.MonthlySummary) (ref string, err error)
		WriteHistory(ctx context.Context, year int, entries []core.HistoricalEntry) (ref string, err error)
	}
)
