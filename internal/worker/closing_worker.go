package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fechamento/internal/amqp"
	"fechamento/internal/core"
	"fechamento/internal/sheets"
)

// ClosingRunner computes and stores closings.
type ClosingRunner interface {
	// CloseRequest returns the snapshot already stored for requestID, if any.
	CloseRequest(ctx context.Context, requestID string, year int, month time.Month) (core.ClosingSnapshot, error)
	History(ctx context.Context, year int) ([]core.HistoricalEntry, error)
}

// ClosingWorker handles closing requests consumed from AMQP
type ClosingWorker struct {
	closings ClosingRunner
	reports  sheets.ReportWriter
}

// NewClosingWorker creates a worker. reports may be nil, in which case
// closings are only stored.
func NewClosingWorker(closings ClosingRunner, reports sheets.ReportWriter) *ClosingWorker {
	return &ClosingWorker{closings: closings, reports: reports}
}

// HandleClosingRequest computes the requested month, stores the snapshot and
// exports the month and its year to the report sheet. A redelivered message
// reuses the snapshot of its first delivery and only retries the export.
func (w *ClosingWorker) HandleClosingRequest(ctx context.Context, msg *amqp.ClosingRequestMessage) error {
	snap, err := w.closings.CloseRequest(ctx, msg.ID, msg.Year, msg.Month)
	if err != nil {
		return fmt.Errorf("close %d-%02d: %w", msg.Year, int(msg.Month), err)
	}

	slog.InfoContext(ctx, "Closing stored",
		"message_id", msg.ID,
		"snapshot_id", snap.ID,
		"year", msg.Year,
		"month", int(msg.Month),
		"balance_cents", snap.Summary.Balance.Cents)

	if w.reports == nil {
		slog.DebugContext(ctx, "No report writer configured, skipping export", "message_id", msg.ID)
		return nil
	}

	ref, err := w.reports.WriteMonth(ctx, snap.Summary)
	if err != nil {
		return fmt.Errorf("export month: %w", err)
	}

	history, err := w.closings.History(ctx, msg.Year)
	if err != nil {
		return fmt.Errorf("build history: %w", err)
	}
	historyRef, err := w.reports.WriteHistory(ctx, msg.Year, history)
	if err != nil {
		return fmt.Errorf("export history: %w", err)
	}

	slog.InfoContext(ctx, "Closing exported",
		"message_id", msg.ID,
		"sheets_ref", ref,
		"history_ref", historyRef)
	return nil
}
