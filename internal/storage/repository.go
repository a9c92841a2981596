package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fechamento/internal/core"
	applog "fechamento/internal/log"
	"fechamento/internal/sheets"

	_ "modernc.org/sqlite"
)

// Fixed width so that text ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveCard inserts or replaces a card.
func (r *SQLiteRepository) SaveCard(ctx context.Context, c core.Card) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cards (id, name, closing_day, billing_day, is_active, type)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			closing_day = excluded.closing_day,
			billing_day = excluded.billing_day,
			is_active = excluded.is_active,
			type = excluded.type`,
		c.ID, c.Name, nullableDay(c.ClosingDay), nullableDay(c.BillingDay), c.IsActive, string(c.Type))
	if err != nil {
		return fmt.Errorf("save card %s: %w", c.ID, err)
	}
	return nil
}

// SaveCostCenter inserts or replaces a cost center.
func (r *SQLiteRepository) SaveCostCenter(ctx context.Context, cc core.CostCenter) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cost_centers (id, name, is_shared, default_split_percentage, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			is_shared = excluded.is_shared,
			default_split_percentage = excluded.default_split_percentage,
			is_active = excluded.is_active`,
		cc.ID, cc.Name, cc.IsShared, cc.DefaultSplitPercentage.String(), cc.IsActive)
	if err != nil {
		return fmt.Errorf("save cost center %s: %w", cc.ID, err)
	}
	return nil
}

// SaveExpense inserts or replaces an expense together with its splits.
func (r *SQLiteRepository) SaveExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (id, date, description, amount_cents, payment_method, card_id, cost_center_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				date = excluded.date,
				description = excluded.description,
				amount_cents = excluded.amount_cents,
				payment_method = excluded.payment_method,
				card_id = excluded.card_id,
				cost_center_id = excluded.cost_center_id`,
			e.ID, e.Date.String(), e.Description, e.Amount.Cents, string(e.PaymentMethod), e.CardID, e.CostCenterID)
		if err != nil {
			return fmt.Errorf("save expense %s: %w", e.ID, err)
		}
		return replaceSplits(ctx, tx, "expense_splits", "expense_id", e.ID, e.Splits)
	})
}

// SaveAllocation inserts or replaces an allocation together with its splits.
func (r *SQLiteRepository) SaveAllocation(ctx context.Context, a core.Allocation) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO allocations (id, date, description, amount_cents, ownership_type, allocation_target, cost_center_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				date = excluded.date,
				description = excluded.description,
				amount_cents = excluded.amount_cents,
				ownership_type = excluded.ownership_type,
				allocation_target = excluded.allocation_target,
				cost_center_id = excluded.cost_center_id`,
			a.ID, a.Date.String(), a.Description, a.Amount.Cents, string(a.OwnershipType), string(a.AllocationTarget), a.CostCenterID)
		if err != nil {
			return fmt.Errorf("save allocation %s: %w", a.ID, err)
		}
		return replaceSplits(ctx, tx, "allocation_splits", "allocation_id", a.ID, a.Splits)
	})
}

// table and column are package constants, never user input.
func replaceSplits(ctx context.Context, tx *sql.Tx, table, column, ownerID string, splits []core.Split) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+column+` = ?`, ownerID); err != nil {
		return fmt.Errorf("clear splits of %s: %w", ownerID, err)
	}
	for i, s := range splits {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO `+table+` (`+column+`, position, cost_center_id, percentage, amount_cents) VALUES (?, ?, ?, ?, ?)`,
			ownerID, i, s.CostCenterID, s.Percentage.String(), s.Amount.Cents)
		if err != nil {
			return fmt.Errorf("insert split %d of %s: %w", i, ownerID, err)
		}
	}
	return nil
}

// Import copies every record of src into the repository.
func (r *SQLiteRepository) Import(ctx context.Context, src sheets.Source) error {
	cards, err := src.ListCards(ctx)
	if err != nil {
		return fmt.Errorf("list cards: %w", err)
	}
	for _, c := range cards {
		if err := r.SaveCard(ctx, c); err != nil {
			return err
		}
	}

	ccs, err := src.ListCostCenters(ctx)
	if err != nil {
		return fmt.Errorf("list cost centers: %w", err)
	}
	for _, cc := range ccs {
		if err := r.SaveCostCenter(ctx, cc); err != nil {
			return err
		}
	}

	from, to := core.Date{}, core.NewDate(9999, time.December, 31)
	expenses, err := src.ListExpenses(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}
	for _, e := range expenses {
		if err := r.SaveExpense(ctx, e); err != nil {
			return err
		}
	}

	allocations, err := src.ListAllocations(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list allocations: %w", err)
	}
	for _, a := range allocations {
		if err := r.SaveAllocation(ctx, a); err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "Imported records into SQLite",
		"cards", len(cards),
		"cost_centers", len(ccs),
		"expenses", len(expenses),
		"allocations", len(allocations))
	return nil
}

// ListCards implements sheets.CardReader
func (r *SQLiteRepository) ListCards(ctx context.Context) ([]core.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, closing_day, billing_day, is_active, type FROM cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var cards []core.Card
	for rows.Next() {
		var (
			c                core.Card
			closing, billing sql.NullInt64
			cardType         string
		)
		if err := rows.Scan(&c.ID, &c.Name, &closing, &billing, &c.IsActive, &cardType); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		c.ClosingDay = dayFromNull(closing)
		c.BillingDay = dayFromNull(billing)
		c.Type = core.CardType(cardType)
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// ListCostCenters implements sheets.CostCenterReader
func (r *SQLiteRepository) ListCostCenters(ctx context.Context) ([]core.CostCenter, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, is_shared, default_split_percentage, is_active FROM cost_centers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query cost centers: %w", err)
	}
	defer rows.Close()

	var out []core.CostCenter
	for rows.Next() {
		var (
			cc  core.CostCenter
			pct string
		)
		if err := rows.Scan(&cc.ID, &cc.Name, &cc.IsShared, &pct, &cc.IsActive); err != nil {
			return nil, fmt.Errorf("scan cost center: %w", err)
		}
		cc.DefaultSplitPercentage = percentOrZero(ctx, "cost center "+cc.ID, pct)
		out = append(out, cc)
	}
	return out, rows.Err()
}

// ListExpenses implements sheets.ExpenseReader
func (r *SQLiteRepository) ListExpenses(ctx context.Context, from, to core.Date) ([]core.Expense, error) {
	splits, err := r.loadSplits(ctx, `
		SELECT s.expense_id, s.cost_center_id, s.percentage, s.amount_cents
		FROM expense_splits s JOIN expenses e ON e.id = s.expense_id
		WHERE e.date BETWEEN ? AND ?
		ORDER BY s.expense_id, s.position`, from, to)
	if err != nil {
		return nil, fmt.Errorf("load expense splits: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, description, amount_cents, payment_method, card_id, cost_center_id
		FROM expenses WHERE date BETWEEN ? AND ?
		ORDER BY date, id`, dateArg(from), dateArg(to))
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e      core.Expense
			date   string
			method string
		)
		if err := rows.Scan(&e.ID, &date, &e.Description, &e.Amount.Cents, &method, &e.CardID, &e.CostCenterID); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("expense %s: %w", e.ID, err)
		}
		e.PaymentMethod = core.PaymentMethod(method)
		e.Splits = splits[e.ID]
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListAllocations implements sheets.AllocationReader
func (r *SQLiteRepository) ListAllocations(ctx context.Context, from, to core.Date) ([]core.Allocation, error) {
	splits, err := r.loadSplits(ctx, `
		SELECT s.allocation_id, s.cost_center_id, s.percentage, s.amount_cents
		FROM allocation_splits s JOIN allocations a ON a.id = s.allocation_id
		WHERE a.date BETWEEN ? AND ?
		ORDER BY s.allocation_id, s.position`, from, to)
	if err != nil {
		return nil, fmt.Errorf("load allocation splits: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, description, amount_cents, ownership_type, allocation_target, cost_center_id
		FROM allocations WHERE date BETWEEN ? AND ?
		ORDER BY date, id`, dateArg(from), dateArg(to))
	if err != nil {
		return nil, fmt.Errorf("query allocations: %w", err)
	}
	defer rows.Close()

	var out []core.Allocation
	for rows.Next() {
		var (
			a                 core.Allocation
			date              string
			ownership, target string
		)
		if err := rows.Scan(&a.ID, &date, &a.Description, &a.Amount.Cents, &ownership, &target, &a.CostCenterID); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		if a.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("allocation %s: %w", a.ID, err)
		}
		a.OwnershipType = core.OwnershipType(ownership)
		a.AllocationTarget = core.AllocationTarget(target)
		a.Splits = splits[a.ID]
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) loadSplits(ctx context.Context, query string, from, to core.Date) (map[string][]core.Split, error) {
	rows, err := r.db.QueryContext(ctx, query, dateArg(from), dateArg(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]core.Split)
	for rows.Next() {
		var (
			ownerID string
			s       core.Split
			pct     string
		)
		if err := rows.Scan(&ownerID, &s.CostCenterID, &pct, &s.Amount.Cents); err != nil {
			return nil, err
		}
		s.Percentage = percentOrZero(ctx, "split of "+ownerID, pct)
		out[ownerID] = append(out[ownerID], s)
	}
	return out, rows.Err()
}

// SaveSnapshot implements sheets.SnapshotStore
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, s core.MonthlySummary, requestID string, at time.Time) (core.ClosingSnapshot, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return core.ClosingSnapshot{}, fmt.Errorf("encode snapshot: %w", err)
	}
	snap := core.ClosingSnapshot{
		ID:        uuid.NewString(),
		RequestID: requestID,
		Year:      s.Year,
		Month:     s.Month,
		CreatedAt: at.UTC(),
		Summary:   s,
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO closing_snapshots (id, request_id, year, month, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.RequestID, snap.Year, int(snap.Month), string(payload), snap.CreatedAt.Format(timestampLayout))
	if err != nil {
		return core.ClosingSnapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Closing snapshot saved",
		"snapshot_id", snap.ID,
		"message_id", snap.RequestID,
		"year", snap.Year,
		"month", int(snap.Month),
		"balance_cents", s.Balance.Cents)
	return snap, nil
}

// LatestSnapshot implements sheets.SnapshotStore
func (r *SQLiteRepository) LatestSnapshot(ctx context.Context, year int, month time.Month) (core.ClosingSnapshot, error) {
	return r.scanSnapshot(r.db.QueryRowContext(ctx, `
		SELECT id, request_id, year, month, payload, created_at FROM closing_snapshots
		WHERE year = ? AND month = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, year, int(month)))
}

// SnapshotForRequest implements sheets.SnapshotStore
func (r *SQLiteRepository) SnapshotForRequest(ctx context.Context, requestID string) (core.ClosingSnapshot, error) {
	if requestID == "" {
		return core.ClosingSnapshot{}, sheets.ErrSnapshotNotFound
	}
	return r.scanSnapshot(r.db.QueryRowContext(ctx, `
		SELECT id, request_id, year, month, payload, created_at FROM closing_snapshots
		WHERE request_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, requestID))
}

func (r *SQLiteRepository) scanSnapshot(row *sql.Row) (core.ClosingSnapshot, error) {
	var (
		snap      core.ClosingSnapshot
		m         int
		payload   string
		createdAt string
	)
	err := row.Scan(&snap.ID, &snap.RequestID, &snap.Year, &m, &payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ClosingSnapshot{}, sheets.ErrSnapshotNotFound
	}
	if err != nil {
		return core.ClosingSnapshot{}, fmt.Errorf("query snapshot: %w", err)
	}
	snap.Month = time.Month(m)
	if snap.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return core.ClosingSnapshot{}, fmt.Errorf("parse snapshot time: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &snap.Summary); err != nil {
		return core.ClosingSnapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// percentOrZero parses a stored percentage. A malformed value reads as zero.
func percentOrZero(ctx context.Context, owner, raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		slog.WarnContext(ctx, "Malformed stored percentage read as zero",
			applog.FieldComponent, applog.ComponentStorage,
			"owner", owner,
			"value", raw)
		return decimal.Zero
	}
	return d
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// The zero Date sorts before every stored date.
func dateArg(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func nullableDay(day *int) sql.NullInt64 {
	if day == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*day), Valid: true}
}

func dayFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return core.IntPtr(int(v.Int64))
}

var (
	_ sheets.Source        = (*SQLiteRepository)(nil)
	_ sheets.SnapshotStore = (*SQLiteRepository)(nil)
)
