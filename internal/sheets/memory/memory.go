package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fechamento/internal/core"
	"fechamento/internal/sheets"
)

// Store keeps every record in memory. It implements sheets.Source and
// sheets.SnapshotStore.
type Store struct {
	mu          sync.RWMutex
	cards       []core.Card
	costCenters []core.CostCenter
	expenses    []core.Expense
	allocations []core.Allocation
	snapshots   []core.ClosingSnapshot
}

func New() *Store {
	return &Store{}
}

func (s *Store) AddCard(c core.Card) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards = append(s.cards, c)
	return nil
}

func (s *Store) AddCostCenter(cc core.CostCenter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.costCenters = append(s.costCenters, cc)
}

func (s *Store) AddExpense(e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return nil
}

func (s *Store) AddAllocation(a core.Allocation) error {
	if err := a.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocations = append(s.allocations, a)
	return nil
}

func (s *Store) ListCards(_ context.Context) ([]core.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Card(nil), s.cards...), nil
}

func (s *Store) ListCostCenters(_ context.Context) ([]core.CostCenter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.CostCenter(nil), s.costCenters...), nil
}

func (s *Store) ListExpenses(_ context.Context, from, to core.Date) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.Date.Between(from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) ListAllocations(_ context.Context, from, to core.Date) ([]core.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Allocation
	for _, a := range s.allocations {
		if a.Date.Between(from, to) {
			out = append(out, a)
		}
	}
	return out, nil
}

// SaveSnapshot stores a copy of the summary under a fresh id.
func (s *Store) SaveSnapshot(_ context.Context, sum core.MonthlySummary, requestID string, at time.Time) (core.ClosingSnapshot, error) {
	snap := core.ClosingSnapshot{
		ID:        uuid.NewString(),
		RequestID: requestID,
		Year:      sum.Year,
		Month:     sum.Month,
		CreatedAt: at.UTC(),
		Summary:   sum,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snap)
	return snap, nil
}

// LatestSnapshot returns the most recently created snapshot of the month.
// Ties on CreatedAt resolve to the last one saved.
func (s *Store) LatestSnapshot(_ context.Context, year int, month time.Month) (core.ClosingSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []core.ClosingSnapshot
	for _, snap := range s.snapshots {
		if snap.Year == year && snap.Month == month {
			matches = append(matches, snap)
		}
	}
	if len(matches) == 0 {
		return core.ClosingSnapshot{}, sheets.ErrSnapshotNotFound
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches[len(matches)-1], nil
}

// SnapshotForRequest returns the last snapshot saved for requestID.
func (s *Store) SnapshotForRequest(_ context.Context, requestID string) (core.ClosingSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if requestID != "" {
		for i := len(s.snapshots) - 1; i >= 0; i-- {
			if s.snapshots[i].RequestID == requestID {
				return s.snapshots[i], nil
			}
		}
	}
	return core.ClosingSnapshot{}, sheets.ErrSnapshotNotFound
}

var (
	_ sheets.Source        = (*Store)(nil)
	_ sheets.SnapshotStore = (*Store)(nil)
)

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }
