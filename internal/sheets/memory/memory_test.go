package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fechamento/internal/core"
	"fechamento/internal/sheets"
)

func TestNewFromFileSeedsRecords(t *testing.T) {
	s, err := NewFromFile(filepath.Join("testdata", "seed.yaml"))
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	ctx := context.Background()

	cards, _ := s.ListCards(ctx)
	if len(cards) != 2 || !cards[0].IsCredit() || !cards[0].IsActive || *cards[0].ClosingDay != 3 {
		t.Fatalf("unexpected cards: %+v", cards)
	}
	if cards[1].ClosingDay != nil || cards[1].IsCredit() {
		t.Fatalf("debit card should have no days: %+v", cards[1])
	}

	ccs, _ := s.ListCostCenters(ctx)
	if len(ccs) != 3 || !ccs[2].IsShared || ccs[0].DefaultSplitPercentage.String() != "60" {
		t.Fatalf("unexpected cost centers: %+v", ccs)
	}

	from, to := core.MonthRange(2025, time.March)
	exps, _ := s.ListExpenses(ctx, from, to)
	if len(exps) != 2 {
		t.Fatalf("expected 2 march expenses, got %d", len(exps))
	}
	if exps[0].Amount.Cents != 4290 {
		t.Fatalf("comma amount parsed as %d", exps[0].Amount.Cents)
	}
	if len(exps[1].Splits) != 2 || exps[1].Splits[1].Amount.Cents != 6000 {
		t.Fatalf("unexpected splits: %+v", exps[1].Splits)
	}

	allocs, _ := s.ListAllocations(ctx, from, to)
	if len(allocs) != 2 || allocs[1].OwnershipType != core.OwnershipOrganization {
		t.Fatalf("unexpected allocations: %+v", allocs)
	}
}

func TestLoadSeedRejectsInvalidRecords(t *testing.T) {
	cases := map[string]string{
		"bad yaml":     "cards: [",
		"bad date":     "expenses:\n  - id: x\n    date: \"march\"\n    amount: \"1\"\n",
		"missing card": "expenses:\n  - id: x\n    date: \"2025-03-01\"\n    amount: \"1\"\n    payment_method: credit_card\n",
		"bad day":      "cards:\n  - id: c\n    closing_day: 40\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if err := New().LoadSeed([]byte(data)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadSeedMissingNumbersAreZero(t *testing.T) {
	data := `
cost_centers:
  - id: ana
    default_split_percentage: "sixty"
expenses:
  - id: e1
    date: "2025-03-02"
    cost_center_id: ana
  - id: e2
    date: "2025-03-03"
    amount: "abc"
    splits:
      - cost_center_id: ana
        percentage: "50"
      - cost_center_id: ana
        percentage: "x"
        amount: "12,50"
allocations:
  - id: a1
    date: "2025-03-01"
    amount: ""
    ownership_type: organization
`
	s := New()
	if err := s.LoadSeed([]byte(data)); err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	ctx := context.Background()

	ccs, _ := s.ListCostCenters(ctx)
	if len(ccs) != 1 || !ccs[0].DefaultSplitPercentage.IsZero() {
		t.Fatalf("malformed percentage should load as zero: %+v", ccs)
	}

	from, to := core.MonthRange(2025, time.March)
	exps, _ := s.ListExpenses(ctx, from, to)
	if len(exps) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(exps))
	}
	if exps[0].Amount.Cents != 0 || exps[1].Amount.Cents != 0 {
		t.Fatalf("missing and malformed amounts should be zero: %+v", exps)
	}
	splits := exps[1].Splits
	if len(splits) != 2 || splits[0].Amount.Cents != 0 || splits[1].Amount.Cents != 1250 || !splits[1].Percentage.IsZero() {
		t.Fatalf("unexpected splits: %+v", splits)
	}

	allocs, _ := s.ListAllocations(ctx, from, to)
	if len(allocs) != 1 || allocs[0].Amount.Cents != 0 {
		t.Fatalf("unexpected allocations: %+v", allocs)
	}
}

func TestNewFromFileMissing(t *testing.T) {
	if _, err := NewFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestNewFromFileInactiveFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	data := "cost_centers:\n  - id: old\n    is_active: false\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile: %v", err)
	}
	ccs, _ := s.ListCostCenters(context.Background())
	if len(ccs) != 1 || ccs[0].IsActive {
		t.Fatalf("expected inactive cost center, got %+v", ccs)
	}
}

func TestSnapshots(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.LatestSnapshot(ctx, 2025, time.March); !errors.Is(err, sheets.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}

	t0 := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	first, _ := s.SaveSnapshot(ctx, core.MonthlySummary{Year: 2025, Month: time.March, Balance: core.Cents(1)}, "req-1", t0)
	second, _ := s.SaveSnapshot(ctx, core.MonthlySummary{Year: 2025, Month: time.March, Balance: core.Cents(2)}, "", t0.Add(time.Hour))
	_, _ = s.SaveSnapshot(ctx, core.MonthlySummary{Year: 2025, Month: time.April}, "req-2", t0.Add(2*time.Hour))

	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected distinct ids, got %q %q", first.ID, second.ID)
	}
	got, err := s.LatestSnapshot(ctx, 2025, time.March)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if got.ID != second.ID || got.Summary.Balance.Cents != 2 {
		t.Fatalf("expected latest snapshot, got %+v", got)
	}

	byRequest, err := s.SnapshotForRequest(ctx, "req-1")
	if err != nil || byRequest.ID != first.ID {
		t.Fatalf("SnapshotForRequest(req-1) = %+v, %v", byRequest, err)
	}
	for _, id := range []string{"", "req-9"} {
		if _, err := s.SnapshotForRequest(ctx, id); !errors.Is(err, sheets.ErrSnapshotNotFound) {
			t.Fatalf("SnapshotForRequest(%q): expected ErrSnapshotNotFound, got %v", id, err)
		}
	}
}
