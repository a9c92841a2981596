package closing

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fechamento/internal/core"
)

func sampleInput() Input {
	return Input{
		Cards: []core.Card{
			{ID: "nubank", ClosingDay: core.IntPtr(25), BillingDay: core.IntPtr(5), IsActive: true, Type: core.CardCredit},
			{ID: "itau", ClosingDay: core.IntPtr(1), BillingDay: core.IntPtr(10), IsActive: true, Type: core.CardCredit},
		},
		CostCenters: household(),
		Expenses: []core.Expense{
			{ID: "mercado", Date: core.NewDate(2025, 3, 3), Amount: core.Cents(20000), PaymentMethod: "pix", CostCenterID: "casa"},
			{ID: "farmacia", Date: core.NewDate(2025, 3, 9), Amount: core.Cents(4550), PaymentMethod: "debit", CostCenterID: "ana"},
			{ID: "padaria", Date: core.NewDate(2025, 3, 20), Amount: core.Cents(1234), PaymentMethod: "cash"},
			{ID: "fev-pix", Date: core.NewDate(2025, 2, 28), Amount: core.Cents(99999), PaymentMethod: "pix"},
			{ID: "tenis", Date: core.NewDate(2025, 2, 10), Amount: core.Cents(30000), PaymentMethod: core.PaymentCreditCard, CardID: "nubank", CostCenterID: "beto"},
			{
				ID: "jantar", Date: core.NewDate(2025, 2, 14), Amount: core.Cents(10000), PaymentMethod: core.PaymentCreditCard, CardID: "nubank",
				Splits: []core.Split{
					{CostCenterID: "ana", Percentage: decimal.NewFromInt(33), Amount: core.Cents(3333)},
					{CostCenterID: "beto", Percentage: decimal.NewFromInt(67), Amount: core.Cents(6666)},
				},
			},
			{ID: "streaming", Date: core.NewDate(2025, 2, 20), Amount: core.Cents(5590), PaymentMethod: core.PaymentCreditCard, CardID: "itau", CostCenterID: "casa"},
			{ID: "marco-cartao", Date: core.NewDate(2025, 3, 1), Amount: core.Cents(7777), PaymentMethod: core.PaymentCreditCard, CardID: "nubank"},
		},
		Allocations: []core.Allocation{
			{ID: "salario-ana", Date: core.NewDate(2025, 3, 5), Amount: core.Cents(300000), OwnershipType: core.OwnershipMember, AllocationTarget: core.TargetIndividual, CostCenterID: "ana"},
			{ID: "empresa", Date: core.NewDate(2025, 3, 5), Amount: core.Cents(100000), OwnershipType: core.OwnershipOrganization, AllocationTarget: core.TargetShared},
			{ID: "fevereiro", Date: core.NewDate(2025, 2, 5), Amount: core.Cents(50000), OwnershipType: core.OwnershipMember, CostCenterID: "beto"},
		},
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize(sampleInput(), 2025, time.March)

	if got.CashExpenseTotal.Cents != 20000+4550+1234 {
		t.Errorf("cash total = %v", got.CashExpenseTotal)
	}
	// nubank due 03-05 covers 01-25..02-25; itau due 03-10 covers 02-01..03-01.
	if len(got.CreditInvoices) != 2 || got.CreditInvoices[0].CardID != "nubank" || got.CreditInvoices[1].CardID != "itau" {
		t.Fatalf("unexpected invoices %+v", got.CreditInvoices)
	}
	if got.CreditInvoiceTotal.Cents != 30000+10000+5590 {
		t.Errorf("credit total = %v", got.CreditInvoiceTotal)
	}
	if got.TotalExpense != got.CashExpenseTotal.Add(got.CreditInvoiceTotal) {
		t.Errorf("total expense %v != cash + credit", got.TotalExpense)
	}
	if got.TotalAllocations.Cents != 400000 {
		t.Errorf("allocations = %v", got.TotalAllocations)
	}
	if got.Balance != got.TotalAllocations.Sub(got.TotalExpense) {
		t.Errorf("balance = %v", got.Balance)
	}

	if len(got.IndividualSummaries) != 2 {
		t.Fatalf("unexpected members %+v", got.IndividualSummaries)
	}
	beto, ana := got.IndividualSummaries[0], got.IndividualSummaries[1]
	if beto.CostCenterID != "beto" || ana.CostCenterID != "ana" {
		t.Fatalf("members not sorted by expenses: %s, %s", beto.CostCenterID, ana.CostCenterID)
	}
	// beto credit: tenis 300.00 individual, jantar 66.66 + streaming 30% 16.77
	// shared, plus the 0.01 the jantar split left unassigned.
	if beto.Credit.Individual.Cents != 30000 || beto.Credit.Shared.Cents != 6666+1677+1 {
		t.Errorf("unexpected beto credit %+v", beto.Credit)
	}
	if ana.Cash.Individual.Cents != 4550 || ana.Cash.Shared.Cents != 12000 {
		t.Errorf("unexpected ana cash %+v", ana.Cash)
	}
	if ana.Allocations.Individual.Cents != 300000 || ana.Allocations.Shared.Cents != 60000 {
		t.Errorf("unexpected ana allocations %+v", ana.Allocations)
	}
	// casa: 10% of 200.00 market + 10% of 55.90 streaming + 10% of 1000.00
	// organization allocation stay with the family, plus the unattributed
	// padaria.
	fam := got.FamilySharedTotals
	if fam.Cash.Cents != 2000+1234 || fam.Credit.Cents != 559 || fam.Allocations.Cents != 10000 {
		t.Errorf("unexpected family totals %+v", fam)
	}

	assertReconciled(t, got)
}

func TestSummarizeEmptyMonth(t *testing.T) {
	got := Summarize(Input{CostCenters: household()}, 2025, time.July)
	if got.CreditInvoices == nil || len(got.CreditInvoices) != 0 {
		t.Fatalf("expected empty invoice list, got %#v", got.CreditInvoices)
	}
	if !got.TotalExpense.IsZero() || !got.Balance.IsZero() {
		t.Fatalf("expected zero totals, got %+v", got)
	}
	if len(got.IndividualSummaries) != 2 {
		t.Fatalf("members must be listed even without activity")
	}
}

func TestSummarizeIsIdempotent(t *testing.T) {
	in := sampleInput()
	a := Summarize(in, 2025, time.March)
	b := Summarize(in, 2025, time.March)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two runs differ:\n%+v\n%+v", a, b)
	}
	if !reflect.DeepEqual(in, sampleInput()) {
		t.Fatalf("input mutated")
	}
}

func TestSummarizeReconcilesRandomData(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		in := randomInput(rng)
		for month := time.January; month <= time.December; month++ {
			t.Run(fmt.Sprintf("run%d/%s", run, month), func(t *testing.T) {
				assertReconciled(t, Summarize(in, 2024, month))
			})
		}
	}
}

func assertReconciled(t *testing.T, s core.MonthlySummary) {
	t.Helper()
	var cash, credit, alloc core.Money
	for _, m := range s.IndividualSummaries {
		cash = cash.Add(m.Totals.Cash)
		credit = credit.Add(m.Totals.Credit)
		alloc = alloc.Add(m.Totals.Allocations)
		if m.Totals.Expenses != m.Totals.Cash.Add(m.Totals.Credit) || m.Totals.Balance != m.Totals.Allocations.Sub(m.Totals.Expenses) {
			t.Fatalf("member %s totals inconsistent: %+v", m.CostCenterID, m.Totals)
		}
	}
	if cash.Add(s.FamilySharedTotals.Cash) != s.CashExpenseTotal {
		t.Fatalf("cash: members %v + family %v != %v", cash, s.FamilySharedTotals.Cash, s.CashExpenseTotal)
	}
	if credit.Add(s.FamilySharedTotals.Credit) != s.CreditInvoiceTotal {
		t.Fatalf("credit: members %v + family %v != %v", credit, s.FamilySharedTotals.Credit, s.CreditInvoiceTotal)
	}
	if alloc.Add(s.FamilySharedTotals.Allocations) != s.TotalAllocations {
		t.Fatalf("allocations: members %v + family %v != %v", alloc, s.FamilySharedTotals.Allocations, s.TotalAllocations)
	}
}

// randomInput produces splits whose amounts are rounded independently, so
// their sum drifts from the record amount by a few cents.
func randomInput(rng *rand.Rand) Input {
	centers := []core.CostCenter{
		{ID: "a", DefaultSplitPercentage: decimal.RequireFromString("33.33"), IsActive: true},
		{ID: "b", DefaultSplitPercentage: decimal.RequireFromString("33.33"), IsActive: true},
		{ID: "c", DefaultSplitPercentage: decimal.RequireFromString("33.33"), IsActive: true},
		{ID: "shared", IsShared: true, IsActive: true},
	}
	cards := []core.Card{
		{ID: "k1", ClosingDay: core.IntPtr(1 + rng.Intn(31)), BillingDay: core.IntPtr(1 + rng.Intn(31)), IsActive: true, Type: core.CardCredit},
		{ID: "k2", ClosingDay: core.IntPtr(1 + rng.Intn(31)), IsActive: true, Type: core.CardCredit},
	}
	ids := []string{"", "a", "b", "c", "shared", "ghost"}

	randomSplits := func(amount core.Money) []core.Split {
		if rng.Intn(3) != 0 {
			return nil
		}
		n := 2 + rng.Intn(3)
		p := decimal.NewFromInt(100).Div(decimal.NewFromInt(int64(n)))
		var splits []core.Split
		for i := 0; i < n; i++ {
			splits = append(splits, core.Split{
				CostCenterID: ids[1+rng.Intn(3)],
				Percentage:   p,
				Amount:       amount.MulPercent(p),
			})
		}
		return splits
	}

	var in Input
	in.Cards = cards
	in.CostCenters = centers
	start := core.NewDate(2023, time.November, 1)
	for i := 0; i < 60; i++ {
		date := core.Date{Time: start.AddDate(0, 0, rng.Intn(425))}
		amount := core.Cents(int64(1 + rng.Intn(100000)))
		e := core.Expense{
			ID:            fmt.Sprintf("e%d", i),
			Date:          date,
			Amount:        amount,
			PaymentMethod: "pix",
			CostCenterID:  ids[rng.Intn(len(ids))],
			Splits:        randomSplits(amount),
		}
		if rng.Intn(2) == 0 {
			e.PaymentMethod = core.PaymentCreditCard
			e.CardID = cards[rng.Intn(len(cards))].ID
		}
		in.Expenses = append(in.Expenses, e)
	}
	for i := 0; i < 20; i++ {
		amount := core.Cents(int64(1 + rng.Intn(500000)))
		a := core.Allocation{
			ID:           fmt.Sprintf("a%d", i),
			Date:         core.Date{Time: start.AddDate(0, 0, rng.Intn(425))},
			Amount:       amount,
			CostCenterID: ids[rng.Intn(len(ids))],
			Splits:       randomSplits(amount),
		}
		if rng.Intn(2) == 0 {
			a.OwnershipType = core.OwnershipOrganization
			a.AllocationTarget = core.TargetShared
		}
		in.Allocations = append(in.Allocations, a)
	}
	return in
}

func TestFetchWindow(t *testing.T) {
	from, to := FetchWindow(2025, time.February)
	if from.String() != "2024-12-01" || to.String() != "2025-02-28" {
		t.Fatalf("unexpected window %s..%s", from, to)
	}
	from, to = YearWindow(2025)
	if from.String() != "2024-11-01" || to.String() != "2025-12-31" {
		t.Fatalf("unexpected year window %s..%s", from, to)
	}
}
