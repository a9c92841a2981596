package closing

import (
	"time"

	"fechamento/internal/core"
)

// Input is the set of already-fetched records a closing runs on.
type Input struct {
	Cards       []core.Card
	CostCenters []core.CostCenter
	Expenses    []core.Expense
	Allocations []core.Allocation
}

// Summarize computes the closing of one calendar month.
//
// Cash expenses and allocations count when dated within the month; credit
// expenses count through the invoices due in the month, whatever their
// purchase date. Expenses must therefore cover FetchWindow(year, month).
func Summarize(in Input, year int, month time.Month) core.MonthlySummary {
	first, last := core.MonthRange(year, month)

	classified := Classify(in.Expenses)
	invoices := Invoices(in.Cards, classified.Credit, year, month)
	cash := classified.CashBetween(first, last)
	allocations := allocationsBetween(in.Allocations, first, last)

	splitter := NewSplitter(in.CostCenters)
	ledger := splitter.NewLedger()

	var want Totals
	for _, a := range allocations {
		ledger.Add(FieldAllocations, splitter.Distribute(splitter.ForAllocation(a)))
		want.Allocations = want.Allocations.Add(a.Amount)
	}
	for _, e := range cash {
		ledger.Add(FieldCash, splitter.Distribute(splitter.ForExpense(e)))
		want.Cash = want.Cash.Add(e.Amount)
	}
	for _, inv := range invoices {
		for _, e := range inv.Expenses {
			ledger.Add(FieldCredit, splitter.Distribute(splitter.ForExpense(e)))
		}
		want.Credit = want.Credit.Add(inv.Total)
	}

	members, family := Reconcile(ledger.Members(), ledger.Family(), want)

	totalExpense := want.Cash.Add(want.Credit)
	if invoices == nil {
		invoices = []core.Invoice{}
	}
	return core.MonthlySummary{
		Year:                year,
		Month:               month,
		TotalAllocations:    want.Allocations,
		TotalExpense:        totalExpense,
		CashExpenseTotal:    want.Cash,
		CreditInvoiceTotal:  want.Credit,
		Balance:             want.Allocations.Sub(totalExpense),
		CreditInvoices:      invoices,
		IndividualSummaries: members,
		FamilySharedTotals:  family,
	}
}

func allocationsBetween(allocations []core.Allocation, from, to core.Date) []core.Allocation {
	var out []core.Allocation
	for _, a := range allocations {
		if a.Date.Between(from, to) {
			out = append(out, a)
		}
	}
	return out
}

// FetchWindow is the date range of records needed to close a month: credit
// cycles of invoices due in the month start up to two months earlier.
func FetchWindow(year int, month time.Month) (core.Date, core.Date) {
	first, last := core.MonthRange(year, month)
	return core.Date{Time: first.AddDate(0, -2, 0)}, last
}

// YearWindow is the date range of records needed for a yearly series.
func YearWindow(year int) (core.Date, core.Date) {
	from, _ := FetchWindow(year, time.January)
	_, to := core.MonthRange(year, time.December)
	return from, to
}
