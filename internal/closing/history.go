package closing

import (
	"time"

	"fechamento/internal/core"
)

// History builds the monthly series of a calendar year, January first.
// Months strictly after now's month are left out, so a future year yields an
// empty series.
func History(in Input, year int, now time.Time) []core.HistoricalEntry {
	classified := Classify(in.Expenses)

	entries := []core.HistoricalEntry{}
	for month := time.January; month <= time.December; month++ {
		if afterMonth(year, month, now) {
			break
		}
		first, last := core.MonthRange(year, month)

		var cash, allocations core.Money
		for _, e := range classified.CashBetween(first, last) {
			cash = cash.Add(e.Amount)
		}
		for _, a := range allocationsBetween(in.Allocations, first, last) {
			allocations = allocations.Add(a.Amount)
		}
		credit := InvoiceTotal(Invoices(in.Cards, classified.Credit, year, month))

		total := cash.Add(credit)
		entries = append(entries, core.HistoricalEntry{
			Year:         year,
			Month:        month,
			Allocations:  allocations,
			Cash:         cash,
			Credit:       credit,
			TotalExpense: total,
			Balance:      allocations.Sub(total),
		})
	}
	return entries
}

func afterMonth(year int, month time.Month, now time.Time) bool {
	if year != now.Year() {
		return year > now.Year()
	}
	return month > now.Month()
}
