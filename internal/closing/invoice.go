package closing

import (
	"sort"
	"time"

	"fechamento/internal/core"
)

// Invoices builds the invoices of every active credit card whose due date
// falls in the given month. Cards with no charges in their cycle are left
// out. The result is stably sorted by due date; cards with the same due date
// keep their input order.
func Invoices(cards []core.Card, credit map[string][]core.Expense, year int, month time.Month) []core.Invoice {
	var invoices []core.Invoice
	for _, card := range cards {
		if !card.IsActive || !card.IsCredit() {
			continue
		}
		cycle, ok := CycleFor(card, year, month)
		if !ok {
			continue
		}

		var (
			members []core.Expense
			total   core.Money
		)
		for _, e := range credit[card.ID] {
			if !e.Date.Between(cycle.CycleStart, cycle.CycleEnd) {
				continue
			}
			members = append(members, e)
			total = total.Add(e.Amount)
		}
		if len(members) == 0 {
			continue
		}

		invoices = append(invoices, core.Invoice{
			CardID:     card.ID,
			DueDate:    cycle.DueDate,
			CycleStart: cycle.CycleStart,
			CycleEnd:   cycle.CycleEnd,
			Total:      total,
			Expenses:   members,
		})
	}

	sort.SliceStable(invoices, func(i, j int) bool {
		return invoices[i].DueDate.Before(invoices[j].DueDate.Time)
	})
	return invoices
}

// InvoiceTotal sums the totals of a list of invoices.
func InvoiceTotal(invoices []core.Invoice) core.Money {
	var total core.Money
	for _, inv := range invoices {
		total = total.Add(inv.Total)
	}
	return total
}
