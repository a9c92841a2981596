package closing

import "fechamento/internal/core"

// Classification partitions expenses by payment method.
type Classification struct {
	// Cash holds every expense not paid by credit card, in input order.
	Cash []core.Expense
	// Credit holds credit card expenses grouped by card id, each group in
	// input order.
	Credit map[string][]core.Expense
}

// Classify splits expenses into cash-like and credit-card charges.
func Classify(expenses []core.Expense) Classification {
	c := Classification{Credit: make(map[string][]core.Expense)}
	for _, e := range expenses {
		if e.IsCredit() {
			c.Credit[e.CardID] = append(c.Credit[e.CardID], e)
			continue
		}
		c.Cash = append(c.Cash, e)
	}
	return c
}

// CashBetween returns the cash expenses dated within [from, to].
func (c Classification) CashBetween(from, to core.Date) []core.Expense {
	var out []core.Expense
	for _, e := range c.Cash {
		if e.Date.Between(from, to) {
			out = append(out, e)
		}
	}
	return out
}
