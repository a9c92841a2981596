package closing

import (
	"testing"
	"time"

	"fechamento/internal/core"
)

func credit(id, cardID string, date core.Date, cents int64) core.Expense {
	return core.Expense{ID: id, Date: date, Amount: core.Cents(cents), PaymentMethod: core.PaymentCreditCard, CardID: cardID}
}

func TestInvoices(t *testing.T) {
	cards := []core.Card{
		{ID: "late", ClosingDay: core.IntPtr(25), BillingDay: core.IntPtr(15), IsActive: true, Type: core.CardCredit},
		{ID: "early", ClosingDay: core.IntPtr(25), BillingDay: core.IntPtr(5), IsActive: true, Type: core.CardCredit},
		{ID: "empty", ClosingDay: core.IntPtr(25), BillingDay: core.IntPtr(5), IsActive: true, Type: core.CardCredit},
		{ID: "inactive", ClosingDay: core.IntPtr(25), BillingDay: core.IntPtr(5), IsActive: false, Type: core.CardCredit},
		{ID: "debit", ClosingDay: core.IntPtr(25), BillingDay: core.IntPtr(5), IsActive: true, Type: "debit"},
		{ID: "unconfigured", IsActive: true, Type: core.CardCredit},
	}
	expenses := []core.Expense{
		// early: cycle 2025-01-25..2025-02-25, due 2025-03-05
		credit("e-before", "early", core.NewDate(2025, 1, 24), 1000),
		credit("e-start", "early", core.NewDate(2025, 1, 25), 1100),
		credit("e-mid", "early", core.NewDate(2025, 2, 10), 1200),
		credit("e-end", "early", core.NewDate(2025, 2, 25), 1300),
		credit("e-after", "early", core.NewDate(2025, 2, 26), 1400),
		// late: same cycle, due 2025-03-15
		credit("l-mid", "late", core.NewDate(2025, 2, 1), 500),
		credit("i-mid", "inactive", core.NewDate(2025, 2, 1), 999),
		credit("d-mid", "debit", core.NewDate(2025, 2, 1), 999),
		credit("u-mid", "unconfigured", core.NewDate(2025, 2, 1), 999),
	}

	got := Invoices(cards, Classify(expenses).Credit, 2025, time.March)

	if len(got) != 2 {
		t.Fatalf("expected 2 invoices, got %d: %+v", len(got), got)
	}
	if got[0].CardID != "early" || got[1].CardID != "late" {
		t.Fatalf("invoices not sorted by due date: %s, %s", got[0].CardID, got[1].CardID)
	}

	early := got[0]
	if early.DueDate.String() != "2025-03-05" || early.CycleStart.String() != "2025-01-25" || early.CycleEnd.String() != "2025-02-25" {
		t.Fatalf("unexpected early window: %s %s..%s", early.DueDate, early.CycleStart, early.CycleEnd)
	}
	if len(early.Expenses) != 3 {
		t.Fatalf("expected 3 expenses in cycle (inclusive bounds), got %d", len(early.Expenses))
	}
	if early.Total.Cents != 1100+1200+1300 {
		t.Fatalf("unexpected early total %d", early.Total.Cents)
	}
	if got[1].Total.Cents != 500 {
		t.Fatalf("unexpected late total %d", got[1].Total.Cents)
	}
	if InvoiceTotal(got).Cents != 4100 {
		t.Fatalf("unexpected invoice total %d", InvoiceTotal(got).Cents)
	}
}

func TestInvoicesByDueMonthNotExpenseDate(t *testing.T) {
	cards := []core.Card{{ID: "c", ClosingDay: core.IntPtr(25), BillingDay: core.IntPtr(5), IsActive: true, Type: core.CardCredit}}
	credits := Classify([]core.Expense{credit("x", "c", core.NewDate(2025, 2, 10), 700)}).Credit

	if got := Invoices(cards, credits, 2025, time.February); len(got) != 0 {
		t.Fatalf("february should not contain a february purchase billed in march: %+v", got)
	}
	if got := Invoices(cards, credits, 2025, time.March); len(got) != 1 || got[0].Total.Cents != 700 {
		t.Fatalf("march should contain the february purchase: %+v", got)
	}
}

func TestInvoicesStableOnEqualDueDates(t *testing.T) {
	var cards []core.Card
	var expenses []core.Expense
	for _, id := range []string{"b", "a", "c"} {
		cards = append(cards, core.Card{ID: id, ClosingDay: core.IntPtr(1), BillingDay: core.IntPtr(10), IsActive: true, Type: core.CardCredit})
		expenses = append(expenses, credit(id+"-1", id, core.NewDate(2025, 5, 15), 100))
	}
	got := Invoices(cards, Classify(expenses).Credit, 2025, time.June)
	if len(got) != 3 || got[0].CardID != "b" || got[1].CardID != "a" || got[2].CardID != "c" {
		t.Fatalf("equal due dates must keep input order: %+v", got)
	}
}
