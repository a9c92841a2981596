package closing

import (
	"testing"

	"fechamento/internal/core"
)

func TestClassify(t *testing.T) {
	expenses := []core.Expense{
		{ID: "e1", PaymentMethod: "pix", Amount: core.Cents(100)},
		{ID: "e2", PaymentMethod: core.PaymentCreditCard, CardID: "nubank", Amount: core.Cents(200)},
		{ID: "e3", PaymentMethod: "debit", Amount: core.Cents(300)},
		{ID: "e4", PaymentMethod: core.PaymentCreditCard, CardID: "itau", Amount: core.Cents(400)},
		{ID: "e5", PaymentMethod: core.PaymentCreditCard, CardID: "nubank", Amount: core.Cents(500)},
	}

	got := Classify(expenses)

	if len(got.Cash) != 2 || got.Cash[0].ID != "e1" || got.Cash[1].ID != "e3" {
		t.Fatalf("unexpected cash partition: %+v", got.Cash)
	}
	if len(got.Credit) != 2 {
		t.Fatalf("expected 2 card groups, got %d", len(got.Credit))
	}
	nubank := got.Credit["nubank"]
	if len(nubank) != 2 || nubank[0].ID != "e2" || nubank[1].ID != "e5" {
		t.Fatalf("unexpected nubank group: %+v", nubank)
	}
	if len(got.Credit["itau"]) != 1 {
		t.Fatalf("unexpected itau group: %+v", got.Credit["itau"])
	}
}

func TestCashBetween(t *testing.T) {
	c := Classify([]core.Expense{
		{ID: "jan", Date: core.NewDate(2025, 1, 31)},
		{ID: "feb1", Date: core.NewDate(2025, 2, 1)},
		{ID: "feb28", Date: core.NewDate(2025, 2, 28)},
		{ID: "mar", Date: core.NewDate(2025, 3, 1)},
	})
	first, last := core.MonthRange(2025, 2)
	got := c.CashBetween(first, last)
	if len(got) != 2 || got[0].ID != "feb1" || got[1].ID != "feb28" {
		t.Fatalf("unexpected cash in february: %+v", got)
	}
}
