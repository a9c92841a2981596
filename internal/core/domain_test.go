package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.February || d.Day() != 29 {
		t.Fatalf("unexpected date %v", d)
	}
	if _, err := ParseDate("2023-02-29"); err == nil {
		t.Fatalf("expected error for invalid date")
	}
	if _, err := ParseDate("29/02/2024"); err == nil {
		t.Fatalf("expected error for wrong layout")
	}
}

func TestDateJSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2025-03-05"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !v.D.Equal(NewDate(2025, time.March, 5).Time) {
		t.Fatalf("unexpected date %v", v.D)
	}
	b, _ := json.Marshal(v)
	if string(b) != `{"d":"2025-03-05"}` {
		t.Fatalf("unexpected json %s", b)
	}
}

func TestMonthRange(t *testing.T) {
	first, last := MonthRange(2024, time.February)
	if first.String() != "2024-02-01" || last.String() != "2024-02-29" {
		t.Fatalf("unexpected range %s..%s", first, last)
	}
	first, last = MonthRange(2025, time.December)
	if first.String() != "2025-12-01" || last.String() != "2025-12-31" {
		t.Fatalf("unexpected range %s..%s", first, last)
	}
}

func TestDateBetween(t *testing.T) {
	from, to := NewDate(2025, 1, 10), NewDate(2025, 1, 20)
	cases := []struct {
		d  Date
		in bool
	}{
		{NewDate(2025, 1, 10), true},
		{NewDate(2025, 1, 20), true},
		{NewDate(2025, 1, 15), true},
		{NewDate(2025, 1, 9), false},
		{NewDate(2025, 1, 21), false},
	}
	for i, tc := range cases {
		if got := tc.d.Between(from, to); got != tc.in {
			t.Fatalf("case %d: Between = %v, want %v", i, got, tc.in)
		}
	}
}

func TestCardValidate(t *testing.T) {
	if err := (Card{ID: "c1", ClosingDay: IntPtr(25), BillingDay: IntPtr(5)}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Card{
		{ID: ""},
		{ID: "c1", ClosingDay: IntPtr(0)},
		{ID: "c1", BillingDay: IntPtr(32)},
	}
	for i, c := range bads {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{ID: "e1", Date: NewDate(2025, 1, 1), Amount: Cents(100), PaymentMethod: "pix"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{ID: "", Date: NewDate(2025, 1, 1)},
		{ID: "e1"},
		{ID: "e1", Date: NewDate(2025, 1, 1), PaymentMethod: PaymentCreditCard},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
