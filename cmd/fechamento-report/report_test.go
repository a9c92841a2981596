package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"fechamento/internal/core"
)

func TestBRL(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0,00"},
		{4290, "42,90"},
		{123456, "1.234,56"},
		{-270000, "-2.700,00"},
	}
	for _, tt := range tests {
		if got := brl(core.Cents(tt.cents)); got != tt.want {
			t.Fatalf("brl(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMonthReport(t *testing.T) {
	var buf bytes.Buffer
	monthReport(&buf, core.MonthlySummary{
		Year:             2025,
		Month:            time.March,
		TotalAllocations: core.Cents(300000),
		Balance:          core.Cents(270000),
		IndividualSummaries: []core.MemberSummary{
			{Name: "Ana", Totals: core.MemberTotals{Balance: core.Cents(170000)}},
		},
	})

	out := buf.String()
	for _, want := range []string{"FECHAMENTO Março 2025", "3.000,00", "Ana", "1.700,00", "Família"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "FATURAS") {
		t.Fatalf("invoice section should be omitted without invoices")
	}
}

func TestHistoryReportTotals(t *testing.T) {
	var buf bytes.Buffer
	historyReport(&buf, 2025, []core.HistoricalEntry{
		{Month: time.January, Allocations: core.Cents(10000), TotalExpense: core.Cents(4000)},
		{Month: time.February, Allocations: core.Cents(10000), TotalExpense: core.Cents(12000)},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, 2 months and total, got %d lines", len(lines))
	}
	total := lines[3]
	if !strings.HasPrefix(total, "Total") || !strings.Contains(total, "200,00") || !strings.HasSuffix(total, "40,00") {
		t.Fatalf("unexpected total line %q", total)
	}
}
