package main

import (
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fechamento/internal/core"
	"fechamento/internal/export"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// brl formats an amount with Brazilian separators, e.g. 1.234,56.
func brl(m core.Money) string {
	return printer.Sprintf("%.2f", m.Float64())
}

func monthReport(w io.Writer, s core.MonthlySummary) {
	fmt.Fprintf(w, "FECHAMENTO %s %d\n\n", export.MonthName(s.Month), s.Year)

	fmtLine(w, "Aportes", s.TotalAllocations)
	fmtLine(w, "Despesas à vista", s.CashExpenseTotal)
	fmtLine(w, "Faturas de cartão", s.CreditInvoiceTotal)
	fmtLine(w, "Total de despesas", s.TotalExpense)
	dashes(w)
	fmtLine(w, "Saldo", s.Balance)

	fmt.Fprintln(w, "\nCENTROS DE CUSTO")
	fmt.Fprintf(w, "  %-30s %12s %12s %12s %12s\n", "", "Aportes", "À vista", "Cartão", "Saldo")
	for _, m := range s.IndividualSummaries {
		fmt.Fprintf(w, "  %-30s %12s %12s %12s %12s\n", m.Name,
			brl(m.Totals.Allocations), brl(m.Totals.Cash), brl(m.Totals.Credit), brl(m.Totals.Balance))
	}
	fam := s.FamilySharedTotals
	fmt.Fprintf(w, "  %-30s %12s %12s %12s %12s\n", "Família",
		brl(fam.Allocations), brl(fam.Cash), brl(fam.Credit), "·")

	if len(s.CreditInvoices) == 0 {
		return
	}
	fmt.Fprintln(w, "\nFATURAS")
	for _, inv := range s.CreditInvoices {
		fmt.Fprintf(w, "  %-18s %s  %s..%s %12s\n", inv.CardID,
			inv.DueDate, inv.CycleStart, inv.CycleEnd, brl(inv.Total))
	}
}

func historyReport(w io.Writer, year int, entries []core.HistoricalEntry) {
	fmt.Fprintf(w, "%-14s %12s %12s %12s %12s %12s\n", fmt.Sprint(year), "Aportes", "À vista", "Cartão", "Despesas", "Saldo")

	var allocations, expenses core.Money
	for _, e := range entries {
		fmt.Fprintf(w, "%-14s %12s %12s %12s %12s %12s\n", export.MonthName(e.Month),
			brl(e.Allocations), brl(e.Cash), brl(e.Credit), brl(e.TotalExpense), brl(e.Balance))
		allocations = allocations.Add(e.Allocations)
		expenses = expenses.Add(e.TotalExpense)
	}
	fmt.Fprintf(w, "%-14s %12s %12s %12s %12s %12s\n", "Total",
		brl(allocations), "", "", brl(expenses), brl(allocations.Sub(expenses)))
}

func fmtLine(w io.Writer, descr string, val core.Money) {
	const formatStr = "  %-30s %14s\n"
	fmt.Fprintf(w, formatStr, descr, brl(val))
}

func dashes(w io.Writer) {
	fmt.Fprintf(w, "  %-30s %14s\n", "", "-----------")
}
