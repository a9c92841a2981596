package google

import (
	"fmt"

	"fechamento/internal/core"
	"fechamento/internal/export"
)

// monthRows lays out a closing the same way the XLSX summary sheet does.
func monthRows(s core.MonthlySummary) [][]any {
	rows := [][]any{
		{fmt.Sprintf("Fechamento %s %d", export.MonthName(s.Month), s.Year)},
		{},
		{"Aportes", s.TotalAllocations.Float64()},
		{"Despesas à vista", s.CashExpenseTotal.Float64()},
		{"Faturas de cartão", s.CreditInvoiceTotal.Float64()},
		{"Total de despesas", s.TotalExpense.Float64()},
		{"Saldo", s.Balance.Float64()},
		{},
		{"Centro de custo", "Aportes", "À vista ind.", "À vista comp.", "Cartão ind.", "Cartão comp.", "Saldo"},
	}

	for _, m := range s.IndividualSummaries {
		rows = append(rows, []any{
			m.Name,
			m.Totals.Allocations.Float64(),
			m.Cash.Individual.Float64(),
			m.Cash.Shared.Float64(),
			m.Credit.Individual.Float64(),
			m.Credit.Shared.Float64(),
			m.Totals.Balance.Float64(),
		})
	}

	fam := s.FamilySharedTotals
	rows = append(rows,
		[]any{"Família", fam.Allocations.Float64(), "", fam.Cash.Float64(), "", fam.Credit.Float64(), ""},
		[]any{},
		[]any{"Cartão", "Vencimento", "Início", "Fechamento", "Total"},
	)

	for _, inv := range s.CreditInvoices {
		rows = append(rows, []any{
			inv.CardID,
			inv.DueDate.String(),
			inv.CycleStart.String(),
			inv.CycleEnd.String(),
			inv.Total.Float64(),
		})
	}
	return rows
}

// historyRows renders the yearly series with a trailing total line.
func historyRows(entries []core.HistoricalEntry) [][]any {
	rows := [][]any{{"Mês", "Aportes", "À vista", "Cartão", "Despesas", "Saldo"}}

	var allocations, expenses core.Money
	for _, e := range entries {
		rows = append(rows, []any{
			export.MonthName(e.Month),
			e.Allocations.Float64(),
			e.Cash.Float64(),
			e.Credit.Float64(),
			e.TotalExpense.Float64(),
			e.Balance.Float64(),
		})
		allocations = allocations.Add(e.Allocations)
		expenses = expenses.Add(e.TotalExpense)
	}

	rows = append(rows, []any{"Total", allocations.Float64(), "", "", expenses.Float64(), allocations.Sub(expenses).Float64()})
	return rows
}
