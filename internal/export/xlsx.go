// Package export renders closings as XLSX workbooks.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"fechamento/internal/core"
)

const (
	SummarySheet = "Resumo"
	HistorySheet = "Histórico"
)

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthName returns the Portuguese name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return fmt.Sprintf("%d", int(m))
	}
	return monthNames[m-1]
}

// ClosingXLSX renders a month closing and the yearly series of the same
// year into a workbook with a summary sheet and a history sheet.
func ClosingXLSX(s core.MonthlySummary, history []core.HistoricalEntry) ([]byte, error) {
	xlsx := excelize.NewFile()
	defer xlsx.Close()

	_ = xlsx.SetAppProps(&excelize.AppProperties{
		Application: "fechamento",
	})

	st, err := newStyles(xlsx)
	if err != nil {
		return nil, fmt.Errorf("create styles: %w", err)
	}

	first := xlsx.GetSheetName(xlsx.GetActiveSheetIndex())
	if err := xlsx.SetSheetName(first, SummarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := xlsx.NewSheet(HistorySheet); err != nil {
		return nil, fmt.Errorf("create history sheet: %w", err)
	}

	_ = xlsx.SetColWidth(SummarySheet, "A", "A", 28)
	_ = xlsx.SetColWidth(SummarySheet, "B", "G", 15)
	_ = xlsx.SetColWidth(HistorySheet, "A", "A", 14)
	_ = xlsx.SetColWidth(HistorySheet, "B", "F", 15)

	writeSummary(xlsx, st, s)
	writeHistory(xlsx, st, history)

	buf, err := xlsx.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(xlsx *excelize.File, st styles, s core.MonthlySummary) {
	sheet := SummarySheet
	row := 1

	_ = xlsx.SetCellValue(sheet, cell('A', row), fmt.Sprintf("Fechamento %s %d", MonthName(s.Month), s.Year))
	_ = xlsx.SetCellStyle(sheet, cell('A', row), cell('A', row), st.header)
	row += 2

	totals := []struct {
		label  string
		amount core.Money
	}{
		{"Aportes", s.TotalAllocations},
		{"Despesas à vista", s.CashExpenseTotal},
		{"Faturas de cartão", s.CreditInvoiceTotal},
		{"Total de despesas", s.TotalExpense},
	}
	for _, t := range totals {
		_ = xlsx.SetCellValue(sheet, cell('A', row), t.label)
		_ = xlsx.SetCellStyle(sheet, cell('A', row), cell('A', row), st.label)
		_ = xlsx.SetCellValue(sheet, cell('B', row), t.amount.Float64())
		_ = xlsx.SetCellStyle(sheet, cell('B', row), cell('B', row), st.money)
		row++
	}
	_ = xlsx.SetCellValue(sheet, cell('A', row), "Saldo")
	_ = xlsx.SetCellValue(sheet, cell('B', row), s.Balance.Float64())
	_ = xlsx.SetCellStyle(sheet, cell('A', row), cell('B', row), st.total)
	row += 2

	header := []string{"Centro de custo", "Aportes", "À vista ind.", "À vista comp.", "Cartão ind.", "Cartão comp.", "Saldo"}
	for i, h := range header {
		_ = xlsx.SetCellValue(sheet, cell(rune('A'+i), row), h)
	}
	_ = xlsx.SetCellStyle(sheet, cell('A', row), cell('G', row), st.header)
	row++

	for _, m := range s.IndividualSummaries {
		_ = xlsx.SetCellValue(sheet, cell('A', row), m.Name)
		_ = xlsx.SetCellValue(sheet, cell('B', row), m.Totals.Allocations.Float64())
		_ = xlsx.SetCellValue(sheet, cell('C', row), m.Cash.Individual.Float64())
		_ = xlsx.SetCellValue(sheet, cell('D', row), m.Cash.Shared.Float64())
		_ = xlsx.SetCellValue(sheet, cell('E', row), m.Credit.Individual.Float64())
		_ = xlsx.SetCellValue(sheet, cell('F', row), m.Credit.Shared.Float64())
		_ = xlsx.SetCellValue(sheet, cell('G', row), m.Totals.Balance.Float64())
		_ = xlsx.SetCellStyle(sheet, cell('B', row), cell('G', row), st.money)
		row++
	}

	fam := s.FamilySharedTotals
	_ = xlsx.SetCellValue(sheet, cell('A', row), "Família")
	_ = xlsx.SetCellValue(sheet, cell('B', row), fam.Allocations.Float64())
	_ = xlsx.SetCellValue(sheet, cell('D', row), fam.Cash.Float64())
	_ = xlsx.SetCellValue(sheet, cell('F', row), fam.Credit.Float64())
	_ = xlsx.SetCellStyle(sheet, cell('B', row), cell('G', row), st.money)
	row += 2

	for i, h := range []string{"Cartão", "Vencimento", "Início", "Fechamento", "Total"} {
		_ = xlsx.SetCellValue(sheet, cell(rune('A'+i), row), h)
	}
	_ = xlsx.SetCellStyle(sheet, cell('A', row), cell('E', row), st.header)
	row++

	for _, inv := range s.CreditInvoices {
		_ = xlsx.SetCellValue(sheet, cell('A', row), inv.CardID)
		_ = xlsx.SetCellValue(sheet, cell('B', row), inv.DueDate.String())
		_ = xlsx.SetCellValue(sheet, cell('C', row), inv.CycleStart.String())
		_ = xlsx.SetCellValue(sheet, cell('D', row), inv.CycleEnd.String())
		_ = xlsx.SetCellValue(sheet, cell('E', row), inv.Total.Float64())
		_ = xlsx.SetCellStyle(sheet, cell('E', row), cell('E', row), st.money)
		row++
	}
}

func writeHistory(xlsx *excelize.File, st styles, entries []core.HistoricalEntry) {
	sheet := HistorySheet

	for i, h := range []string{"Mês", "Aportes", "À vista", "Cartão", "Despesas", "Saldo"} {
		_ = xlsx.SetCellValue(sheet, cell(rune('A'+i), 1), h)
	}
	_ = xlsx.SetCellStyle(sheet, cell('A', 1), cell('F', 1), st.header)

	row := 2
	var allocations, expenses core.Money
	for _, e := range entries {
		_ = xlsx.SetCellValue(sheet, cell('A', row), MonthName(e.Month))
		_ = xlsx.SetCellValue(sheet, cell('B', row), e.Allocations.Float64())
		_ = xlsx.SetCellValue(sheet, cell('C', row), e.Cash.Float64())
		_ = xlsx.SetCellValue(sheet, cell('D', row), e.Credit.Float64())
		_ = xlsx.SetCellValue(sheet, cell('E', row), e.TotalExpense.Float64())
		_ = xlsx.SetCellValue(sheet, cell('F', row), e.Balance.Float64())
		_ = xlsx.SetCellStyle(sheet, cell('B', row), cell('F', row), st.money)
		allocations = allocations.Add(e.Allocations)
		expenses = expenses.Add(e.TotalExpense)
		row++
	}

	_ = xlsx.SetCellValue(sheet, cell('A', row), "Total")
	_ = xlsx.SetCellValue(sheet, cell('B', row), allocations.Float64())
	_ = xlsx.SetCellValue(sheet, cell('E', row), expenses.Float64())
	_ = xlsx.SetCellValue(sheet, cell('F', row), allocations.Sub(expenses).Float64())
	_ = xlsx.SetCellStyle(sheet, cell('A', row), cell('F', row), st.total)
}
