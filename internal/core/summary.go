package core

import "time"

// Invoice is the set of credit charges of one card billing cycle, reported
// in the month of its due date.
type Invoice struct {
	CardID     string    `json:"card_id"`
	DueDate    Date      `json:"due_date"`
	CycleStart Date      `json:"cycle_start"`
	CycleEnd   Date      `json:"cycle_end"`
	Total      Money     `json:"total"`
	Expenses   []Expense `json:"expenses"`
}

// Bucket splits an amount between individual and shared attribution.
type Bucket struct {
	Individual Money `json:"individual"`
	Shared     Money `json:"shared"`
}

func (b Bucket) Total() Money { return b.Individual.Add(b.Shared) }

type MemberTotals struct {
	Allocations Money `json:"allocations"`
	Cash        Money `json:"cash"`
	Credit      Money `json:"credit"`
	Expenses    Money `json:"expenses"`
	Balance     Money `json:"balance"`
}

// MemberSummary is the per cost center view of a month.
type MemberSummary struct {
	CostCenterID string       `json:"cost_center_id"`
	Name         string       `json:"name"`
	Allocations  Bucket       `json:"allocations"`
	Cash         Bucket       `json:"cash"`
	Credit       Bucket       `json:"credit"`
	Totals       MemberTotals `json:"totals"`
}

// Recompute derives Totals from the buckets.
func (m *MemberSummary) Recompute() {
	m.Totals.Allocations = m.Allocations.Total()
	m.Totals.Cash = m.Cash.Total()
	m.Totals.Credit = m.Credit.Total()
	m.Totals.Expenses = m.Totals.Cash.Add(m.Totals.Credit)
	m.Totals.Balance = m.Totals.Allocations.Sub(m.Totals.Expenses)
}

// FamilyTotals holds what no individual cost center absorbed.
type FamilyTotals struct {
	Allocations Money `json:"allocations"`
	Cash        Money `json:"cash"`
	Credit      Money `json:"credit"`
}

// MonthlySummary is the closing report of one calendar month.
type MonthlySummary struct {
	Year                int             `json:"year"`
	Month               time.Month      `json:"month"`
	TotalAllocations    Money           `json:"total_allocations"`
	TotalExpense        Money           `json:"total_expense"`
	CashExpenseTotal    Money           `json:"cash_expense_total"`
	CreditInvoiceTotal  Money           `json:"credit_invoice_total"`
	Balance             Money           `json:"balance"`
	CreditInvoices      []Invoice       `json:"credit_invoices"`
	IndividualSummaries []MemberSummary `json:"individual_summaries"`
	FamilySharedTotals  FamilyTotals    `json:"family_shared_totals"`
}

// HistoricalEntry is one month of a yearly series.
type HistoricalEntry struct {
	Year         int        `json:"year"`
	Month        time.Month `json:"month"`
	Allocations  Money      `json:"allocations"`
	Cash         Money      `json:"cash"`
	Credit       Money      `json:"credit"`
	TotalExpense Money      `json:"total_expense"`
	Balance      Money      `json:"balance"`
}

// ClosingSnapshot is a persisted MonthlySummary.
// RequestID is the closing request that produced it, empty when the month
// was closed directly.
type ClosingSnapshot struct {
	ID        string         `json:"id"`
	RequestID string         `json:"request_id,omitempty"`
	Year      int            `json:"year"`
	Month     time.Month     `json:"month"`
	CreatedAt time.Time      `json:"created_at"`
	Summary   MonthlySummary `json:"summary"`
}
