package closing

import (
	"sort"

	"fechamento/internal/core"
)

// Totals are the authoritative month totals member summaries must add up to.
type Totals struct {
	Allocations core.Money
	Cash        core.Money
	Credit      core.Money
}

// Reconcile makes member totals plus the family bucket equal the
// authoritative totals, field by field, to the cent.
//
// Members are returned stably sorted by total expenses, descending. Any drift
// is booked as shared on the first member of that order, the largest
// spender; ties keep input order. Which member absorbs the cents is a policy
// choice, and changing it changes reports. With no members, drift goes to the
// family bucket.
func Reconcile(members []core.MemberSummary, family core.FamilyTotals, want Totals) ([]core.MemberSummary, core.FamilyTotals) {
	out := make([]core.MemberSummary, len(members))
	copy(out, members)
	for i := range out {
		out[i].Recompute()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Totals.Expenses.Cents > out[j].Totals.Expenses.Cents
	})

	var got Totals
	for _, m := range out {
		got.Allocations = got.Allocations.Add(m.Totals.Allocations)
		got.Cash = got.Cash.Add(m.Totals.Cash)
		got.Credit = got.Credit.Add(m.Totals.Credit)
	}
	got.Allocations = got.Allocations.Add(family.Allocations)
	got.Cash = got.Cash.Add(family.Cash)
	got.Credit = got.Credit.Add(family.Credit)

	drift := Totals{
		Allocations: want.Allocations.Sub(got.Allocations),
		Cash:        want.Cash.Sub(got.Cash),
		Credit:      want.Credit.Sub(got.Credit),
	}
	if drift == (Totals{}) {
		return out, family
	}

	if len(out) == 0 {
		family.Allocations = family.Allocations.Add(drift.Allocations)
		family.Cash = family.Cash.Add(drift.Cash)
		family.Credit = family.Credit.Add(drift.Credit)
		return out, family
	}

	target := &out[0]
	target.Allocations.Shared = target.Allocations.Shared.Add(drift.Allocations)
	target.Cash.Shared = target.Cash.Shared.Add(drift.Cash)
	target.Credit.Shared = target.Credit.Shared.Add(drift.Credit)
	target.Recompute()

	return out, family
}
