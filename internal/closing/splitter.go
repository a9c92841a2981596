package closing

import "fechamento/internal/core"

// Field selects which member bucket an amount accrues to.
type Field int

const (
	FieldAllocations Field = iota
	FieldCash
	FieldCredit
)

// Record is the attribution-relevant view of an expense or allocation.
type Record struct {
	Amount       core.Money
	CostCenterID string
	Splits       []core.Split
	// Shared marks organization or shared-target amounts that fall back to
	// the default percentage distribution when they carry no splits.
	Shared bool
	// SharedTag tags a direct attribution as shared instead of individual.
	SharedTag bool
}

// Share is the part of a record attributed to one member.
type Share struct {
	CostCenterID string
	Amount       core.Money
	Shared       bool
}

// Distribution is the outcome of splitting one record. Shares plus Family
// always equal the record amount, except for explicit splits whose amounts
// do not add up to it.
type Distribution struct {
	Shares []Share
	Family core.Money
}

// Splitter resolves which cost centers receive each amount.
type Splitter struct {
	members []core.CostCenter
	index   map[string]int
	shared  map[string]bool
}

// NewSplitter indexes the cost centers. Members are the active, non-shared
// cost centers, kept in input order.
func NewSplitter(costCenters []core.CostCenter) *Splitter {
	s := &Splitter{
		index:  make(map[string]int),
		shared: make(map[string]bool),
	}
	for _, cc := range costCenters {
		if cc.IsShared {
			s.shared[cc.ID] = true
			continue
		}
		if !cc.IsActive {
			continue
		}
		if _, dup := s.index[cc.ID]; dup {
			continue
		}
		s.index[cc.ID] = len(s.members)
		s.members = append(s.members, cc)
	}
	return s
}

// Members returns the individual cost centers in input order.
func (s *Splitter) Members() []core.CostCenter {
	return s.members
}

func (s *Splitter) isMember(id string) bool {
	_, ok := s.index[id]
	return ok
}

// ForExpense builds the record of an expense. An expense is shared when it
// is booked on a shared cost center.
func (s *Splitter) ForExpense(e core.Expense) Record {
	return Record{
		Amount:       e.Amount,
		CostCenterID: e.CostCenterID,
		Splits:       e.Splits,
		Shared:       s.shared[e.CostCenterID],
	}
}

// ForAllocation builds the record of an allocation. Organization-owned and
// shared-target allocations are shared, as is anything booked on a shared
// cost center.
func (s *Splitter) ForAllocation(a core.Allocation) Record {
	return Record{
		Amount:       a.Amount,
		CostCenterID: a.CostCenterID,
		Splits:       a.Splits,
		Shared: a.OwnershipType == core.OwnershipOrganization ||
			a.AllocationTarget == core.TargetShared ||
			s.shared[a.CostCenterID],
		SharedTag: a.AllocationTarget == core.TargetShared,
	}
}

// Distribute splits a record amount:
//
//  1. explicit splits are authoritative: each split amount goes to its cost
//     center as shared;
//  2. otherwise a direct individual cost center receives the full amount;
//  3. otherwise shared records are distributed by default percentage across
//     the members, and whatever the percentages leave undistributed goes to
//     the family bucket;
//  4. anything else goes to the family bucket.
//
// Amounts naming an unknown, inactive or shared cost center go to the family
// bucket.
func (s *Splitter) Distribute(r Record) Distribution {
	var d Distribution

	if len(r.Splits) > 0 {
		for _, sp := range r.Splits {
			if s.isMember(sp.CostCenterID) {
				d.Shares = append(d.Shares, Share{CostCenterID: sp.CostCenterID, Amount: sp.Amount, Shared: true})
				continue
			}
			d.Family = d.Family.Add(sp.Amount)
		}
		return d
	}

	if r.CostCenterID != "" && s.isMember(r.CostCenterID) {
		d.Shares = append(d.Shares, Share{CostCenterID: r.CostCenterID, Amount: r.Amount, Shared: r.SharedTag})
		return d
	}

	if r.Shared {
		var distributed core.Money
		for _, m := range s.members {
			share := r.Amount.MulPercent(m.DefaultSplitPercentage)
			if share.IsZero() {
				continue
			}
			d.Shares = append(d.Shares, Share{CostCenterID: m.ID, Amount: share, Shared: true})
			distributed = distributed.Add(share)
		}
		d.Family = r.Amount.Sub(distributed)
		return d
	}

	d.Family = r.Amount
	return d
}

// Ledger accumulates distributions into member summaries and the family
// bucket.
type Ledger struct {
	members []core.MemberSummary
	index   map[string]int
	family  core.FamilyTotals
}

// NewLedger returns an empty ledger with one summary per member.
func (s *Splitter) NewLedger() *Ledger {
	l := &Ledger{
		members: make([]core.MemberSummary, len(s.members)),
		index:   make(map[string]int, len(s.members)),
	}
	for i, m := range s.members {
		l.members[i] = core.MemberSummary{CostCenterID: m.ID, Name: m.Name}
		l.index[m.ID] = i
	}
	return l
}

// Add books a distribution under the given field.
func (l *Ledger) Add(f Field, d Distribution) {
	for _, sh := range d.Shares {
		i, ok := l.index[sh.CostCenterID]
		if !ok {
			l.addFamily(f, sh.Amount)
			continue
		}
		b := bucket(&l.members[i], f)
		if sh.Shared {
			b.Shared = b.Shared.Add(sh.Amount)
		} else {
			b.Individual = b.Individual.Add(sh.Amount)
		}
	}
	l.addFamily(f, d.Family)
}

func (l *Ledger) addFamily(f Field, amount core.Money) {
	switch f {
	case FieldAllocations:
		l.family.Allocations = l.family.Allocations.Add(amount)
	case FieldCash:
		l.family.Cash = l.family.Cash.Add(amount)
	case FieldCredit:
		l.family.Credit = l.family.Credit.Add(amount)
	}
}

// Members returns a copy of the member summaries with totals computed.
func (l *Ledger) Members() []core.MemberSummary {
	out := make([]core.MemberSummary, len(l.members))
	copy(out, l.members)
	for i := range out {
		out[i].Recompute()
	}
	return out
}

// Family returns the family bucket totals.
func (l *Ledger) Family() core.FamilyTotals {
	return l.family
}

func bucket(m *core.MemberSummary, f Field) *core.Bucket {
	switch f {
	case FieldAllocations:
		return &m.Allocations
	case FieldCash:
		return &m.Cash
	default:
		return &m.Credit
	}
}
