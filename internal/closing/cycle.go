package closing

import (
	"time"

	"fechamento/internal/core"
)

// Cycle is the billing window of one card invoice.
type Cycle struct {
	DueDate    core.Date
	CycleStart core.Date
	CycleEnd   core.Date
}

// CycleFor computes the invoice window of card for the invoice due in the
// given month. It returns false when the card has no invoice that month:
// no billing or closing day configured, or a due date that resolves outside
// the requested month.
//
// The due date is the billing day (falling back to the closing day) clamped
// to the month length. The closing date falls in the due date's month unless
// the closing day is after the billing day, in which case it falls in the
// month before. The cycle starts one calendar month before the closing date.
func CycleFor(card core.Card, year int, month time.Month) (Cycle, bool) {
	billingDay := card.BillingDay
	if billingDay == nil {
		billingDay = card.ClosingDay
	}
	if billingDay == nil {
		return Cycle{}, false
	}

	due := clampDay(year, month, *billingDay)
	if due.Year() != year || due.Month() != month {
		return Cycle{}, false
	}

	var end core.Date
	if card.ClosingDay != nil {
		closeYear, closeMonth := year, month
		if card.BillingDay != nil && *card.ClosingDay > *card.BillingDay {
			closeYear, closeMonth = previousMonth(year, month)
		}
		end = clampDay(closeYear, closeMonth, *card.ClosingDay)
		// Closing must precede the due date; a closing day equal to the
		// billing day (or clamped onto it) belongs to the previous month.
		if !end.Before(due.Time) {
			closeYear, closeMonth = previousMonth(closeYear, closeMonth)
			end = clampDay(closeYear, closeMonth, *card.ClosingDay)
		}
	} else {
		end = core.Date{Time: due.AddDate(0, 0, -1)}
	}

	startYear, startMonth := previousMonth(end.Year(), end.Month())
	start := clampDay(startYear, startMonth, end.Day())

	return Cycle{DueDate: due, CycleStart: start, CycleEnd: end}, true
}

// clampDay returns the given day of month, clamped to the last day of the
// month. Days below 1 roll back into the previous month, which callers
// detect by comparing the resolved month.
func clampDay(year int, month time.Month, day int) core.Date {
	last := daysIn(year, month)
	if day > last {
		day = last
	}
	return core.NewDate(year, month, day)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func previousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}
