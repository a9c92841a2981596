package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentCreditCard PaymentMethod = "credit_card"

	CardCredit CardType = "credit"

	OwnershipMember       OwnershipType = "member"
	OwnershipOrganization OwnershipType = "organization"

	TargetIndividual AllocationTarget = "individual"
	TargetShared     AllocationTarget = "shared"
)

const dateLayout = "2006-01-02"

type (
	PaymentMethod    string
	CardType         string
	OwnershipType    string
	AllocationTarget string

	// Date is a calendar date at UTC midnight. No time-of-day or timezone
	// arithmetic happens past the boundary.
	Date struct {
		time.Time
	}

	// Card is a payment card configuration. ClosingDay and BillingDay are
	// optional days of month (1-31); a card with neither produces no invoices.
	Card struct {
		ID         string   `json:"id"`
		Name       string   `json:"name,omitempty"`
		ClosingDay *int     `json:"closing_day,omitempty"`
		BillingDay *int     `json:"billing_day,omitempty"`
		IsActive   bool     `json:"is_active"`
		Type       CardType `json:"type"`
	}

	// CostCenter is a household member or a pooled organization bucket.
	CostCenter struct {
		ID                     string          `json:"id"`
		Name                   string          `json:"name"`
		IsShared               bool            `json:"is_shared"`
		DefaultSplitPercentage decimal.Decimal `json:"default_split_percentage"`
		IsActive               bool            `json:"is_active"`
	}

	// Split is an explicit attribution of part of an amount. Amount is
	// authoritative; Percentage is informational.
	Split struct {
		CostCenterID string          `json:"cost_center_id"`
		Percentage   decimal.Decimal `json:"percentage"`
		Amount       Money           `json:"amount"`
	}

	// Expense is a confirmed outflow. CardID is set only for credit card
	// payments; CostCenterID is empty when the expense is not directly
	// attributed.
	Expense struct {
		ID            string        `json:"id"`
		Date          Date          `json:"date"`
		Description   string        `json:"description,omitempty"`
		Amount        Money         `json:"amount"`
		PaymentMethod PaymentMethod `json:"payment_method"`
		CardID        string        `json:"card_id,omitempty"`
		CostCenterID  string        `json:"cost_center_id,omitempty"`
		Splits        []Split       `json:"splits,omitempty"`
	}

	// Allocation is a contribution ("aporte") covering individual or shared
	// expenses.
	Allocation struct {
		ID               string           `json:"id"`
		Date             Date             `json:"date"`
		Description      string           `json:"description,omitempty"`
		Amount           Money            `json:"amount"`
		OwnershipType    OwnershipType    `json:"ownership_type"`
		AllocationTarget AllocationTarget `json:"allocation_target"`
		CostCenterID     string           `json:"cost_center_id,omitempty"`
		Splits           []Split          `json:"splits,omitempty"`
	}
)

var (
	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrMissingID     = errors.New("missing id")
	ErrMissingCard   = errors.New("credit card expense without card")
)

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Between reports whether from <= d <= to.
func (d Date) Between(from, to Date) bool {
	return !d.Before(from.Time) && !d.After(to.Time)
}

// MonthRange returns the first and last day of a calendar month.
func MonthRange(year int, month time.Month) (Date, Date) {
	first := NewDate(year, month, 1)
	last := Date{Time: first.AddDate(0, 1, -1)}
	return first, last
}

// ValidMonth reports whether m is January..December.
func ValidMonth(m time.Month) bool {
	return m >= time.January && m <= time.December
}

func (c Card) IsCredit() bool { return c.Type == CardCredit }

func (c Card) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrMissingID
	}
	for _, day := range []*int{c.ClosingDay, c.BillingDay} {
		if day != nil && (*day < 1 || *day > 31) {
			return ErrInvalidDay
		}
	}
	return nil
}

func (e Expense) IsCredit() bool { return e.PaymentMethod == PaymentCreditCard }

// Validate checks the shape rules of an expense record. The closing engine
// does not call it; it is for the layers that produce records.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrMissingID
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if e.IsCredit() && strings.TrimSpace(e.CardID) == "" {
		return ErrMissingCard
	}
	return nil
}

func (a Allocation) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrMissingID
	}
	if a.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IntPtr is a helper for optional day fields.
func IntPtr(v int) *int { return &v }
