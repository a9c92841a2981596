package memory

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"fechamento/internal/core"
	applog "fechamento/internal/log"
)

// Seed is the YAML layout accepted by NewFromFile. Amounts, percentages and
// dates are strings so they parse exactly. Missing or malformed amounts and
// percentages load as zero; malformed dates reject the seed.
type Seed struct {
	Cards       []seedCard       `yaml:"cards"`
	CostCenters []seedCostCenter `yaml:"cost_centers"`
	Expenses    []seedExpense    `yaml:"expenses"`
	Allocations []seedAllocation `yaml:"allocations"`
}

type seedCard struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	ClosingDay *int   `yaml:"closing_day"`
	BillingDay *int   `yaml:"billing_day"`
	IsActive   *bool  `yaml:"is_active"`
	Type       string `yaml:"type"`
}

type seedCostCenter struct {
	ID                     string `yaml:"id"`
	Name                   string `yaml:"name"`
	IsShared               bool   `yaml:"is_shared"`
	DefaultSplitPercentage string `yaml:"default_split_percentage"`
	IsActive               *bool  `yaml:"is_active"`
}

type seedSplit struct {
	CostCenterID string `yaml:"cost_center_id"`
	Percentage   string `yaml:"percentage"`
	Amount       string `yaml:"amount"`
}

type seedExpense struct {
	ID            string      `yaml:"id"`
	Date          string      `yaml:"date"`
	Description   string      `yaml:"description"`
	Amount        string      `yaml:"amount"`
	PaymentMethod string      `yaml:"payment_method"`
	CardID        string      `yaml:"card_id"`
	CostCenterID  string      `yaml:"cost_center_id"`
	Splits        []seedSplit `yaml:"splits"`
}

type seedAllocation struct {
	ID               string      `yaml:"id"`
	Date             string      `yaml:"date"`
	Description      string      `yaml:"description"`
	Amount           string      `yaml:"amount"`
	OwnershipType    string      `yaml:"ownership_type"`
	AllocationTarget string      `yaml:"allocation_target"`
	CostCenterID     string      `yaml:"cost_center_id"`
	Splits           []seedSplit `yaml:"splits"`
}

// NewFromFile builds a store from a YAML seed file.
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	s := New()
	if err := s.LoadSeed(data); err != nil {
		return nil, fmt.Errorf("load seed %s: %w", path, err)
	}
	return s, nil
}

// LoadSeed parses YAML seed data and adds every record to the store.
func (s *Store) LoadSeed(data []byte) error {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	for _, c := range seed.Cards {
		if err := s.AddCard(core.Card{
			ID:         c.ID,
			Name:       c.Name,
			ClosingDay: c.ClosingDay,
			BillingDay: c.BillingDay,
			IsActive:   boolOr(c.IsActive, true),
			Type:       core.CardType(c.Type),
		}); err != nil {
			return fmt.Errorf("card %q: %w", c.ID, err)
		}
	}

	for _, cc := range seed.CostCenters {
		pct := percentOrZero("cost center "+cc.ID, cc.DefaultSplitPercentage)
		s.AddCostCenter(core.CostCenter{
			ID:                     cc.ID,
			Name:                   cc.Name,
			IsShared:               cc.IsShared,
			DefaultSplitPercentage: pct,
			IsActive:               boolOr(cc.IsActive, true),
		})
	}

	for _, e := range seed.Expenses {
		date, amount, splits, err := parseRecord("expense "+e.ID, e.Date, e.Amount, e.Splits)
		if err != nil {
			return fmt.Errorf("expense %q: %w", e.ID, err)
		}
		if err := s.AddExpense(core.Expense{
			ID:            e.ID,
			Date:          date,
			Description:   e.Description,
			Amount:        amount,
			PaymentMethod: core.PaymentMethod(e.PaymentMethod),
			CardID:        e.CardID,
			CostCenterID:  e.CostCenterID,
			Splits:        splits,
		}); err != nil {
			return fmt.Errorf("expense %q: %w", e.ID, err)
		}
	}

	for _, a := range seed.Allocations {
		date, amount, splits, err := parseRecord("allocation "+a.ID, a.Date, a.Amount, a.Splits)
		if err != nil {
			return fmt.Errorf("allocation %q: %w", a.ID, err)
		}
		if err := s.AddAllocation(core.Allocation{
			ID:               a.ID,
			Date:             date,
			Description:      a.Description,
			Amount:           amount,
			OwnershipType:    core.OwnershipType(a.OwnershipType),
			AllocationTarget: core.AllocationTarget(a.AllocationTarget),
			CostCenterID:     a.CostCenterID,
			Splits:           splits,
		}); err != nil {
			return fmt.Errorf("allocation %q: %w", a.ID, err)
		}
	}
	return nil
}

func parseRecord(record, date, amount string, splits []seedSplit) (core.Date, core.Money, []core.Split, error) {
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Date{}, core.Money{}, nil, err
	}
	var out []core.Split
	for i, sp := range splits {
		where := fmt.Sprintf("%s split %d", record, i)
		out = append(out, core.Split{
			CostCenterID: sp.CostCenterID,
			Percentage:   percentOrZero(where, sp.Percentage),
			Amount:       amountOrZero(where, sp.Amount),
		})
	}
	return d, amountOrZero(record, amount), out, nil
}

// amountOrZero parses s as money. Empty input is zero; malformed input is
// zero with a warning.
func amountOrZero(record, s string) core.Money {
	if strings.TrimSpace(s) == "" {
		return core.Money{}
	}
	m, err := core.ParseMoney(s)
	if err != nil {
		warnMalformed(record, "amount", s)
		return core.Money{}
	}
	return m
}

func percentOrZero(record, s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		warnMalformed(record, "percentage", s)
		return decimal.Zero
	}
	return d
}

func warnMalformed(record, field, value string) {
	slog.Warn("Malformed seed value treated as zero",
		applog.FieldComponent, applog.ComponentSheets,
		"record", record,
		"field", field,
		"value", value)
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
