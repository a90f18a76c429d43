// Package analytics computes dashboard aggregates from already-loaded rows.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"networth-tracker/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	SeriesMonths    = 12
	DefaultTopLimit = 5
	MaxTopLimit     = 20
)

type Totals struct {
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
	NetWorth         decimal.Decimal `json:"netWorth"`
}

func Summarize(assets []domain.Asset, liabilities []domain.Liability) Totals {
	var t Totals
	for _, a := range assets {
		t.TotalAssets = t.TotalAssets.Add(a.Value)
	}
	for _, l := range liabilities {
		t.TotalLiabilities = t.TotalLiabilities.Add(l.Value)
	}
	t.NetWorth = t.TotalAssets.Sub(t.TotalLiabilities)
	return t
}

type NetWorthPoint struct {
	Month    string          `json:"month"`
	NetWorth decimal.Decimal `json:"netWorth"`
}

// NetWorthSeries returns twelve monthly points ending at now's month.
// No balance history is kept, so every point carries the current net worth.
func NetWorthSeries(now time.Time, netWorth decimal.Decimal) []NetWorthPoint {
	points := make([]NetWorthPoint, 0, SeriesMonths)
	for i := SeriesMonths - 1; i >= 0; i-- {
		m := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		points = append(points, NetWorthPoint{Month: MonthKey(m.Year(), m.Month()), NetWorth: netWorth})
	}
	return points
}

func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

type MonthSummary struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Savings decimal.Decimal `json:"savings"`
}

// MonthlyOverview buckets year's INCOME and EXPENSE rows by month.
// Savings is income minus expense; SAVINGS-typed rows are not counted.
func MonthlyOverview(year int, txs []domain.Transaction) []MonthSummary {
	months := make([]MonthSummary, 12)
	for i := range months {
		months[i].Month = MonthKey(year, time.Month(i+1))
	}

	for _, t := range txs {
		if t.Date.Year() != year {
			continue
		}
		m := &months[t.Date.Month()-1]
		switch t.Type {
		case domain.TypeIncome:
			m.Income = m.Income.Add(t.Amount)
		case domain.TypeExpense:
			m.Expense = m.Expense.Add(t.Amount)
		}
	}

	for i := range months {
		months[i].Savings = months[i].Income.Sub(months[i].Expense)
	}
	return months
}

type CategoryTotal struct {
	CategoryID int64           `json:"categoryId"`
	Name       string          `json:"name"`
	Total      decimal.Decimal `json:"total"`
}

// ClampTopLimit maps a requested limit onto [1, MaxTopLimit]; zero means the default.
func ClampTopLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultTopLimit
	case limit < 1:
		return 1
	case limit > MaxTopLimit:
		return MaxTopLimit
	}
	return limit
}

// TopCategories sums categorised EXPENSE rows per category, largest first.
func TopCategories(txs []domain.Transaction, limit int) []CategoryTotal {
	limit = ClampTopLimit(limit)

	byID := map[int64]*CategoryTotal{}
	for _, t := range txs {
		if t.Type != domain.TypeExpense || t.CategoryID == nil {
			continue
		}
		ct, ok := byID[*t.CategoryID]
		if !ok {
			ct = &CategoryTotal{CategoryID: *t.CategoryID}
			if t.Category != nil {
				ct.Name = t.Category.Name
			}
			byID[*t.CategoryID] = ct
		}
		ct.Total = ct.Total.Add(t.Amount)
	}

	out := make([]CategoryTotal, 0, len(byID))
	for _, ct := range byID {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CategoryID < out[j].CategoryID
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
