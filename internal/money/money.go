// Package money renders decimal amounts for people.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

var symbols = map[currency.Unit]string{
	currency.INR: "₹",
	currency.USD: "$",
	currency.EUR: "€",
}

var regionIndia = language.MustParseRegion("IN")

type Formatter struct {
	unit currency.Unit
	// lakh grouping: the last three digits, then pairs (12,34,567).
	lakh bool
}

func NewFormatter(unit currency.Unit, tag language.Tag) *Formatter {
	region, _ := tag.Region()
	return &Formatter{unit: unit, lakh: region == regionIndia}
}

// NewINR formats rupees with Indian digit grouping.
func NewINR() *Formatter {
	return NewFormatter(currency.INR, language.MustParse("en-IN"))
}

// Format renders d with two decimals, locale grouping and the currency symbol.
// It works on the decimal's digits, so large balances keep every paisa.
func (f *Formatter) Format(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	symbol, ok := symbols[f.unit]
	if !ok {
		symbol = f.unit.String() + " "
	}

	fixed := d.StringFixed(2)
	whole, frac := fixed[:len(fixed)-3], fixed[len(fixed)-2:]
	return sign + symbol + f.group(whole) + "." + frac
}

func (f *Formatter) group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	size := 3
	if f.lakh {
		size = 2
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	parts := []string{tail}
	for len(head) > size {
		parts = append(parts, head[len(head)-size:])
		head = head[:len(head)-size]
	}
	parts = append(parts, head)

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ",")
}
