package validator

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Date   string           `json:"date" validate:"required,isodate"`
	Type   string           `json:"type" validate:"required,categorytype"`
	Name   string           `json:"name" validate:"omitempty,notblank"`
	Amount *decimal.Decimal `json:"amount" validate:"required,cents,dpositive"`
	Value  *decimal.Decimal `json:"value" validate:"omitempty,cents,dnonnegative"`
	Secret string           `json:"password" validate:"omitempty,bcryptmax"`
	Asset  string           `json:"assetType" validate:"omitempty,assettype"`
	Debt   string           `json:"liabilityType" validate:"omitempty,liabilitytype"`
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func failedTags(t *testing.T, err error) map[string]string {
	t.Helper()
	out := map[string]string{}
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

func TestValidate_CustomTags(t *testing.T) {
	tests := []struct {
		name string
		in   sample
		want map[string]string
	}{
		{
			name: "valid",
			in:   sample{Date: "2024-02-29", Type: "expense", Amount: dec("10.50"), Value: dec("0"), Asset: "GOLD", Debt: "credit_card"},
			want: map[string]string{},
		},
		{
			name: "missing required fields use json names",
			in:   sample{},
			want: map[string]string{"date": "required", "type": "required", "amount": "required"},
		},
		{
			name: "bad date",
			in:   sample{Date: "2024-13-01", Type: "INCOME", Amount: dec("1")},
			want: map[string]string{"date": "isodate"},
		},
		{
			name: "unknown type",
			in:   sample{Date: "2024-01-01", Type: "TRANSFER", Amount: dec("1")},
			want: map[string]string{"type": "categorytype"},
		},
		{
			name: "blank name",
			in:   sample{Date: "2024-01-01", Type: "SAVINGS", Amount: dec("1"), Name: "   "},
			want: map[string]string{"name": "notblank"},
		},
		{
			name: "zero amount",
			in:   sample{Date: "2024-01-01", Type: "SAVINGS", Amount: dec("0")},
			want: map[string]string{"amount": "dpositive"},
		},
		{
			name: "negative value",
			in:   sample{Date: "2024-01-01", Type: "SAVINGS", Amount: dec("1"), Value: dec("-0.01")},
			want: map[string]string{"value": "dnonnegative"},
		},
		{
			name: "sub-cent amount",
			in:   sample{Date: "2024-01-01", Type: "EXPENSE", Amount: dec("0.001")},
			want: map[string]string{"amount": "cents"},
		},
		{
			name: "trailing zeros are fine",
			in:   sample{Date: "2024-01-01", Type: "EXPENSE", Amount: dec("12.500"), Value: dec("3.10")},
			want: map[string]string{},
		},
		{
			name: "sub-cent value",
			in:   sample{Date: "2024-01-01", Type: "EXPENSE", Amount: dec("1"), Value: dec("0.005")},
			want: map[string]string{"value": "cents"},
		},
		{
			name: "password length counts bytes",
			in:   sample{Date: "2024-01-01", Type: "EXPENSE", Amount: dec("1"), Secret: strings.Repeat("é", 40)},
			want: map[string]string{"password": "bcryptmax"},
		},
		{
			name: "password at the byte limit",
			in:   sample{Date: "2024-01-01", Type: "EXPENSE", Amount: dec("1"), Secret: strings.Repeat("a", MaxPasswordBytes)},
			want: map[string]string{},
		},
		{
			name: "bad enums",
			in:   sample{Date: "2024-01-01", Type: "SAVINGS", Amount: dec("1"), Asset: "HOUSE", Debt: "MORTGAGE"},
			want: map[string]string{"assetType": "assettype", "liabilityType": "liabilitytype"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failedTags(t, Validate.Struct(tt.in)))
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-03-15 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("15/03/2024")
	assert.Error(t, err)
}
