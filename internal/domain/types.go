package domain

import "strings"

// ParseCategoryType accepts any casing ("income", "INCOME").
func ParseCategoryType(s string) (CategoryType, bool) {
	t := CategoryType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TypeIncome, TypeExpense, TypeSavings:
		return t, true
	}
	return "", false
}

// TreeKey is the lower-case bucket name used in CategoryTree.
func (t CategoryType) TreeKey() string {
	return strings.ToLower(string(t))
}

func ParseAssetType(s string) (AssetType, bool) {
	t := AssetType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case AssetBank, AssetCash, AssetInvestment, AssetGold, AssetCrypto, AssetOther:
		return t, true
	}
	return "", false
}

func ParseLiabilityType(s string) (LiabilityType, bool) {
	t := LiabilityType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case LiabilityLoan, LiabilityCreditCard, LiabilityOther:
		return t, true
	}
	return "", false
}
