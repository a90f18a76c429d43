// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CategoryType string

const (
	TypeIncome  CategoryType = "INCOME"
	TypeExpense CategoryType = "EXPENSE"
	TypeSavings CategoryType = "SAVINGS"
)

// CategoryTypes is the fixed order used for trees and seeding.
var CategoryTypes = []CategoryType{TypeIncome, TypeExpense, TypeSavings}

type AssetType string

const (
	AssetBank       AssetType = "BANK"
	AssetCash       AssetType = "CASH"
	AssetInvestment AssetType = "INVESTMENT"
	AssetGold       AssetType = "GOLD"
	AssetCrypto     AssetType = "CRYPTO"
	AssetOther      AssetType = "OTHER"
)

type LiabilityType string

const (
	LiabilityLoan       LiabilityType = "LOAN"
	LiabilityCreditCard LiabilityType = "CREDIT_CARD"
	LiabilityOther      LiabilityType = "OTHER"
)

// PaymentModeCredit is the only payment mode that keeps a card label.
const PaymentModeCredit = "credit"

type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Name         *string   `gorm:"size:255" json:"name"`
	Age          *int      `json:"age"`
	Gender       *string   `gorm:"size:32" json:"gender"`
	Phone        *string   `gorm:"size:32" json:"phone"`
	Photo        *string   `json:"photo"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Category struct {
	ID            int64         `gorm:"primaryKey" json:"id"`
	UserID        int64         `gorm:"not null;uniqueIndex:idx_categories_user_type_name,priority:1" json:"-"`
	Type          CategoryType  `gorm:"size:16;not null;uniqueIndex:idx_categories_user_type_name,priority:2" json:"type"`
	Name          string        `gorm:"size:255;not null;uniqueIndex:idx_categories_user_type_name,priority:3" json:"name"`
	CreatedAt     time.Time     `json:"createdAt"`
	SubCategories []SubCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"subcategories"`
}

type SubCategory struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	UserID     int64     `gorm:"not null;uniqueIndex:idx_sub_categories_user_category_name,priority:1" json:"-"`
	CategoryID int64     `gorm:"not null;uniqueIndex:idx_sub_categories_user_category_name,priority:2" json:"categoryId"`
	Name       string    `gorm:"size:255;not null;uniqueIndex:idx_sub_categories_user_category_name,priority:3" json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (SubCategory) TableName() string { return "sub_categories" }

type Transaction struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	UserID        int64           `gorm:"not null;index:idx_transactions_user_date,priority:1" json:"-"`
	Date          time.Time       `gorm:"type:date;not null;index:idx_transactions_user_date,priority:2" json:"date"`
	Type          CategoryType    `gorm:"size:16;not null" json:"type"`
	CategoryID    *int64          `gorm:"index" json:"categoryId"`
	SubCategoryID *int64          `gorm:"column:sub_category_id;index" json:"subcategoryId"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	PaymentMode   string          `gorm:"size:32;not null" json:"paymentMode"`
	Card          *string         `gorm:"size:64" json:"card"`
	Description   *string         `json:"description"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`

	Category    *Category    `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	SubCategory *SubCategory `gorm:"foreignKey:SubCategoryID;constraint:OnDelete:SET NULL" json:"subcategory,omitempty"`
}

type Asset struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	UserID    int64           `gorm:"not null;index" json:"-"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Type      AssetType       `gorm:"size:16;not null" json:"type"`
	Value     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"value"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type Liability struct {
	ID        int64           `gorm:"primaryKey" json:"id"`
	UserID    int64           `gorm:"not null;index" json:"-"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Type      LiabilityType   `gorm:"size:16;not null" json:"type"`
	Value     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"value"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func (Liability) TableName() string { return "liabilities" }

// CategoryTree is the name-keyed view the category editor works with:
// lower-case type -> category name -> subcategory names.
type CategoryTree map[string]map[string][]string

// NewCategoryTree returns a tree with the three type buckets present.
func NewCategoryTree() CategoryTree {
	return CategoryTree{"income": {}, "expense": {}, "savings": {}}
}
