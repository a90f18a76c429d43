// internal/storage/storage.go
package storage

import (
	"context"
	"math"
	"time"

	"networth-tracker/internal/domain"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MaxPage keeps (page-1)*pageSize within int.
const MaxPage = math.MaxInt / MaxPageSize

type UserStorage interface {
	// CreateUserWithDefaults inserts the user and private copies of the default category tree atomically.
	CreateUserWithDefaults(ctx context.Context, user *domain.User, defaults domain.CategoryTree) error
	UserByEmail(ctx context.Context, email string) (*domain.User, error)
	UserByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
}

type CategoryStorage interface {
	ListCategories(ctx context.Context, userID int64, typ *domain.CategoryType) ([]domain.Category, error)
	GetCategory(ctx context.Context, userID, id int64) (*domain.Category, error)
	CreateCategory(ctx context.Context, c *domain.Category) error
	UpdateCategory(ctx context.Context, c *domain.Category) error
	DeleteCategory(ctx context.Context, userID, id int64) error
	// ReplaceCategoryTree swaps the whole tree in one transaction and re-links transactions by name.
	ReplaceCategoryTree(ctx context.Context, userID int64, tree domain.CategoryTree) ([]domain.Category, error)

	ListSubCategories(ctx context.Context, userID int64, categoryID *int64) ([]domain.SubCategory, error)
	GetSubCategory(ctx context.Context, userID, id int64) (*domain.SubCategory, error)
	CreateSubCategory(ctx context.Context, s *domain.SubCategory) error
	UpdateSubCategory(ctx context.Context, s *domain.SubCategory) error
	DeleteSubCategory(ctx context.Context, userID, id int64) error
}

type TransactionStorage interface {
	ListTransactions(ctx context.Context, userID int64, f TransactionFilter) ([]domain.Transaction, int64, error)
	GetTransaction(ctx context.Context, userID, id int64) (*domain.Transaction, error)
	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	UpdateTransaction(ctx context.Context, t *domain.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id int64) error
	RecentTransactions(ctx context.Context, userID int64, n int) ([]domain.Transaction, error)
	// TransactionsBetween returns rows with from <= date < to, category preloaded.
	TransactionsBetween(ctx context.Context, userID int64, from, to time.Time, typ *domain.CategoryType) ([]domain.Transaction, error)
}

type BalanceStorage interface {
	ListAssets(ctx context.Context, userID int64) ([]domain.Asset, error)
	CreateAsset(ctx context.Context, a *domain.Asset) error
	UpdateAsset(ctx context.Context, a *domain.Asset) error
	DeleteAsset(ctx context.Context, userID, id int64) error

	ListLiabilities(ctx context.Context, userID int64) ([]domain.Liability, error)
	CreateLiability(ctx context.Context, l *domain.Liability) error
	UpdateLiability(ctx context.Context, l *domain.Liability) error
	DeleteLiability(ctx context.Context, userID, id int64) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Storage is everything the HTTP layer needs from persistence.
type Storage interface {
	UserStorage
	CategoryStorage
	TransactionStorage
	BalanceStorage
	Pinger
}

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	From          *time.Time
	To            *time.Time
	Type          *domain.CategoryType
	CategoryID    *int64
	SubCategoryID *int64
	PaymentMode   string
	Search        string

	// Limit, when positive, returns the newest Limit rows and ignores paging.
	Limit    int
	Page     int
	PageSize int
}
