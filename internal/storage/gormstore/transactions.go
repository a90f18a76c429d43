package gormstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"networth-tracker/internal/domain"
	"networth-tracker/internal/storage"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func withRefs(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("SubCategory")
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("date DESC").Order("id DESC")
}

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func filterScope(userID int64, f storage.TransactionFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", userID)
		if f.From != nil {
			db = db.Where("date >= ?", *f.From)
		}
		if f.To != nil {
			db = db.Where("date <= ?", *f.To)
		}
		if f.Type != nil {
			db = db.Where("type = ?", *f.Type)
		}
		if f.CategoryID != nil {
			db = db.Where("category_id = ?", *f.CategoryID)
		}
		if f.SubCategoryID != nil {
			db = db.Where("sub_category_id = ?", *f.SubCategoryID)
		}
		if f.PaymentMode != "" {
			db = db.Where("payment_mode = ?", f.PaymentMode)
		}
		if q := strings.TrimSpace(f.Search); q != "" {
			like := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
			db = db.Where(`(LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\' OR LOWER(COALESCE(card, '')) LIKE ? ESCAPE '\')`, like, like)
		}
		return db
	}
}

func (s *Storage) ListTransactions(ctx context.Context, userID int64, f storage.TransactionFilter) ([]domain.Transaction, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&domain.Transaction{}).Scopes(filterScope(userID, f)).Count(&total).Error; err != nil {
		return nil, 0, translate("count transactions", err)
	}

	q := newestFirst(withRefs(db).Scopes(filterScope(userID, f)))
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	} else {
		page, size := normalizePage(f.Page, f.PageSize)
		q = q.Offset((page - 1) * size).Limit(size)
	}

	var txs []domain.Transaction
	if err := q.Find(&txs).Error; err != nil {
		return nil, 0, translate("list transactions", err)
	}
	return txs, total, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > storage.MaxPage {
		page = storage.MaxPage
	}
	if size < 1 {
		size = storage.DefaultPageSize
	}
	if size > storage.MaxPageSize {
		size = storage.MaxPageSize
	}
	return page, size
}

func (s *Storage) GetTransaction(ctx context.Context, userID, id int64) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := withRefs(s.db.WithContext(ctx)).Where("id = ? AND user_id = ?", id, userID).First(&t).Error; err != nil {
		return nil, translate("get transaction", err)
	}
	return &t, nil
}

// checkRefs enforces that category and subcategory belong to the owner,
// that they belong to each other and that the category type matches.
func checkRefs(tx *gorm.DB, t *domain.Transaction) error {
	if t.SubCategoryID != nil && t.CategoryID == nil {
		var sc domain.SubCategory
		if err := tx.Where("id = ? AND user_id = ?", *t.SubCategoryID, t.UserID).First(&sc).Error; err != nil {
			return fmt.Errorf("subcategory %d: %w", *t.SubCategoryID, domain.ErrInvalidReference)
		}
		t.CategoryID = &sc.CategoryID
	}
	if t.CategoryID == nil {
		return nil
	}

	var c domain.Category
	if err := tx.Where("id = ? AND user_id = ?", *t.CategoryID, t.UserID).First(&c).Error; err != nil {
		return fmt.Errorf("category %d: %w", *t.CategoryID, domain.ErrInvalidReference)
	}
	if c.Type != t.Type {
		return fmt.Errorf("category %d is %s: %w", c.ID, c.Type, domain.ErrTypeMismatch)
	}

	if t.SubCategoryID != nil {
		var sc domain.SubCategory
		err := tx.Where("id = ? AND user_id = ? AND category_id = ?", *t.SubCategoryID, t.UserID, c.ID).First(&sc).Error
		if err != nil {
			return fmt.Errorf("subcategory %d: %w", *t.SubCategoryID, domain.ErrInvalidReference)
		}
	}
	return nil
}

func normalizeTransaction(t *domain.Transaction) {
	t.Amount = t.Amount.Round(2)
	t.Date = time.Date(t.Date.Year(), t.Date.Month(), t.Date.Day(), 0, 0, 0, 0, time.UTC)
	if t.PaymentMode != domain.PaymentModeCredit {
		t.Card = nil
	}
}

func (s *Storage) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	normalizeTransaction(t)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkRefs(tx, t); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(t).Error; err != nil {
			return translate("insert transaction", err)
		}
		if err := withRefs(tx).First(t, t.ID).Error; err != nil {
			return translate("reload transaction", err)
		}
		return nil
	})
}

// UpdateTransaction replaces every editable field of an owned transaction.
func (s *Storage) UpdateTransaction(ctx context.Context, t *domain.Transaction) error {
	normalizeTransaction(t)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkRefs(tx, t); err != nil {
			return err
		}
		res := tx.Model(&domain.Transaction{}).Where("id = ? AND user_id = ?", t.ID, t.UserID).
			Updates(map[string]any{
				"date":            t.Date,
				"type":            t.Type,
				"category_id":     t.CategoryID,
				"sub_category_id": t.SubCategoryID,
				"amount":          t.Amount,
				"payment_mode":    t.PaymentMode,
				"card":            t.Card,
				"description":     t.Description,
			})
		if res.Error != nil {
			return translate("update transaction", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("update transaction: %w", domain.ErrNotFound)
		}
		if err := withRefs(tx).First(t, t.ID).Error; err != nil {
			return translate("reload transaction", err)
		}
		return nil
	})
}

func (s *Storage) DeleteTransaction(ctx context.Context, userID, id int64) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Transaction{})
	if res.Error != nil {
		return translate("delete transaction", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete transaction: %w", domain.ErrNotFound)
	}
	return nil
}

func (s *Storage) RecentTransactions(ctx context.Context, userID int64, n int) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	err := newestFirst(withRefs(s.db.WithContext(ctx))).Where("user_id = ?", userID).Limit(n).Find(&txs).Error
	if err != nil {
		return nil, translate("recent transactions", err)
	}
	return txs, nil
}

func (s *Storage) TransactionsBetween(ctx context.Context, userID int64, from, to time.Time, typ *domain.CategoryType) ([]domain.Transaction, error) {
	q := s.db.WithContext(ctx).Preload("Category").
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to)
	if typ != nil {
		q = q.Where("type = ?", *typ)
	}
	var txs []domain.Transaction
	if err := q.Order("date ASC").Order("id ASC").Find(&txs).Error; err != nil {
		return nil, translate("transactions between", err)
	}
	return txs, nil
}
