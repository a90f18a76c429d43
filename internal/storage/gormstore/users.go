package gormstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"networth-tracker/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Storage) CreateUserWithDefaults(ctx context.Context, user *domain.User, defaults domain.CategoryTree) error {
	user.Email = NormalizeEmail(user.Email)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insert user: %w", domain.ErrEmailTaken)
			}
			return fmt.Errorf("insert user: %w", err)
		}
		if err := seedTree(tx, user.ID, defaults); err != nil {
			return fmt.Errorf("seed categories: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Debug("user created", "user_id", user.ID)
	return nil
}

// seedTree inserts the tree, leaving any existing (type, name) rows untouched.
func seedTree(tx *gorm.DB, userID int64, tree domain.CategoryTree) error {
	cats := treeCategories(userID, tree)
	if len(cats) == 0 {
		return nil
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&cats, 200).Error; err != nil {
		return fmt.Errorf("insert categories: %w", err)
	}

	var stored []domain.Category
	if err := tx.Where("user_id = ?", userID).Find(&stored).Error; err != nil {
		return fmt.Errorf("reload categories: %w", err)
	}

	subs := treeSubCategories(userID, tree, categoryIndex(stored))
	if len(subs) == 0 {
		return nil
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&subs, 200).Error; err != nil {
		return fmt.Errorf("insert subcategories: %w", err)
	}
	return nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	if err != nil {
		return nil, translate("find user by email", err)
	}
	return &u, nil
}

func (s *Storage) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate("find user", err)
	}
	return &u, nil
}

// UpdateUser saves profile fields and the password hash; email is immutable.
func (s *Storage) UpdateUser(ctx context.Context, user *domain.User) error {
	res := s.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", user.ID).
		Select("password_hash", "name", "age", "gender", "phone", "photo", "updated_at").
		Updates(user)
	if res.Error != nil {
		return translate("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update user: %w", domain.ErrNotFound)
	}
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
