package gormstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"networth-tracker/internal/domain"

	"gorm.io/gorm"
)

type categoryKey struct {
	typ  domain.CategoryType
	name string
}

// treeCategories flattens tree into rows, skipping unknown types and blank or repeated names.
func treeCategories(userID int64, tree domain.CategoryTree) []domain.Category {
	var out []domain.Category
	for _, typ := range domain.CategoryTypes {
		seen := map[string]bool{}
		for _, name := range sortedNames(bucket(tree, typ)) {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, domain.Category{UserID: userID, Type: typ, Name: name})
		}
	}
	return out
}

func treeSubCategories(userID int64, tree domain.CategoryTree, idx map[categoryKey]int64) []domain.SubCategory {
	var out []domain.SubCategory
	for _, typ := range domain.CategoryTypes {
		b := bucket(tree, typ)
		seen := map[int64]map[string]bool{}
		for _, rawName := range sortedNames(b) {
			catID, ok := idx[categoryKey{typ, strings.TrimSpace(rawName)}]
			if !ok {
				continue
			}
			if seen[catID] == nil {
				seen[catID] = map[string]bool{}
			}
			for _, sub := range b[rawName] {
				sub = strings.TrimSpace(sub)
				if sub == "" || seen[catID][sub] {
					continue
				}
				seen[catID][sub] = true
				out = append(out, domain.SubCategory{UserID: userID, CategoryID: catID, Name: sub})
			}
		}
	}
	return out
}

// bucket collects the type's categories whatever the casing of the key.
// Keys that differ only in case ("expense", "EXPENSE") are merged.
func bucket(tree domain.CategoryTree, typ domain.CategoryType) map[string][]string {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		if t, ok := domain.ParseCategoryType(k); ok && t == typ {
			keys = append(keys, k)
		}
	}
	if len(keys) == 1 {
		return tree[keys[0]]
	}
	sort.Strings(keys)

	merged := map[string][]string{}
	for _, k := range keys {
		for name, subs := range tree[k] {
			merged[name] = append(merged[name], subs...)
		}
	}
	return merged
}

func sortedNames(m map[string][]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func categoryIndex(cats []domain.Category) map[categoryKey]int64 {
	idx := make(map[categoryKey]int64, len(cats))
	for _, c := range cats {
		idx[categoryKey{c.Type, c.Name}] = c.ID
	}
	return idx
}

func withSubCategories(db *gorm.DB) *gorm.DB {
	return db.Preload("SubCategories", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC, id ASC")
	})
}

func (s *Storage) ListCategories(ctx context.Context, userID int64, typ *domain.CategoryType) ([]domain.Category, error) {
	q := withSubCategories(s.db.WithContext(ctx)).Where("user_id = ?", userID)
	if typ != nil {
		q = q.Where("type = ?", *typ)
	}
	var cats []domain.Category
	if err := q.Order("type ASC, name ASC, id ASC").Find(&cats).Error; err != nil {
		return nil, translate("list categories", err)
	}
	return cats, nil
}

func (s *Storage) GetCategory(ctx context.Context, userID, id int64) (*domain.Category, error) {
	var c domain.Category
	err := withSubCategories(s.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", id, userID).First(&c).Error
	if err != nil {
		return nil, translate("get category", err)
	}
	return &c, nil
}

func (s *Storage) CreateCategory(ctx context.Context, c *domain.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := s.db.WithContext(ctx).Omit("SubCategories").Create(c).Error; err != nil {
		return translate("insert category", err)
	}
	c.SubCategories = []domain.SubCategory{}
	return nil
}

// UpdateCategory renames or retypes a category. Retyping is refused while transactions use it.
func (s *Storage) UpdateCategory(ctx context.Context, c *domain.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current domain.Category
		if err := tx.Where("id = ? AND user_id = ?", c.ID, c.UserID).First(&current).Error; err != nil {
			return translate("get category", err)
		}

		if current.Type != c.Type {
			var used int64
			if err := tx.Model(&domain.Transaction{}).Where("category_id = ?", c.ID).Count(&used).Error; err != nil {
				return fmt.Errorf("count category transactions: %w", err)
			}
			if used > 0 {
				return fmt.Errorf("retype category: %w", domain.ErrInUse)
			}
		}

		err := tx.Model(&domain.Category{}).Where("id = ? AND user_id = ?", c.ID, c.UserID).
			Updates(map[string]any{"type": c.Type, "name": c.Name}).Error
		if err != nil {
			return translate("update category", err)
		}

		if err := withSubCategories(tx).First(c, c.ID).Error; err != nil {
			return translate("reload category", err)
		}
		return nil
	})
}

func (s *Storage) DeleteCategory(ctx context.Context, userID, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c domain.Category
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&c).Error; err != nil {
			return translate("get category", err)
		}

		var used int64
		err := tx.Model(&domain.Transaction{}).
			Where("user_id = ? AND (category_id = ? OR sub_category_id IN (?))", userID, id,
				tx.Model(&domain.SubCategory{}).Select("id").Where("category_id = ?", id)).
			Count(&used).Error
		if err != nil {
			return fmt.Errorf("count category transactions: %w", err)
		}
		if used > 0 {
			return fmt.Errorf("delete category: %w", domain.ErrInUse)
		}

		if err := tx.Where("category_id = ? AND user_id = ?", id, userID).Delete(&domain.SubCategory{}).Error; err != nil {
			return fmt.Errorf("delete subcategories: %w", err)
		}
		if err := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Category{}).Error; err != nil {
			return translate("delete category", err)
		}
		return nil
	})
}

// detachedTx remembers where a transaction pointed before the tree was replaced.
type detachedTx struct {
	id      int64
	typ     domain.CategoryType
	name    string
	subName string
}

func (s *Storage) ReplaceCategoryTree(ctx context.Context, userID int64, tree domain.CategoryTree) ([]domain.Category, error) {
	var result []domain.Category

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old []domain.Category
		if err := tx.Preload("SubCategories").Where("user_id = ?", userID).Find(&old).Error; err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		catByID := make(map[int64]domain.Category, len(old))
		subByID := map[int64]string{}
		for _, c := range old {
			catByID[c.ID] = c
			for _, sc := range c.SubCategories {
				subByID[sc.ID] = sc.Name
			}
		}

		var linked []domain.Transaction
		err := tx.Select("id", "category_id", "sub_category_id").
			Where("user_id = ? AND category_id IS NOT NULL", userID).Find(&linked).Error
		if err != nil {
			return fmt.Errorf("load linked transactions: %w", err)
		}
		detached := make([]detachedTx, 0, len(linked))
		for _, t := range linked {
			c, ok := catByID[*t.CategoryID]
			if !ok {
				continue
			}
			d := detachedTx{id: t.ID, typ: c.Type, name: c.Name}
			if t.SubCategoryID != nil {
				d.subName = subByID[*t.SubCategoryID]
			}
			detached = append(detached, d)
		}

		err = tx.Model(&domain.Transaction{}).Where("user_id = ?", userID).
			UpdateColumns(map[string]any{"category_id": nil, "sub_category_id": nil}).Error
		if err != nil {
			return fmt.Errorf("detach transactions: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&domain.SubCategory{}).Error; err != nil {
			return fmt.Errorf("delete subcategories: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&domain.Category{}).Error; err != nil {
			return fmt.Errorf("delete categories: %w", err)
		}

		cats := treeCategories(userID, tree)
		if len(cats) > 0 {
			if err := tx.Omit("SubCategories").CreateInBatches(&cats, 200).Error; err != nil {
				return fmt.Errorf("insert categories: %w", err)
			}
		}

		var fresh []domain.Category
		if err := tx.Where("user_id = ?", userID).Find(&fresh).Error; err != nil {
			return fmt.Errorf("reload categories: %w", err)
		}
		idx := categoryIndex(fresh)

		subs := treeSubCategories(userID, tree, idx)
		if len(subs) > 0 {
			if err := tx.CreateInBatches(&subs, 200).Error; err != nil {
				return fmt.Errorf("insert subcategories: %w", err)
			}
		}
		subIdx := make(map[int64]map[string]int64)
		for _, sc := range subs {
			if subIdx[sc.CategoryID] == nil {
				subIdx[sc.CategoryID] = map[string]int64{}
			}
			subIdx[sc.CategoryID][sc.Name] = sc.ID
		}

		if err := relink(tx, detached, idx, subIdx); err != nil {
			return err
		}

		if err := withSubCategories(tx).Where("user_id = ?", userID).
			Order("type ASC, name ASC, id ASC").Find(&result).Error; err != nil {
			return fmt.Errorf("load new tree: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("category tree replaced", "user_id", userID, "categories", len(result))
	return result, nil
}

// relink points detached transactions at the new rows that carry the same names.
func relink(tx *gorm.DB, detached []detachedTx, idx map[categoryKey]int64, subIdx map[int64]map[string]int64) error {
	type target struct{ cat, sub int64 }
	groups := map[target][]int64{}
	for _, d := range detached {
		catID, ok := idx[categoryKey{d.typ, d.name}]
		if !ok {
			continue
		}
		t := target{cat: catID}
		if d.subName != "" {
			t.sub = subIdx[catID][d.subName]
		}
		groups[t] = append(groups[t], d.id)
	}

	for t, ids := range groups {
		values := map[string]any{"category_id": t.cat, "sub_category_id": nil}
		if t.sub != 0 {
			values["sub_category_id"] = t.sub
		}
		if err := tx.Model(&domain.Transaction{}).Where("id IN ?", ids).UpdateColumns(values).Error; err != nil {
			return fmt.Errorf("relink transactions: %w", err)
		}
	}
	return nil
}

func (s *Storage) ListSubCategories(ctx context.Context, userID int64, categoryID *int64) ([]domain.SubCategory, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	var subs []domain.SubCategory
	if err := q.Order("category_id ASC, name ASC, id ASC").Find(&subs).Error; err != nil {
		return nil, translate("list subcategories", err)
	}
	return subs, nil
}

func (s *Storage) GetSubCategory(ctx context.Context, userID, id int64) (*domain.SubCategory, error) {
	var sc domain.SubCategory
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&sc).Error; err != nil {
		return nil, translate("get subcategory", err)
	}
	return &sc, nil
}

// CreateSubCategory requires the parent category to belong to the same user.
func (s *Storage) CreateSubCategory(ctx context.Context, sc *domain.SubCategory) error {
	sc.Name = strings.TrimSpace(sc.Name)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent domain.Category
		if err := tx.Where("id = ? AND user_id = ?", sc.CategoryID, sc.UserID).First(&parent).Error; err != nil {
			return translate("get parent category", err)
		}
		if err := tx.Create(sc).Error; err != nil {
			return translate("insert subcategory", err)
		}
		return nil
	})
}

func (s *Storage) UpdateSubCategory(ctx context.Context, sc *domain.SubCategory) error {
	sc.Name = strings.TrimSpace(sc.Name)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.SubCategory{}).Where("id = ? AND user_id = ?", sc.ID, sc.UserID).
			Update("name", sc.Name)
		if res.Error != nil {
			return translate("update subcategory", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("update subcategory: %w", domain.ErrNotFound)
		}
		if err := tx.First(sc, sc.ID).Error; err != nil {
			return translate("reload subcategory", err)
		}
		return nil
	})
}

func (s *Storage) DeleteSubCategory(ctx context.Context, userID, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sc domain.SubCategory
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&sc).Error; err != nil {
			return translate("get subcategory", err)
		}

		var used int64
		if err := tx.Model(&domain.Transaction{}).Where("sub_category_id = ?", id).Count(&used).Error; err != nil {
			return fmt.Errorf("count subcategory transactions: %w", err)
		}
		if used > 0 {
			return fmt.Errorf("delete subcategory: %w", domain.ErrInUse)
		}

		if err := tx.Delete(&domain.SubCategory{}, id).Error; err != nil {
			return translate("delete subcategory", err)
		}
		return nil
	})
}
