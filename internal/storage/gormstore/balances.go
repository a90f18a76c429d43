package gormstore

import (
	"context"
	"strings"

	"networth-tracker/internal/domain"

	"gorm.io/gorm"
)

// updateOwned applies values to the row with id owned by userID and reloads it into dest.
func updateOwned(tx *gorm.DB, dest any, userID, id int64, values map[string]any) error {
	res := tx.Model(dest).Where("id = ? AND user_id = ?", id, userID).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return tx.First(dest, id).Error
}

func deleteOwned(db *gorm.DB, model any, userID, id int64) error {
	res := db.Where("id = ? AND user_id = ?", id, userID).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Storage) ListAssets(ctx context.Context, userID int64) ([]domain.Asset, error) {
	var assets []domain.Asset
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC, id ASC").Find(&assets).Error; err != nil {
		return nil, translate("list assets", err)
	}
	return assets, nil
}

func (s *Storage) CreateAsset(ctx context.Context, a *domain.Asset) error {
	a.Name = strings.TrimSpace(a.Name)
	a.Value = a.Value.Round(2)
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return translate("insert asset", err)
	}
	return nil
}

func (s *Storage) UpdateAsset(ctx context.Context, a *domain.Asset) error {
	a.Name = strings.TrimSpace(a.Name)
	a.Value = a.Value.Round(2)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return updateOwned(tx, a, a.UserID, a.ID, map[string]any{"name": a.Name, "type": a.Type, "value": a.Value})
	})
	if err != nil {
		return translate("update asset", err)
	}
	return nil
}

func (s *Storage) DeleteAsset(ctx context.Context, userID, id int64) error {
	if err := deleteOwned(s.db.WithContext(ctx), &domain.Asset{}, userID, id); err != nil {
		return translate("delete asset", err)
	}
	return nil
}

func (s *Storage) ListLiabilities(ctx context.Context, userID int64) ([]domain.Liability, error) {
	var ls []domain.Liability
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC, id ASC").Find(&ls).Error; err != nil {
		return nil, translate("list liabilities", err)
	}
	return ls, nil
}

func (s *Storage) CreateLiability(ctx context.Context, l *domain.Liability) error {
	l.Name = strings.TrimSpace(l.Name)
	l.Value = l.Value.Round(2)
	if err := s.db.WithContext(ctx).Create(l).Error; err != nil {
		return translate("insert liability", err)
	}
	return nil
}

func (s *Storage) UpdateLiability(ctx context.Context, l *domain.Liability) error {
	l.Name = strings.TrimSpace(l.Name)
	l.Value = l.Value.Round(2)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return updateOwned(tx, l, l.UserID, l.ID, map[string]any{"name": l.Name, "type": l.Type, "value": l.Value})
	})
	if err != nil {
		return translate("update liability", err)
	}
	return nil
}

func (s *Storage) DeleteLiability(ctx context.Context, userID, id int64) error {
	if err := deleteOwned(s.db.WithContext(ctx), &domain.Liability{}, userID, id); err != nil {
		return translate("delete liability", err)
	}
	return nil
}
