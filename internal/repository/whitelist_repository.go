package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"parking-gate-service/internal/model"
)

type GormWhitelistRepository struct {
	db *gorm.DB
}

func NewWhitelistRepository(db *gorm.DB) *GormWhitelistRepository {
	return &GormWhitelistRepository{db: db}
}

func (r *GormWhitelistRepository) Create(ctx context.Context, entry *model.WhitelistEntry) error {
	var existing model.WhitelistEntry
	err := r.db.WithContext(ctx).
		Where("normalized_plate = ?", entry.NormalizedPlate).
		First(&existing).Error
	if err == nil {
		return ErrDuplicateEntry
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormWhitelistRepository) FindByPlate(ctx context.Context, normalizedPlate string) (*model.WhitelistEntry, error) {
	var entry model.WhitelistEntry
	err := r.db.WithContext(ctx).
		Where("normalized_plate = ?", normalizedPlate).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *GormWhitelistRepository) SearchByPlate(ctx context.Context, normalizedQuery string, limit int) ([]model.WhitelistEntry, error) {
	var entries []model.WhitelistEntry
	err := r.db.WithContext(ctx).
		Where("normalized_plate LIKE ?", "%"+normalizedQuery+"%").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *GormWhitelistRepository) List(ctx context.Context) ([]model.WhitelistEntry, error) {
	var entries []model.WhitelistEntry
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&entries).Error
	return entries, err
}

func (r *GormWhitelistRepository) DeleteByStoredPlate(ctx context.Context, storedPlate string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("plate = ?", storedPlate).
		Delete(&model.WhitelistEntry{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
