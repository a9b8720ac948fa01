package repository

import (
	"context"

	"gorm.io/gorm"

	"parking-gate-service/internal/model"
)

type GormGateEventRepository struct {
	db *gorm.DB
}

func NewGateEventRepository(db *gorm.DB) *GormGateEventRepository {
	return &GormGateEventRepository{db: db}
}

func (r *GormGateEventRepository) Create(ctx context.Context, event *model.GateEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}
