package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"parking-gate-service/internal/model"
)

type GormSessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) Create(ctx context.Context, session *model.ParkingSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *GormSessionRepository) Update(ctx context.Context, session *model.ParkingSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *GormSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ParkingSession, error) {
	var session model.ParkingSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *GormSessionRepository) FindOpenByPlate(ctx context.Context, normalizedPlate string) (*model.ParkingSession, error) {
	var session model.ParkingSession
	err := r.db.WithContext(ctx).
		Where("normalized_plate = ? AND status = ?", normalizedPlate, model.SessionStatusParking).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *GormSessionRepository) SearchByPlate(ctx context.Context, normalizedQuery string, limit int) ([]model.ParkingSession, error) {
	var sessions []model.ParkingSession
	err := r.db.WithContext(ctx).
		Where("normalized_plate LIKE ?", "%"+normalizedQuery+"%").
		Order("checkin_time DESC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

func (r *GormSessionRepository) FindInRange(ctx context.Context, start, end time.Time) ([]model.ParkingSession, error) {
	var sessions []model.ParkingSession
	err := r.db.WithContext(ctx).
		Where("checkin_time >= ? AND checkin_time <= ?", start, end).
		Order("checkin_time ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *GormSessionRepository) DeleteInRange(ctx context.Context, start, end time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("checkin_time >= ? AND checkin_time <= ?", start, end).
		Delete(&model.ParkingSession{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *GormSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ParkingSession{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
