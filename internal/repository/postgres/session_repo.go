package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cognisync/cognisync-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type sessionRecordRepository struct {
	db *gorm.DB
}

func NewSessionRecordRepository(db *gorm.DB) *sessionRecordRepository {
	return &sessionRecordRepository{db: db}
}

func (r *sessionRecordRepository) Create(ctx context.Context, rec *domain.SessionRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *sessionRecordRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	var rec domain.SessionRecord
	err := r.db.WithContext(ctx).First(&rec, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *sessionRecordRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.SessionRecord, error) {
	var recs []*domain.SessionRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *sessionRecordRepository) GetAll(ctx context.Context) ([]*domain.SessionRecord, error) {
	var recs []*domain.SessionRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *sessionRecordRepository) Update(ctx context.Context, rec *domain.SessionRecord) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

func (r *sessionRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.SessionRecord{}, "id = ?", id).Error
}

func (r *sessionRecordRepository) SessionIDExists(ctx context.Context, sessionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.SessionRecord{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count > 0, err
}

func (r *sessionRecordRepository) GetExpired(ctx context.Context, now time.Time) ([]*domain.SessionRecord, error) {
	var recs []*domain.SessionRecord
	err := r.db.WithContext(ctx).
		Where("retention_until IS NOT NULL AND retention_until <= ?", now).
		Order("retention_until ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *sessionRecordRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.SessionRecord{}).Count(&count).Error
	return count, err
}

func (r *sessionRecordRepository) CountScheduled(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.SessionRecord{}).
		Where("retention_until IS NOT NULL").
		Count(&count).Error
	return count, err
}

func (r *sessionRecordRepository) CountExpired(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.SessionRecord{}).
		Where("retention_until IS NOT NULL AND retention_until <= ?", now).
		Count(&count).Error
	return count, err
}

func (r *sessionRecordRepository) CountExpiringBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.SessionRecord{}).
		Where("retention_until > ? AND retention_until <= ?", from, to).
		Count(&count).Error
	return count, err
}
