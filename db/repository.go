package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CredentialRepository defines decoupled operations for credential persistence.
type CredentialRepository interface {
	Get(ctx context.Context) (*CredentialRecord, error)
	Upsert(ctx context.Context, record *CredentialRecord) error
	Clear(ctx context.Context) error
}

// gormCredentialRepo is a GORM-backed implementation of CredentialRepository.
// Use constructor NewCredentialRepository to obtain an instance.
type gormCredentialRepo struct{ db *gorm.DB }

// NewCredentialRepository creates a CredentialRepository. Accepts *gorm.DB to avoid global access.
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &gormCredentialRepo{db: db}
}

func (r *gormCredentialRepo) Get(ctx context.Context) (*CredentialRecord, error) {
	if r.db == nil {
		return nil, fmt.Errorf("repository not initialized")
	}
	var record CredentialRecord
	err := r.db.WithContext(ctx).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *gormCredentialRepo) Upsert(ctx context.Context, record *CredentialRecord) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	record.ID = 1
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "updated_at"}),
	}).Create(record).Error
}

func (r *gormCredentialRepo) Clear(ctx context.Context) error {
	if r.db == nil {
		return fmt.Errorf("repository not initialized")
	}
	return r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&CredentialRecord{}).Error
}
