package postgres

import (
	"github.com/cognisync/cognisync-api/internal/domain"
	"github.com/cognisync/cognisync-api/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// AutoMigrate is additive and idempotent; safe against an
	// already-migrated schema.
	err = db.AutoMigrate(
		&domain.User{},
		&domain.SessionRecord{},
		&domain.AuditEntry{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:    NewUserRepository(db),
		Session: NewSessionRecordRepository(db),
		Audit:   NewAuditRepository(db),
	}
}
