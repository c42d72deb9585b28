package repository

import (
	"context"
	"time"

	"github.com/cognisync/cognisync-api/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type SessionRecordRepository interface {
	Create(ctx context.Context, rec *domain.SessionRecord) error
	GetBySessionID(ctx context.Context, sessionID string) (*domain.SessionRecord, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.SessionRecord, error)
	GetAll(ctx context.Context) ([]*domain.SessionRecord, error)
	Update(ctx context.Context, rec *domain.SessionRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	SessionIDExists(ctx context.Context, sessionID string) (bool, error)

	// Retention queries
	GetExpired(ctx context.Context, now time.Time) ([]*domain.SessionRecord, error)
	CountAll(ctx context.Context) (int64, error)
	CountScheduled(ctx context.Context) (int64, error)
	CountExpired(ctx context.Context, now time.Time) (int64, error)
	CountExpiringBetween(ctx context.Context, from, to time.Time) (int64, error)
}

type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	List(ctx context.Context, limit, offset int) ([]*domain.AuditEntry, error)
}

type Repositories struct {
	User    UserRepository
	Session SessionRecordRepository
	Audit   AuditRepository
}
