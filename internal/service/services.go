package service

import (
	"github.com/cognisync/cognisync-api/internal/analysis"
	"github.com/cognisync/cognisync-api/internal/config"
	"github.com/cognisync/cognisync-api/internal/cryptox"
	"github.com/cognisync/cognisync-api/internal/filestore"
	"github.com/cognisync/cognisync-api/internal/repository"
)

type Services struct {
	Auth      *AuthService
	Session   *SessionService
	Audit     *AuditService
	Retention *RetentionService
}

func NewServices(
	repos *repository.Repositories,
	files filestore.Store,
	cipher *cryptox.FieldCipher,
	analyzer analysis.Analyzer,
	cfg *config.Config,
) *Services {
	audit := NewAuditService(repos.Audit, cipher)
	retention := NewRetentionService(repos.Session, files, audit, cfg)

	return &Services{
		Auth:      NewAuthService(repos.User, audit, cfg),
		Session:   NewSessionService(repos.Session, files, cipher, analyzer, audit, retention, cfg),
		Audit:     audit,
		Retention: retention,
	}
}
