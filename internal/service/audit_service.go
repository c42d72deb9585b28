package service

import (
	"context"
	"log"

	"github.com/cognisync/cognisync-api/internal/cryptox"
	"github.com/cognisync/cognisync-api/internal/domain"
	"github.com/cognisync/cognisync-api/internal/repository"
	"github.com/google/uuid"
)

// AuditService appends immutable audit rows. Recording is best-effort: a
// failed append is logged and swallowed so audit trouble never breaks the
// operation being audited.
type AuditService struct {
	repo   repository.AuditRepository
	cipher *cryptox.FieldCipher
}

func NewAuditService(repo repository.AuditRepository, cipher *cryptox.FieldCipher) *AuditService {
	return &AuditService{repo: repo, cipher: cipher}
}

// Record appends one entry. userID may be nil for system actions.
func (s *AuditService) Record(ctx context.Context, userID *uuid.UUID, actor, action, resourceType, resourceID, outcome, detail string) {
	if detail != "" && s.cipher != nil {
		encrypted, err := s.cipher.EncryptField(detail)
		if err != nil {
			log.Printf("ERROR [audit.Record] detail encryption failed: %v", err)
			detail = ""
		} else {
			detail = encrypted
		}
	}

	entry := &domain.AuditEntry{
		ID:           uuid.New(),
		UserID:       userID,
		Actor:        actor,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Outcome:      outcome,
		Detail:       detail,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		log.Printf("ERROR [audit.Record] append failed for action %s: %v", action, err)
	}
}

// List returns recent entries, newest first. Admin only; details are
// decrypted for the reader when possible.
func (s *AuditService) List(ctx context.Context, user *domain.User, limit, offset int) ([]*domain.AuditEntry, error) {
	if !user.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	entries, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	if s.cipher != nil {
		for _, entry := range entries {
			if entry.Detail == "" {
				continue
			}
			if plaintext, err := s.cipher.DecryptField(entry.Detail); err == nil {
				entry.Detail = plaintext
			}
		}
	}

	return entries, nil
}
