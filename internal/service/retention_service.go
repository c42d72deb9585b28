package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cognisync/cognisync-api/internal/config"
	"github.com/cognisync/cognisync-api/internal/domain"
	"github.com/cognisync/cognisync-api/internal/filestore"
	"github.com/cognisync/cognisync-api/internal/repository"
)

// RetentionService enforces the data retention policy: every session record
// carries a delete-after date and expired records are wiped by a periodic
// cleanup run triggered outside this core (cmd/retention).
type RetentionService struct {
	sessionRepo repository.SessionRecordRepository
	files       filestore.Store
	audit       *AuditService
	cfg         *config.Config
}

func NewRetentionService(
	sessionRepo repository.SessionRecordRepository,
	files filestore.Store,
	audit *AuditService,
	cfg *config.Config,
) *RetentionService {
	return &RetentionService{
		sessionRepo: sessionRepo,
		files:       files,
		audit:       audit,
		cfg:         cfg,
	}
}

// DeleteAfter computes the retention deadline for a record created at the
// given time.
func (s *RetentionService) DeleteAfter(createdAt time.Time) time.Time {
	return createdAt.AddDate(s.cfg.RetentionYears, 0, 0)
}

// ScheduleRetention stamps (or re-stamps) the delete-after date on a record.
func (s *RetentionService) ScheduleRetention(ctx context.Context, sessionID string, createdAt time.Time) (time.Time, error) {
	rec, err := s.sessionRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return time.Time{}, err
	}

	deleteAfter := s.DeleteAfter(createdAt)
	rec.RetentionUntil = &deleteAfter
	if err := s.sessionRepo.Update(ctx, rec); err != nil {
		return time.Time{}, err
	}
	return deleteAfter, nil
}

type CleanupReport struct {
	DryRun   bool     `json:"dryRun"`
	Expired  []string `json:"expired"`
	Deleted  int      `json:"deleted"`
	Failures int      `json:"failures"`
}

// RunCleanup deletes every record whose delete-after date has passed. In
// dry-run mode it only reports. Safe to re-run: a pass with nothing expired
// is a no-op, and a file already gone does not fail the record's deletion.
func (s *RetentionService) RunCleanup(ctx context.Context, now time.Time, dryRun bool) (*CleanupReport, error) {
	expired, err := s.sessionRepo.GetExpired(ctx, now)
	if err != nil {
		return nil, err
	}

	report := &CleanupReport{DryRun: dryRun}
	for _, rec := range expired {
		report.Expired = append(report.Expired, rec.SessionID)
	}

	if dryRun {
		return report, nil
	}

	for _, rec := range expired {
		if err := s.deleteExpired(ctx, rec); err != nil {
			log.Printf("ERROR [retention.RunCleanup] %s: %v", rec.SessionID, err)
			report.Failures++
			continue
		}
		report.Deleted++
	}

	return report, nil
}

func (s *RetentionService) deleteExpired(ctx context.Context, rec *domain.SessionRecord) error {
	if rec.FilePath != "" {
		if err := s.files.SecureRemove(ctx, rec.FilePath); err != nil {
			return fmt.Errorf("secure wipe: %w", err)
		}
	}

	if err := s.sessionRepo.Delete(ctx, rec.ID); err != nil {
		return fmt.Errorf("row delete: %w", err)
	}

	s.audit.Record(ctx, nil, "system_retention_policy", domain.ActionRetentionCleanup,
		"therapy_session", rec.SessionID, domain.OutcomeSuccess, "expired record wiped")
	return nil
}

type RetentionStats struct {
	TotalSessions    int64 `json:"totalSessions"`
	WithRetention    int64 `json:"sessionsWithRetention"`
	Expired          int64 `json:"expiredSessions"`
	ExpiringIn30Days int64 `json:"expiringIn30Days"`
	RetentionYears   int   `json:"retentionYears"`
}

func (s *RetentionService) Stats(ctx context.Context, now time.Time) (*RetentionStats, error) {
	total, err := s.sessionRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	scheduled, err := s.sessionRepo.CountScheduled(ctx)
	if err != nil {
		return nil, err
	}
	expired, err := s.sessionRepo.CountExpired(ctx, now)
	if err != nil {
		return nil, err
	}
	expiring, err := s.sessionRepo.CountExpiringBetween(ctx, now, now.AddDate(0, 0, 30))
	if err != nil {
		return nil, err
	}

	return &RetentionStats{
		TotalSessions:    total,
		WithRetention:    scheduled,
		Expired:          expired,
		ExpiringIn30Days: expiring,
		RetentionYears:   s.cfg.RetentionYears,
	}, nil
}
