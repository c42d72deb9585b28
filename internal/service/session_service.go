package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/cognisync/cognisync-api/internal/analysis"
	"github.com/cognisync/cognisync-api/internal/config"
	"github.com/cognisync/cognisync-api/internal/cryptox"
	"github.com/cognisync/cognisync-api/internal/domain"
	"github.com/cognisync/cognisync-api/internal/export"
	"github.com/cognisync/cognisync-api/internal/filestore"
	"github.com/cognisync/cognisync-api/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var allowedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".mp4":  true,
	".webm": true,
	".ogg":  true,
}

var allowedContentTypes = map[string]bool{
	"audio/mpeg":  true,
	"audio/mp3":   true,
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/mp4":   true,
	"audio/m4a":   true,
	"audio/x-m4a": true,
	"audio/webm":  true,
	"audio/ogg":   true,
	"video/mp4":   true,
	"video/webm":  true,
}

// SessionService is the session record manager: it orchestrates the file
// store, field encryption, the external analysis call, the database row and
// the audit trail for every session lifecycle operation.
type SessionService struct {
	sessionRepo repository.SessionRecordRepository
	files       filestore.Store
	cipher      *cryptox.FieldCipher
	analyzer    analysis.Analyzer
	audit       *AuditService
	retention   *RetentionService
	cfg         *config.Config
}

func NewSessionService(
	sessionRepo repository.SessionRecordRepository,
	files filestore.Store,
	cipher *cryptox.FieldCipher,
	analyzer analysis.Analyzer,
	audit *AuditService,
	retention *RetentionService,
	cfg *config.Config,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		files:       files,
		cipher:      cipher,
		analyzer:    analyzer,
		audit:       audit,
		retention:   retention,
		cfg:         cfg,
	}
}

type CreateSessionInput struct {
	PatientCode   string
	TherapyType   string
	SummaryFormat string
	FileName      string
	ContentType   string
	Audio         []byte
}

// Create validates the upload, stores the blob, runs the best-effort
// analysis call and inserts the record. Validation failures happen before
// any write; a storage failure aborts with nothing persisted; an analysis
// failure still produces a record with the file fields populated.
func (s *SessionService) Create(ctx context.Context, user *domain.User, input CreateSessionInput) (*domain.SessionRecord, error) {
	if input.PatientCode == "" || input.TherapyType == "" || input.SummaryFormat == "" || input.FileName == "" {
		return nil, domain.ErrMissingField
	}

	ext := strings.ToLower(filepath.Ext(input.FileName))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", domain.ErrFileTypeNotAllowed, ext)
	}
	if input.ContentType != "" {
		if base, _, ok := strings.Cut(input.ContentType, ";"); ok {
			input.ContentType = base
		}
		if !allowedContentTypes[strings.TrimSpace(input.ContentType)] {
			return nil, fmt.Errorf("%w: %s", domain.ErrFileTypeNotAllowed, input.ContentType)
		}
	}
	if int64(len(input.Audio)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrFileTooLarge, len(input.Audio), s.cfg.MaxUploadBytes)
	}

	now := time.Now()
	sessionID, err := s.generateSessionID(ctx, now)
	if err != nil {
		return nil, err
	}

	storedPath, err := s.files.Save(ctx, user.ID.String(), filestore.ObjectName(sessionID, input.FileName), input.Audio)
	if err != nil {
		s.audit.Record(ctx, &user.ID, user.Email, domain.ActionSessionCreate, "therapy_session", sessionID, domain.OutcomeFailure, "file save failed")
		return nil, err
	}

	encryptedCode, err := s.cipher.EncryptField(input.PatientCode)
	if err != nil {
		// Nothing partially persisted: drop the blob we just wrote.
		if rmErr := s.files.Remove(ctx, storedPath); rmErr != nil {
			log.Printf("ERROR [session.Create] cleanup after encrypt failure: %v", rmErr)
		}
		return nil, err
	}

	deleteAfter := s.retention.DeleteAfter(now)
	rec := &domain.SessionRecord{
		ID:                   uuid.New(),
		SessionID:            sessionID,
		UserID:               user.ID,
		PatientCode:          input.PatientCode,
		PatientCodeEncrypted: encryptedCode,
		TherapyType:          input.TherapyType,
		SummaryFormat:        input.SummaryFormat,
		Status:               domain.SessionStatusPending,
		FilePath:             storedPath,
		FileSize:             int64(len(input.Audio)),
		FileName:             filestore.SanitizeFileName(input.FileName),
		RetentionUntil:       &deleteAfter,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	s.runAnalysis(ctx, rec, input)

	if err := s.sessionRepo.Create(ctx, rec); err != nil {
		if rmErr := s.files.Remove(ctx, storedPath); rmErr != nil {
			log.Printf("ERROR [session.Create] cleanup after insert failure: %v", rmErr)
		}
		s.audit.Record(ctx, &user.ID, user.Email, domain.ActionSessionCreate, "therapy_session", sessionID, domain.OutcomeFailure, "insert failed")
		return nil, err
	}

	s.audit.Record(ctx, &user.ID, user.Email, domain.ActionSessionCreate, "therapy_session", sessionID, domain.OutcomeSuccess,
		fmt.Sprintf("file %s (%d bytes)", rec.FileName, rec.FileSize))
	return rec, nil
}

// runAnalysis fills the analysis fields on rec. Best-effort: failures mark
// the record analysis_failed and are otherwise swallowed.
func (s *SessionService) runAnalysis(ctx context.Context, rec *domain.SessionRecord, input CreateSessionInput) {
	if s.analyzer == nil {
		return
	}

	result, err := s.analyzer.Analyze(ctx, input.Audio, analysis.Request{
		PatientCode:   input.PatientCode,
		TherapyType:   input.TherapyType,
		SummaryFormat: input.SummaryFormat,
		FileName:      input.FileName,
	})
	if err != nil {
		log.Printf("WARN [session.runAnalysis] %s: %v: %v", rec.SessionID, domain.ErrAnalysisFailed, err)
		rec.Status = domain.SessionStatusAnalysisFailed
		return
	}

	rec.Transcript = result.Transcript
	rec.Analysis = result.Note
	rec.ConfidenceScore = result.ConfidenceScore
	rec.Status = domain.SessionStatusCompleted
	if result.Sentiment != nil {
		if scores, err := json.Marshal(result.Sentiment); err == nil {
			rec.SentimentScores = datatypes.JSON(scores)
		}
	}
}

// generateSessionID derives an identifier from the creation timestamp and
// collision-checks it, appending a random suffix when two uploads land in
// the same second.
func (s *SessionService) generateSessionID(ctx context.Context, now time.Time) (string, error) {
	sessionID := fmt.Sprintf("session_%s", now.Format("20060102_150405"))
	exists, err := s.sessionRepo.SessionIDExists(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if exists {
		sessionID = fmt.Sprintf("%s_%s", sessionID, uuid.New().String()[:8])
	}
	return sessionID, nil
}

// List returns the caller's sessions newest first; admins see everyone's.
func (s *SessionService) List(ctx context.Context, user *domain.User) ([]*domain.SessionRecord, error) {
	var (
		recs []*domain.SessionRecord
		err  error
	)
	if user.IsAdmin() {
		recs, err = s.sessionRepo.GetAll(ctx)
	} else {
		recs, err = s.sessionRepo.GetByUserID(ctx, user.ID)
	}
	if err != nil {
		return nil, err
	}

	for _, rec := range recs {
		s.decryptPatientCode(rec)
	}
	return recs, nil
}

// Get returns one record after an ownership check. A record that exists but
// belongs to someone else is an authorization failure, distinct from
// not-found, and is audited as such.
func (s *SessionService) Get(ctx context.Context, user *domain.User, sessionID string) (*domain.SessionRecord, error) {
	rec, err := s.authorize(ctx, user, sessionID, domain.ActionPHIView)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &user.ID, user.Email, domain.ActionPHIView, "therapy_session", sessionID, domain.OutcomeSuccess, "")
	return rec, nil
}

// Download returns the stored audio bytes after the same ownership check as Get.
func (s *SessionService) Download(ctx context.Context, user *domain.User, sessionID string) ([]byte, *domain.SessionRecord, error) {
	rec, err := s.authorize(ctx, user, sessionID, domain.ActionPHIDownload)
	if err != nil {
		return nil, nil, err
	}
	if rec.FilePath == "" {
		return nil, nil, domain.ErrFileNotFound
	}

	data, err := s.files.Retrieve(ctx, rec.FilePath)
	if err != nil {
		s.audit.Record(ctx, &user.ID, user.Email, domain.ActionPHIDownload, "therapy_session", sessionID, domain.OutcomeFailure, "retrieve failed")
		return nil, nil, err
	}

	s.audit.Record(ctx, &user.ID, user.Email, domain.ActionPHIDownload, "therapy_session", sessionID, domain.OutcomeSuccess, "")
	return data, rec, nil
}

// Delete removes the file (best-effort) and then the row. Deleting a session
// whose file is already gone is not an error.
func (s *SessionService) Delete(ctx context.Context, user *domain.User, sessionID string) error {
	rec, err := s.authorize(ctx, user, sessionID, domain.ActionSessionDelete)
	if err != nil {
		return err
	}

	if rec.FilePath != "" {
		if err := s.files.Remove(ctx, rec.FilePath); err != nil {
			log.Printf("WARN [session.Delete] file removal for %s: %v", sessionID, err)
		}
	}

	if err := s.sessionRepo.Delete(ctx, rec.ID); err != nil {
		s.audit.Record(ctx, &user.ID, user.Email, domain.ActionSessionDelete, "therapy_session", sessionID, domain.OutcomeFailure, "row delete failed")
		return err
	}

	s.audit.Record(ctx, &user.ID, user.Email, domain.ActionSessionDelete, "therapy_session", sessionID, domain.OutcomeSuccess, "")
	return nil
}

type ExportResult struct {
	Data        []byte
	ContentType string
	FileName    string
}

// Export renders the record in the requested format after an ownership check.
func (s *SessionService) Export(ctx context.Context, user *domain.User, sessionID, format string) (*ExportResult, error) {
	rec, err := s.authorize(ctx, user, sessionID, domain.ActionPHIExport)
	if err != nil {
		return nil, err
	}

	data, contentType, err := export.Render(rec, format)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &user.ID, user.Email, domain.ActionPHIExport, "therapy_session", sessionID, domain.OutcomeSuccess, format)
	return &ExportResult{
		Data:        data,
		ContentType: contentType,
		FileName:    export.FileName(rec, format),
	}, nil
}

// authorize loads the record and enforces ownership (admins may access any
// record; admin reads are audited with the same weight as owner reads).
func (s *SessionService) authorize(ctx context.Context, user *domain.User, sessionID, action string) (*domain.SessionRecord, error) {
	rec, err := s.sessionRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if rec.UserID != user.ID && !user.IsAdmin() {
		s.audit.Record(ctx, &user.ID, user.Email, action, "therapy_session", sessionID, domain.OutcomeFailure, "not record owner")
		return nil, domain.ErrAccessDenied
	}

	s.decryptPatientCode(rec)
	return rec, nil
}

func (s *SessionService) decryptPatientCode(rec *domain.SessionRecord) {
	if rec.PatientCodeEncrypted == "" {
		return
	}
	code, err := s.cipher.DecryptField(rec.PatientCodeEncrypted)
	if err != nil {
		log.Printf("ERROR [session.decryptPatientCode] %s: %v", rec.SessionID, err)
		return
	}
	rec.PatientCode = code
}
