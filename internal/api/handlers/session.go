package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/cognisync/cognisync-api/internal/api/middleware"
	"github.com/cognisync/cognisync-api/internal/config"
	"github.com/cognisync/cognisync-api/internal/domain"
	"github.com/cognisync/cognisync-api/internal/service"
	"github.com/go-chi/chi/v5"
)

type SessionHandler struct {
	sessionService *service.SessionService
	cfg            *config.Config
}

func NewSessionHandler(sessionService *service.SessionService, cfg *config.Config) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, cfg: cfg}
}

type SessionResponse struct {
	ID              string  `json:"id"`
	SessionID       string  `json:"sessionId"`
	PatientCode     string  `json:"patientCode"`
	TherapyType     string  `json:"therapyType"`
	SummaryFormat   string  `json:"summaryFormat"`
	Status          string  `json:"status"`
	Transcript      string  `json:"transcript,omitempty"`
	Analysis        string  `json:"analysis,omitempty"`
	SentimentScores any     `json:"sentimentScores,omitempty"`
	ConfidenceScore float64 `json:"confidenceScore"`
	FileName        string  `json:"fileName"`
	FileSize        int64   `json:"fileSize"`
	CreatedAt       string  `json:"createdAt"`
	RetentionUntil  string  `json:"retentionUntil,omitempty"`
}

// Create handles the multipart upload. Form fields follow the original API:
// patient_code, therapy_type, summary_format and an audio_file part.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Bound the request read slightly above the upload limit so the service
	// can reject over-limit files with a proper validation failure.
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, fmt.Errorf("%w: upload too large or malformed", domain.ErrFileTooLarge))
		return
	}

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		// Older clients send the part under a camelCase name.
		file, header, err = r.FormFile("audioFile")
	}
	if err != nil {
		http.Error(w, "audio_file part is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("%w: reading upload: %v", domain.ErrStorage, err))
		return
	}

	rec, err := h.sessionService.Create(r.Context(), user, service.CreateSessionInput{
		PatientCode:   r.FormValue("patient_code"),
		TherapyType:   r.FormValue("therapy_type"),
		SummaryFormat: r.FormValue("summary_format"),
		FileName:      header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		Audio:         audio,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse(rec))
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	recs, err := h.sessionService.List(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]SessionResponse, 0, len(recs))
	for _, rec := range recs {
		resp = append(resp, sessionResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	rec, err := h.sessionService.Get(r.Context(), user, chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse(rec))
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.sessionService.Delete(r.Context(), user, chi.URLParam(r, "sessionId")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Download(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	data, rec, err := h.sessionService.Download(r.Context(), user, chi.URLParam(r, "sessionId"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.FileName))
	w.Write(data)
}

func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := h.sessionService.Export(r.Context(), user,
		chi.URLParam(r, "sessionId"), chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	w.Write(result.Data)
}

func sessionResponse(rec *domain.SessionRecord) SessionResponse {
	resp := SessionResponse{
		ID:              rec.ID.String(),
		SessionID:       rec.SessionID,
		PatientCode:     rec.PatientCode,
		TherapyType:     rec.TherapyType,
		SummaryFormat:   rec.SummaryFormat,
		Status:          rec.Status,
		Transcript:      rec.Transcript,
		Analysis:        rec.Analysis,
		ConfidenceScore: rec.ConfidenceScore,
		FileName:        rec.FileName,
		FileSize:        rec.FileSize,
		CreatedAt:       rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if len(rec.SentimentScores) > 0 {
		resp.SentimentScores = rec.SentimentScores
	}
	if rec.RetentionUntil != nil {
		resp.RetentionUntil = rec.RetentionUntil.UTC().Format("2006-01-02")
	}
	return resp
}
