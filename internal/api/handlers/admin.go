package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cognisync/cognisync-api/internal/api/middleware"
	"github.com/cognisync/cognisync-api/internal/domain"
	"github.com/cognisync/cognisync-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type AdminHandler struct {
	authService      *service.AuthService
	auditService     *service.AuditService
	retentionService *service.RetentionService
}

func NewAdminHandler(auth *service.AuthService, audit *service.AuditService, retention *service.RetentionService) *AdminHandler {
	return &AdminHandler{authService: auth, auditService: audit, retentionService: retention}
}

type AuditEntryResponse struct {
	ID           string `json:"id"`
	Actor        string `json:"actor"`
	Action       string `json:"action"`
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId"`
	Outcome      string `json:"outcome"`
	Detail       string `json:"detail,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

func (h *AdminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.auditService.List(r.Context(), user, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, AuditEntryResponse{
			ID:           e.ID.String(),
			Actor:        e.Actor,
			Action:       e.Action,
			ResourceType: e.ResourceType,
			ResourceID:   e.ResourceID,
			Outcome:      e.Outcome,
			Detail:       e.Detail,
			CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.GetUser(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, domain.ErrUserNotFound)
		return
	}

	user, err := h.authService.ApproveUser(r.Context(), admin, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse(user))
}

func (h *AdminHandler) RetentionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.retentionService.Stats(r.Context(), time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type cleanupRequest struct {
	DryRun bool `json:"dryRun"`
}

func (h *AdminHandler) RunCleanup(w http.ResponseWriter, r *http.Request) {
	// The body is optional; a missing or empty body means a real run.
	var req cleanupRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	report, err := h.retentionService.RunCleanup(r.Context(), time.Now(), req.DryRun)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
