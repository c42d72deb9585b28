package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audit outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Audit actions.
const (
	ActionLogin            = "login"
	ActionLogout           = "logout"
	ActionRegister         = "register"
	ActionApproveUser      = "approve_user"
	ActionMFASetup         = "mfa_setup"
	ActionMFAVerify        = "mfa_verify"
	ActionSessionCreate    = "session_create"
	ActionSessionDelete    = "session_delete"
	ActionPHIView          = "phi_view"
	ActionPHIDownload      = "phi_download"
	ActionPHIExport        = "phi_export"
	ActionRetentionCleanup = "retention_cleanup"
)

// AuditEntry is append-only. UserID is a weak reference: deleting a user
// leaves their audit history intact.
type AuditEntry struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID       *uuid.UUID `json:"userId" gorm:"type:uuid;index"`
	Actor        string     `json:"actor" gorm:"not null"`
	Action       string     `json:"action" gorm:"not null;index"`
	ResourceType string     `json:"resourceType"`
	ResourceID   string     `json:"resourceId"`
	Outcome      string     `json:"outcome" gorm:"not null"`
	Detail       string     `json:"detail"`
	CreatedAt    time.Time  `json:"createdAt" gorm:"index"`
}
