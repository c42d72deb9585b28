package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SessionRecord statuses.
const (
	SessionStatusPending        = "pending"
	SessionStatusCompleted      = "completed"
	SessionStatusAnalysisFailed = "analysis_failed"
)

// SessionRecord is one documented therapy session. The patient code is
// encrypted at rest; the plaintext field is populated by the service layer
// after decryption and never persisted.
type SessionRecord struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SessionID string    `json:"sessionId" gorm:"uniqueIndex;not null"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`

	PatientCode          string `json:"patientCode" gorm:"-"`
	PatientCodeEncrypted string `json:"-" gorm:"column:patient_code_encrypted;not null"`

	TherapyType   string `json:"therapyType" gorm:"not null"`
	SummaryFormat string `json:"summaryFormat" gorm:"not null"`

	// Analysis results, empty until the external call returns.
	Transcript      string         `json:"transcript"`
	Analysis        string         `json:"analysis"`
	SentimentScores datatypes.JSON `json:"sentimentScores"`
	ConfidenceScore float64        `json:"confidenceScore"`
	Status          string         `json:"status" gorm:"not null;default:pending"`

	FilePath string `json:"filePath"`
	FileSize int64  `json:"fileSize"`
	FileName string `json:"fileName"`

	RetentionUntil *time.Time `json:"retentionUntil" gorm:"index"`
	CreatedAt      time.Time  `json:"createdAt" gorm:"index"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
