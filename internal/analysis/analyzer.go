// Package analysis wraps the external AI collaborator that turns a session
// recording into a transcript, a clinical note and sentiment scores. The call
// is best-effort: callers treat any failure as an analysis failure, never as
// a reason to abort session creation.
package analysis

import "context"

type Request struct {
	PatientCode   string
	TherapyType   string // e.g. CBT, DBT
	SummaryFormat string // e.g. SOAP, BIRP
	FileName      string
}

type SentimentScores struct {
	Mood       string   `json:"mood"`
	Confidence float64  `json:"confidence"`
	Indicators []string `json:"indicators,omitempty"`
	Raw        string   `json:"raw,omitempty"`
}

// Result is the analysis outcome. Sentiment may be nil when the sentiment
// pass failed; that is a successful-but-incomplete result, not an error.
type Result struct {
	Transcript      string
	Note            string
	Sentiment       *SentimentScores
	ConfidenceScore float64
	Model           string
}

type Analyzer interface {
	Analyze(ctx context.Context, audio []byte, req Request) (*Result, error)
}
