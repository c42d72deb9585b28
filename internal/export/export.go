// Package export renders a session record into downloadable documents.
// Rendering is deterministic: the only timestamp embedded in any output is
// the record's own creation time.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cognisync/cognisync-api/internal/domain"
)

const (
	FormatPDF      = "pdf"
	FormatDOCX     = "docx"
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatJSON     = "json"
)

const footer = "Generated by Cognisync - AI-Powered Clinical Documentation\n" +
	"This document is for professional use only and should be reviewed by a licensed clinician."

var contentTypes = map[string]string{
	FormatPDF:      "application/pdf",
	FormatDOCX:     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FormatMarkdown: "text/markdown",
	FormatText:     "text/plain",
	FormatJSON:     "application/json",
}

var extensions = map[string]string{
	FormatPDF:      "pdf",
	FormatDOCX:     "docx",
	FormatMarkdown: "md",
	FormatText:     "txt",
	FormatJSON:     "json",
}

// Render produces the document bytes and content type for the given format.
// An unknown format is a validation failure, never a silent fallback.
func Render(rec *domain.SessionRecord, format string) ([]byte, string, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatMarkdown:
		data = []byte(renderMarkdown(rec))
	case FormatText:
		data = []byte(renderText(rec))
	case FormatJSON:
		data, err = renderJSON(rec)
	case FormatPDF:
		data, err = renderPDF(rec)
	case FormatDOCX:
		data, err = renderDOCX(rec)
	default:
		return nil, "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, "", err
	}
	return data, contentTypes[format], nil
}

// FileName builds the download filename: {patientCode}_{sessionID}.{ext}.
func FileName(rec *domain.SessionRecord, format string) string {
	code := strings.ReplaceAll(rec.PatientCode, " ", "_")
	return fmt.Sprintf("%s_%s.%s", code, rec.SessionID, extensions[format])
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func sentimentText(rec *domain.SessionRecord) string {
	if len(rec.SentimentScores) == 0 {
		return ""
	}
	return string(rec.SentimentScores)
}

func renderMarkdown(rec *domain.SessionRecord) string {
	return fmt.Sprintf(`# Clinical Session Analysis

## Session Information
- **Client:** %s
- **Session ID:** %s
- **Therapy Type:** %s
- **Format:** %s
- **Date:** %s
- **Confidence Score:** %.0f%%

## Transcript
%s

## Clinical Analysis
%s

## Sentiment Analysis
%s

---
*%s*
`,
		rec.PatientCode,
		rec.SessionID,
		rec.TherapyType,
		rec.SummaryFormat,
		formatTime(rec.CreatedAt),
		rec.ConfidenceScore*100,
		orDefault(rec.Transcript, "No transcript available"),
		orDefault(rec.Analysis, "No analysis available"),
		orDefault(sentimentText(rec), "No sentiment analysis available"),
		strings.ReplaceAll(footer, "\n", "*\n*"),
	)
}

func renderText(rec *domain.SessionRecord) string {
	return fmt.Sprintf(`CLINICAL SESSION ANALYSIS
========================

SESSION INFORMATION
------------------
Client: %s
Session ID: %s
Therapy Type: %s
Format: %s
Date: %s
Confidence Score: %.0f%%

TRANSCRIPT
----------
%s

CLINICAL ANALYSIS
----------------
%s

SENTIMENT ANALYSIS
-----------------
%s

---
%s
`,
		rec.PatientCode,
		rec.SessionID,
		rec.TherapyType,
		rec.SummaryFormat,
		formatTime(rec.CreatedAt),
		rec.ConfidenceScore*100,
		orDefault(rec.Transcript, "No transcript available"),
		orDefault(rec.Analysis, "No analysis available"),
		orDefault(sentimentText(rec), "No sentiment analysis available"),
		footer,
	)
}

func renderJSON(rec *domain.SessionRecord) ([]byte, error) {
	payload := struct {
		SessionID       string          `json:"sessionId"`
		PatientCode     string          `json:"patientCode"`
		TherapyType     string          `json:"therapyType"`
		SummaryFormat   string          `json:"summaryFormat"`
		CreatedAt       string          `json:"createdAt"`
		Status          string          `json:"status"`
		Transcript      string          `json:"transcript,omitempty"`
		Analysis        string          `json:"analysis,omitempty"`
		SentimentScores json.RawMessage `json:"sentimentScores,omitempty"`
		ConfidenceScore float64         `json:"confidenceScore"`
		FileName        string          `json:"fileName,omitempty"`
		FileSize        int64           `json:"fileSize,omitempty"`
	}{
		SessionID:       rec.SessionID,
		PatientCode:     rec.PatientCode,
		TherapyType:     rec.TherapyType,
		SummaryFormat:   rec.SummaryFormat,
		CreatedAt:       formatTime(rec.CreatedAt),
		Status:          rec.Status,
		Transcript:      rec.Transcript,
		Analysis:        rec.Analysis,
		SentimentScores: json.RawMessage(rec.SentimentScores),
		ConfidenceScore: rec.ConfidenceScore,
		FileName:        rec.FileName,
		FileSize:        rec.FileSize,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
