package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/cognisync/cognisync-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func testRecord() *domain.SessionRecord {
	return &domain.SessionRecord{
		ID:              uuid.MustParse("f1c1534e-94ab-4f84-a3cb-11a185bbbf01"),
		SessionID:       "session_20250114_103000",
		UserID:          uuid.MustParse("b8df3a86-22a3-4fbc-9f53-0a4a4ba7c702"),
		PatientCode:     "PT-001",
		TherapyType:     "CBT",
		SummaryFormat:   "SOAP",
		Transcript:      "Client discussed progress with exposure exercises.",
		Analysis:        "S: Client reports reduced anxiety.\nO: Engaged, good eye contact.",
		SentimentScores: datatypes.JSON(`{"mood":"hopeful","confidence":0.82}`),
		ConfidenceScore: 0.85,
		Status:          domain.SessionStatusCompleted,
		FileName:        "session.mp3",
		FileSize:        2 * 1024 * 1024,
		CreatedAt:       time.Date(2025, 1, 14, 10, 30, 0, 0, time.UTC),
	}
}

func TestRender_Deterministic(t *testing.T) {
	rec := testRecord()
	formats := []string{FormatPDF, FormatDOCX, FormatMarkdown, FormatText, FormatJSON}

	type pass struct {
		data        []byte
		contentType string
	}
	render := func() map[string]pass {
		out := make(map[string]pass, len(formats))
		for _, format := range formats {
			data, contentType, err := Render(rec, format)
			require.NoError(t, err)
			require.NotEmpty(t, data)
			out[format] = pass{data: data, contentType: contentType}
		}
		return out
	}

	first := render()
	// Cross a wall-clock second so any clock-derived bytes (document
	// metadata dates, map iteration reseeding) would show up as a diff.
	time.Sleep(1100 * time.Millisecond)
	second := render()

	for _, format := range formats {
		t.Run(format, func(t *testing.T) {
			assert.Equal(t, first[format].data, second[format].data)
			assert.Equal(t, first[format].contentType, second[format].contentType)
		})
	}
}

func TestRender_MarkdownContent(t *testing.T) {
	data, contentType, err := Render(testRecord(), FormatMarkdown)
	require.NoError(t, err)

	text := string(data)
	assert.Equal(t, "text/markdown", contentType)
	assert.Contains(t, text, "PT-001")
	assert.Contains(t, text, "CBT")
	assert.Contains(t, text, "session_20250114_103000")
	assert.Contains(t, text, "SOAP")
	assert.Contains(t, text, "hopeful")
}

func TestRender_TextContent(t *testing.T) {
	data, contentType, err := Render(testRecord(), FormatText)
	require.NoError(t, err)

	assert.Equal(t, "text/plain", contentType)
	assert.Contains(t, string(data), "CLINICAL SESSION ANALYSIS")
	assert.Contains(t, string(data), "PT-001")
}

func TestRender_JSONContent(t *testing.T) {
	data, contentType, err := Render(testRecord(), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "PT-001", payload["patientCode"])
	assert.Equal(t, "session_20250114_103000", payload["sessionId"])
}

func TestRender_EmptyAnalysisFields(t *testing.T) {
	rec := testRecord()
	rec.Transcript = ""
	rec.Analysis = ""
	rec.SentimentScores = nil

	data, _, err := Render(rec, FormatText)
	require.NoError(t, err)
	assert.Contains(t, string(data), "No transcript available")
	assert.Contains(t, string(data), "No analysis available")
	assert.Contains(t, string(data), "No sentiment analysis available")
}

func TestRender_PDFHeader(t *testing.T) {
	data, contentType, err := Render(testRecord(), FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestRender_DOCXHeader(t *testing.T) {
	data, contentType, err := Render(testRecord(), FormatDOCX)
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", contentType)
	// DOCX is a zip container.
	assert.True(t, strings.HasPrefix(string(data), "PK"))
}

func TestRender_UnsupportedFormat(t *testing.T) {
	_, _, err := Render(testRecord(), "xlsx")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestFileName(t *testing.T) {
	rec := testRecord()
	assert.Equal(t, "PT-001_session_20250114_103000.md", FileName(rec, FormatMarkdown))

	rec.PatientCode = "John Doe"
	assert.Equal(t, "John_Doe_session_20250114_103000.pdf", FileName(rec, FormatPDF))
}
