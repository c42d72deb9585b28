package export

import (
	"bytes"
	"fmt"

	"github.com/fumiama/go-docx"

	"github.com/cognisync/cognisync-api/internal/domain"
)

func renderDOCX(rec *domain.SessionRecord) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()

	doc.AddParagraph().AddText("Clinical Session Analysis").Size("32").Bold()

	doc.AddParagraph().AddText("Session Information").Size("28").Bold()
	info := [][2]string{
		{"Client", rec.PatientCode},
		{"Session ID", rec.SessionID},
		{"Therapy Type", rec.TherapyType},
		{"Format", rec.SummaryFormat},
		{"Date", formatTime(rec.CreatedAt)},
		{"Confidence Score", fmt.Sprintf("%.0f%%", rec.ConfidenceScore*100)},
	}
	for _, row := range info {
		p := doc.AddParagraph()
		p.AddText(row[0] + ": ").Bold()
		p.AddText(row[1])
	}

	doc.AddParagraph().AddText("Clinical Analysis").Size("28").Bold()
	doc.AddParagraph().AddText(orDefault(rec.Analysis, "No analysis available"))

	if s := sentimentText(rec); s != "" {
		doc.AddParagraph().AddText("Sentiment Analysis").Size("28").Bold()
		doc.AddParagraph().AddText(s)
	}

	doc.AddParagraph().AddText(footer).Size("16").Italic()

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
