package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/cognisync/cognisync-api/internal/domain"
)

func renderPDF(rec *domain.SessionRecord) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	// Pin both document metadata clocks to the record's own timestamp and
	// sort the resource dictionaries so the same record always renders
	// byte-identical output.
	pdf.SetCreationDate(rec.CreatedAt.UTC())
	pdf.SetModificationDate(rec.CreatedAt.UTC())
	pdf.SetCatalogSort(true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Clinical Session Analysis", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Session Information", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	info := fmt.Sprintf("Client: %s\nSession ID: %s\nTherapy Type: %s\nFormat: %s\nDate: %s\nConfidence Score: %.0f%%",
		rec.PatientCode,
		rec.SessionID,
		rec.TherapyType,
		rec.SummaryFormat,
		formatTime(rec.CreatedAt),
		rec.ConfidenceScore*100,
	)
	pdf.MultiCell(0, 6, info, "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Clinical Analysis", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 6, orDefault(rec.Analysis, "No analysis available"), "", "L", false)
	pdf.Ln(4)

	if s := sentimentText(rec); s != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Sentiment Analysis", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 6, s, "", "L", false)
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "I", 8)
	pdf.MultiCell(0, 5, footer, "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
