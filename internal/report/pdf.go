package report

import (
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"

	"pmtctportal/internal/model"
	"pmtctportal/internal/spec"
)

// PDFRenderer renders single-page assessment summaries as PDF.
type PDFRenderer struct {
	doc *spec.Document
}

// NewPDFRenderer creates a PDF renderer bound to the assessment document.
func NewPDFRenderer(doc *spec.Document) *PDFRenderer {
	return &PDFRenderer{doc: doc}
}

// Render writes the summary report for one assessment to path.
func (r *PDFRenderer) Render(a *model.Assessment, path string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, r.doc.Title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	info := [][2]string{
		{"Facility", a.FacilityName},
		{"District", a.District},
		{"Level", a.FacilityLevel},
		{"Ownership", a.Ownership},
		{"Assessor", a.AssessorName},
		{"Date", a.AssessmentDate.Format("2006-01-02")},
	}
	for _, kv := range info {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(40, 7, kv[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, kv[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(47, 85, 151)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(120, 8, "Section", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Grade", "1", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "", 10)
	for _, s := range a.SectionScores {
		label := s.Status
		g := spec.Grade(s.Grade)
		if g.Valid() {
			label = g.String()
			red, green, blue := hexToRGB(g.Color())
			pdf.SetFillColor(red, green, blue)
		} else {
			pdf.SetFillColor(238, 238, 238)
		}
		pdf.CellFormat(120, 7, s.Title, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, label, "1", 1, "C", true, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Score: %d / %d  (%.1f%%)", a.Points, a.MaxPoints, a.OverallPct), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, "Performance: "+a.Band, "", 1, "L", false, 0, "")

	if len(a.Warnings) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, "Data quality notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, w := range a.Warnings {
			pdf.MultiCell(0, 5, "- "+w, "", "L", false)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// hexToRGB splits a 6-digit hex color into its components.
func hexToRGB(hex string) (int, int, int) {
	if len(hex) != 6 {
		return 0, 0, 0
	}
	red, _ := strconv.ParseInt(hex[0:2], 16, 0)
	green, _ := strconv.ParseInt(hex[2:4], 16, 0)
	blue, _ := strconv.ParseInt(hex[4:6], 16, 0)
	return int(red), int(green), int(blue)
}
