package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"pmtctportal/internal/model"
	"pmtctportal/internal/spec"
)

// ExcelRenderer renders assessment reports as xlsx workbooks.
type ExcelRenderer struct {
	doc *spec.Document
}

// NewExcelRenderer creates an Excel renderer bound to the assessment document.
func NewExcelRenderer(doc *spec.Document) *ExcelRenderer {
	return &ExcelRenderer{doc: doc}
}

// Render writes a three-sheet workbook (summary, details, action items)
// for one assessment to path.
func (r *ExcelRenderer) Render(a *model.Assessment, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := r.summarySheet(f, a); err != nil {
		return err
	}
	if err := r.detailsSheet(f, a); err != nil {
		return err
	}
	if err := r.actionSheet(f, a); err != nil {
		return err
	}
	f.DeleteSheet("Sheet1")

	return f.SaveAs(path)
}

func (r *ExcelRenderer) summarySheet(f *excelize.File, a *model.Assessment) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	title, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2F5597"}},
	})
	if err != nil {
		return err
	}

	f.SetCellValue(sheet, "A1", r.doc.Title)
	f.SetCellStyle(sheet, "A1", "A1", title)

	info := [][2]string{
		{"Facility", a.FacilityName},
		{"District", a.District},
		{"Level", a.FacilityLevel},
		{"Ownership", a.Ownership},
		{"Assessor", a.AssessorName},
		{"Date", a.AssessmentDate.Format("2006-01-02")},
	}
	row := 3
	for _, kv := range info {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), kv[0])
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), kv[1])
		row++
	}

	row++
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Section")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), "Status")
	f.SetCellValue(sheet, fmt.Sprintf("C%d", row), "Grade")
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row), header)
	row++

	for _, s := range a.SectionScores {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), s.Title)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), s.Status)
		if g := spec.Grade(s.Grade); g.Valid() {
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), g.String())
			style, err := f.NewStyle(&excelize.Style{
				Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{g.Color()}},
			})
			if err != nil {
				return err
			}
			f.SetCellStyle(sheet, fmt.Sprintf("C%d", row), fmt.Sprintf("C%d", row), style)
		}
		row++
	}

	row++
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Points")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("%d / %d", a.Points, a.MaxPoints))
	row++
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Overall")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("%.1f%%", a.OverallPct))
	row++
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Band")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), a.Band)

	f.SetColWidth(sheet, "A", "A", 44)
	f.SetColWidth(sheet, "B", "C", 20)
	return nil
}

func (r *ExcelRenderer) detailsSheet(f *excelize.File, a *model.Assessment) error {
	const sheet = "Details"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		return err
	}
	sectionStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return err
	}

	f.SetCellValue(sheet, "A1", "Question")
	f.SetCellValue(sheet, "B1", "Response")
	f.SetCellStyle(sheet, "A1", "B1", header)

	row := 2
	for i := range r.doc.Sections {
		sec := &r.doc.Sections[i]
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), sec.Title)
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), sectionStyle)
		row++

		if sec.NAOption {
			if v, ok := a.Responses[sec.NAKey()]; ok {
				f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Not applicable at this facility")
				f.SetCellValue(sheet, fmt.Sprintf("B%d", row), v)
				row++
			}
		}

		for qi := range sec.Questions {
			q := &sec.Questions[qi]
			row = r.questionRows(f, sheet, a, q, row)
		}
		row++
	}

	f.SetColWidth(sheet, "A", "A", 72)
	f.SetColWidth(sheet, "B", "B", 24)
	return nil
}

// questionRows writes one row per recorded response key of the question and
// returns the next free row. Unanswered questions still get a blank row so
// the reviewer can see the gap.
func (r *ExcelRenderer) questionRows(f *excelize.File, sheet string, a *model.Assessment, q *spec.Question, row int) int {
	write := func(label, value string) {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), label)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), value)
		row++
	}

	switch q.Type {
	case spec.TypeMultiYesNo, spec.TypeMultiCheckbox, spec.TypeChecklistTable:
		if len(q.Items) == 0 {
			write(q.Text, a.Responses[q.ID])
			return row
		}
		write(q.Text, "")
		for _, item := range q.Items {
			if q.Type == spec.TypeChecklistTable {
				for _, col := range q.Columns {
					write("  "+item+" / "+col, a.Responses[q.CellID(item, col)])
				}
			} else {
				write("  "+item, a.Responses[q.SubItemID(item)])
			}
		}
	case spec.TypeChartReview:
		write(q.Text, "")
		for _, svc := range q.Services {
			for chart := 1; chart <= q.Charts; chart++ {
				key := q.CellID(svc, fmt.Sprintf("%d", chart))
				if v, ok := a.Responses[key]; ok {
					write(fmt.Sprintf("  %s, chart %d", svc, chart), v)
				}
			}
		}
	case spec.TypeDataEntryTable:
		write(q.Text, "")
		for _, fld := range q.Fields {
			write("  "+fld.Label, a.Responses[fld.ID])
		}
	default:
		write(q.Text, a.Responses[q.ID])
	}
	return row
}

func (r *ExcelRenderer) actionSheet(f *excelize.File, a *model.Assessment) error {
	const sheet = "Action Items"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		return err
	}

	f.SetCellValue(sheet, "A1", "Section")
	f.SetCellValue(sheet, "B1", "Grade")
	f.SetCellValue(sheet, "C1", "Standard")
	f.SetCellStyle(sheet, "A1", "C1", header)

	row := 2
	for _, s := range a.SectionScores {
		g := spec.Grade(s.Grade)
		if !g.Valid() || g > spec.GradeYellow {
			continue
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), s.Title)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), g.String())
		if sec := r.doc.Section(s.SectionID); sec != nil {
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), sec.Standard)
		}
		row++
	}
	if row == 2 {
		f.SetCellValue(sheet, "A2", "No red or yellow sections.")
	}

	f.SetColWidth(sheet, "A", "A", 44)
	f.SetColWidth(sheet, "B", "B", 14)
	f.SetColWidth(sheet, "C", "C", 72)
	return nil
}

// RenderParticipants writes a single-sheet workbook listing registered
// participants, one row each.
func RenderParticipants(participants []*model.Participant, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Participants"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	f.DeleteSheet("Sheet1")

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2F5597"}},
	})
	if err != nil {
		return err
	}

	cols := []string{"Name", "Cadre", "Duty Station", "District", "Mobile", "Mobile Money Name", "Campaign Day", "Registered", "Submitted By"}
	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, c)
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	f.SetCellStyle(sheet, "A1", last, header)

	for i, p := range participants {
		values := []interface{}{
			p.ParticipantName, p.Cadre, p.DutyStation, p.District,
			p.MobileNumber, p.MobileMoneyName, p.CampaignDay,
			p.RegistrationDate.Format("2006-01-02"), p.SubmittedBy,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	f.SetColWidth(sheet, "A", "F", 24)
	return f.SaveAs(path)
}
