package report

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pmtctportal/internal/model"
	"pmtctportal/internal/spec"
)

func sampleAssessment() *model.Assessment {
	return &model.Assessment{
		ID:             "abc123",
		FacilityName:   "St. Mary HC III",
		District:       "Gulu",
		FacilityLevel:  "HC III",
		Ownership:      "Government",
		AssessorName:   "Jane Doe",
		AssessmentDate: time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC),
		Responses: map[string]string{
			"pr_q1": "yes", "pr_q2": "yes", "pr_q3": "yes", "pr_q4": "yes",
			"as_q1": "yes", "as_q2": "no",
			"hiv_positive_documented": "12", "art_initiated": "9",
		},
		SectionScores: []model.SectionScore{
			{SectionID: "patient_records", Title: "Patient/Beneficiary Records", Status: "graded", Grade: 4, DecidingQuestion: "pr_q4"},
			{SectionID: "adherence_support", Title: "Adherence Support", Status: "graded", Grade: 2, DecidingQuestion: "as_q2"},
			{SectionID: "eid", Title: "Early Infant Diagnosis [HEI]", Status: "not_answered"},
		},
		Points:     6,
		MaxPoints:  12,
		OverallPct: 50.0,
		Band:       "GOOD",
	}
}

func TestExcelRender(t *testing.T) {
	doc, err := spec.Load("")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, NewExcelRenderer(doc).Render(sampleAssessment(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "Summary")
	assert.Contains(t, sheets, "Details")
	assert.Contains(t, sheets, "Action Items")
	assert.NotContains(t, sheets, "Sheet1")

	facility, err := f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "St. Mary HC III", facility)

	// Data-entry-table responses are keyed by bare field id and must show
	// up against their field label.
	assert.Equal(t, "9", detailsValue(t, f, "Number with a documented ART initiation status"))
}

// detailsValue returns the response column of the Details row whose
// indented label matches the given text.
func detailsValue(t *testing.T, f *excelize.File, label string) string {
	t.Helper()
	rows, err := f.GetRows("Details")
	require.NoError(t, err)
	for _, row := range rows {
		if len(row) > 0 && strings.TrimSpace(row[0]) == label {
			if len(row) > 1 {
				return row[1]
			}
			return ""
		}
	}
	t.Fatalf("no Details row labelled %q", label)
	return ""
}

func TestPDFRender(t *testing.T) {
	doc, err := spec.Load("")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, NewPDFRenderer(doc).Render(sampleAssessment(), path))
	assert.FileExists(t, path)
}

func TestRenderParticipants(t *testing.T) {
	participants := []*model.Participant{
		{ParticipantName: "Jane Doe", Cadre: "Midwife", District: "Gulu", MobileNumber: "0700123456", CampaignDay: 2},
		{ParticipantName: "John Okello", Cadre: "Nurse", District: "Lira", MobileNumber: "0700123457", CampaignDay: 3},
	}

	path := filepath.Join(t.TempDir(), "participants.xlsx")
	require.NoError(t, RenderParticipants(participants, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Participants", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", name)
}
