package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmtctportal/internal/model"
	"pmtctportal/internal/repository"
	"pmtctportal/internal/service"
)

type fakeAssessmentService struct {
	byID map[string]*model.Assessment
}

func (f *fakeAssessmentService) Submit(_ context.Context, a *model.Assessment) (*model.Assessment, error) {
	if a.FacilityName == "" {
		return nil, service.ErrValidation
	}
	a.ID = "a1"
	a.Band = "GOOD"
	return a, nil
}

func (f *fakeAssessmentService) Get(_ context.Context, id string) (*model.Assessment, error) {
	return f.byID[id], nil
}

func (f *fakeAssessmentService) List(_ context.Context, _ repository.AssessmentFilter) ([]*model.Assessment, error) {
	var out []*model.Assessment
	for _, a := range f.byID {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAssessmentService) Districts(context.Context) ([]string, error) {
	return []string{"Gulu"}, nil
}

func (f *fakeAssessmentService) DistrictSummary(_ context.Context, district string) (*model.DistrictSummary, error) {
	return &model.DistrictSummary{District: district}, nil
}

func (f *fakeAssessmentService) TopFacilities(_ context.Context, _ string, _ int) ([]model.FacilityRank, error) {
	return nil, nil
}

func (f *fakeAssessmentService) Delete(context.Context, string) error { return nil }

type fakeReportService struct {
	emailed []string
}

func (f *fakeReportService) AssessmentReport(_ context.Context, id, format, _ string) (string, string, error) {
	if id == "missing" {
		return "", "", service.ErrNotFound
	}
	if format != service.FormatXLSX && format != service.FormatPDF {
		return "", "", service.ErrBadFormat
	}
	return "/tmp/x." + format, "x." + format, nil
}

func (f *fakeReportService) ParticipantsReport(context.Context, repository.ParticipantFilter) (string, string, error) {
	return "/tmp/p.xlsx", "p.xlsx", nil
}

func (f *fakeReportService) EmailAssessment(_ context.Context, id string, recipients []string, _ string) error {
	if id == "missing" {
		return service.ErrNotFound
	}
	f.emailed = append(f.emailed, recipients...)
	return nil
}

func (f *fakeReportService) StartJanitor(context.Context) {}

func newAssessmentRouter(svc service.AssessmentService, reports service.ReportService) *mux.Router {
	h := NewAssessmentHandler(svc, reports)
	r := mux.NewRouter()
	r.HandleFunc("/v1/assessments", h.Submit).Methods("POST")
	r.HandleFunc("/v1/assessments", h.List).Methods("GET")
	r.HandleFunc("/v1/assessments/{id}", h.Get).Methods("GET")
	r.HandleFunc("/v1/assessments/{id}/report", h.Report).Methods("GET")
	r.HandleFunc("/v1/assessments/{id}/email", h.Email).Methods("POST")
	return r
}

func TestSubmitAssessment(t *testing.T) {
	r := newAssessmentRouter(&fakeAssessmentService{}, &fakeReportService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/assessments",
		strings.NewReader(`{"facilityName":"HC","district":"Gulu","responses":{"pr_q1":"yes"}}`))
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp model.Assessment
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "a1", resp.ID)
	assert.Equal(t, "GOOD", resp.Band)
}

func TestSubmitAssessmentValidation(t *testing.T) {
	r := newAssessmentRouter(&fakeAssessmentService{}, &fakeReportService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/assessments", strings.NewReader(`{"district":"Gulu"}`))
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAssessmentNotFound(t *testing.T) {
	r := newAssessmentRouter(&fakeAssessmentService{byID: map[string]*model.Assessment{}}, &fakeReportService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/assessments/unknown", nil)
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportRejectsBadFormat(t *testing.T) {
	r := newAssessmentRouter(&fakeAssessmentService{}, &fakeReportService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/assessments/a1/report?format=docx", nil)
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmailRequiresRecipients(t *testing.T) {
	reports := &fakeReportService{}
	r := newAssessmentRouter(&fakeAssessmentService{}, reports)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/assessments/a1/email", strings.NewReader(`{"recipients":[]}`))
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, reports.emailed)
}

func TestEmailSends(t *testing.T) {
	reports := &fakeReportService{}
	r := newAssessmentRouter(&fakeAssessmentService{}, reports)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/assessments/a1/email",
		strings.NewReader(`{"recipients":["dho@example.org"]}`))
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"dho@example.org"}, reports.emailed)
}
