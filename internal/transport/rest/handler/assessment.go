package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pmtctportal/internal/model"
	"pmtctportal/internal/repository"
	"pmtctportal/internal/service"
	"pmtctportal/internal/transport/rest/middleware"
)

// AssessmentHandler handles assessment submission and report endpoints
type AssessmentHandler struct {
	assessmentSvc service.AssessmentService
	reportSvc     service.ReportService
}

// NewAssessmentHandler creates a new assessment handler
func NewAssessmentHandler(assessmentSvc service.AssessmentService, reportSvc service.ReportService) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentSvc: assessmentSvc,
		reportSvc:     reportSvc,
	}
}

// Submit handles POST /v1/assessments
func (h *AssessmentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var a model.Assessment
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a.SubmittedBy = middleware.GetUsername(r.Context())

	scored, err := h.assessmentSvc.Submit(r.Context(), &a)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "submission failed")
		return
	}

	writeJSON(w, http.StatusCreated, scored)
}

// List handles GET /v1/assessments
func (h *AssessmentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.AssessmentFilter{
		District: r.URL.Query().Get("district"),
		Facility: r.URL.Query().Get("facility"),
		Band:     r.URL.Query().Get("band"),
	}
	assessments, err := h.assessmentSvc.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	if assessments == nil {
		assessments = []*model.Assessment{}
	}
	writeJSON(w, http.StatusOK, assessments)
}

// Get handles GET /v1/assessments/{id}
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	a, err := h.assessmentSvc.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid assessment id")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "assessment not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Report handles GET /v1/assessments/{id}/report?format=xlsx|pdf
func (h *AssessmentHandler) Report(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	format := r.URL.Query().Get("format")
	if format == "" {
		format = service.FormatXLSX
	}

	path, filename, err := h.reportSvc.AssessmentReport(r.Context(), id, format, middleware.GetUsername(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			writeError(w, http.StatusNotFound, "assessment not found")
		case errors.Is(err, service.ErrBadFormat):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "report generation failed")
		}
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if format == service.FormatPDF {
		w.Header().Set("Content-Type", "application/pdf")
	} else {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	}
	http.ServeFile(w, r, path)
}

// Email handles POST /v1/assessments/{id}/email
func (h *AssessmentHandler) Email(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		Recipients []string `json:"recipients"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Recipients) == 0 {
		writeError(w, http.StatusBadRequest, "at least one recipient is required")
		return
	}

	err := h.reportSvc.EmailAssessment(r.Context(), id, req.Recipients, middleware.GetUsername(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			writeError(w, http.StatusNotFound, "assessment not found")
		case errors.Is(err, service.ErrMailDisabled):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "email delivery failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// Districts handles GET /v1/districts
func (h *AssessmentHandler) Districts(w http.ResponseWriter, r *http.Request) {
	districts, err := h.assessmentSvc.Districts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	if districts == nil {
		districts = []string{}
	}
	writeJSON(w, http.StatusOK, districts)
}

// DistrictSummary handles GET /v1/districts/{district}/summary
func (h *AssessmentHandler) DistrictSummary(w http.ResponseWriter, r *http.Request) {
	district := mux.Vars(r)["district"]
	summary, err := h.assessmentSvc.DistrictSummary(r.Context(), district)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "summary failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Ranking handles GET /v1/districts/{district}/ranking
func (h *AssessmentHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	district := mux.Vars(r)["district"]
	limit := 10
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = n
	}

	ranks, err := h.assessmentSvc.TopFacilities(r.Context(), district, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ranking failed")
		return
	}
	if ranks == nil {
		ranks = []model.FacilityRank{}
	}
	writeJSON(w, http.StatusOK, ranks)
}
