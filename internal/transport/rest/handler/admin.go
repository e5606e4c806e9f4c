package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pmtctportal/internal/model"
	"pmtctportal/internal/service"
)

// AdminHandler handles superuser-only endpoints
type AdminHandler struct {
	authSvc       service.AuthService
	activitySvc   service.ActivityService
	assessmentSvc service.AssessmentService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authSvc service.AuthService, activitySvc service.ActivityService, assessmentSvc service.AssessmentService) *AdminHandler {
	return &AdminHandler{
		authSvc:       authSvc,
		activitySvc:   activitySvc,
		assessmentSvc: assessmentSvc,
	}
}

// CreateUser handles POST /v1/admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "username and a password of at least 8 characters are required")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}

	user, err := h.authSvc.CreateUser(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// ListUsers handles GET /v1/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authSvc.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	if users == nil {
		users = []*model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// DeleteUser handles DELETE /v1/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.authSvc.DeleteUser(r.Context(), id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Summary handles GET /v1/admin/summary
func (h *AdminHandler) Summary(w http.ResponseWriter, r *http.Request) {
	districts := []string{}
	if d := r.URL.Query().Get("district"); d != "" {
		districts = append(districts, d)
	} else {
		all, err := h.assessmentSvc.Districts(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "summary failed")
			return
		}
		districts = all
	}

	summaries := make([]*model.DistrictSummary, 0, len(districts))
	for _, d := range districts {
		s, err := h.assessmentSvc.DistrictSummary(r.Context(), d)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "summary failed")
			return
		}
		summaries = append(summaries, s)
	}
	writeJSON(w, http.StatusOK, summaries)
}

// Activity handles GET /v1/admin/activity
func (h *AdminHandler) Activity(w http.ResponseWriter, r *http.Request) {
	limit := int64(50)
	if n, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && n > 0 {
		limit = n
	}

	var entries []*model.ActivityEntry
	var err error
	if username := r.URL.Query().Get("username"); username != "" {
		entries, err = h.activitySvc.ByUser(r.Context(), username, limit)
	} else {
		entries, err = h.activitySvc.Recent(r.Context(), limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	if entries == nil {
		entries = []*model.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// DeleteAssessment handles DELETE /v1/admin/assessments/{id}
func (h *AdminHandler) DeleteAssessment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.assessmentSvc.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "assessment not found")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid assessment id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
