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

// ParticipantHandler handles participant registration endpoints
type ParticipantHandler struct {
	participantSvc service.ParticipantService
	reportSvc      service.ReportService
}

// NewParticipantHandler creates a new participant handler
func NewParticipantHandler(participantSvc service.ParticipantService, reportSvc service.ReportService) *ParticipantHandler {
	return &ParticipantHandler{
		participantSvc: participantSvc,
		reportSvc:      reportSvc,
	}
}

// Create handles POST /v1/participants
func (h *ParticipantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p model.Participant
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.SubmittedBy = middleware.GetUsername(r.Context())

	id, err := h.participantSvc.Register(r.Context(), &p)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateParticipant):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// List handles GET /v1/participants
func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := participantFilter(r)
	participants, err := h.participantSvc.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	if participants == nil {
		participants = []*model.Participant{}
	}
	writeJSON(w, http.StatusOK, participants)
}

// Get handles GET /v1/participants/{id}
func (h *ParticipantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, err := h.participantSvc.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid participant id")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "participant not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Export handles GET /v1/participants/export
func (h *ParticipantHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter := participantFilter(r)
	path, filename, err := h.reportSvc.ParticipantsReport(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}

func participantFilter(r *http.Request) repository.ParticipantFilter {
	filter := repository.ParticipantFilter{
		District: r.URL.Query().Get("district"),
	}
	if day, err := strconv.Atoi(r.URL.Query().Get("day")); err == nil {
		filter.CampaignDay = day
	}
	return filter
}
