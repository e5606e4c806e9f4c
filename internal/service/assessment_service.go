package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pmtctportal/internal/cache"
	"pmtctportal/internal/model"
	"pmtctportal/internal/repository"
	"pmtctportal/internal/scoring"
	"pmtctportal/internal/spec"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// AssessmentService scores submitted assessments and serves the dashboard.
type AssessmentService interface {
	Submit(ctx context.Context, a *model.Assessment) (*model.Assessment, error)
	Get(ctx context.Context, id string) (*model.Assessment, error)
	List(ctx context.Context, filter repository.AssessmentFilter) ([]*model.Assessment, error)
	Districts(ctx context.Context) ([]string, error)
	DistrictSummary(ctx context.Context, district string) (*model.DistrictSummary, error)
	TopFacilities(ctx context.Context, district string, limit int) ([]model.FacilityRank, error)
	Delete(ctx context.Context, id string) error
}

type assessmentService struct {
	doc          *spec.Document
	policy       scoring.Policy
	assessments  repository.AssessmentRepo
	participants repository.ParticipantRepo
	activity     repository.ActivityRepo
	summaries    cache.SummaryCache
	broadcaster  Broadcaster
	logger       *zap.Logger
}

// NewAssessmentService creates a new assessment service.
func NewAssessmentService(
	doc *spec.Document,
	policy scoring.Policy,
	assessments repository.AssessmentRepo,
	participants repository.ParticipantRepo,
	activity repository.ActivityRepo,
	summaries cache.SummaryCache,
	broadcaster Broadcaster,
	logger *zap.Logger,
) AssessmentService {
	return &assessmentService{
		doc:          doc,
		policy:       policy,
		assessments:  assessments,
		participants: participants,
		activity:     activity,
		summaries:    summaries,
		broadcaster:  broadcaster,
		logger:       logger,
	}
}

// Submit scores the raw responses, persists the assessment, and refreshes
// the district dashboard.
func (s *assessmentService) Submit(ctx context.Context, a *model.Assessment) (*model.Assessment, error) {
	if a.FacilityName == "" {
		return nil, fmt.Errorf("%w: facility name is required", ErrValidation)
	}
	if a.District == "" {
		return nil, fmt.Errorf("%w: district is required", ErrValidation)
	}

	result, warnings := scoring.EvaluateAll(s.doc, scoring.Responses(a.Responses), s.policy)

	a.SectionScores = make([]model.SectionScore, 0, len(result.PerSection))
	for _, sr := range result.PerSection {
		score := model.SectionScore{
			SectionID:        sr.SectionID,
			Status:           sr.Status.String(),
			DecidingQuestion: sr.DecidingQuestion,
		}
		if sr.Status == scoring.StatusGraded {
			score.Grade = int(sr.Grade)
		}
		if sec := s.doc.Section(sr.SectionID); sec != nil {
			score.Title = sec.Title
		}
		a.SectionScores = append(a.SectionScores, score)
	}

	a.Points = result.Points
	a.MaxPoints = result.MaxPoints
	a.OverallPct = result.Percentage
	a.Band = string(result.Band)
	a.Warnings = nil
	for _, w := range warnings {
		a.Warnings = append(a.Warnings, formatWarning(w))
	}

	id, err := s.assessments.Create(ctx, a)
	if err != nil {
		return nil, err
	}

	if err := s.summaries.UpdateFacilityScore(ctx, a.District, a.FacilityName, a.OverallPct); err != nil {
		s.logger.Warn("facility ranking update failed", zap.String("district", a.District), zap.Error(err))
	}
	if err := s.summaries.InvalidateDistrict(ctx, a.District); err != nil {
		s.logger.Warn("district summary invalidation failed", zap.String("district", a.District), zap.Error(err))
	}

	_ = s.activity.Record(ctx, &model.ActivityEntry{
		Username: a.SubmittedBy,
		Action:   model.ActionAssessmentSubmitted,
		Detail:   fmt.Sprintf("%s (%s): %.1f%% %s", a.FacilityName, a.District, a.OverallPct, a.Band),
	})
	s.broadcaster.BroadcastEvent("assessment.submitted", map[string]interface{}{
		"id":           id,
		"facilityName": a.FacilityName,
		"district":     a.District,
		"overallPct":   a.OverallPct,
		"band":         a.Band,
	})

	return a, nil
}

func formatWarning(w scoring.Warning) string {
	switch {
	case w.Field != "":
		return fmt.Sprintf("%s/%s: field %s: %s", w.SectionID, w.QuestionID, w.Field, w.Detail)
	case w.QuestionID != "":
		return fmt.Sprintf("%s/%s: %s", w.SectionID, w.QuestionID, w.Detail)
	default:
		return fmt.Sprintf("%s: %s", w.SectionID, w.Detail)
	}
}

func (s *assessmentService) Get(ctx context.Context, id string) (*model.Assessment, error) {
	return s.assessments.GetByID(ctx, id)
}

func (s *assessmentService) List(ctx context.Context, filter repository.AssessmentFilter) ([]*model.Assessment, error) {
	return s.assessments.List(ctx, filter)
}

func (s *assessmentService) Districts(ctx context.Context) ([]string, error) {
	return s.assessments.Districts(ctx)
}

// DistrictSummary returns the cached summary, recomputing it from MongoDB
// on a cache miss.
func (s *assessmentService) DistrictSummary(ctx context.Context, district string) (*model.DistrictSummary, error) {
	cached, err := s.summaries.GetDistrictSummary(ctx, district)
	if err != nil {
		s.logger.Warn("summary cache read failed", zap.String("district", district), zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	assessments, err := s.assessments.ListByDistrict(ctx, district)
	if err != nil {
		return nil, err
	}
	participants, err := s.participants.CountByDistrict(ctx, district)
	if err != nil {
		return nil, err
	}

	summary := &model.DistrictSummary{
		District:      district,
		Assessments:   len(assessments),
		Participants:  int(participants),
		BandBreakdown: make(map[string]int),
	}
	var total float64
	for _, a := range assessments {
		total += a.OverallPct
		summary.BandBreakdown[a.Band]++
	}
	if len(assessments) > 0 {
		summary.AveragePct = total / float64(len(assessments))
	}

	if err := s.summaries.SetDistrictSummary(ctx, summary); err != nil {
		s.logger.Warn("summary cache write failed", zap.String("district", district), zap.Error(err))
	}
	return summary, nil
}

func (s *assessmentService) TopFacilities(ctx context.Context, district string, limit int) ([]model.FacilityRank, error) {
	ranks, err := s.summaries.TopFacilities(ctx, district, limit)
	if err != nil || len(ranks) > 0 {
		return ranks, err
	}

	// Cold cache: rebuild the ranking from stored assessments.
	assessments, err := s.assessments.ListByDistrict(ctx, district)
	if err != nil {
		return nil, err
	}
	for _, a := range assessments {
		if err := s.summaries.UpdateFacilityScore(ctx, district, a.FacilityName, a.OverallPct); err != nil {
			return nil, err
		}
	}
	return s.summaries.TopFacilities(ctx, district, limit)
}

func (s *assessmentService) Delete(ctx context.Context, id string) error {
	a, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}
	if err := s.assessments.Delete(ctx, id); err != nil {
		return err
	}
	return s.summaries.InvalidateDistrict(ctx, a.District)
}
