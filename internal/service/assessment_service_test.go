package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pmtctportal/internal/model"
	"pmtctportal/internal/repository"
	"pmtctportal/internal/scoring"
	"pmtctportal/internal/spec"
)

type fakeAssessmentRepo struct {
	created []*model.Assessment
}

func (f *fakeAssessmentRepo) Create(_ context.Context, a *model.Assessment) (string, error) {
	f.created = append(f.created, a)
	a.ID = "a" + strconv.Itoa(len(f.created))
	return a.ID, nil
}

func (f *fakeAssessmentRepo) GetByID(_ context.Context, id string) (*model.Assessment, error) {
	for _, a := range f.created {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeAssessmentRepo) List(_ context.Context, filter repository.AssessmentFilter) ([]*model.Assessment, error) {
	var out []*model.Assessment
	for _, a := range f.created {
		if filter.District != "" && a.District != filter.District {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAssessmentRepo) ListByDistrict(ctx context.Context, district string) ([]*model.Assessment, error) {
	return f.List(ctx, repository.AssessmentFilter{District: district})
}

func (f *fakeAssessmentRepo) Districts(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, a := range f.created {
		if !seen[a.District] {
			seen[a.District] = true
			out = append(out, a.District)
		}
	}
	return out, nil
}

func (f *fakeAssessmentRepo) Delete(_ context.Context, id string) error {
	for i, a := range f.created {
		if a.ID == id {
			f.created = append(f.created[:i], f.created[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeSummaryCache struct {
	summaries map[string]*model.DistrictSummary
	scores    map[string]map[string]float64 // district -> facility -> pct
}

func newFakeSummaryCache() *fakeSummaryCache {
	return &fakeSummaryCache{
		summaries: map[string]*model.DistrictSummary{},
		scores:    map[string]map[string]float64{},
	}
}

func (f *fakeSummaryCache) GetDistrictSummary(_ context.Context, district string) (*model.DistrictSummary, error) {
	return f.summaries[district], nil
}

func (f *fakeSummaryCache) SetDistrictSummary(_ context.Context, s *model.DistrictSummary) error {
	f.summaries[s.District] = s
	return nil
}

func (f *fakeSummaryCache) InvalidateDistrict(_ context.Context, district string) error {
	delete(f.summaries, district)
	return nil
}

func (f *fakeSummaryCache) UpdateFacilityScore(_ context.Context, district, facility string, pct float64) error {
	if f.scores[district] == nil {
		f.scores[district] = map[string]float64{}
	}
	f.scores[district][facility] = pct
	return nil
}

func (f *fakeSummaryCache) TopFacilities(_ context.Context, district string, limit int) ([]model.FacilityRank, error) {
	var out []model.FacilityRank
	for name, pct := range f.scores[district] {
		out = append(out, model.FacilityRank{FacilityName: name, OverallPct: pct})
	}
	return out, nil
}

func (f *fakeSummaryCache) FacilityRank(_ context.Context, district, facility string) (int64, error) {
	if _, ok := f.scores[district][facility]; ok {
		return 1, nil
	}
	return -1, nil
}

func newTestAssessmentService(t *testing.T) (AssessmentService, *fakeAssessmentRepo, *fakeSummaryCache, *captureBroadcaster, *fakeActivityRepo) {
	t.Helper()
	doc, err := spec.Load("")
	require.NoError(t, err)

	assessments := &fakeAssessmentRepo{}
	participants := &fakeParticipantRepo{}
	activity := &fakeActivityRepo{}
	summaries := newFakeSummaryCache()
	bc := &captureBroadcaster{}

	svc := NewAssessmentService(doc, scoring.Policy{}, assessments, participants, activity, summaries, bc, zap.NewNop())
	return svc, assessments, summaries, bc, activity
}

func TestSubmitScoresAndPersists(t *testing.T) {
	svc, repo, summaries, bc, activity := newTestAssessmentService(t)

	a := &model.Assessment{
		FacilityName:   "St. Mary HC III",
		District:       "Gulu",
		AssessorName:   "assessor1",
		AssessmentDate: time.Now(),
		SubmittedBy:    "assessor1",
		Responses: map[string]string{
			"pr_q1": "yes", "pr_q2": "yes", "pr_q3": "yes", "pr_q4": "yes",
		},
	}

	scored, err := svc.Submit(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, repo.created, 1)

	// One graded section at 4 points, the rest unanswered.
	assert.Equal(t, 4, scored.Points)
	assert.Equal(t, 18*4, scored.MaxPoints)
	assert.Equal(t, string(scoring.BandCritical), scored.Band)

	var prScore *model.SectionScore
	for i := range scored.SectionScores {
		if scored.SectionScores[i].SectionID == "patient_records" {
			prScore = &scored.SectionScores[i]
		}
	}
	require.NotNil(t, prScore)
	assert.Equal(t, "graded", prScore.Status)
	assert.Equal(t, 4, prScore.Grade)
	assert.Equal(t, "pr_q4", prScore.DecidingQuestion)
	assert.Equal(t, "Patient/Beneficiary Records", prScore.Title)

	// Dashboard side effects.
	assert.Equal(t, scored.OverallPct, summaries.scores["Gulu"]["St. Mary HC III"])
	assert.Equal(t, []string{"assessment.submitted"}, bc.events)
	require.Len(t, activity.entries, 1)
	assert.Equal(t, model.ActionAssessmentSubmitted, activity.entries[0].Action)
}

func TestSubmitRequiresFacility(t *testing.T) {
	svc, _, _, _, _ := newTestAssessmentService(t)

	_, err := svc.Submit(context.Background(), &model.Assessment{District: "Gulu"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Submit(context.Background(), &model.Assessment{FacilityName: "HC"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmitCarriesWarnings(t *testing.T) {
	svc, _, _, _, _ := newTestAssessmentService(t)

	a := &model.Assessment{
		FacilityName: "HC II",
		District:     "Gulu",
		Responses: map[string]string{
			"as_q1": "yes", "as_q2": "yes", "as_q3": "ten",
		},
	}
	scored, err := svc.Submit(context.Background(), a)
	require.NoError(t, err)
	require.NotEmpty(t, scored.Warnings)
	assert.Contains(t, scored.Warnings[0], "as_q3")
}

func TestDistrictSummaryRecomputesOnMiss(t *testing.T) {
	svc, _, summaries, _, _ := newTestAssessmentService(t)

	for _, facility := range []string{"HC A", "HC B"} {
		_, err := svc.Submit(context.Background(), &model.Assessment{
			FacilityName: facility,
			District:     "Lira",
			Responses: map[string]string{
				"pr_q1": "yes", "pr_q2": "yes", "pr_q3": "yes", "pr_q4": "yes",
			},
		})
		require.NoError(t, err)
	}

	// Submissions invalidate; the next read rebuilds and re-caches.
	require.Nil(t, summaries.summaries["Lira"])
	summary, err := svc.DistrictSummary(context.Background(), "Lira")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Assessments)
	assert.NotNil(t, summaries.summaries["Lira"])
}

func TestDeleteAssessmentInvalidatesSummary(t *testing.T) {
	svc, repo, summaries, _, _ := newTestAssessmentService(t)

	scored, err := svc.Submit(context.Background(), &model.Assessment{
		FacilityName: "HC A",
		District:     "Mbale",
		Responses:    map[string]string{"pr_q1": "yes"},
	})
	require.NoError(t, err)

	_, err = svc.DistrictSummary(context.Background(), "Mbale")
	require.NoError(t, err)
	require.NotNil(t, summaries.summaries["Mbale"])

	require.NoError(t, svc.Delete(context.Background(), scored.ID))
	assert.Empty(t, repo.created)
	assert.Nil(t, summaries.summaries["Mbale"])

	assert.ErrorIs(t, svc.Delete(context.Background(), "missing"), ErrNotFound)
}
