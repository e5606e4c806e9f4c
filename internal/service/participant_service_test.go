package service

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmtctportal/internal/model"
	"pmtctportal/internal/repository"
)

type fakeParticipantRepo struct {
	created []*model.Participant
}

func (f *fakeParticipantRepo) Create(_ context.Context, p *model.Participant) (string, error) {
	f.created = append(f.created, p)
	p.ID = "p" + strconv.Itoa(len(f.created))
	return p.ID, nil
}

func (f *fakeParticipantRepo) GetByID(_ context.Context, id string) (*model.Participant, error) {
	for _, p := range f.created {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeParticipantRepo) List(_ context.Context, filter repository.ParticipantFilter) ([]*model.Participant, error) {
	var out []*model.Participant
	for _, p := range f.created {
		if filter.District != "" && p.District != filter.District {
			continue
		}
		if filter.CampaignDay > 0 && p.CampaignDay != filter.CampaignDay {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeParticipantRepo) ExistsByMobile(_ context.Context, mobile string, day int) (bool, error) {
	for _, p := range f.created {
		if p.MobileNumber == mobile && p.CampaignDay == day {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeParticipantRepo) CountByDistrict(_ context.Context, district string) (int64, error) {
	var n int64
	for _, p := range f.created {
		if p.District == district {
			n++
		}
	}
	return n, nil
}

type fakeActivityRepo struct {
	entries []*model.ActivityEntry
}

func (f *fakeActivityRepo) Record(_ context.Context, e *model.ActivityEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeActivityRepo) Recent(_ context.Context, _ int64) ([]*model.ActivityEntry, error) {
	return f.entries, nil
}

func (f *fakeActivityRepo) ByUser(_ context.Context, username string, _ int64) ([]*model.ActivityEntry, error) {
	var out []*model.ActivityEntry
	for _, e := range f.entries {
		if e.Username == username {
			out = append(out, e)
		}
	}
	return out, nil
}

type captureBroadcaster struct {
	events []string
}

func (c *captureBroadcaster) BroadcastEvent(event string, _ interface{}) {
	c.events = append(c.events, event)
}

func validParticipant() *model.Participant {
	return &model.Participant{
		ParticipantName: "Jane Doe",
		Cadre:           "Midwife",
		DutyStation:     "Central Clinic",
		District:        "Kampala",
		MobileNumber:    "0700123456",
		CampaignDay:     3,
		SubmittedBy:     "assessor1",
	}
}

func TestRegisterParticipant(t *testing.T) {
	repo := &fakeParticipantRepo{}
	activity := &fakeActivityRepo{}
	bc := &captureBroadcaster{}
	svc := NewParticipantService(repo, activity, bc)

	id, err := svc.Register(context.Background(), validParticipant())
	require.NoError(t, err)
	assert.Equal(t, "p1", id)

	require.Len(t, activity.entries, 1)
	assert.Equal(t, model.ActionParticipantCreated, activity.entries[0].Action)
	assert.Equal(t, []string{"participant.registered"}, bc.events)
}

func TestRegisterParticipantValidation(t *testing.T) {
	svc := NewParticipantService(&fakeParticipantRepo{}, &fakeActivityRepo{}, NopBroadcaster{})

	cases := []struct {
		name   string
		mutate func(*model.Participant)
	}{
		{"missing name", func(p *model.Participant) { p.ParticipantName = "  " }},
		{"missing district", func(p *model.Participant) { p.District = "" }},
		{"short mobile", func(p *model.Participant) { p.MobileNumber = "07001" }},
		{"alpha mobile", func(p *model.Participant) { p.MobileNumber = "07001abcde" }},
		{"day too low", func(p *model.Participant) { p.CampaignDay = 0 }},
		{"day too high", func(p *model.Participant) { p.CampaignDay = 15 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validParticipant()
			tc.mutate(p)
			_, err := svc.Register(context.Background(), p)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegisterParticipantInternationalMobile(t *testing.T) {
	svc := NewParticipantService(&fakeParticipantRepo{}, &fakeActivityRepo{}, NopBroadcaster{})

	p := validParticipant()
	p.MobileNumber = "+256 700 123 456"
	_, err := svc.Register(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "+256700123456", p.MobileNumber)
}

func TestRegisterParticipantDuplicate(t *testing.T) {
	repo := &fakeParticipantRepo{}
	svc := NewParticipantService(repo, &fakeActivityRepo{}, NopBroadcaster{})

	_, err := svc.Register(context.Background(), validParticipant())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validParticipant())
	assert.ErrorIs(t, err, ErrDuplicateParticipant)

	// Same number on a different day is a fresh registration.
	p := validParticipant()
	p.CampaignDay = 4
	_, err = svc.Register(context.Background(), p)
	assert.NoError(t, err)
}
