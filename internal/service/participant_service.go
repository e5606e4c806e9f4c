package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"pmtctportal/internal/model"
	"pmtctportal/internal/repository"
)

var (
	// ErrDuplicateParticipant is returned when the same mobile number is
	// registered twice for one campaign day.
	ErrDuplicateParticipant = errors.New("participant already registered for this day")
	// ErrValidation wraps field-level registration problems.
	ErrValidation = errors.New("validation failed")
)

// Mobile numbers: local 0XXXXXXXXX or international +XXX... with 9-12 digits.
var mobileRe = regexp.MustCompile(`^(?:0\d{9}|\+\d{9,12})$`)

// ParticipantService handles participant registration and listing.
type ParticipantService interface {
	Register(ctx context.Context, p *model.Participant) (string, error)
	Get(ctx context.Context, id string) (*model.Participant, error)
	List(ctx context.Context, filter repository.ParticipantFilter) ([]*model.Participant, error)
}

type participantService struct {
	participants repository.ParticipantRepo
	activity     repository.ActivityRepo
	broadcaster  Broadcaster
}

// NewParticipantService creates a new participant service.
func NewParticipantService(participants repository.ParticipantRepo, activity repository.ActivityRepo, broadcaster Broadcaster) ParticipantService {
	return &participantService{
		participants: participants,
		activity:     activity,
		broadcaster:  broadcaster,
	}
}

func (s *participantService) Register(ctx context.Context, p *model.Participant) (string, error) {
	if err := s.validate(p); err != nil {
		return "", err
	}

	exists, err := s.participants.ExistsByMobile(ctx, p.MobileNumber, p.CampaignDay)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrDuplicateParticipant
	}

	id, err := s.participants.Create(ctx, p)
	if err != nil {
		return "", err
	}

	_ = s.activity.Record(ctx, &model.ActivityEntry{
		Username: p.SubmittedBy,
		Action:   model.ActionParticipantCreated,
		Detail:   p.ParticipantName,
	})
	s.broadcaster.BroadcastEvent("participant.registered", p)

	return id, nil
}

func (s *participantService) validate(p *model.Participant) error {
	p.ParticipantName = strings.TrimSpace(p.ParticipantName)
	p.MobileNumber = strings.ReplaceAll(strings.TrimSpace(p.MobileNumber), " ", "")

	if p.ParticipantName == "" {
		return fmt.Errorf("%w: participant name is required", ErrValidation)
	}
	if p.District == "" {
		return fmt.Errorf("%w: district is required", ErrValidation)
	}
	if !mobileRe.MatchString(p.MobileNumber) {
		return fmt.Errorf("%w: mobile number %q is not valid", ErrValidation, p.MobileNumber)
	}
	if p.CampaignDay < 1 || p.CampaignDay > 14 {
		return fmt.Errorf("%w: campaign day must be between 1 and 14", ErrValidation)
	}
	return nil
}

func (s *participantService) Get(ctx context.Context, id string) (*model.Participant, error) {
	return s.participants.GetByID(ctx, id)
}

func (s *participantService) List(ctx context.Context, filter repository.ParticipantFilter) ([]*model.Participant, error) {
	return s.participants.List(ctx, filter)
}
