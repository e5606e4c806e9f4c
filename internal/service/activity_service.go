package service

import (
	"context"

	"pmtctportal/internal/model"
	"pmtctportal/internal/repository"
)

// ActivityService exposes the audit trail to the admin dashboard.
type ActivityService interface {
	Recent(ctx context.Context, limit int64) ([]*model.ActivityEntry, error)
	ByUser(ctx context.Context, username string, limit int64) ([]*model.ActivityEntry, error)
}

type activityService struct {
	activity repository.ActivityRepo
}

// NewActivityService creates a new activity service.
func NewActivityService(activity repository.ActivityRepo) ActivityService {
	return &activityService{activity: activity}
}

func (s *activityService) Recent(ctx context.Context, limit int64) ([]*model.ActivityEntry, error) {
	return s.activity.Recent(ctx, limit)
}

func (s *activityService) ByUser(ctx context.Context, username string, limit int64) ([]*model.ActivityEntry, error) {
	return s.activity.ByUser(ctx, username, limit)
}
