package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pmtctportal/internal/model"
)

// ActivityRepo handles MongoDB operations for the audit trail.
type ActivityRepo interface {
	Record(ctx context.Context, e *model.ActivityEntry) error
	Recent(ctx context.Context, limit int64) ([]*model.ActivityEntry, error)
	ByUser(ctx context.Context, username string, limit int64) ([]*model.ActivityEntry, error)
}

type activityRepo struct {
	collection *mongo.Collection
}

// NewActivityRepo creates a new activity repository.
func NewActivityRepo(db *mongo.Database) ActivityRepo {
	return &activityRepo{
		collection: db.Collection("activity"),
	}
}

func (r *activityRepo) Record(ctx context.Context, e *model.ActivityEntry) error {
	e.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, e)
	return err
}

func (r *activityRepo) Recent(ctx context.Context, limit int64) ([]*model.ActivityEntry, error) {
	return r.find(ctx, bson.M{}, limit)
}

func (r *activityRepo) ByUser(ctx context.Context, username string, limit int64) ([]*model.ActivityEntry, error) {
	return r.find(ctx, bson.M{"username": username}, limit)
}

func (r *activityRepo) find(ctx context.Context, query bson.M, limit int64) ([]*model.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*model.ActivityEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
