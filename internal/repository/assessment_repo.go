package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pmtctportal/internal/model"
)

// AssessmentFilter narrows assessment listings.
type AssessmentFilter struct {
	District string
	Facility string
	Band     string
}

// AssessmentRepo handles MongoDB operations for scored facility assessments.
type AssessmentRepo interface {
	Create(ctx context.Context, a *model.Assessment) (string, error)
	GetByID(ctx context.Context, id string) (*model.Assessment, error)
	List(ctx context.Context, filter AssessmentFilter) ([]*model.Assessment, error)
	ListByDistrict(ctx context.Context, district string) ([]*model.Assessment, error)
	Districts(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

type assessmentRepo struct {
	collection *mongo.Collection
}

// NewAssessmentRepo creates a new assessment repository.
func NewAssessmentRepo(db *mongo.Database) AssessmentRepo {
	return &assessmentRepo{
		collection: db.Collection("assessments"),
	}
}

func (r *assessmentRepo) Create(ctx context.Context, a *model.Assessment) (string, error) {
	a.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, a)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", nil
	}
	a.ID = oid.Hex()
	return a.ID, nil
}

func (r *assessmentRepo) GetByID(ctx context.Context, id string) (*model.Assessment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var a model.Assessment
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.ID = id
	return &a, nil
}

func (r *assessmentRepo) List(ctx context.Context, filter AssessmentFilter) ([]*model.Assessment, error) {
	query := bson.M{}
	if filter.District != "" {
		query["district"] = filter.District
	}
	if filter.Facility != "" {
		query["facilityName"] = filter.Facility
	}
	if filter.Band != "" {
		query["band"] = filter.Band
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assessments []*model.Assessment
	if err := cursor.All(ctx, &assessments); err != nil {
		return nil, err
	}
	return assessments, nil
}

func (r *assessmentRepo) ListByDistrict(ctx context.Context, district string) ([]*model.Assessment, error) {
	return r.List(ctx, AssessmentFilter{District: district})
}

func (r *assessmentRepo) Districts(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "district", bson.M{})
	if err != nil {
		return nil, err
	}

	districts := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			districts = append(districts, s)
		}
	}
	return districts, nil
}

func (r *assessmentRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
