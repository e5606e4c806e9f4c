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

// ParticipantFilter narrows participant listings.
type ParticipantFilter struct {
	District    string
	CampaignDay int
}

// ParticipantRepo handles MongoDB operations for participant registrations.
type ParticipantRepo interface {
	Create(ctx context.Context, p *model.Participant) (string, error)
	GetByID(ctx context.Context, id string) (*model.Participant, error)
	List(ctx context.Context, filter ParticipantFilter) ([]*model.Participant, error)
	ExistsByMobile(ctx context.Context, mobile string, day int) (bool, error)
	CountByDistrict(ctx context.Context, district string) (int64, error)
}

type participantRepo struct {
	collection *mongo.Collection
}

// NewParticipantRepo creates a new participant repository.
func NewParticipantRepo(db *mongo.Database) ParticipantRepo {
	return &participantRepo{
		collection: db.Collection("participants"),
	}
}

func (r *participantRepo) Create(ctx context.Context, p *model.Participant) (string, error) {
	p.CreatedAt = time.Now()
	if p.RegistrationDate.IsZero() {
		p.RegistrationDate = p.CreatedAt
	}

	result, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", nil
	}
	p.ID = oid.Hex()
	return p.ID, nil
}

func (r *participantRepo) GetByID(ctx context.Context, id string) (*model.Participant, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var p model.Participant
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

func (r *participantRepo) List(ctx context.Context, filter ParticipantFilter) ([]*model.Participant, error) {
	query := bson.M{}
	if filter.District != "" {
		query["district"] = filter.District
	}
	if filter.CampaignDay > 0 {
		query["campaignDay"] = filter.CampaignDay
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var participants []*model.Participant
	if err := cursor.All(ctx, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *participantRepo) ExistsByMobile(ctx context.Context, mobile string, day int) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"mobileNumber": mobile,
		"campaignDay":  day,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *participantRepo) CountByDistrict(ctx context.Context, district string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"district": district})
}
