package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"adminpanel/internal/models"
)

type mongoTestimonials struct {
	coll *mongo.Collection
}

func (s *mongoTestimonials) List(ctx context.Context, activeOnly bool) ([]models.Testimonial, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "displayOrder", Value: 1},
		{Key: "createdAt", Value: -1},
	})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	testimonials := make([]models.Testimonial, 0)
	if err := cursor.All(ctx, &testimonials); err != nil {
		return nil, err
	}
	return testimonials, nil
}

func (s *mongoTestimonials) Get(ctx context.Context, id string) (*models.Testimonial, error) {
	var t models.Testimonial
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *mongoTestimonials) Create(ctx context.Context, t *models.Testimonial) error {
	_, err := s.coll.InsertOne(ctx, t)
	return translate(err)
}

func (s *mongoTestimonials) Update(ctx context.Context, t *models.Testimonial) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoTestimonials) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type mongoCouriers struct {
	coll *mongo.Collection
}

func (s *mongoCouriers) Get(ctx context.Context, courier string) (*models.CourierIntegration, error) {
	var integration models.CourierIntegration
	if err := s.coll.FindOne(ctx, bson.M{"_id": courier}).Decode(&integration); err != nil {
		return nil, translate(err)
	}
	return &integration, nil
}

func (s *mongoCouriers) Upsert(ctx context.Context, integration *models.CourierIntegration) error {
	_, err := s.coll.ReplaceOne(
		ctx,
		bson.M{"_id": integration.Courier},
		integration,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *mongoCouriers) List(ctx context.Context) ([]models.CourierIntegration, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	integrations := make([]models.CourierIntegration, 0)
	if err := cursor.All(ctx, &integrations); err != nil {
		return nil, err
	}
	return integrations, nil
}

type mongoUsers struct {
	coll *mongo.Collection
}

func (s *mongoUsers) GetAdminByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"email": email, "role": models.RoleAdmin}).Decode(&user)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
