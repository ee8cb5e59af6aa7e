package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"adminpanel/internal/models"
)

type mongoCombinations struct {
	coll *mongo.Collection
}

func (s *mongoCombinations) Get(ctx context.Context, hash string) (*models.VerifiedCombination, error) {
	var rec models.VerifiedCombination
	if err := s.coll.FindOne(ctx, bson.M{"_id": hash}).Decode(&rec); err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// Create relies on the _id uniqueness of the hash, so a concurrent duplicate
// surfaces as a duplicate key error rather than an overwrite.
func (s *mongoCombinations) Create(ctx context.Context, rec *models.VerifiedCombination) error {
	_, err := s.coll.InsertOne(ctx, rec)
	return translate(err)
}

func (s *mongoCombinations) RecordUsage(ctx context.Context, hash string, at time.Time) (*models.VerifiedCombination, error) {
	update := bson.M{
		"$inc": bson.M{"usageCount": 1},
		"$set": bson.M{"lastUsedAt": models.NewTimestamp(at)},
	}
	return s.findAndUpdate(ctx, hash, update)
}

func (s *mongoCombinations) Update(ctx context.Context, hash string, patch CombinationPatch, by string, at time.Time) (*models.VerifiedCombination, error) {
	set := bson.M{
		"updatedBy": by,
		"updatedAt": models.NewTimestamp(at),
	}
	if patch.Weight != nil {
		set["weight"] = *patch.Weight
	}
	if patch.Dimensions != nil {
		set["dimensions"] = *patch.Dimensions
	}
	if patch.Notes != nil {
		set["notes"] = *patch.Notes
	}
	if patch.IsActive != nil {
		set["isActive"] = *patch.IsActive
	}
	return s.findAndUpdate(ctx, hash, bson.M{"$set": set})
}

func (s *mongoCombinations) Deactivate(ctx context.Context, hash, by string, at time.Time) (*models.VerifiedCombination, error) {
	return s.findAndUpdate(ctx, hash, bson.M{"$set": bson.M{
		"isActive":  false,
		"updatedBy": by,
		"updatedAt": models.NewTimestamp(at),
	}})
}

func (s *mongoCombinations) List(ctx context.Context, filter CombinationFilter) ([]models.VerifiedCombination, int64, error) {
	query := bson.M{}
	if filter.SKU != "" {
		query["productSkus"] = filter.SKU
	}
	if filter.ActiveOnly {
		query["isActive"] = true
	}

	skip, limit := pageBounds(filter.Page, filter.Limit)
	opts := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "usageCount", Value: -1}, {Key: "verifiedAt", Value: -1}})

	var (
		total   int64
		records []models.VerifiedCombination
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.coll.CountDocuments(gctx, query)
		return err
	})
	g.Go(func() error {
		cursor, err := s.coll.Find(gctx, query, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(gctx)
		records = make([]models.VerifiedCombination, 0)
		return cursor.All(gctx, &records)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (s *mongoCombinations) findAndUpdate(ctx context.Context, hash string, update bson.M) (*models.VerifiedCombination, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec models.VerifiedCombination
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": hash}, update, opts).Decode(&rec); err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}
