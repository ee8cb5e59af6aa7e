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

type mongoCustomers struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func (s *mongoCustomers) Get(ctx context.Context, id string) (*models.Customer, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *mongoCustomers) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return s.findOne(ctx, bson.M{"phone": phone})
}

func (s *mongoCustomers) Create(ctx context.Context, customer *models.Customer) error {
	_, err := s.coll.InsertOne(ctx, customer)
	return translate(err)
}

func (s *mongoCustomers) List(ctx context.Context, page, limit int64) ([]models.Customer, int64, error) {
	skip, limit := pageBounds(page, limit)
	opts := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var (
		total     int64
		customers []models.Customer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.coll.CountDocuments(gctx, bson.M{})
		return err
	})
	g.Go(func() error {
		cursor, err := s.coll.Find(gctx, bson.M{}, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(gctx)
		customers = make([]models.Customer, 0)
		return cursor.All(gctx, &customers)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

func (s *mongoCustomers) SaveAddresses(ctx context.Context, id string, addresses []models.Address, defaultAddress *models.Address, expectedVersion int64, at time.Time) (*models.Customer, error) {
	filter := bson.M{"_id": id, "version": expectedVersion}
	if expectedVersion == 0 {
		// documents written before versioning have no version field
		filter["version"] = bson.M{"$in": bson.A{0, nil}}
	}

	update := bson.M{
		"$set": bson.M{
			"addresses": addresses,
			"updatedAt": models.NewTimestamp(at),
		},
		"$inc": bson.M{"version": 1},
	}
	if defaultAddress != nil {
		update["$set"].(bson.M)["defaultAddress"] = defaultAddress
	} else {
		update["$unset"] = bson.M{"defaultAddress": ""}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var customer models.Customer
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&customer)
	if err == nil {
		return &customer, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	if _, getErr := s.Get(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrConflict
}

func (s *mongoCustomers) RecordOrder(ctx context.Context, id string, at time.Time) error {
	res, err := s.coll.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"stats.orderCount": 1},
		"$set": bson.M{
			"stats.lastOrderAt": models.NewTimestamp(at),
			"updatedAt":         models.NewTimestamp(at),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoCustomers) RecordDelivery(ctx context.Context, id string, amount float64, at time.Time) (*models.Customer, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var customer models.Customer
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{
			"stats.deliveredCount": 1,
			"stats.totalSpent":     amount,
		},
		"$set": bson.M{"updatedAt": models.NewTimestamp(at)},
	}, opts).Decode(&customer)
	if err != nil {
		return nil, translate(err)
	}

	tier := models.LoyaltyTierFor(customer.Stats.TotalSpent)
	if tier != customer.LoyaltyTier {
		if _, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"loyaltyTier": tier}}); err != nil {
			return nil, err
		}
		customer.LoyaltyTier = tier
	}
	return &customer, nil
}

func (s *mongoCustomers) ListLegacyKeyed(ctx context.Context) ([]models.Customer, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$phone"}}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	customers := make([]models.Customer, 0)
	if err := cursor.All(ctx, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// Rekey deletes before inserting so the unique phone index never sees two
// copies inside the transaction.
func (s *mongoCustomers) Rekey(ctx context.Context, fromID, toID string) error {
	return withTransaction(ctx, s.client, func(sessCtx mongo.SessionContext) error {
		var customer models.Customer
		if err := s.coll.FindOne(sessCtx, bson.M{"_id": fromID}).Decode(&customer); err != nil {
			return translate(err)
		}
		if _, err := s.coll.DeleteOne(sessCtx, bson.M{"_id": fromID}); err != nil {
			return err
		}
		customer.ID = toID
		customer.Version++
		_, err := s.coll.InsertOne(sessCtx, customer)
		return translate(err)
	})
}

func (s *mongoCustomers) findOne(ctx context.Context, filter bson.M) (*models.Customer, error) {
	var customer models.Customer
	if err := s.coll.FindOne(ctx, filter).Decode(&customer); err != nil {
		return nil, translate(err)
	}
	return &customer, nil
}
