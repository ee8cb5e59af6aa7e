package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	CollectionCustomers           = "customers"
	CollectionCustomerOrders      = "customerOrders"
	CollectionOrders              = "orders"
	CollectionTestimonials        = "testimonials"
	CollectionVerifiedCombination = "verifiedCombinations"
	CollectionCourierIntegrations = "courierIntegrations"
	CollectionUsers               = "users"
	CollectionCounters            = "counters"
)

// NewMongo builds a Store over db. The client stays owned by the caller.
func NewMongo(db *mongo.Database) *Store {
	return &Store{
		Combinations: &mongoCombinations{coll: db.Collection(CollectionVerifiedCombination)},
		Orders: &mongoOrders{
			client:   db.Client(),
			orders:   db.Collection(CollectionOrders),
			mirrors:  db.Collection(CollectionCustomerOrders),
			counters: db.Collection(CollectionCounters),
		},
		Customers: &mongoCustomers{
			client: db.Client(),
			coll:   db.Collection(CollectionCustomers),
		},
		Testimonials: &mongoTestimonials{coll: db.Collection(CollectionTestimonials)},
		Couriers:     &mongoCouriers{coll: db.Collection(CollectionCourierIntegrations)},
		Users:        &mongoUsers{coll: db.Collection(CollectionUsers)},
		Health:       mongoPinger{client: db.Client()},
	}
}

type mongoPinger struct {
	client *mongo.Client
}

func (p mongoPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, readpref.Primary())
}

func withTransaction(ctx context.Context, client *mongo.Client, fn func(sessCtx mongo.SessionContext) error) error {
	session, err := client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrConflict
	default:
		return err
	}
}
