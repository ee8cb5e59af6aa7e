package database

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates every index the store relies on. Failures are
// collected so one bad index does not hide the others.
func EnsureIndexes(db *mongo.Database) error {
	return errors.Join(
		EnsureCustomerIndexes(db),
		EnsureOrderIndexes(db),
		EnsureCombinationIndexes(db),
		EnsureTestimonialIndexes(db),
		EnsureUserIndexes(db),
	)
}

func createIndexes(db *mongo.Database, collection string, models ...mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Printf("EnsureIndexes: creating %d index(es) on %s", len(models), collection)
	names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
	if err != nil {
		log.Printf("EnsureIndexes: %s index error: %v", collection, err)
		return err
	}
	log.Printf("EnsureIndexes: %s indexes ready: %v", collection, names)
	return nil
}

// EnsureCustomerIndexes makes phone the unique secondary key.
func EnsureCustomerIndexes(db *mongo.Database) error {
	return createIndexes(db, "customers", mongo.IndexModel{
		Keys:    bson.D{{Key: "phone", Value: 1}},
		Options: options.Index().SetName("phone_unique").SetUnique(true),
	})
}

func EnsureOrderIndexes(db *mongo.Database) error {
	err := createIndexes(db, "orders",
		mongo.IndexModel{
			Keys:    bson.D{{Key: "customerInfo.customerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("customerId_createdAt"),
		},
		mongo.IndexModel{
			Keys:    bson.D{{Key: "internalStatus", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("internalStatus_createdAt"),
		},
		mongo.IndexModel{
			Keys: bson.D{{Key: "paymentInfo.razorpayOrderId", Value: 1}},
			Options: options.Index().
				SetName("razorpayOrderId_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"paymentInfo.razorpayOrderId": bson.M{"$exists": true},
				}),
		},
	)
	if err != nil {
		return err
	}
	return createIndexes(db, "customerOrders", mongo.IndexModel{
		Keys:    bson.D{{Key: "customerId", Value: 1}, {Key: "order.createdAt", Value: -1}},
		Options: options.Index().SetName("customerId_createdAt"),
	})
}

func EnsureCombinationIndexes(db *mongo.Database) error {
	return createIndexes(db, "verifiedCombinations",
		mongo.IndexModel{
			Keys:    bson.D{{Key: "productSkus", Value: 1}},
			Options: options.Index().SetName("productSkus_index"),
		},
		mongo.IndexModel{
			Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "usageCount", Value: -1}},
			Options: options.Index().SetName("isActive_usageCount"),
		},
	)
}

func EnsureTestimonialIndexes(db *mongo.Database) error {
	return createIndexes(db, "testimonials", mongo.IndexModel{
		Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "displayOrder", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("isActive_displayOrder_createdAt"),
	})
}

func EnsureUserIndexes(db *mongo.Database) error {
	return createIndexes(db, "users", mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_unique").SetUnique(true),
	})
}
