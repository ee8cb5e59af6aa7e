package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"adminpanel/internal/models"
)

const orderSequence = "orders"

type mongoOrders struct {
	client   *mongo.Client
	orders   *mongo.Collection
	mirrors  *mongo.Collection
	counters *mongo.Collection
}

func (s *mongoOrders) NextOrderID(ctx context.Context) (string, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": orderSequence},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return "", err
	}
	return FormatOrderID(counter.Seq), nil
}

// FormatOrderID renders the human-facing sequential order id.
func FormatOrderID(seq int64) string {
	return fmt.Sprintf("ORD-%06d", seq)
}

func (s *mongoOrders) Create(ctx context.Context, order *models.Order) error {
	return withTransaction(ctx, s.client, func(sessCtx mongo.SessionContext) error {
		if _, err := s.orders.InsertOne(sessCtx, order); err != nil {
			return translate(err)
		}
		return s.writeMirror(sessCtx, order, order.UpdatedAt.Time)
	})
}

func (s *mongoOrders) Get(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	if err := s.orders.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *mongoOrders) GetByPaymentReference(ctx context.Context, razorpayOrderID string) (*models.Order, error) {
	var order models.Order
	err := s.orders.FindOne(ctx, bson.M{"paymentInfo.razorpayOrderId": razorpayOrderID}).Decode(&order)
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *mongoOrders) Save(ctx context.Context, order *models.Order) error {
	expected := order.Version
	filter := bson.M{"_id": order.OrderID, "version": expected}
	if expected == 0 {
		// orders written before versioning have no version field
		filter["version"] = bson.M{"$in": bson.A{0, nil}}
	}

	order.Version = expected + 1
	err := withTransaction(ctx, s.client, func(sessCtx mongo.SessionContext) error {
		res, err := s.orders.ReplaceOne(sessCtx, filter, order)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			n, err := s.orders.CountDocuments(sessCtx, bson.M{"_id": order.OrderID})
			if err != nil {
				return err
			}
			if n == 0 {
				return ErrNotFound
			}
			return ErrConflict
		}
		return s.writeMirror(sessCtx, order, order.UpdatedAt.Time)
	})
	if err != nil {
		order.Version = expected
	}
	return err
}

func (s *mongoOrders) List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["internalStatus"] = filter.Status
	}
	if filter.CustomerID != "" {
		query["customerInfo.customerId"] = filter.CustomerID
	}
	if filter.Source != "" {
		query["orderSource"] = filter.Source
	}

	skip, limit := pageBounds(filter.Page, filter.Limit)
	opts := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var (
		total  int64
		orders []models.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.orders.CountDocuments(gctx, query)
		return err
	})
	g.Go(func() error {
		cursor, err := s.orders.Find(gctx, query, opts)
		if err != nil {
			return err
		}
		orders, err = decodeValidOrders(gctx, cursor, func(raw bson.Raw) (models.Order, error) {
			var order models.Order
			err := bson.Unmarshal(raw, &order)
			return order, err
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *mongoOrders) Scan(ctx context.Context, fn func(*models.Order) error) error {
	cursor, err := s.orders.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var order models.Order
		if err := cursor.Decode(&order); err != nil {
			log.Printf("[ORDER] [WARN] skipping undecodable order %v: %v", cursor.Current.Lookup("_id"), err)
			continue
		}
		if err := fn(&order); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func (s *mongoOrders) GetMirror(ctx context.Context, customerID, orderID string) (*models.CustomerOrder, error) {
	var mirror models.CustomerOrder
	err := s.mirrors.FindOne(ctx, bson.M{"_id": models.MirrorID(customerID, orderID)}).Decode(&mirror)
	if err != nil {
		return nil, translate(err)
	}
	return &mirror, nil
}

func (s *mongoOrders) SaveMirror(ctx context.Context, order *models.Order, at time.Time) error {
	return s.writeMirror(ctx, order, at)
}

func (s *mongoOrders) ListMirror(ctx context.Context, customerID string, page, limit int64) ([]models.Order, int64, error) {
	query := bson.M{"customerId": customerID}
	skip, limit := pageBounds(page, limit)
	opts := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "order.createdAt", Value: -1}})

	var (
		total  int64
		orders []models.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.mirrors.CountDocuments(gctx, query)
		return err
	})
	g.Go(func() error {
		cursor, err := s.mirrors.Find(gctx, query, opts)
		if err != nil {
			return err
		}
		orders, err = decodeValidOrders(gctx, cursor, func(raw bson.Raw) (models.Order, error) {
			var mirror models.CustomerOrder
			err := bson.Unmarshal(raw, &mirror)
			return mirror.Order, err
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *mongoOrders) ReassignCustomer(ctx context.Context, fromID, toID string) ([]string, error) {
	var ids []string
	err := withTransaction(ctx, s.client, func(sessCtx mongo.SessionContext) error {
		ids = nil
		filter := bson.M{"customerInfo.customerId": fromID}
		cursor, err := s.orders.Find(sessCtx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
		if err != nil {
			return err
		}
		var rows []struct {
			ID string `bson:"_id"`
		}
		if err := cursor.All(sessCtx, &rows); err != nil {
			return err
		}
		for _, row := range rows {
			ids = append(ids, row.ID)
		}

		if _, err := s.orders.UpdateMany(sessCtx, filter, bson.M{
			"$set": bson.M{"customerInfo.customerId": toID},
			"$inc": bson.M{"version": 1},
		}); err != nil {
			return err
		}
		_, err = s.mirrors.DeleteMany(sessCtx, bson.M{"customerId": fromID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *mongoOrders) writeMirror(ctx context.Context, order *models.Order, at time.Time) error {
	customerID := order.CustomerInfo.CustomerID
	if customerID == "" {
		log.Printf("[ORDER] [WARN] order %s has no customer id, mirror not written", order.OrderID)
		return nil
	}
	mirror := models.CustomerOrder{
		ID:         models.MirrorID(customerID, order.OrderID),
		CustomerID: customerID,
		OrderID:    order.OrderID,
		Order:      *order,
		SyncedAt:   models.NewTimestamp(at),
	}
	_, err := s.mirrors.ReplaceOne(ctx, bson.M{"_id": mirror.ID}, mirror, options.Replace().SetUpsert(true))
	return err
}

// decodeValidOrders drops records that do not decode or validate, logging a
// warning for each instead of failing the listing.
func decodeValidOrders(ctx context.Context, cursor *mongo.Cursor, decode func(bson.Raw) (models.Order, error)) ([]models.Order, error) {
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	for cursor.Next(ctx) {
		order, err := decode(cursor.Current)
		if err != nil {
			log.Printf("[ORDER] [WARN] dropping undecodable order %v: %v", cursor.Current.Lookup("_id"), err)
			continue
		}
		if err := order.Validate(); err != nil {
			log.Printf("[ORDER] [WARN] dropping invalid order %s: %v", order.OrderID, err)
			continue
		}
		orders = append(orders, order)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
