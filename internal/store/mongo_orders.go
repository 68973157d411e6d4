package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

func (s *MongoStore) orders() *mongo.Collection {
	return s.db.Collection("orders")
}

func (s *MongoStore) InsertOrder(ctx context.Context, o models.Order) (models.Order, error) {
	res, err := s.orders().InsertOne(ctx, o)
	if err != nil {
		return models.Order{}, err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		o.ID = id
	}
	return o, nil
}

func (s *MongoStore) GetOrder(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	var order models.Order
	err := s.orders().FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

func (s *MongoStore) ListOrdersForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := s.orders().Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *MongoStore) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := s.orders().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}

	if err := s.resolveOwners(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// resolveOwners attaches owner display fields to non-guest orders with one
// $in query over the users collection.
func (s *MongoStore) resolveOwners(ctx context.Context, orders []models.Order) error {
	ids := make([]primitive.ObjectID, 0, len(orders))
	seen := make(map[primitive.ObjectID]struct{}, len(orders))
	for _, o := range orders {
		if o.User == nil {
			continue
		}
		if _, ok := seen[*o.User]; ok {
			continue
		}
		seen[*o.User] = struct{}{}
		ids = append(ids, *o.User)
	}
	if len(ids) == 0 {
		return nil
	}

	cursor, err := s.db.Collection("users").Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return err
	}

	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	for i := range orders {
		if orders[i].User == nil {
			continue
		}
		if u, ok := byID[*orders[i].User]; ok {
			orders[i].Owner = &models.OrderOwner{ID: u.ID, Name: u.Name, Email: u.Email}
		}
	}
	return nil
}

// MarkDelivered flips the delivery flag at most once. The condition on
// isDelivered keeps deliveredAt from being overwritten by repeated calls.
func (s *MongoStore) MarkDelivered(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	now := time.Now()

	var updated models.Order
	err := s.orders().FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "isDelivered": false},
		bson.M{"$set": bson.M{"isDelivered": true, "deliveredAt": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)

	if err == mongo.ErrNoDocuments {
		// Either missing or already delivered; the latter is a no-op.
		return s.GetOrder(ctx, id)
	}
	if err != nil {
		return models.Order{}, err
	}
	return updated, nil
}
