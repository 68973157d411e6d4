package store

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

// MongoStore implements ProductStore and OrderStore against one database.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) products() *mongo.Collection {
	return s.db.Collection("products")
}

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

func (s *MongoStore) GetProduct(ctx context.Context, idOrSlug string) (models.Product, error) {
	filter := bson.M{"slug": idOrSlug}
	if objectIDPattern.MatchString(idOrSlug) {
		id, err := primitive.ObjectIDFromHex(idOrSlug)
		if err == nil {
			filter = bson.M{"_id": id}
		}
	}

	var product models.Product
	err := s.products().FindOne(ctx, filter).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, err
	}
	return product, nil
}

func (s *MongoStore) GetProductByID(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	var product models.Product
	err := s.products().FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, err
	}
	return product, nil
}

func (s *MongoStore) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := bson.M{}
	if filter.Search != "" {
		query["name"] = bson.M{"$regex": regexp.QuoteMeta(filter.Search), "$options": "i"}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultProductLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.products().Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *MongoStore) InsertProduct(ctx context.Context, p models.Product) (models.Product, error) {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.RecalculateStock()

	res, err := s.products().InsertOne(ctx, p)
	if err != nil {
		return models.Product{}, err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = id
	}
	return p, nil
}

func (s *MongoStore) UpdateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	p.UpdatedAt = time.Now()
	p.RecalculateStock()

	res, err := s.products().ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return models.Product{}, err
	}
	if res.MatchedCount == 0 {
		return models.Product{}, ErrNotFound
	}
	return p, nil
}

func (s *MongoStore) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.products().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock collapses read-modify-write into one conditional update so
// concurrent requests against the same product+size are serialized by the
// database. The row and the derived total move in the same $inc, keeping
// sum(inventory) == stock at every observable point.
func (s *MongoStore) DecrementStock(ctx context.Context, id primitive.ObjectID, size string, qty int) error {
	var filter, update bson.M
	if size == "" {
		// Writes normalize inventory to an empty array, but documents that
		// predate that (or were seeded externally) may carry null or no
		// field at all; $size matches real arrays only.
		filter = bson.M{
			"_id": id,
			"$or": []bson.M{
				{"inventory": bson.M{"$size": 0}},
				{"inventory": nil},
			},
			"stock": bson.M{"$gte": qty},
		}
		update = bson.M{"$inc": bson.M{"stock": -qty}}
	} else {
		filter = bson.M{
			"_id": id,
			"inventory": bson.M{"$elemMatch": bson.M{
				"size":     size,
				"quantity": bson.M{"$gte": qty},
			}},
		}
		update = bson.M{"$inc": bson.M{
			"inventory.$.quantity": -qty,
			"stock":                -qty,
		}}
	}

	res, err := s.products().UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		exists, err := s.productExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrStockConflict
	}
	return nil
}

func (s *MongoStore) IncrementStock(ctx context.Context, id primitive.ObjectID, size string, qty int) error {
	var filter, update bson.M
	if size == "" {
		filter = bson.M{"_id": id}
		update = bson.M{"$inc": bson.M{"stock": qty}}
	} else {
		filter = bson.M{"_id": id, "inventory.size": size}
		update = bson.M{"$inc": bson.M{
			"inventory.$.quantity": qty,
			"stock":                qty,
		}}
	}

	res, err := s.products().UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) productExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := s.products().CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
