package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/na4oman/samsung-shop/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAdapter stores products in a MongoDB collection. The part number is
// kept unique through an index on its normalized form.
type MongoAdapter struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoAdapter(db *mongo.Database, collection string) *MongoAdapter {
	return &MongoAdapter{coll: db.Collection(collection), now: time.Now}
}

type mongoProduct struct {
	models.Product `bson:",inline"`
	PartNumberKey  string `bson:"part_number_key"`
}

func (m *MongoAdapter) EnsureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "part_number_key", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "price", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (m *MongoAdapter) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var doc mongoProduct
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classifyMongo("mongo FindOne", err)
	}
	return &doc.Product, nil
}

func (m *MongoAdapter) List(ctx context.Context) ([]models.Product, error) {
	cursor, err := m.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, classifyMongo("mongo Find", err)
	}
	return decodeProducts(ctx, cursor)
}

func (m *MongoAdapter) Find(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	query := mongoFilter(filter)

	total, err := m.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, classifyMongo("mongo CountDocuments", err)
	}

	opts := options.Find().SetSort(mongoSort(filter.Sort))
	if filter.Skip > 0 {
		opts.SetSkip(int64(filter.Skip))
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cursor, err := m.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, classifyMongo("mongo Find", err)
	}
	products, err := decodeProducts(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (m *MongoAdapter) Create(ctx context.Context, rec models.ProductRecord) (*models.Product, error) {
	now := m.now().UTC()
	doc := mongoProduct{
		Product:       recordToProduct(uuid.New().String(), rec, now, now),
		PartNumberKey: partNumberKey(rec.PartNumber),
	}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return nil, classifyMongo("mongo InsertOne", err)
	}
	return &doc.Product, nil
}

func (m *MongoAdapter) Update(ctx context.Context, id string, rec models.ProductRecord) (*models.Product, error) {
	set := bson.M{
		"name":            rec.Name,
		"model":           rec.Model,
		"category":        rec.Category,
		"color":           rec.Color,
		"description":     rec.Description,
		"price":           rec.Price,
		"image":           rec.Image,
		"part_number":     rec.PartNumber,
		"part_number_key": partNumberKey(rec.PartNumber),
		"updated_at":      m.now().UTC(),
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc mongoProduct
	err := m.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classifyMongo("mongo FindOneAndUpdate", err)
	}
	return &doc.Product, nil
}

func (m *MongoAdapter) Delete(ctx context.Context, id string) error {
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return classifyMongo("mongo DeleteOne", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	defer cursor.Close(ctx)
	var docs []mongoProduct
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classifyMongo("mongo cursor", err)
	}
	products := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.Product)
	}
	return products, nil
}

func mongoFilter(f ListFilter) bson.M {
	query := bson.M{}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.Color != "" {
		query["color"] = bson.M{"$regex": "^" + regexp.QuoteMeta(f.Color) + "$", "$options": "i"}
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		query["price"] = price
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		re := bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"model": re},
			bson.M{"part_number": re},
			bson.M{"description": re},
		}
	}
	return query
}

func mongoSort(key string) bson.D {
	switch key {
	case SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}}
	case SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}}
	case SortNameAsc:
		return bson.D{{Key: "name", Value: 1}}
	case SortNameDesc:
		return bson.D{{Key: "name", Value: -1}}
	case SortCreatedAsc:
		return bson.D{{Key: "created_at", Value: 1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}}
	}
}

func recordToProduct(id string, rec models.ProductRecord, createdAt, updatedAt time.Time) models.Product {
	return models.Product{
		ID:          id,
		Name:        rec.Name,
		Model:       rec.Model,
		Category:    rec.Category,
		Color:       rec.Color,
		Description: rec.Description,
		Price:       rec.Price,
		Image:       rec.Image,
		PartNumber:  rec.PartNumber,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}
