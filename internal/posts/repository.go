package posts

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/models"
)

// Repository defines post persistence. Posts are write-once.
type Repository interface {
	// Create inserts p and fails with apperr.ErrConflict if the id exists.
	Create(ctx context.Context, p *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context) ([]*models.Post, error)
	ListByIDs(ctx context.Context, ids []string) ([]*models.Post, error)
	// PageByCategory returns up to limit posts of category with id > after,
	// ordered by id, and the continuation token for the next page ("" at the end).
	PageByCategory(ctx context.Context, category, after string, limit int) ([]*models.Post, string, error)
	Search(ctx context.Context, query string) ([]*models.Post, error)
}

// MongoRepo implements Repository on a Mongo collection.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// EnsureIndexes creates the category/slug lookup indexes.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := m.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "slug", Value: 1}}},
	})
	return err
}

func (m *MongoRepo) Create(ctx context.Context, p *models.Post) error {
	if _, err := m.col.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("post %s: %w", p.ID, apperr.ErrConflict)
		}
		return apperr.Upstream("insert post", err)
	}
	return nil
}

func (m *MongoRepo) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.Post, error) {
	var p models.Post
	if err := m.col.FindOne(ctx, filter, opts...).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("post: %w", apperr.ErrNotFound)
		}
		return nil, apperr.Upstream("find post", err)
	}
	return &p, nil
}

func (m *MongoRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

// GetBySlug returns the oldest post with the slug; slugs are not unique.
func (m *MongoRepo) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return m.findOne(ctx, bson.M{"slug": slug}, options.FindOne().SetSort(bson.D{{Key: "date", Value: 1}}))
}

func (m *MongoRepo) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*models.Post, error) {
	cur, err := m.col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, apperr.Upstream("find posts", err)
	}
	defer cur.Close(ctx)
	out := []*models.Post{}
	for cur.Next(ctx) {
		var p models.Post
		if err := cur.Decode(&p); err != nil {
			return nil, apperr.Upstream("decode post", err)
		}
		out = append(out, &p)
	}
	if err := cur.Err(); err != nil {
		return nil, apperr.Upstream("iterate posts", err)
	}
	return out, nil
}

func (m *MongoRepo) List(ctx context.Context) ([]*models.Post, error) {
	return m.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
}

func (m *MongoRepo) ListByIDs(ctx context.Context, ids []string) ([]*models.Post, error) {
	if len(ids) == 0 {
		return []*models.Post{}, nil
	}
	return m.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (m *MongoRepo) PageByCategory(ctx context.Context, category, after string, limit int) ([]*models.Post, string, error) {
	filter := bson.M{"category": category}
	if after != "" {
		filter["_id"] = bson.M{"$gt": after}
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit))
	page, err := m.find(ctx, filter, opts)
	if err != nil {
		return nil, "", err
	}
	next := ""
	if limit > 0 && len(page) == limit {
		next = page[len(page)-1].ID
	}
	return page, next, nil
}

func (m *MongoRepo) Search(ctx context.Context, query string) ([]*models.Post, error) {
	rx := primitiveRegex(query)
	filter := bson.M{"$or": bson.A{
		bson.M{"title": rx},
		bson.M{"content": rx},
		bson.M{"category": rx},
		bson.M{"summary": rx},
	}}
	return m.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
}

func primitiveRegex(q string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
}
