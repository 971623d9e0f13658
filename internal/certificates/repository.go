package certificates

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/models"
)

// Repository persists certificates. At most one certificate exists per
// (userId, category); a second insert fails with apperr.ErrConflict.
type Repository interface {
	Create(ctx context.Context, c *models.Certificate) error
	GetByID(ctx context.Context, id string) (*models.Certificate, error)
	GetByUniqueID(ctx context.Context, uniqueID string) (*models.Certificate, error)
	GetByUserCategory(ctx context.Context, userID, category string) (*models.Certificate, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Certificate, error)
}

type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// EnsureIndexes creates the unique uniqueId and (userId, category) indexes.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := m.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "uniqueId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "category", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

func (m *MongoRepo) Create(ctx context.Context, c *models.Certificate) error {
	if _, err := m.col.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("certificate %s/%s: %w", c.UserID, c.Category, apperr.ErrConflict)
		}
		return apperr.Upstream("insert certificate", err)
	}
	return nil
}

func (m *MongoRepo) findOne(ctx context.Context, filter bson.M) (*models.Certificate, error) {
	var c models.Certificate
	if err := m.col.FindOne(ctx, filter).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("certificate: %w", apperr.ErrNotFound)
		}
		return nil, apperr.Upstream("find certificate", err)
	}
	return &c, nil
}

func (m *MongoRepo) GetByID(ctx context.Context, id string) (*models.Certificate, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *MongoRepo) GetByUniqueID(ctx context.Context, uniqueID string) (*models.Certificate, error) {
	return m.findOne(ctx, bson.M{"uniqueId": uniqueID})
}

func (m *MongoRepo) GetByUserCategory(ctx context.Context, userID, category string) (*models.Certificate, error) {
	return m.findOne(ctx, bson.M{"userId": userID, "category": category})
}

func (m *MongoRepo) ListByUser(ctx context.Context, userID string) ([]*models.Certificate, error) {
	cur, err := m.col.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, apperr.Upstream("list certificates", err)
	}
	out := []*models.Certificate{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Upstream("decode certificates", err)
	}
	return out, nil
}
