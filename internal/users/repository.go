package users

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/models"
)

// UserRepository defines persistence operations for users.
// Lookups return apperr.ErrNotFound when no user matches.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	LinkGoogleID(ctx context.Context, id, googleID string) error
	// AppendCompletedPost adds postID to the user's completed list unless it is
	// already present, in which case apperr.ErrConflict is returned. The check
	// and the append happen in one write.
	AppendCompletedPost(ctx context.Context, id, postID string) error
	FollowCategories(ctx context.Context, id string, categories []string, at time.Time) (*models.User, error)
	UnfollowCategory(ctx context.Context, id, category string) (*models.User, error)
	ListByFollowedCategory(ctx context.Context, category string) ([]*models.User, error)
	SetPasswordReset(ctx context.Context, id, tokenHash string, expires time.Time) error
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

// EnsureIndexes creates the unique email/googleId indexes and the follower index.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "googleId", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"googleId": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "followedCategories", Value: 1}}},
	})
	return err
}

func (r *MongoUserRepository) Create(ctx context.Context, u *models.User) error {
	normalize(u)
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", u.Email, apperr.ErrConflict)
		}
		return apperr.Upstream("insert user", err)
	}
	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
		}
		return nil, apperr.Upstream("find user", err)
	}
	return &u, nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"googleId": googleID})
}

func (r *MongoUserRepository) update(ctx context.Context, filter, upd bson.M) (*mongo.UpdateResult, error) {
	res, err := r.col.UpdateOne(ctx, filter, upd)
	if err != nil {
		return nil, apperr.Upstream("update user", err)
	}
	return res, nil
}

func (r *MongoUserRepository) LinkGoogleID(ctx context.Context, id, googleID string) error {
	res, err := r.update(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"googleId": googleID, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (r *MongoUserRepository) AppendCompletedPost(ctx context.Context, id, postID string) error {
	filter := bson.M{"_id": id, "completedPosts": bson.M{"$ne": postID}}
	upd := bson.M{
		"$push": bson.M{"completedPosts": postID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := r.update(ctx, filter, upd)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	// guard failed: either the user is missing or the post is already there
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Upstream("count user", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return fmt.Errorf("post %s already completed: %w", postID, apperr.ErrConflict)
}

func (r *MongoUserRepository) findAndUpdate(ctx context.Context, id string, upd bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, upd, opts).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
		}
		return nil, apperr.Upstream("update user", err)
	}
	return &u, nil
}

func (r *MongoUserRepository) FollowCategories(ctx context.Context, id string, categories []string, at time.Time) (*models.User, error) {
	return r.findAndUpdate(ctx, id, bson.M{
		"$addToSet": bson.M{"followedCategories": bson.M{"$each": categories}},
		"$set":      bson.M{"followedCategoriesTimestamp": at, "updatedAt": at},
	})
}

func (r *MongoUserRepository) UnfollowCategory(ctx context.Context, id, category string) (*models.User, error) {
	return r.findAndUpdate(ctx, id, bson.M{
		"$pull": bson.M{"followedCategories": category},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (r *MongoUserRepository) ListByFollowedCategory(ctx context.Context, category string) ([]*models.User, error) {
	cur, err := r.col.Find(ctx, bson.M{"followedCategories": category})
	if err != nil {
		return nil, apperr.Upstream("find followers", err)
	}
	defer cur.Close(ctx)
	out := []*models.User{}
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, apperr.Upstream("decode user", err)
		}
		out = append(out, &u)
	}
	return out, cur.Err()
}

func (r *MongoUserRepository) SetPasswordReset(ctx context.Context, id, tokenHash string, expires time.Time) error {
	res, err := r.update(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"resetPasswordTokenHash": tokenHash,
		"resetPasswordExpires":   expires,
		"updatedAt":              time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (r *MongoUserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return r.findOne(ctx, bson.M{"resetPasswordTokenHash": tokenHash, "resetPasswordExpires": bson.M{"$gt": now}})
}

func (r *MongoUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.update(ctx, bson.M{"_id": id}, bson.M{
		"$set":   bson.M{"passwordHash": passwordHash, "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"resetPasswordTokenHash": "", "resetPasswordExpires": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// normalize fills defaults so array updates never hit a null field.
func normalize(u *models.User) {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.CompletedPosts == nil {
		u.CompletedPosts = []string{}
	}
	if u.FollowedCategories == nil {
		u.FollowedCategories = []string{}
	}
}
