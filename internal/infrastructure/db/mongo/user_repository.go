package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(collectionUsers)}
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	Nickname     string             `bson:"nickname"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	Status       string             `bson:"status"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (mu *mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:           mu.ID.Hex(),
		Email:        mu.Email,
		Nickname:     mu.Nickname,
		PasswordHash: mu.PasswordHash,
		Role:         domain.Role(mu.Role),
		Status:       domain.UserStatus(mu.Status),
		CreatedAt:    utc(mu.CreatedAt),
		UpdatedAt:    utc(mu.UpdatedAt),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoUser{
		ID:           primitive.NewObjectID(),
		Email:        user.Email,
		Nickname:     user.Nickname,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		Status:       string(user.Status),
		CreatedAt:    user.CreatedAt.UTC(),
		UpdatedAt:    user.UpdatedAt.UTC(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func userListFilter(f ports.UserFilter) bson.M {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = string(f.Role)
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.Search != "" {
		pattern := containsPattern(f.Search)
		filter["$or"] = bson.A{
			bson.M{"email": pattern},
			bson.M{"nickname": pattern},
		}
	}
	return filter
}

func (r *UserRepository) List(ctx context.Context, f ports.UserFilter, page domain.Page) ([]*domain.User, int64, error) {
	docs, total, err := findPage[mongoUser](ctx, r.coll, userListFilter(f), page, newestFirst)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*domain.User, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id string, from, to domain.UserStatus) (*domain.User, error) {
	return r.conditionalSet(ctx, id, "status", string(from), string(to))
}

func (r *UserRepository) UpdateRole(ctx context.Context, id string, from, to domain.Role) (*domain.User, error) {
	return r.conditionalSet(ctx, id, "role", string(from), string(to))
}

// conditionalSet moves field from one value to another only if the stored
// value still equals from.
func (r *UserRepository) conditionalSet(ctx context.Context, id, field, from, to string) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": oid, field: from}
	update := bson.M{"$set": bson.M{field: to, "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mu mongoUser
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&mu); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user %s: %w", field, err)
	}
	return mu.toDomain(), nil
}
