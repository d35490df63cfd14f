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
)

type ActivationCodeRepository struct {
	coll *mongo.Collection
}

func NewActivationCodeRepository(db *mongo.Database) *ActivationCodeRepository {
	return &ActivationCodeRepository{coll: db.Collection(collectionActivationCodes)}
}

type mongoActivationCode struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Code        string             `bson:"code"`
	AgentID     string             `bson:"agent_id,omitempty"`
	Status      string             `bson:"status"`
	ActivatedBy string             `bson:"activated_by,omitempty"`
	ActivatedAt *time.Time         `bson:"activated_at,omitempty"`
	ExpiresAt   *time.Time         `bson:"expires_at"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func (m *mongoActivationCode) toDomain() *domain.ActivationCode {
	return &domain.ActivationCode{
		ID:          m.ID.Hex(),
		Code:        m.Code,
		AgentID:     m.AgentID,
		Status:      domain.ActivationCodeStatus(m.Status),
		ActivatedBy: m.ActivatedBy,
		ActivatedAt: utcPtr(m.ActivatedAt),
		ExpiresAt:   utcPtr(m.ExpiresAt),
		CreatedAt:   utc(m.CreatedAt),
	}
}

func (r *ActivationCodeRepository) InsertMany(ctx context.Context, codes []*domain.ActivationCode) error {
	if len(codes) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	docs := make([]any, 0, len(codes))
	ids := make([]primitive.ObjectID, 0, len(codes))
	for _, c := range codes {
		id := primitive.NewObjectID()
		ids = append(ids, id)
		docs = append(docs, mongoActivationCode{
			ID:        id,
			Code:      c.Code,
			AgentID:   c.AgentID,
			Status:    string(c.Status),
			ExpiresAt: utcPtr(c.ExpiresAt),
			CreatedAt: c.CreatedAt.UTC(),
		})
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert activation codes: %w", err)
	}
	for i, c := range codes {
		c.ID = ids[i].Hex()
	}
	return nil
}

func (r *ActivationCodeRepository) FindByCode(ctx context.Context, code string) (*domain.ActivationCode, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoActivationCode
	if err := r.coll.FindOne(ctx, bson.M{"code": code}).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrActivationCodeNotFound
		}
		return nil, fmt.Errorf("find activation code: %w", err)
	}
	return m.toDomain(), nil
}

func (r *ActivationCodeRepository) ListByStatus(ctx context.Context, status domain.ActivationCodeStatus, page domain.Page) ([]*domain.ActivationCode, int64, error) {
	docs, total, err := findPage[mongoActivationCode](ctx, r.coll, bson.M{"status": string(status)}, page, newestFirst)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*domain.ActivationCode, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

// redeemFilter matches code only while it is in from and not past expiry.
func redeemFilter(code string, from domain.ActivationCodeStatus, now time.Time) bson.M {
	return bson.M{
		"code":   code,
		"status": string(from),
		"$or": bson.A{
			bson.M{"expires_at": nil},
			bson.M{"expires_at": bson.M{"$gt": now.UTC()}},
		},
	}
}

func (r *ActivationCodeRepository) Redeem(ctx context.Context, code, userID string, from, to domain.ActivationCodeStatus, now time.Time) (*domain.ActivationCode, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"status":       string(to),
		"activated_by": userID,
		"activated_at": now.UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var m mongoActivationCode
	if err := r.coll.FindOneAndUpdate(ctx, redeemFilter(code, from, now), update, opts).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrActivationCodeNotFound
		}
		return nil, fmt.Errorf("redeem activation code: %w", err)
	}
	return m.toDomain(), nil
}

func expireFilter(from domain.ActivationCodeStatus, now time.Time) bson.M {
	return bson.M{
		"status":     string(from),
		"expires_at": bson.M{"$lte": now.UTC()},
	}
}

func (r *ActivationCodeRepository) ExpireBefore(ctx context.Context, from, to domain.ActivationCodeStatus, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx, expireFilter(from, now), bson.M{"$set": bson.M{"status": string(to)}})
	if err != nil {
		return 0, fmt.Errorf("expire activation codes: %w", err)
	}
	return res.ModifiedCount, nil
}
