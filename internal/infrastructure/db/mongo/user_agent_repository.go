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

type UserAgentRepository struct {
	coll *mongo.Collection
}

func NewUserAgentRepository(db *mongo.Database) *UserAgentRepository {
	return &UserAgentRepository{coll: db.Collection(collectionUserAgents)}
}

type mongoUserAgent struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"user_id"`
	AgentID     string             `bson:"agent_id"`
	Source      string             `bson:"source"`
	ActivatedAt time.Time          `bson:"activated_at"`
}

func (m *mongoUserAgent) toDomain() *domain.UserAgent {
	return &domain.UserAgent{
		ID:          m.ID.Hex(),
		UserID:      m.UserID,
		AgentID:     m.AgentID,
		Source:      domain.OwnershipSource(m.Source),
		ActivatedAt: utc(m.ActivatedAt),
	}
}

// Grant upserts the (user, agent) pair. An existing record is left untouched.
func (r *UserAgentRepository) Grant(ctx context.Context, userID, agentID string, source domain.OwnershipSource, at time.Time) (*domain.UserAgent, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	key := bson.M{"user_id": userID, "agent_id": agentID}
	update := bson.M{"$setOnInsert": bson.M{"source": string(source), "activated_at": at.UTC()}}

	res, err := r.coll.UpdateOne(ctx, key, update, options.Update().SetUpsert(true))
	created := err == nil && res.UpsertedCount == 1
	// Two concurrent upserts can both miss and race on the unique index; the
	// loser simply finds the winner's record.
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return nil, false, fmt.Errorf("grant agent: %w", err)
	}

	var doc mongoUserAgent
	if err := r.coll.FindOne(ctx, key).Decode(&doc); err != nil {
		return nil, false, fmt.Errorf("load ownership: %w", err)
	}
	return doc.toDomain(), created, nil
}

func (r *UserAgentRepository) Owns(ctx context.Context, userID, agentID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"user_id": userID, "agent_id": agentID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count ownership: %w", err)
	}
	return n > 0, nil
}

// Revoke deletes the ownership only when it was recorded with source.
func (r *UserAgentRepository) Revoke(ctx context.Context, userID, agentID string, source domain.OwnershipSource) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"user_id": userID, "agent_id": agentID, "source": string(source)})
	if err != nil {
		return false, fmt.Errorf("revoke agent: %w", err)
	}
	return res.DeletedCount == 1, nil
}

func (r *UserAgentRepository) ListByUser(ctx context.Context, userID string, page domain.Page) ([]*domain.UserAgent, int64, error) {
	sort := bson.D{{Key: "activated_at", Value: -1}, {Key: "_id", Value: -1}}
	docs, total, err := findPage[mongoUserAgent](ctx, r.coll, bson.M{"user_id": userID}, page, sort)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*domain.UserAgent, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}
