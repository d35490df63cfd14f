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

// ExchangeRepository stores proposals embedded in their exchange, so every
// guard over an exchange and its proposals is a single-document operation.
type ExchangeRepository struct {
	coll *mongo.Collection
}

func NewExchangeRepository(db *mongo.Database) *ExchangeRepository {
	return &ExchangeRepository{coll: db.Collection(collectionExchanges)}
}

type mongoProposal struct {
	ID             string    `bson:"id"`
	ProposerID     string    `bson:"proposer_id"`
	OfferedAgentID string    `bson:"offered_agent_id"`
	Status         string    `bson:"status"`
	CreatedAt      time.Time `bson:"created_at"`
}

type mongoExchange struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID        string             `bson:"owner_id"`
	OfferedAgentID string             `bson:"offered_agent_id"`
	WantedAgentID  string             `bson:"wanted_agent_id,omitempty"`
	Note           string             `bson:"note,omitempty"`
	Status         string             `bson:"status"`
	Proposals      []mongoProposal    `bson:"proposals"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

func (m *mongoExchange) toDomain() *domain.Exchange {
	proposals := make([]domain.Proposal, 0, len(m.Proposals))
	for _, p := range m.Proposals {
		proposals = append(proposals, domain.Proposal{
			ID:             p.ID,
			ProposerID:     p.ProposerID,
			OfferedAgentID: p.OfferedAgentID,
			Status:         domain.ProposalStatus(p.Status),
			CreatedAt:      utc(p.CreatedAt),
		})
	}
	return &domain.Exchange{
		ID:             m.ID.Hex(),
		OwnerID:        m.OwnerID,
		OfferedAgentID: m.OfferedAgentID,
		WantedAgentID:  m.WantedAgentID,
		Note:           m.Note,
		Status:         domain.ExchangeStatus(m.Status),
		Proposals:      proposals,
		CreatedAt:      utc(m.CreatedAt),
		UpdatedAt:      utc(m.UpdatedAt),
	}
}

func toMongoProposal(p domain.Proposal) mongoProposal {
	return mongoProposal{
		ID:             p.ID,
		ProposerID:     p.ProposerID,
		OfferedAgentID: p.OfferedAgentID,
		Status:         string(p.Status),
		CreatedAt:      p.CreatedAt.UTC(),
	}
}

func (r *ExchangeRepository) Create(ctx context.Context, ex *domain.Exchange) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	proposals := make([]mongoProposal, 0, len(ex.Proposals))
	for _, p := range ex.Proposals {
		proposals = append(proposals, toMongoProposal(p))
	}
	doc := mongoExchange{
		ID:             primitive.NewObjectID(),
		OwnerID:        ex.OwnerID,
		OfferedAgentID: ex.OfferedAgentID,
		WantedAgentID:  ex.WantedAgentID,
		Note:           ex.Note,
		Status:         string(ex.Status),
		Proposals:      proposals,
		CreatedAt:      ex.CreatedAt.UTC(),
		UpdatedAt:      ex.UpdatedAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	ex.ID = doc.ID.Hex()
	return nil
}

func (r *ExchangeRepository) FindByID(ctx context.Context, id string) (*domain.Exchange, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrExchangeNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoExchange
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrExchangeNotFound
		}
		return nil, fmt.Errorf("find exchange: %w", err)
	}
	return m.toDomain(), nil
}

func (r *ExchangeRepository) ListByOwner(ctx context.Context, ownerID string, page domain.Page) ([]*domain.Exchange, int64, error) {
	docs, total, err := findPage[mongoExchange](ctx, r.coll, bson.M{"owner_id": ownerID}, page, newestFirst)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*domain.Exchange, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

func (r *ExchangeRepository) AddProposal(ctx context.Context, id string, status domain.ExchangeStatus, p domain.Proposal) (*domain.Exchange, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrExchangeNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": oid, "status": string(status)}
	update := bson.M{
		"$push": bson.M{"proposals": toMongoProposal(p)},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var m mongoExchange
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrExchangeNotFound
		}
		return nil, fmt.Errorf("add proposal: %w", err)
	}
	return m.toDomain(), nil
}

// cancellableFilter matches the exchange only while it is owned by ownerID, in
// status and free of pending proposals. On an array field $ne matches when no
// element equals the value.
func cancellableFilter(oid primitive.ObjectID, ownerID string, status domain.ExchangeStatus) bson.M {
	return bson.M{
		"_id":              oid,
		"owner_id":         ownerID,
		"status":           string(status),
		"proposals.status": bson.M{"$ne": string(domain.ProposalPending)},
	}
}

func (r *ExchangeRepository) DeleteCancellable(ctx context.Context, id, ownerID string, status domain.ExchangeStatus) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrExchangeNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, cancellableFilter(oid, ownerID, status))
	if err != nil {
		return fmt.Errorf("delete exchange: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrExchangeNotFound
	}
	return nil
}
