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

type OrderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(collectionOrders)}
}

type mongoOrder struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	AgentID   string             `bson:"agent_id"`
	Amount    int64              `bson:"amount"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (m *mongoOrder) toDomain() *domain.Order {
	return &domain.Order{
		ID:        m.ID.Hex(),
		UserID:    m.UserID,
		AgentID:   m.AgentID,
		Amount:    m.Amount,
		Status:    domain.OrderStatus(m.Status),
		CreatedAt: utc(m.CreatedAt),
		UpdatedAt: utc(m.UpdatedAt),
	}
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoOrder{
		ID:        primitive.NewObjectID(),
		UserID:    o.UserID,
		AgentID:   o.AgentID,
		Amount:    o.Amount,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt.UTC(),
		UpdatedAt: o.UpdatedAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	o.ID = doc.ID.Hex()
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrOrderNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoOrder
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return m.toDomain(), nil
}

func orderListFilter(f ports.OrderFilter) bson.M {
	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	return filter
}

func (r *OrderRepository) List(ctx context.Context, f ports.OrderFilter, page domain.Page) ([]*domain.Order, int64, error) {
	docs, total, err := findPage[mongoOrder](ctx, r.coll, orderListFilter(f), page, newestFirst)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*domain.Order, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (*domain.Order, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrOrderNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": oid, "status": string(from)}
	update := bson.M{"$set": bson.M{"status": string(to), "updated_at": at.UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var m mongoOrder
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return m.toDomain(), nil
}
