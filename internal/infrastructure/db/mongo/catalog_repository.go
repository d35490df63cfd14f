package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

// publicFilter is merged into every public listing query.
func publicFilter() bson.M {
	return bson.M{"deleted_at": nil, "is_active": true}
}

// ---- Agents ----

type AgentRepository struct {
	coll *mongo.Collection
}

func NewAgentRepository(db *mongo.Database) *AgentRepository {
	return &AgentRepository{coll: db.Collection(collectionAgents)}
}

type mongoAgent struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Slug        string             `bson:"slug"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Rarity      string             `bson:"rarity"`
	Price       int64              `bson:"price"`
	SeriesID    string             `bson:"series_id,omitempty"`
	ImageURL    string             `bson:"image_url,omitempty"`
	Abilities   string             `bson:"abilities"`
	IsActive    bool               `bson:"is_active"`
	DeletedAt   *time.Time         `bson:"deleted_at"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func (ma *mongoAgent) toDomain() *domain.Agent {
	return &domain.Agent{
		ID:          ma.ID.Hex(),
		Slug:        ma.Slug,
		Name:        ma.Name,
		Description: ma.Description,
		Rarity:      domain.Rarity(ma.Rarity),
		Price:       ma.Price,
		SeriesID:    ma.SeriesID,
		ImageURL:    ma.ImageURL,
		Abilities:   ma.Abilities,
		IsActive:    ma.IsActive,
		DeletedAt:   utcPtr(ma.DeletedAt),
		CreatedAt:   utc(ma.CreatedAt),
	}
}

// agentListFilter builds the public catalog query. Keyword matching is a
// case-insensitive substring match on name or description.
func agentListFilter(f ports.AgentFilter) bson.M {
	filter := publicFilter()
	if f.Rarity != "" {
		filter["rarity"] = string(f.Rarity)
	}
	if f.SeriesID != "" {
		filter["series_id"] = f.SeriesID
	}
	if f.Keyword != "" {
		pattern := containsPattern(f.Keyword)
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}
	return filter
}

func agentSort(s domain.AgentSort) bson.D {
	switch s {
	case domain.SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case domain.SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return newestFirst
	}
}

func (r *AgentRepository) List(ctx context.Context, f ports.AgentFilter, page domain.Page) ([]*domain.Agent, int64, error) {
	docs, total, err := findPage[mongoAgent](ctx, r.coll, agentListFilter(f), page, agentSort(f.Sort))
	if err != nil {
		return nil, 0, err
	}
	out := make([]*domain.Agent, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

func (r *AgentRepository) FindBySlug(ctx context.Context, slug string) (*domain.Agent, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *AgentRepository) FindByID(ctx context.Context, id string) (*domain.Agent, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrAgentNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AgentRepository) findOne(ctx context.Context, filter bson.M) (*domain.Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ma mongoAgent
	if err := r.coll.FindOne(ctx, filter).Decode(&ma); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, fmt.Errorf("find agent: %w", err)
	}
	return ma.toDomain(), nil
}

func (r *AgentRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Agent, error) {
	out := make(map[string]*domain.Agent, len(ids))
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("find agents: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoAgent
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode agents: %w", err)
	}
	for i := range docs {
		a := docs[i].toDomain()
		out[a.ID] = a
	}
	return out, nil
}

// ---- Series ----

type SeriesRepository struct {
	coll *mongo.Collection
}

func NewSeriesRepository(db *mongo.Database) *SeriesRepository {
	return &SeriesRepository{coll: db.Collection(collectionSeries)}
}

type mongoSeries struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Slug        string             `bson:"slug"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	CoverImage  string             `bson:"cover_image,omitempty"`
	IsActive    bool               `bson:"is_active"`
	DeletedAt   *time.Time         `bson:"deleted_at"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func (ms *mongoSeries) toDomain() *domain.Series {
	return &domain.Series{
		ID:          ms.ID.Hex(),
		Slug:        ms.Slug,
		Name:        ms.Name,
		Description: ms.Description,
		CoverImage:  ms.CoverImage,
		IsActive:    ms.IsActive,
		DeletedAt:   utcPtr(ms.DeletedAt),
		CreatedAt:   utc(ms.CreatedAt),
	}
}

func (r *SeriesRepository) ListPublic(ctx context.Context, page domain.Page) ([]*domain.Series, int64, error) {
	docs, total, err := findPage[mongoSeries](ctx, r.coll, publicFilter(), page, newestFirst)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*domain.Series, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

func (r *SeriesRepository) FindBySlug(ctx context.Context, slug string) (*domain.Series, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ms mongoSeries
	if err := r.coll.FindOne(ctx, bson.M{"slug": slug}).Decode(&ms); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrSeriesNotFound
		}
		return nil, fmt.Errorf("find series: %w", err)
	}
	return ms.toDomain(), nil
}
