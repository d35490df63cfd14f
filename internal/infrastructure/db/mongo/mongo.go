package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agentdex/platform/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Collection names.
const (
	collectionUsers           = "users"
	collectionAgents          = "agents"
	collectionSeries          = "series"
	collectionUserAgents      = "user_agents"
	collectionOrders          = "orders"
	collectionExchanges       = "exchanges"
	collectionActivationCodes = "activation_codes"
	collectionUploads         = "uploads"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// EnsureIndexes creates the unique and lookup indexes every repository relies on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	specs := map[string][]mongo.IndexModel{
		collectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}}},
		},
		collectionAgents: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "deleted_at", Value: 1}, {Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "series_id", Value: 1}}},
		},
		collectionSeries: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
		},
		collectionUserAgents: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "agent_id", Value: 1}}, Options: unique},
		},
		collectionOrders: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		collectionExchanges: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		collectionActivationCodes: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}}},
		},
		collectionUploads: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}

	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// objectID parses a hex id. Malformed ids can never match a document, so
// callers report them as not found.
func objectID(hex string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func objectIDs(hexes []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		if id, ok := objectID(h); ok {
			out = append(out, id)
		}
	}
	return out
}

// containsPattern matches s anywhere in a field, case-insensitively, with any
// regex metacharacters in s taken literally.
func containsPattern(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func pageOptions(page domain.Page, sort bson.D) *options.FindOptions {
	return options.Find().
		SetSkip(int64(page.Offset)).
		SetLimit(int64(page.Limit)).
		SetSort(sort)
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// findPage runs filter with page applied and counts the full match set.
func findPage[D any](ctx context.Context, coll *mongo.Collection, filter bson.M, page domain.Page, sort bson.D) ([]D, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", coll.Name(), err)
	}

	cur, err := coll.Find(ctx, filter, pageOptions(page, sort))
	if err != nil {
		return nil, 0, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	defer cur.Close(ctx)

	var docs []D
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return docs, total, nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
