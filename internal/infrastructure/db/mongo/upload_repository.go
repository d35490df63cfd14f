package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/agentdex/platform/internal/core/domain"
)

type UploadRepository struct {
	coll *mongo.Collection
}

func NewUploadRepository(db *mongo.Database) *UploadRepository {
	return &UploadRepository{coll: db.Collection(collectionUploads)}
}

type mongoUpload struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UploaderID  string             `bson:"uploader_id"`
	Bucket      string             `bson:"bucket"`
	ObjectKey   string             `bson:"object_key"`
	ContentType string             `bson:"content_type"`
	SizeBytes   int64              `bson:"size_bytes"`
	URL         string             `bson:"url"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func (r *UploadRepository) Create(ctx context.Context, u *domain.Upload) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoUpload{
		ID:          primitive.NewObjectID(),
		UploaderID:  u.UploaderID,
		Bucket:      u.Bucket,
		ObjectKey:   u.ObjectKey,
		ContentType: u.ContentType,
		SizeBytes:   u.SizeBytes,
		URL:         u.URL,
		CreatedAt:   u.CreatedAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	u.ID = doc.ID.Hex()
	return nil
}

func (r *UploadRepository) List(ctx context.Context, page domain.Page) ([]*domain.Upload, int64, error) {
	docs, total, err := findPage[mongoUpload](ctx, r.coll, bson.M{}, page, newestFirst)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*domain.Upload, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.Upload{
			ID:          d.ID.Hex(),
			UploaderID:  d.UploaderID,
			Bucket:      d.Bucket,
			ObjectKey:   d.ObjectKey,
			ContentType: d.ContentType,
			SizeBytes:   d.SizeBytes,
			URL:         d.URL,
			CreatedAt:   utc(d.CreatedAt),
		})
	}
	return out, total, nil
}
