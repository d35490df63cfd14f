package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentdex/platform/internal/core/domain"
	"github.com/agentdex/platform/internal/core/ports"
)

// DefaultMaxUploadBytes is the upload cap when none is configured.
const DefaultMaxUploadBytes int64 = 5 << 20

type UploadService struct {
	uploads  ports.UploadRepository
	store    ports.ObjectStore
	maxBytes int64
	log      zerolog.Logger
	now      func() time.Time
}

func NewUploadService(uploads ports.UploadRepository, store ports.ObjectStore, maxBytes int64, log zerolog.Logger) *UploadService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadService{uploads: uploads, store: store, maxBytes: maxBytes, log: log, now: time.Now}
}

// Upload stores an image whose real type, sniffed from its content, is one of
// jpeg, png, gif or webp.
func (s *UploadService) Upload(ctx context.Context, actor domain.Identity, in ports.UploadInput) (*domain.Upload, error) {
	if in.Body == nil {
		return nil, domain.Validationf("file is required")
	}
	if in.Size > s.maxBytes {
		return nil, s.tooLarge()
	}

	data, err := io.ReadAll(io.LimitReader(in.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, s.tooLarge()
	}
	if len(data) == 0 {
		return nil, domain.Validationf("file is empty")
	}

	kind, ok := detectImage(data)
	if !ok {
		return nil, domain.Validationf("unsupported file type, allowed: jpeg, png, gif, webp")
	}
	if declared := declaredMIME(in.ContentType); declared != "" && declared != "application/octet-stream" && declared != kind.mime {
		return nil, domain.Validationf("content type mismatch: declared %s, actual %s", declared, kind.mime)
	}

	now := s.now().UTC()
	key := path.Join("uploads", now.Format("2006/01/02"), uuid.NewString()+"."+kind.ext)

	obj, err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), kind.mime)
	if err != nil {
		s.log.Error().Err(err).Str("op", "upload").Str("object_key", key).Msg("put object failed")
		return nil, fmt.Errorf("put object: %w", err)
	}

	upload := &domain.Upload{
		UploaderID:  actor.UserID,
		Bucket:      obj.Bucket,
		ObjectKey:   obj.Key,
		ContentType: kind.mime,
		SizeBytes:   int64(len(data)),
		URL:         obj.URL,
		CreatedAt:   now,
	}
	if err := s.uploads.Create(ctx, upload); err != nil {
		s.log.Error().Err(err).Str("op", "upload").Str("object_key", key).Msg("failed to save upload metadata")
		return nil, err
	}

	s.log.Info().Str("op", "upload").Str("upload_id", upload.ID).Str("user_id", actor.UserID).Str("content_type", kind.mime).Int64("size", upload.SizeBytes).Msg("file uploaded")
	return upload, nil
}

func (s *UploadService) List(ctx context.Context, page domain.Page) ([]*domain.Upload, domain.PageInfo, error) {
	items, total, err := s.uploads.List(ctx, page)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	return items, page.Info(total), nil
}

func (s *UploadService) tooLarge() error {
	return domain.Validationf("file exceeds %dMB", s.maxBytes>>20)
}
