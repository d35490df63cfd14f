package ports

import (
	"context"
	"io"

	"github.com/agentdex/platform/internal/core/domain"
)

// PasswordHasher is the credential verifier.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil only when password matches hash.
	Compare(hash, password string) error
}

// SessionCodec issues and verifies signed session tokens.
type SessionCodec interface {
	Issue(id domain.Identity) (string, error)
	Verify(token string) (domain.Identity, error)
}

// LoginThrottle counts failed logins per email.
type LoginThrottle interface {
	Blocked(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// StoredObject describes an object written to the object store.
type StoredObject struct {
	Bucket string
	Key    string
	URL    string
	Size   int64
}

// ObjectStore is where uploaded images live.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (StoredObject, error)
}
