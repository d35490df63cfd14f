package domain

import "time"

// Upload is an image stored in the object store by an administrator.
type Upload struct {
	ID          string
	UploaderID  string
	Bucket      string
	ObjectKey   string
	ContentType string
	SizeBytes   int64
	URL         string
	CreatedAt   time.Time
}
