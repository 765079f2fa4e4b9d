package blob

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned by HeadObject when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// UploadCredential is a time-bounded signed credential for a direct
// client-to-store upload of a single object key.
type UploadCredential struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// ObjectInfo is the store's ground-truth metadata for an object.
type ObjectInfo struct {
	Size        int64
	ContentType string
	ETag        string
	Metadata    map[string]string
}

// Store is the blob storage client consumed by the upload lifecycle and the
// share surface. It is constructed once at process start and passed in
// explicitly; implementations must be safe for concurrent use.
type Store interface {
	// IssueUploadCredential signs an upload credential scoped to a single
	// key with a hard byte-size ceiling.
	IssueUploadCredential(ctx context.Context, key string, maxBytes int64, contentType string) (*UploadCredential, error)

	// HeadObject fetches object metadata, returning ErrObjectNotFound when
	// the key is absent.
	HeadObject(ctx context.Context, key string) (*ObjectInfo, error)

	// DeleteObject removes the object. Deleting a missing key is not an error.
	DeleteObject(ctx context.Context, key string) error

	// IssueDownloadURL signs a read URL valid for ttl.
	IssueDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
