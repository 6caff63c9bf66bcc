package storage

import (
	"context"
	"io"
)

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// ObjectStore is the object storage boundary: upload a payload to a known
// bucket/key, list a prefix to confirm presence, and empty a prefix during
// cleanup. Implementations: S3 (production) and an in-memory store (tests).
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Exists(ctx context.Context, prefix string) (bool, error)
	EmptyPrefix(ctx context.Context, prefix string) (int, error)
}
