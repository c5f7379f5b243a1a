package storage

import (
	"context"
	"io"
	"time"
)

// Package storage abstracts the S3-compatible object store that holds
// dataset CSV files. Implementations stream content and never touch local
// disk.

// ObjectInfo describes a stored dataset object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Storage is the object store client used by the minio dataset backend and
// the admin dataset endpoints.
type Storage interface {
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Put uploads an object under the given key. Size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL for downloading the object
	// without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
