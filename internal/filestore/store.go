// Package filestore defines the object store capability consumed by the gateway.
//
// Every backend (MinIO, AWS S3, any S3-compatible server) implements the Store
// interface. Callers depend only on this package, never on a specific
// provider package.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("http://localhost:9000", "minioadmin", "minioadmin", "files")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	res, err := store.ListObjects(ctx, cfg.Bucket, filestore.ListOptions{Delimiter: "/"})
package filestore

import (
	"context"
	"io"
)

// Store is the single interface all object storage providers must implement.
// Implementations must be safe for concurrent use and must return *errs.Error
// values, never provider-specific error types.
type Store interface {
	// Ping verifies the storage backend is reachable with the configured
	// credentials using the cheapest available call.
	Ping(ctx context.Context) error

	// Close releases any held resources (connections, goroutines, etc.).
	Close() error

	// ListBuckets returns all buckets accessible with the configured credentials.
	ListBuckets(ctx context.Context) ([]BucketInfo, error)

	// ListObjects returns the common prefixes and objects in bucket that match opts.
	ListObjects(ctx context.Context, bucket string, opts ListOptions) (*ListResult, error)

	// StatObject returns metadata for the object at key inside bucket
	// without downloading its content.
	StatObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)

	// GetObject opens a streaming handle to the object at key inside bucket.
	// The caller MUST call Object.Close() after reading.
	GetObject(ctx context.Context, bucket, key string) (Object, error)

	// PutObject writes size bytes from r under key. size may be -1 when the
	// length is unknown.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts PutOptions) (*ObjectInfo, error)

	// DeleteObject removes the object at key.
	DeleteObject(ctx context.Context, bucket, key string) error
}

// Dialer builds a Store from a Config. It must not perform network I/O;
// reachability is checked separately with Store.Ping.
type Dialer func(ctx context.Context, cfg *Config) (Store, error)
