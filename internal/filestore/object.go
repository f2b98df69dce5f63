package filestore

import (
	"io"
	"time"
)

// BucketInfo describes a storage bucket.
type BucketInfo struct {
	// Name is the bucket name.
	Name string

	// CreatedAt is when the bucket was created.
	// May be zero if the backend does not expose creation time.
	CreatedAt time.Time
}

// ObjectInfo describes a single object stored in a bucket.
type ObjectInfo struct {
	// Key is the full object path within the bucket (e.g. "images/photo.jpg").
	Key string

	// Size is the byte size of the object.
	Size int64

	// ContentType is the MIME type (e.g. "image/jpeg"). Empty when the
	// backend did not report one.
	ContentType string

	// ETag is the object's entity tag, as returned by the backend.
	ETag string

	// LastModified is when the object was last written.
	LastModified time.Time

	// StorageClass is the backend storage class (e.g. "STANDARD").
	StorageClass string
}

// Object is a streaming handle to an object's content.
// The caller MUST call Close() after reading to avoid resource leaks.
type Object interface {
	io.ReadCloser

	// Info returns the metadata for this object.
	Info() *ObjectInfo
}

// ListOptions controls a single delimiter-aware listing.
type ListOptions struct {
	// Prefix restricts results to keys that start with this string.
	// Use "" to list from the bucket root.
	Prefix string

	// Delimiter groups keys sharing a prefix up to the delimiter into
	// CommonPrefixes. Use "" for a flat listing.
	Delimiter string

	// MaxKeys is the page size requested from the backend.
	// 0 means use the backend default. The driver always drains every page.
	MaxKeys int
}

// ListResult is the raw outcome of a listing, in backend order.
type ListResult struct {
	// CommonPrefixes are the grouped "directory" prefixes, each ending in
	// the delimiter.
	CommonPrefixes []string

	// Contents are the objects directly under the prefix. Keys ending with
	// the delimiter are placeholder objects and are returned unfiltered.
	Contents []ObjectInfo
}

// PutOptions carries optional attributes for an upload.
type PutOptions struct {
	// ContentType is stored with the object. Drivers may substitute a
	// default when it is empty.
	ContentType string
}
