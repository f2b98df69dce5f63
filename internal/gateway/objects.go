package gateway

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/koustreak/s3gate/internal/errs"
	"github.com/koustreak/s3gate/internal/filestore"
)

// Download is an open object stream. The caller MUST Close it.
type Download struct {
	io.ReadCloser
	Key         string
	ContentType string
	Size        int64
	ETag        string
}

// List returns the directories and files directly under prefix. An empty
// prefix lists the bucket root.
func (g *Gateway) List(ctx context.Context, prefix string) (out []ObjectEntry, err error) {
	defer g.track("list")(&err)

	snap, err := g.acquire()
	if err != nil {
		return nil, err
	}

	res, err := snap.store.ListObjects(ctx, snap.cfg.Bucket, filestore.ListOptions{
		Prefix:    prefix,
		Delimiter: Delimiter,
	})
	if err != nil {
		return nil, g.fail(err, "failed to list objects", prefix)
	}

	out = entries(res)
	g.log.DebugWith("listed objects", map[string]interface{}{"prefix": prefix, "count": len(out)})
	return out, nil
}

// Metadata returns size, ETag, modification time and storage class of key.
func (g *Gateway) Metadata(ctx context.Context, key string) (entry ObjectEntry, err error) {
	defer g.track("metadata")(&err)

	snap, err := g.acquire()
	if err != nil {
		return ObjectEntry{}, err
	}
	if err := requireKey(key); err != nil {
		return ObjectEntry{}, err
	}

	info, err := snap.store.StatObject(ctx, snap.cfg.Bucket, key)
	if err != nil {
		return ObjectEntry{}, g.fail(err, "failed to get object metadata", key)
	}

	entry = fileEntry(*info)
	entry.Key = key
	return entry, nil
}

// Download opens a stream over the full content of key.
func (g *Gateway) Download(ctx context.Context, key string) (dl *Download, err error) {
	defer g.track("download")(&err)

	snap, err := g.acquire()
	if err != nil {
		return nil, err
	}
	if err := requireKey(key); err != nil {
		return nil, err
	}

	obj, err := snap.store.GetObject(ctx, snap.cfg.Bucket, key)
	if err != nil {
		return nil, g.fail(err, "failed to download object", key)
	}

	info := obj.Info()
	return &Download{
		ReadCloser:  obj,
		Key:         key,
		ContentType: info.ContentType,
		Size:        info.Size,
		ETag:        info.ETag,
	}, nil
}

// Upload writes size bytes from r under key. contentType may be empty, in
// which case none is sent to the backend.
func (g *Gateway) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (err error) {
	defer g.track("upload")(&err)

	snap, err := g.acquire()
	if err != nil {
		return err
	}
	if err := requireKey(key); err != nil {
		return err
	}

	if _, err := snap.store.PutObject(ctx, snap.cfg.Bucket, key, r, size, filestore.PutOptions{ContentType: contentType}); err != nil {
		return g.fail(err, "failed to upload object", key)
	}

	g.log.InfoWith("uploaded object", map[string]interface{}{"key": key, "size": size})
	return nil
}

// Delete removes key. Deleting a key that does not exist succeeds.
func (g *Gateway) Delete(ctx context.Context, key string) (err error) {
	defer g.track("delete")(&err)

	snap, err := g.acquire()
	if err != nil {
		return err
	}
	if err := requireKey(key); err != nil {
		return err
	}

	if err := snap.store.DeleteObject(ctx, snap.cfg.Bucket, key); err != nil {
		if errs.IsNotFound(err) {
			g.log.DebugWith("delete of missing object ignored", map[string]interface{}{"key": key})
			return nil
		}
		return g.fail(err, "failed to delete object", key)
	}

	g.log.InfoWith("deleted object", map[string]interface{}{"key": key})
	return nil
}

// ListBuckets returns the names of every bucket visible to the active credentials.
func (g *Gateway) ListBuckets(ctx context.Context) (names []string, err error) {
	defer g.track("list_buckets")(&err)

	snap, err := g.acquire()
	if err != nil {
		return nil, err
	}

	buckets, err := snap.store.ListBuckets(ctx)
	if err != nil {
		return nil, g.fail(err, "failed to list buckets", "")
	}

	names = make([]string, len(buckets))
	for i, b := range buckets {
		names[i] = b.Name
	}
	return names, nil
}

// CreateFolder stores a zero-length placeholder whose key is path with
// exactly one trailing delimiter. It returns the stored key.
func (g *Gateway) CreateFolder(ctx context.Context, path string) (key string, err error) {
	defer g.track("create_folder")(&err)

	snap, err := g.acquire()
	if err != nil {
		return "", err
	}

	key = folderKey(path)
	if key == "" {
		return "", errs.InvalidInput("path", "folder path cannot be empty")
	}

	if _, err := snap.store.PutObject(ctx, snap.cfg.Bucket, key, bytes.NewReader(nil), 0, filestore.PutOptions{}); err != nil {
		return "", g.fail(err, "failed to create folder", key)
	}

	g.log.InfoWith("created folder", map[string]interface{}{"key": key})
	return key, nil
}

func requireKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errs.InvalidInput("key", "object key cannot be empty")
	}
	return nil
}

// fail logs err and re-raises it at the gateway boundary. Not-found errors
// keep their kind; every other backend failure becomes ErrKindGateway.
func (g *Gateway) fail(err error, msg, key string) error {
	g.log.ErrorWith(msg, err, map[string]interface{}{"key": key})

	if errs.IsNotFound(err) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}
	return errs.Wrap(errs.ErrKindGateway, msg, err)
}
