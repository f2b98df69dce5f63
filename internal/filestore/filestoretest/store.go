// Package filestoretest provides an in-memory filestore.Store for tests.
package filestoretest

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/koustreak/s3gate/internal/errs"
	"github.com/koustreak/s3gate/internal/filestore"
)

// Store keeps objects in memory and records every call it receives.
// Set Err to make every call fail; set PingErr to fail only Ping; set
// Listing to return a canned ListResult regardless of stored objects.
type Store struct {
	mu      sync.Mutex
	buckets map[string]map[string]*stored
	calls   []string
	closed  bool

	Err     error
	PingErr error
	Listing *filestore.ListResult
}

type stored struct {
	data []byte
	info filestore.ObjectInfo
}

// New returns a Store holding the given empty buckets.
func New(buckets ...string) *Store {
	s := &Store{buckets: make(map[string]map[string]*stored)}
	for _, b := range buckets {
		s.buckets[b] = make(map[string]*stored)
	}
	return s
}

// Dialer returns a filestore.Dialer that always yields s.
func (s *Store) Dialer() filestore.Dialer {
	return func(context.Context, *filestore.Config) (filestore.Store, error) {
		return s, nil
	}
}

// Calls returns the names of the methods invoked so far, in order.
func (s *Store) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Closed reports whether Close has been called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Seed stores body under key without recording a call.
func (s *Store) Seed(bucket, key, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(bucket, key, []byte(body), "")
}

// Keys returns the sorted keys stored in bucket.
func (s *Store) Keys(bucket string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.buckets[bucket]))
	for k := range s.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) record(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	return s.Err
}

func (s *Store) Ping(context.Context) error {
	if err := s.record("Ping"); err != nil {
		return err
	}
	return s.PingErr
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) ListBuckets(context.Context) ([]filestore.BucketInfo, error) {
	if err := s.record("ListBuckets"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.buckets))
	for b := range s.buckets {
		names = append(names, b)
	}
	sort.Strings(names)

	out := make([]filestore.BucketInfo, len(names))
	for i, n := range names {
		out[i] = filestore.BucketInfo{Name: n}
	}
	return out, nil
}

func (s *Store) ListObjects(_ context.Context, bucket string, opts filestore.ListOptions) (*filestore.ListResult, error) {
	if err := s.record("ListObjects"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Listing != nil {
		return s.Listing, nil
	}
	objs, ok := s.buckets[bucket]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such bucket")
	}

	keys := make([]string, 0, len(objs))
	for k := range objs {
		if strings.HasPrefix(k, opts.Prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	// Same grouping rule as S3: the part of the key after the prefix, up to
	// and including the first delimiter, becomes a common prefix.
	res := &filestore.ListResult{}
	seen := make(map[string]bool)
	for _, k := range keys {
		rest := strings.TrimPrefix(k, opts.Prefix)
		if opts.Delimiter != "" {
			if i := strings.Index(rest, opts.Delimiter); i >= 0 {
				p := opts.Prefix + rest[:i+len(opts.Delimiter)]
				if !seen[p] {
					seen[p] = true
					res.CommonPrefixes = append(res.CommonPrefixes, p)
				}
				continue
			}
		}
		res.Contents = append(res.Contents, objs[k].info)
	}
	return res, nil
}

func (s *Store) lookup(bucket, key string) (*stored, error) {
	objs, ok := s.buckets[bucket]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such bucket")
	}
	obj, ok := objs[key]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such key")
	}
	return obj, nil
}

func (s *Store) StatObject(_ context.Context, bucket, key string) (*filestore.ObjectInfo, error) {
	if err := s.record("StatObject"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, err := s.lookup(bucket, key)
	if err != nil {
		return nil, err
	}
	info := obj.info
	return &info, nil
}

func (s *Store) GetObject(_ context.Context, bucket, key string) (filestore.Object, error) {
	if err := s.record("GetObject"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, err := s.lookup(bucket, key)
	if err != nil {
		return nil, err
	}
	info := obj.info
	return &object{ReadCloser: io.NopCloser(bytes.NewReader(obj.data)), info: &info}, nil
}

func (s *Store) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, opts filestore.PutOptions) (*filestore.ObjectInfo, error) {
	if err := s.record("PutObject"); err != nil {
		return nil, err
	}
	if size >= 0 {
		r = io.LimitReader(r, size)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindGateway, "read upload body", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket]; !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such bucket")
	}
	info := s.putLocked(bucket, key, data, opts.ContentType)
	return &info, nil
}

func (s *Store) DeleteObject(_ context.Context, bucket, key string) error {
	if err := s.record("DeleteObject"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(bucket, key); err != nil {
		return err
	}
	delete(s.buckets[bucket], key)
	return nil
}

func (s *Store) putLocked(bucket, key string, data []byte, contentType string) filestore.ObjectInfo {
	if s.buckets[bucket] == nil {
		s.buckets[bucket] = make(map[string]*stored)
	}
	sum := md5.Sum(data)
	info := filestore.ObjectInfo{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  contentType,
		ETag:         hex.EncodeToString(sum[:]),
		LastModified: time.Now().UTC(),
		StorageClass: "STANDARD",
	}
	s.buckets[bucket][key] = &stored{data: data, info: info}
	return info
}

type object struct {
	io.ReadCloser
	info *filestore.ObjectInfo
}

func (o *object) Info() *filestore.ObjectInfo {
	return o.info
}
