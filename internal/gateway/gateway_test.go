package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/koustreak/s3gate/internal/errs"
	"github.com/koustreak/s3gate/internal/filestore"
	"github.com/koustreak/s3gate/internal/filestore/filestoretest"
	"github.com/koustreak/s3gate/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(bucket string) filestore.Config {
	return *filestore.DefaultConfig("http://localhost:9000", "minioadmin", "supersecret", bucket)
}

// activeGateway returns a gateway whose active connection is store.
func activeGateway(t *testing.T, store *filestoretest.Store, bucket string) *Gateway {
	t.Helper()
	g := New(store.Dialer(), logger.Nop())
	require.NoError(t, g.Replace(context.Background(), testConfig(bucket)))
	return g
}

// dialerFor returns a dialer that hands out the store registered for the
// requested bucket and counts how often it was called.
func dialerFor(stores map[string]*filestoretest.Store, dials *int) filestore.Dialer {
	var mu sync.Mutex
	return func(_ context.Context, cfg *filestore.Config) (filestore.Store, error) {
		mu.Lock()
		defer mu.Unlock()
		*dials++
		s, ok := stores[cfg.Bucket]
		if !ok {
			return nil, errors.New("unknown bucket")
		}
		return s, nil
	}
}

func TestReplace_ThenCurrent(t *testing.T) {
	store := filestoretest.New("files")
	g := New(store.Dialer(), logger.Nop())
	assert.Equal(t, StateUninitialized, g.State())

	cfg := testConfig("files")
	require.NoError(t, g.Replace(context.Background(), cfg))

	internal, ok := g.activeConfig()
	require.True(t, ok)
	assert.Equal(t, cfg, internal)

	external, err := g.Current()
	require.NoError(t, err)
	want := cfg
	want.SecretKey = "supe****"
	assert.Equal(t, want, external)
	assert.Equal(t, StateActive, g.State())
	assert.Equal(t, []string{"Ping"}, store.Calls())
}

func TestReplace_LogsReplacedConfig(t *testing.T) {
	var buf bytes.Buffer
	store := filestoretest.New("files", "archive")
	g := New(store.Dialer(), logger.New(&logger.Config{Level: "info", Format: "json", Output: &buf}))

	require.NoError(t, g.Replace(context.Background(), testConfig("files")))
	assert.NotContains(t, buf.String(), "previous_bucket")

	buf.Reset()
	require.NoError(t, g.Replace(context.Background(), testConfig("archive")))
	assert.Contains(t, buf.String(), `"previous_bucket":"files"`)
	assert.Contains(t, buf.String(), `"bucket":"archive"`)
	assert.NotContains(t, buf.String(), "supersecret")
}

func TestReplace_UnreachableKeepsPrevious(t *testing.T) {
	good := filestoretest.New("good")
	bad := filestoretest.New("bad")
	bad.PingErr = errs.Wrap(errs.ErrKindGateway, "ping failed", errors.New("connection refused"))

	dials := 0
	g := New(dialerFor(map[string]*filestoretest.Store{"good": good, "bad": bad}, &dials), logger.Nop())
	require.NoError(t, g.Replace(context.Background(), testConfig("good")))
	before, err := g.Current()
	require.NoError(t, err)

	err = g.Replace(context.Background(), testConfig("bad"))
	require.Error(t, err)
	assert.True(t, errs.IsConnectivity(err))

	after, err := g.Current()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, StateActive, g.State())
	assert.True(t, bad.Closed(), "rejected connection must be discarded")
	assert.False(t, good.Closed())

	// The previous connection still serves requests.
	_, err = g.List(context.Background(), "")
	assert.NoError(t, err)
}

func TestReplace_DialFailureIsConnectivity(t *testing.T) {
	g := New(func(context.Context, *filestore.Config) (filestore.Store, error) {
		return nil, errors.New("tls: bad certificate")
	}, logger.Nop())

	err := g.Replace(context.Background(), testConfig("files"))
	assert.True(t, errs.IsConnectivity(err))
	assert.Equal(t, StateUninitialized, g.State())
}

func TestReplace_InvalidConfigNeverDials(t *testing.T) {
	dials := 0
	g := New(dialerFor(map[string]*filestoretest.Store{}, &dials), logger.Nop())

	cfg := testConfig("files")
	cfg.Region = ""
	err := g.Replace(context.Background(), cfg)

	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
	assert.Equal(t, "region", errs.FieldOf(err))
	assert.Zero(t, dials)
	assert.Equal(t, StateUninitialized, g.State())
}

func TestTest_DoesNotSwap(t *testing.T) {
	active := filestoretest.New("active")
	candidate := filestoretest.New("candidate")
	dials := 0
	g := New(dialerFor(map[string]*filestoretest.Store{"active": active, "candidate": candidate}, &dials), logger.Nop())
	require.NoError(t, g.Replace(context.Background(), testConfig("active")))

	require.NoError(t, g.Test(context.Background(), testConfig("candidate")))

	cfg, ok := g.activeConfig()
	require.True(t, ok)
	assert.Equal(t, "active", cfg.Bucket)
	assert.True(t, candidate.Closed())

	candidate.PingErr = errors.New("unreachable")
	assert.True(t, errs.IsConnectivity(g.Test(context.Background(), testConfig("candidate"))))
}

func TestTest_WhileUninitialized(t *testing.T) {
	store := filestoretest.New("files")
	g := New(store.Dialer(), logger.Nop())

	require.NoError(t, g.Test(context.Background(), testConfig("files")))
	assert.Equal(t, StateUninitialized, g.State())
}

func TestBootstrap_FailureIsNotFatal(t *testing.T) {
	store := filestoretest.New("files")
	store.PingErr = errors.New("connection refused")
	g := New(store.Dialer(), logger.Nop())

	g.Bootstrap(context.Background(), testConfig("files"))
	assert.Equal(t, StateUninitialized, g.State())

	// The attempted configuration is still visible, masked.
	cfg, err := g.Current()
	require.NoError(t, err)
	assert.Equal(t, "files", cfg.Bucket)
	assert.Equal(t, "supe****", cfg.SecretKey)

	_, err = g.List(context.Background(), "")
	assert.True(t, errs.IsNotInitialized(err))

	// A later update is accepted.
	store.PingErr = nil
	require.NoError(t, g.Replace(context.Background(), testConfig("files")))
	assert.Equal(t, StateActive, g.State())
}

func TestCurrent_NothingConfigured(t *testing.T) {
	g := New(filestoretest.New().Dialer(), logger.Nop())
	_, err := g.Current()
	assert.True(t, errs.IsNotInitialized(err))
}

func TestUninitialized_NoBackendCalls(t *testing.T) {
	store := filestoretest.New("files")
	g := New(store.Dialer(), logger.Nop())
	ctx := context.Background()

	ops := map[string]func() error{
		"list":     func() error { _, err := g.List(ctx, ""); return err },
		"metadata": func() error { _, err := g.Metadata(ctx, "a.txt"); return err },
		"download": func() error { _, err := g.Download(ctx, "a.txt"); return err },
		"upload":   func() error { return g.Upload(ctx, "a.txt", strings.NewReader("x"), 1, "") },
		"delete":   func() error { return g.Delete(ctx, "a.txt") },
		"buckets":  func() error { _, err := g.ListBuckets(ctx); return err },
		"folder":   func() error { _, err := g.CreateFolder(ctx, "a/b"); return err },
		"test":     func() error { return g.TestConnection(ctx) },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			err := op()
			assert.True(t, errs.IsNotInitialized(err), "got %v", err)
		})
	}
	assert.Empty(t, store.Calls())
}

func TestReplace_DoesNotBlockReaders(t *testing.T) {
	old := filestoretest.New("old")
	old.Seed("old", "a.txt", "alpha")

	release := make(chan struct{})
	probing := make(chan struct{})
	next := &blockingStore{Store: filestoretest.New("new"), probing: probing, release: release}

	g := New(func(_ context.Context, cfg *filestore.Config) (filestore.Store, error) {
		if cfg.Bucket == "old" {
			return old, nil
		}
		return next, nil
	}, logger.Nop())
	require.NoError(t, g.Replace(context.Background(), testConfig("old")))

	done := make(chan error, 1)
	go func() { done <- g.Replace(context.Background(), testConfig("new")) }()

	<-probing
	assert.Equal(t, StateValidating, g.State())

	entries, err := g.List(context.Background(), "")
	require.NoError(t, err, "reads must proceed against the previous snapshot")
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Key)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateActive, g.State())

	cfg, _ := g.activeConfig()
	assert.Equal(t, "new", cfg.Bucket)
}

// blockingStore holds Ping until release is closed.
type blockingStore struct {
	*filestoretest.Store
	probing chan struct{}
	release chan struct{}
}

func (b *blockingStore) Ping(ctx context.Context) error {
	close(b.probing)
	<-b.release
	return b.Store.Ping(ctx)
}

func TestConcurrentReadsSeeConsistentSnapshots(t *testing.T) {
	one := filestoretest.New("one")
	two := filestoretest.New("two")
	one.Seed("one", "file", "1")
	two.Seed("two", "file", "2")

	dials := 0
	g := New(dialerFor(map[string]*filestoretest.Store{"one": one, "two": two}, &dials), logger.Nop())
	require.NoError(t, g.Replace(context.Background(), testConfig("one")))

	// Each store only knows its own bucket, so pairing a config from one
	// generation with the store of another would surface as NotFound.
	var wg sync.WaitGroup
	stop := make(chan struct{})
	failures := make(chan error, 64)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := g.List(context.Background(), ""); err != nil {
					failures <- err
					return
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		bucket := "one"
		if i%2 == 0 {
			bucket = "two"
		}
		require.NoError(t, g.Replace(context.Background(), testConfig(bucket)))
	}
	close(stop)
	wg.Wait()
	close(failures)

	for err := range failures {
		t.Errorf("inconsistent snapshot: %v", err)
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	ops    map[string]int
	failed map[string]int
	states []string
}

func (r *recordingObserver) ObserveOperation(op string, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[op]++
	if err != nil {
		r.failed[op]++
	}
}

func (r *recordingObserver) ObserveState(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{ops: map[string]int{}, failed: map[string]int{}}
	store := filestoretest.New("files")
	g := New(store.Dialer(), logger.Nop(), WithObserver(obs))

	_, err := g.List(context.Background(), "")
	require.Error(t, err)
	require.NoError(t, g.Replace(context.Background(), testConfig("files")))
	_, err = g.List(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 2, obs.ops["list"])
	assert.Equal(t, 1, obs.failed["list"])
	assert.Equal(t, 1, obs.ops["replace"])
	assert.Equal(t, []string{"UNINITIALIZED", "VALIDATING", "ACTIVE"}, obs.states)
}

func TestClose(t *testing.T) {
	store := filestoretest.New("files")
	g := activeGateway(t, store, "files")

	require.NoError(t, g.Close())
	assert.True(t, store.Closed())
	assert.Equal(t, StateUninitialized, g.State())

	_, err := g.ListBuckets(context.Background())
	assert.True(t, errs.IsNotInitialized(err))
}

func TestDownload_StreamsContent(t *testing.T) {
	store := filestoretest.New("files")
	_, err := store.PutObject(context.Background(), "files", "docs/report.pdf", strings.NewReader("%PDF-1.7"), 8, filestore.PutOptions{ContentType: "application/pdf"})
	require.NoError(t, err)
	g := activeGateway(t, store, "files")

	dl, err := g.Download(context.Background(), "docs/report.pdf")
	require.NoError(t, err)
	defer dl.Close()

	body, err := io.ReadAll(dl)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(body))
	assert.Equal(t, "application/pdf", dl.ContentType)
	assert.Equal(t, int64(8), dl.Size)
}
