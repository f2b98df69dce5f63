package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/koustreak/s3gate/internal/errs"
	"github.com/koustreak/s3gate/internal/filestore"
	"github.com/koustreak/s3gate/internal/filestore/filestoretest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_DirectoriesAndFiles(t *testing.T) {
	mod := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := filestoretest.New("files")
	store.Listing = &filestore.ListResult{
		CommonPrefixes: []string{"docs/"},
		Contents: []filestore.ObjectInfo{
			{Key: "a.txt", Size: 10, ETag: "abc", LastModified: mod, StorageClass: "STANDARD"},
		},
	}
	g := activeGateway(t, store, "files")

	got, err := g.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, ObjectEntry{Key: "docs/", IsDirectory: true}, got[0])

	assert.Equal(t, "a.txt", got[1].Key)
	assert.False(t, got[1].IsDirectory)
	assert.Equal(t, int64(10), got[1].Size)
	require.NotNil(t, got[1].ETag)
	assert.Equal(t, "abc", *got[1].ETag)
	require.NotNil(t, got[1].LastModified)
	assert.True(t, mod.Equal(*got[1].LastModified))
}

func TestList_ExcludesPlaceholders(t *testing.T) {
	store := filestoretest.New("files")
	store.Seed("files", "docs/", "")
	store.Seed("files", "docs/guide.md", "# guide")
	store.Seed("files", "docs/img/", "")
	store.Seed("files", "docs/img/logo.png", "png")
	g := activeGateway(t, store, "files")

	got, err := g.List(context.Background(), "docs/")
	require.NoError(t, err)

	keys := make([]string, len(got))
	for i, e := range got {
		keys[i] = e.Key
		if !e.IsDirectory {
			assert.False(t, strings.HasSuffix(e.Key, Delimiter), "file entry %q ends with delimiter", e.Key)
		}
	}
	assert.Equal(t, []string{"docs/img/", "docs/guide.md"}, keys)
	assert.True(t, got[0].IsDirectory)
}

func TestList_Root(t *testing.T) {
	store := filestoretest.New("files")
	store.Seed("files", "readme.txt", "hi")
	store.Seed("files", "a/b/c.txt", "deep")
	g := activeGateway(t, store, "files")

	got, err := g.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a/", got[0].Key)
	assert.True(t, got[0].IsDirectory)
	assert.Equal(t, "readme.txt", got[1].Key)
}

func TestList_BackendFailureIsGatewayError(t *testing.T) {
	store := filestoretest.New("files")
	g := activeGateway(t, store, "files")
	cause := errors.New("connection reset by peer")
	store.Err = cause

	_, err := g.List(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errs.IsGateway(err))
	assert.ErrorIs(t, err, cause)
}

func TestMetadata(t *testing.T) {
	store := filestoretest.New("files")
	store.Seed("files", "notes/today.txt", "hello")
	g := activeGateway(t, store, "files")

	entry, err := g.Metadata(context.Background(), "notes/today.txt")
	require.NoError(t, err)
	assert.Equal(t, "notes/today.txt", entry.Key)
	assert.Equal(t, int64(5), entry.Size)
	assert.False(t, entry.IsDirectory)
	require.NotNil(t, entry.StorageClass)
	assert.Equal(t, "STANDARD", *entry.StorageClass)

	_, err = g.Metadata(context.Background(), "missing.txt")
	assert.True(t, errs.IsNotFound(err))

	_, err = g.Metadata(context.Background(), "")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestUpload(t *testing.T) {
	store := filestoretest.New("files")
	g := activeGateway(t, store, "files")

	require.NoError(t, g.Upload(context.Background(), "in/data.csv", strings.NewReader("a,b\n1,2\n"), 8, "text/csv"))

	entry, err := g.Metadata(context.Background(), "in/data.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(8), entry.Size)

	dl, err := g.Download(context.Background(), "in/data.csv")
	require.NoError(t, err)
	defer dl.Close()
	assert.Equal(t, "text/csv", dl.ContentType)

	assert.True(t, errs.IsInvalidInput(g.Upload(context.Background(), " ", strings.NewReader(""), 0, "")))
}

func TestDownload_Missing(t *testing.T) {
	g := activeGateway(t, filestoretest.New("files"), "files")

	_, err := g.Download(context.Background(), "nope")
	assert.True(t, errs.IsNotFound(err))
}

func TestDelete_Idempotent(t *testing.T) {
	store := filestoretest.New("files")
	store.Seed("files", "tmp.bin", "x")
	g := activeGateway(t, store, "files")

	require.NoError(t, g.Delete(context.Background(), "tmp.bin"))
	assert.Empty(t, store.Keys("files"))

	require.NoError(t, g.Delete(context.Background(), "tmp.bin"))
	require.NoError(t, g.Delete(context.Background(), "never-existed"))
}

func TestDelete_BackendFailure(t *testing.T) {
	store := filestoretest.New("files")
	g := activeGateway(t, store, "files")
	store.Err = errors.New("access denied")

	err := g.Delete(context.Background(), "x")
	assert.True(t, errs.IsGateway(err))
}

func TestListBuckets(t *testing.T) {
	store := filestoretest.New("files", "archive", "logs")
	g := activeGateway(t, store, "files")

	names, err := g.ListBuckets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"archive", "files", "logs"}, names)
}

func TestCreateFolder_Normalises(t *testing.T) {
	store := filestoretest.New("files")
	g := activeGateway(t, store, "files")

	for _, path := range []string{"a/b", "a/b/", "a/b///"} {
		key, err := g.CreateFolder(context.Background(), path)
		require.NoError(t, err, path)
		assert.Equal(t, "a/b/", key, path)
	}
	assert.Equal(t, []string{"a/b/"}, store.Keys("files"))

	info, err := store.StatObject(context.Background(), "files", "a/b/")
	require.NoError(t, err)
	assert.Zero(t, info.Size)
}

func TestCreateFolder_Empty(t *testing.T) {
	store := filestoretest.New("files")
	g := activeGateway(t, store, "files")

	for _, path := range []string{"", "/", "///"} {
		_, err := g.CreateFolder(context.Background(), path)
		assert.True(t, errs.IsInvalidInput(err), "path %q", path)
		assert.Equal(t, "path", errs.FieldOf(err))
	}
	assert.Empty(t, store.Keys("files"))
}

func TestCreateFolder_ThenList(t *testing.T) {
	store := filestoretest.New("files")
	g := activeGateway(t, store, "files")

	_, err := g.CreateFolder(context.Background(), "reports")
	require.NoError(t, err)

	root, err := g.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, root, 1)
	assert.Equal(t, ObjectEntry{Key: "reports/", IsDirectory: true}, root[0])

	inside, err := g.List(context.Background(), "reports/")
	require.NoError(t, err)
	assert.Empty(t, inside)
}

func TestTestConnection(t *testing.T) {
	store := filestoretest.New("files")
	g := activeGateway(t, store, "files")

	require.NoError(t, g.TestConnection(context.Background()))

	store.PingErr = errors.New("i/o timeout")
	assert.True(t, errs.IsConnectivity(g.TestConnection(context.Background())))
}
