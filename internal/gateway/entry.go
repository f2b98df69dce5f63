package gateway

import (
	"strings"
	"time"

	"github.com/koustreak/s3gate/internal/filestore"
)

// Delimiter separates path segments when emulating directories.
const Delimiter = "/"

// ObjectEntry is either a file or a directory placeholder in a listing.
// Directory entries never carry an ETag, a size or a modification time.
type ObjectEntry struct {
	Key          string     `json:"key"`
	ETag         *string    `json:"etag"`
	Size         int64      `json:"size"`
	LastModified *time.Time `json:"lastModified"`
	StorageClass *string    `json:"storageClass"`
	IsDirectory  bool       `json:"isDirectory"`
}

func directoryEntry(prefix string) ObjectEntry {
	return ObjectEntry{Key: prefix, IsDirectory: true}
}

func fileEntry(info filestore.ObjectInfo) ObjectEntry {
	e := ObjectEntry{Key: info.Key, Size: info.Size}
	if info.ETag != "" {
		etag := info.ETag
		e.ETag = &etag
	}
	if !info.LastModified.IsZero() {
		mod := info.LastModified
		e.LastModified = &mod
	}
	if info.StorageClass != "" {
		class := info.StorageClass
		e.StorageClass = &class
	}
	return e
}

// entries merges a delimiter listing into ObjectEntry values: every common
// prefix becomes a directory, every content whose key does not end with the
// delimiter becomes a file. Keys ending with the delimiter are placeholder
// objects already represented by their prefix one level up. Empty keys are
// dropped. Backend order is preserved.
func entries(res *filestore.ListResult) []ObjectEntry {
	out := make([]ObjectEntry, 0, len(res.CommonPrefixes)+len(res.Contents))
	for _, p := range res.CommonPrefixes {
		if p == "" {
			continue
		}
		out = append(out, directoryEntry(p))
	}
	for _, obj := range res.Contents {
		if obj.Key == "" || strings.HasSuffix(obj.Key, Delimiter) {
			continue
		}
		out = append(out, fileEntry(obj))
	}
	return out
}

// folderKey collapses trailing delimiters and appends exactly one.
// It returns "" when nothing but delimiters remains.
func folderKey(path string) string {
	trimmed := strings.TrimRight(path, Delimiter)
	if trimmed == "" {
		return ""
	}
	return trimmed + Delimiter
}
