package objectstore

import (
	"context"
	"time"
)

// ObjectStoreFile represents a file stored in an object store
type ObjectStoreFile struct {
	Key          string
	LastModified time.Time
	Size         int64
}

// ListResult is the outcome of a single ListFiles call
type ListResult struct {
	// Files are in the order the backend returned them.
	Files []ObjectStoreFile

	// Truncated reports that the backend has more objects under the prefix
	// than were returned.
	Truncated bool
}

// ObjectStore defines the interface for object storage backends
type ObjectStore interface {
	// ListFiles lists the files in bucket whose keys start with prefix.
	// An empty prefix lists every file.
	ListFiles(ctx context.Context, bucket, prefix string) (*ListResult, error)

	// DownloadFile returns the full content of the object stored under key.
	DownloadFile(ctx context.Context, bucket, key string) ([]byte, error)

	// Close cleans up any resources
	Close() error
}
