package objectstore

import (
	"context"
	"strings"
	"time"
)

// MockObjectStore is an in-memory ObjectStore for testing. Files are listed
// in insertion order.
type MockObjectStore struct {
	bucketName string
	files      []ObjectStoreFile
	contents   map[string][]byte

	pageSize       int
	listError      error
	downloadErrors map[string]error

	listCalls  int
	downloaded []string
}

// NewMockObjectStore creates a new mock object store holding a single bucket
func NewMockObjectStore(bucketName string) *MockObjectStore {
	return &MockObjectStore{
		bucketName:     bucketName,
		contents:       map[string][]byte{},
		downloadErrors: map[string]error{},
	}
}

// AddFile adds a file to the mock store
func (m *MockObjectStore) AddFile(key string, content []byte) {
	m.files = append(m.files, ObjectStoreFile{
		Key:          key,
		LastModified: time.Now(),
		Size:         int64(len(content)),
	})
	m.contents[key] = content
}

// SetPageSize limits how many files a single listing returns. Zero disables
// truncation.
func (m *MockObjectStore) SetPageSize(n int) {
	m.pageSize = n
}

// SetListError makes every ListFiles call fail with err
func (m *MockObjectStore) SetListError(err error) {
	m.listError = err
}

// SetDownloadError makes DownloadFile fail with err for key
func (m *MockObjectStore) SetDownloadError(key string, err error) {
	m.downloadErrors[key] = err
}

// ListCalls returns how many times ListFiles was called
func (m *MockObjectStore) ListCalls() int {
	return m.listCalls
}

// Downloaded returns the keys passed to DownloadFile, in call order
func (m *MockObjectStore) Downloaded() []string {
	return append([]string(nil), m.downloaded...)
}

// ListFiles implements ObjectStore.ListFiles
func (m *MockObjectStore) ListFiles(ctx context.Context, bucket, prefix string) (*ListResult, error) {
	m.listCalls++

	if m.listError != nil {
		return nil, NewError("list", bucket, "", m.listError)
	}
	if bucket != m.bucketName {
		return nil, &Error{Op: "list", Bucket: bucket, Kind: ErrBucketNotFound, Err: errMockNoSuchBucket}
	}

	result := &ListResult{}
	for _, file := range m.files {
		if !strings.HasPrefix(file.Key, prefix) {
			continue
		}
		if m.pageSize > 0 && len(result.Files) == m.pageSize {
			result.Truncated = true
			break
		}
		result.Files = append(result.Files, file)
	}
	return result, nil
}

// DownloadFile implements ObjectStore.DownloadFile
func (m *MockObjectStore) DownloadFile(ctx context.Context, bucket, key string) ([]byte, error) {
	m.downloaded = append(m.downloaded, key)

	if err, ok := m.downloadErrors[key]; ok {
		return nil, NewError("get", bucket, key, err)
	}

	content, ok := m.contents[key]
	if bucket != m.bucketName || !ok {
		return nil, &Error{Op: "get", Bucket: bucket, Key: key, Kind: ErrObjectNotFound, Err: errMockNoSuchKey}
	}
	return append([]byte(nil), content...), nil
}

// Close implements ObjectStore.Close
func (m *MockObjectStore) Close() error {
	return nil
}

// mockError is a simple error implementation for testing
type mockError struct {
	message string
}

func (e *mockError) Error() string {
	return e.message
}

var (
	errMockNoSuchBucket = &mockError{message: "mock: no such bucket"}
	errMockNoSuchKey    = &mockError{message: "mock: no such key"}
)

var _ ObjectStore = (*MockObjectStore)(nil)
