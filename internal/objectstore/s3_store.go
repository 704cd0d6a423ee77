package objectstore

import (
	"context"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/GreedyKomodoDragon/s3search/internal/config"
)

// S3API is the subset of the S3 client used by S3Store
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store implements ObjectStore for AWS S3 or S3-compatible storage
type S3Store struct {
	client       S3API
	logger       *slog.Logger
	listAllPages bool
}

// NewS3Store creates a new S3Store from validated configuration
func NewS3Store(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*S3Store, error) {
	client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("S3 client initialized",
		"endpoint", cfg.Endpoint,
		"region", cfg.Region,
		"list_all_pages", cfg.ListAllPages,
	)

	return NewS3StoreWithClient(client, logger, cfg.ListAllPages), nil
}

// NewS3StoreWithClient wraps an existing client
func NewS3StoreWithClient(client S3API, logger *slog.Logger, listAllPages bool) *S3Store {
	return &S3Store{
		client:       client,
		logger:       logger,
		listAllPages: listAllPages,
	}
}

// ListFiles implements ObjectStore.ListFiles. Unless the store was built with
// listAllPages, only the first listing response is used.
func (s *S3Store) ListFiles(ctx context.Context, bucket, prefix string) (*ListResult, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	if !s.listAllPages {
		page, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, NewError("list", bucket, "", err)
		}

		return &ListResult{
			Files:     appendFiles(nil, page.Contents),
			Truncated: aws.ToBool(page.IsTruncated),
		}, nil
	}

	var files []ObjectStoreFile
	pages := 0

	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, NewError("list", bucket, "", err)
		}
		pages++

		files = appendFiles(files, page.Contents)
	}

	s.logger.Debug("Listed all pages", "bucket", bucket, "prefix", prefix, "pages", pages, "count", len(files))

	return &ListResult{Files: files}, nil
}

func appendFiles(files []ObjectStoreFile, contents []types.Object) []ObjectStoreFile {
	for _, obj := range contents {
		if obj.Key == nil {
			continue
		}

		files = append(files, ObjectStoreFile{
			Key:          *obj.Key,
			LastModified: aws.ToTime(obj.LastModified),
			Size:         aws.ToInt64(obj.Size),
		})
	}
	return files
}

// DownloadFile implements ObjectStore.DownloadFile. The whole body is read
// into memory.
func (s *S3Store) DownloadFile(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, NewError("get", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, NewError("get", bucket, key, err)
	}

	return data, nil
}

// Close implements ObjectStore.Close
func (s *S3Store) Close() error {
	// S3 client doesn't require explicit cleanup
	return nil
}

var _ ObjectStore = (*S3Store)(nil)
