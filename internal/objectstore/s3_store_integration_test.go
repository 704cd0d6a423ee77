package objectstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/minio"

	"github.com/GreedyKomodoDragon/s3search/internal/config"
)

const (
	integrationTestBucket    = "s3search-test"
	minioImage               = "minio/minio:RELEASE.2024-01-16T16-07-38Z"
	minioUsername            = "minioadmin"
	minioPassword            = "minioadmin"
	skipIntegrationTestMsg   = "Skipping integration test in short mode"
	terminateContainerErrMsg = "Failed to terminate MinIO container: %v"
)

// setupMinIOContainer starts a MinIO testcontainer and returns the endpoint
// and a client that has already created the test bucket
func setupMinIOContainer(ctx context.Context, t *testing.T) (*minio.MinioContainer, *config.Config, *s3.Client) {
	minioContainer, err := minio.Run(ctx,
		minioImage,
		minio.WithUsername(minioUsername),
		minio.WithPassword(minioPassword),
	)
	require.NoError(t, err)

	connectionString, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	// Add http:// prefix if not present
	endpoint := connectionString
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "http://" + endpoint
	}

	cfg := &config.Config{
		Endpoint:        endpoint,
		AccessKeyID:     minioUsername,
		SecretAccessKey: minioPassword,
		Region:          "us-east-1",
		LogLevel:        "debug",
	}

	s3Client, err := NewS3Client(ctx, cfg)
	require.NoError(t, err)

	_, err = s3Client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(integrationTestBucket),
	})
	require.NoError(t, err)

	return minioContainer, cfg, s3Client
}

func createTestS3Store(ctx context.Context, t *testing.T, cfg *config.Config) *S3Store {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	store, err := NewS3Store(ctx, cfg, logger)
	require.NoError(t, err)

	return store
}

// uploadTestFile uploads a test file to the MinIO bucket
func uploadTestFile(ctx context.Context, t *testing.T, s3Client *s3.Client, key, content string) {
	_, err := s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(integrationTestBucket),
		Key:    aws.String(key),
		Body:   strings.NewReader(content),
	})
	require.NoError(t, err)
}

func TestS3StoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip(skipIntegrationTestMsg)
	}

	ctx := context.Background()

	minioContainer, cfg, s3Client := setupMinIOContainer(ctx, t)
	defer func() {
		if err := minioContainer.Terminate(ctx); err != nil {
			t.Logf(terminateContainerErrMsg, err)
		}
	}()

	store := createTestS3Store(ctx, t, cfg)
	defer store.Close()

	t.Run("ListFiles_EmptyBucket", func(t *testing.T) {
		result, err := store.ListFiles(ctx, integrationTestBucket, "")
		require.NoError(t, err)
		assert.Empty(t, result.Files)
		assert.False(t, result.Truncated)
	})

	testFiles := []struct {
		key     string
		content string
	}{
		{"2024/a.txt", "the quick fox"},
		{"2024/b.txt", "lazy dog"},
		{"2023/c.txt", "the quick fox again"},
	}
	for _, tf := range testFiles {
		uploadTestFile(ctx, t, s3Client, tf.key, tf.content)
	}

	t.Run("ListFiles_WithPrefix", func(t *testing.T) {
		result, err := store.ListFiles(ctx, integrationTestBucket, "2024/")
		require.NoError(t, err)

		assert.ElementsMatch(t, []string{"2024/a.txt", "2024/b.txt"}, keysOf(result.Files))
		for _, file := range result.Files {
			assert.Greater(t, file.Size, int64(0))
			assert.False(t, file.LastModified.IsZero())
		}
	})

	t.Run("ListFiles_NoPrefix", func(t *testing.T) {
		result, err := store.ListFiles(ctx, integrationTestBucket, "")
		require.NoError(t, err)
		assert.Len(t, result.Files, 3)
	})

	t.Run("ListFiles_NonExistentPrefix", func(t *testing.T) {
		result, err := store.ListFiles(ctx, integrationTestBucket, "non-existent-prefix/")
		require.NoError(t, err)
		assert.Empty(t, result.Files)
	})

	t.Run("DownloadFile", func(t *testing.T) {
		data, err := store.DownloadFile(ctx, integrationTestBucket, "2024/a.txt")
		require.NoError(t, err)
		assert.Equal(t, "the quick fox", string(data))
	})

	t.Run("DownloadFile_MissingKey", func(t *testing.T) {
		data, err := store.DownloadFile(ctx, integrationTestBucket, "2024/missing.txt")
		assert.Nil(t, data)
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})
}

func TestS3StoreIntegrationPagination(t *testing.T) {
	if testing.Short() {
		t.Skip(skipIntegrationTestMsg)
	}

	ctx := context.Background()

	minioContainer, cfg, s3Client := setupMinIOContainer(ctx, t)
	defer func() {
		if err := minioContainer.Terminate(ctx); err != nil {
			t.Logf(terminateContainerErrMsg, err)
		}
	}()

	// One more than the default page size of 1000 keys.
	const objectCount = 1001
	for i := 0; i < objectCount; i++ {
		uploadTestFile(ctx, t, s3Client, fmt.Sprintf("bulk/%04d.txt", i), "x")
	}

	t.Run("SinglePage", func(t *testing.T) {
		store := createTestS3Store(ctx, t, cfg)
		result, err := store.ListFiles(ctx, integrationTestBucket, "bulk/")
		require.NoError(t, err)
		assert.Len(t, result.Files, 1000)
		assert.True(t, result.Truncated)
	})

	t.Run("AllPages", func(t *testing.T) {
		allPages := *cfg
		allPages.ListAllPages = true

		store := createTestS3Store(ctx, t, &allPages)
		result, err := store.ListFiles(ctx, integrationTestBucket, "bulk/")
		require.NoError(t, err)
		assert.Len(t, result.Files, objectCount)
		assert.False(t, result.Truncated)
	})
}

func TestS3StoreIntegrationErrorCases(t *testing.T) {
	if testing.Short() {
		t.Skip(skipIntegrationTestMsg)
	}

	ctx := context.Background()

	minioContainer, cfg, _ := setupMinIOContainer(ctx, t)
	defer func() {
		if err := minioContainer.Terminate(ctx); err != nil {
			t.Logf(terminateContainerErrMsg, err)
		}
	}()

	t.Run("ListFiles_InvalidBucket", func(t *testing.T) {
		store := createTestS3Store(ctx, t, cfg)

		result, err := store.ListFiles(ctx, "non-existent-bucket", "")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrBucketNotFound)
	})

	t.Run("ListFiles_BadCredentials", func(t *testing.T) {
		badCfg := *cfg
		badCfg.SecretAccessKey = "wrong-secret"

		store := createTestS3Store(ctx, t, &badCfg)
		result, err := store.ListFiles(ctx, integrationTestBucket, "")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("ListFiles_ContextTimeout", func(t *testing.T) {
		store := createTestS3Store(ctx, t, cfg)

		// Create a context that times out immediately
		timeoutCtx, cancel := context.WithTimeout(ctx, 1*time.Nanosecond)
		defer cancel()

		// Wait for context to timeout
		time.Sleep(10 * time.Millisecond)

		result, err := store.ListFiles(timeoutCtx, integrationTestBucket, "")
		assert.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "context deadline exceeded")
	})
}
