package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GreedyKomodoDragon/s3search/internal/objectstore"
)

// ErrInvalidRequest is returned before any backend call when the bucket or
// search term is empty.
var ErrInvalidRequest = errors.New("invalid search request")

// Request describes one search run
type Request struct {
	Bucket string
	Term   string

	// Prefix restricts the listing; empty lists the whole bucket.
	Prefix string
}

// Validate checks the request
func (r Request) Validate() error {
	if r.Bucket == "" {
		return fmt.Errorf("%w: bucket name is required", ErrInvalidRequest)
	}
	if r.Term == "" {
		return fmt.Errorf("%w: search term is required", ErrInvalidRequest)
	}
	return nil
}

// Summary counts what a completed run did. Matches themselves are only
// reported, never collected.
type Summary struct {
	Scanned int
	Matched int

	// Truncated is set when the listing did not cover every object under
	// the prefix.
	Truncated bool
}

// Service lists a bucket and searches each object for a literal term
type Service struct {
	store    objectstore.ObjectStore
	reporter Reporter
	logger   *slog.Logger
}

func NewService(store objectstore.ObjectStore, reporter Reporter, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		reporter: reporter,
		logger:   logger,
	}
}

// Run searches every object listed under req.Prefix, one at a time, in
// listing order. It keeps scanning after a match and stops at the first
// error.
func (s *Service) Run(ctx context.Context, req Request) (*Summary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.logger.Info("Starting search", "bucket", req.Bucket, "prefix", req.Prefix)

	keys, truncated, err := s.listKeys(ctx, req.Bucket, req.Prefix)
	if err != nil {
		s.logger.Error("Failed to list objects", "bucket", req.Bucket, "error", err)
		return nil, err
	}

	summary := &Summary{Truncated: truncated}
	for _, key := range keys {
		found, err := s.SearchOne(ctx, req.Bucket, key, req.Term)
		if err != nil {
			s.logger.Error("Search aborted", "bucket", req.Bucket, "key", key, "error", err)
			return nil, err
		}

		summary.Scanned++
		if found {
			summary.Matched++
		}
	}

	s.logger.Info("Search completed",
		"bucket", req.Bucket,
		"scanned", summary.Scanned,
		"matched", summary.Matched,
	)

	return summary, nil
}

// ListKeys returns the keys under prefix in the order the backend returned
// them.
func (s *Service) ListKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: bucket name is required", ErrInvalidRequest)
	}

	keys, _, err := s.listKeys(ctx, bucket, prefix)
	return keys, err
}

func (s *Service) listKeys(ctx context.Context, bucket, prefix string) ([]string, bool, error) {
	result, err := s.store.ListFiles(ctx, bucket, prefix)
	if err != nil {
		return nil, false, err
	}

	keys := make([]string, 0, len(result.Files))
	for _, file := range result.Files {
		keys = append(keys, file.Key)
	}

	if result.Truncated {
		s.logger.Warn("Listing truncated, objects beyond the first page are not searched",
			"bucket", bucket,
			"prefix", prefix,
			"listed", len(keys),
		)
	}

	s.logger.Debug("Listed objects", "bucket", bucket, "prefix", prefix, "count", len(keys))

	return keys, result.Truncated, nil
}

// SearchOne fetches the object stored under key and reports it when its
// decoded content contains term.
func (s *Service) SearchOne(ctx context.Context, bucket, key, term string) (bool, error) {
	if term == "" {
		return false, fmt.Errorf("%w: search term is required", ErrInvalidRequest)
	}

	body, err := s.store.DownloadFile(ctx, bucket, key)
	if err != nil {
		return false, err
	}

	if !Contains(body, term) {
		s.logger.Debug("No match", "key", key, "size", len(body))
		return false, nil
	}

	if err := s.reporter.ReportMatch(term, key); err != nil {
		return true, fmt.Errorf("failed to report match in %s: %w", key, err)
	}

	return true, nil
}
