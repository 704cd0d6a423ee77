package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Backend error kinds. Every narrower kind wraps ErrBackendRequest, so
// errors.Is(err, ErrBackendRequest) holds for any failed backend call.
var (
	ErrBackendRequest = errors.New("backend request failed")

	// ErrBackendUnavailable indicates the endpoint could not be reached
	ErrBackendUnavailable = fmt.Errorf("%w: backend unavailable", ErrBackendRequest)

	// ErrBucketNotFound indicates that the requested bucket does not exist
	ErrBucketNotFound = fmt.Errorf("%w: bucket not found", ErrBackendRequest)

	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = fmt.Errorf("%w: object not found", ErrBackendRequest)

	// ErrAccessDenied indicates rejected credentials or missing permissions
	ErrAccessDenied = fmt.Errorf("%w: access denied", ErrBackendRequest)
)

// S3 error codes that are not modeled as typed errors by the SDK.
const (
	codeNoSuchBucket          = "NoSuchBucket"
	codeNoSuchKey             = "NoSuchKey"
	codeNotFound              = "NotFound"
	codeAccessDenied          = "AccessDenied"
	codeInvalidAccessKeyID    = "InvalidAccessKeyId"
	codeSignatureDoesNotMatch = "SignatureDoesNotMatch"
)

// Error describes a failed object store operation.
type Error struct {
	// Op is the operation that failed, e.g. "list" or "get".
	Op     string
	Bucket string
	Key    string

	// Kind is one of the package error kinds.
	Kind error

	// Err is the underlying error from the SDK.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Bucket != "" && e.Key != "":
		return fmt.Sprintf("objectstore.%s %s/%s: %v: %v", e.Op, e.Bucket, e.Key, e.Kind, e.Err)
	case e.Bucket != "":
		return fmt.Sprintf("objectstore.%s bucket %s: %v: %v", e.Op, e.Bucket, e.Kind, e.Err)
	default:
		return fmt.Sprintf("objectstore.%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the underlying SDK error.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewError wraps err with operation context and classifies it.
func NewError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Kind:   classify(err),
		Err:    err,
	}
}

// classify maps an SDK error onto one of the package error kinds.
func classify(err error) error {
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return ErrBucketNotFound
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return ErrObjectNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case codeNoSuchBucket:
			return ErrBucketNotFound
		case codeNoSuchKey, codeNotFound:
			return ErrObjectNotFound
		case codeAccessDenied, codeInvalidAccessKeyID, codeSignatureDoesNotMatch:
			return ErrAccessDenied
		}
		return ErrBackendRequest
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrBackendRequest
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrBackendUnavailable
	}

	return ErrBackendRequest
}
