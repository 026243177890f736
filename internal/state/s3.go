package state

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/imamik/surfspot/internal/platform/s3"
)

// objectStore is the subset of the S3 client used by S3Store.
type objectStore interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	PutObject(ctx context.Context, bucket, key string, data []byte) error
}

// S3Store keeps one object per key under a prefix in a bucket.
type S3Store struct {
	client objectStore
	bucket string
	prefix string
}

// NewS3Store creates a store for bucket. prefix may be empty.
func NewS3Store(client objectStore, bucket, prefix string) (*S3Store, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client cannot be nil")
	}
	if bucket == "" {
		return nil, fmt.Errorf("s3 state store requires a bucket")
	}
	return &S3Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// Get reads key. A missing object reads as absent.
func (s *S3Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	data, err := s.client.GetObject(ctx, s.bucket, s.objectKey(key))
	if err != nil {
		if errors.Is(err, s3.ErrObjectNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read state %s: %w", key, err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// Set replaces key. S3 object writes are atomic.
func (s *S3Store) Set(ctx context.Context, key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := s.client.PutObject(ctx, s.bucket, s.objectKey(key), []byte(value)); err != nil {
		return fmt.Errorf("failed to write state %s: %w", key, err)
	}
	return nil
}
