// Package s3store keeps collection snapshots as objects in an S3-compatible bucket.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/infyemailer-backoffice/internal/data/snapshot"
)

// ObjectAPI is the subset of *s3.Client the store needs; tests substitute a mock.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ ObjectAPI = (*s3.Client)(nil)

// SnapshotStore implements snapshot.Store with one object per snapshot at <prefix><name>.json.
type SnapshotStore struct {
	client ObjectAPI
	bucket string
	prefix string
	logger *slog.Logger
}

var _ snapshot.Store = (*SnapshotStore)(nil)

func NewSnapshotStore(logger *slog.Logger, client ObjectAPI, bucket, prefix string) *SnapshotStore {
	return &SnapshotStore{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

func (s *SnapshotStore) key(name string) string {
	return s.prefix + name + ".json"
}

func (s *SnapshotStore) Write(ctx context.Context, name string, payload []byte) error {
	key := s.key(name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(payload),
		ContentLength: aws.Int64(int64(len(payload))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		s.logger.Error("Failed to put snapshot object", "bucket", s.bucket, "key", key, "error", err)
		return fmt.Errorf("failed to write snapshot %s: %w", name, err)
	}
	return nil
}

func (s *SnapshotStore) Read(ctx context.Context, name string) ([]byte, error) {
	key := s.key(name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, snapshot.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", name, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot body %s: %w", name, err)
	}
	return data, nil
}
