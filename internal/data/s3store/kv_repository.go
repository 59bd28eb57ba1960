// Package s3store stores the entry list as one object in an S3-compatible
// bucket.
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
	"github.com/aws/smithy-go"

	"github.com/corp-qr-hub/internal/domain/entry"
)

// ObjectAPI is the subset of *s3.Client the repository uses
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ ObjectAPI = (*s3.Client)(nil)

// KVRepository implements entry.Repository with one object per key under a
// common prefix.
type KVRepository struct {
	client ObjectAPI
	bucket string
	prefix string
	logger *slog.Logger
}

func NewKVRepository(logger *slog.Logger, client ObjectAPI, bucket, prefix string) *KVRepository {
	return &KVRepository{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

func (r *KVRepository) objectKey(key string) string {
	return r.prefix + key + ".json"
}

func (r *KVRepository) Load(ctx context.Context, key string) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.objectKey(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, entry.ErrNoData
		}
		r.logger.Error("Failed to get object", "bucket", r.bucket, "key", r.objectKey(key), "error", err)
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (r *KVRepository) Save(ctx context.Context, key string, data []byte) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(r.objectKey(key)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		r.logger.Error("Failed to put object", "bucket", r.bucket, "key", r.objectKey(key), "error", err)
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// isNotFound covers both the typed NoSuchKey error and the bare 404 some
// S3-compatible servers answer with.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
