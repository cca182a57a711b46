package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
)

const textContentType = "text/plain; charset=utf-8"

// R2Store keeps documents in Cloudflare R2 via the S3-compatible API.
type R2Store struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewR2Store constructs the storage adapter.
func NewR2Store(endpoint, accessKey, secretKey, bucket, region string, logger *slog.Logger) (*R2Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	useSSL := strings.HasPrefix(strings.ToLower(strings.TrimSpace(endpoint)), "https")
	client, err := minio.New(sanitizeEndpoint(endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init r2 client: %w", err)
	}
	return &R2Store{client: client, bucket: bucket, logger: logger.With("component", "documents.r2")}, nil
}

func (s *R2Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err == nil && exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	s.logger.Info("bucket created", "bucket", s.bucket)
	return nil
}

// Put uploads data as a plain text object.
func (s *R2Store) Put(ctx context.Context, key string, data []byte) (summarizer.DocumentRef, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return summarizer.DocumentRef{}, err
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:      textContentType,
		DisableMultipart: len(data) < 5*1024*1024,
	})
	if err != nil {
		return summarizer.DocumentRef{}, err
	}
	return summarizer.DocumentRef{Key: key, Size: info.Size, ETag: info.ETag}, nil
}

// Get fetches a document for reading.
func (s *R2Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key.
	if _, statErr := obj.Stat(); statErr != nil {
		obj.Close()
		if minio.ToErrorResponse(statErr).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, statErr
	}
	return obj, nil
}

var _ summarizer.DocumentStore = (*R2Store)(nil)

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	host, _, _ := strings.Cut(raw, "/")
	return host
}
