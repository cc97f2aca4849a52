package fetch

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ensure MinioFetcher implements Fetcher interface.
var _ Fetcher = (*MinioFetcher)(nil)

// S3 compatible fetcher
type MinioFetcher struct {
	client *minio.Client
	bucket string
}

func NewMinioFetcher(endpoint, id, secret string, ssl bool, bucket string) (*MinioFetcher, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(id, secret, ""),
		Secure: ssl,
	})
	if err != nil {
		return nil, err
	}

	return NewMinioFetcherFromClient(client, bucket), nil
}

func NewMinioFetcherFromClient(client *minio.Client, bucket string) *MinioFetcher {
	return &MinioFetcher{
		client: client,
		bucket: bucket,
	}
}

func (f *MinioFetcher) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "MinioFetcher.Fetch", trace.WithAttributes(
		attribute.String("key", key),
		attribute.String("bucket", f.bucket),
	))
	defer span.End()

	obj, err := f.client.GetObject(ctx, f.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get object")
		return nil, err
	}

	// GetObject is lazy, stat surfaces missing objects before the caller starts reading
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to stat object")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "fetched object")
	return obj, nil
}
