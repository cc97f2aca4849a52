package upload

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/photomarathon/pipeline/internal/upload")

//go:generate mockgen -destination ./mock/mock.go -package mock . Uploader

// Object store write side
type Uploader interface {
	// Create / Overwrite the object at `key`
	Upload(ctx context.Context, reader io.ReadSeeker, length int64, key string, contentType string) error
	// Provide an identifier for where files are being uploaded to. Useful for logging.
	StoreIdentifier(ctx context.Context) (string, error)
}
