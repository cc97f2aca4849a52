package fetch

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/photomarathon/pipeline/internal/fetch")

//go:generate mockgen -destination ./mock/mock.go -package mock . Fetcher

// Object store read side. Callers must close the returned reader.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
}
