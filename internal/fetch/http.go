package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ensure HTTPFetcher implements Fetcher interface.
var _ Fetcher = (*HTTPFetcher)(nil)

// Reads objects from a public bucket or CDN by joining keys onto a base URL
type HTTPFetcher struct {
	client  *http.Client
	baseURL string
}

func NewHTTPFetcher(client *http.Client, baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Retries transient failures with go-retryablehttp's default policy
func NewRetryingHTTPFetcher(baseURL string, maxRetries int) *HTTPFetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = maxRetries
	client.Logger = nil

	return NewHTTPFetcher(client.StandardClient(), baseURL)
}

func (f *HTTPFetcher) objectURL(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return f.baseURL + "/" + strings.Join(segments, "/")
}

func (f *HTTPFetcher) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	target := f.objectURL(key)
	ctx, span := tracer.Start(ctx, "HTTPFetcher.Fetch", trace.WithAttributes(
		attribute.String("key", key),
		attribute.String("url", target),
	))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct request")
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to download file")
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		err = fmt.Errorf("invalid status code: %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid status code")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "fetched file by http")
	return resp.Body, nil
}
