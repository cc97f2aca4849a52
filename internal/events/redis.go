package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Bound on the stream length, trimmed approximately
const DefaultStreamMaxLen int64 = 100_000

// RedisPublisher appends envelopes to a redis stream
type RedisPublisher struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

var _ Publisher = (*RedisPublisher)(nil)

func NewRedisPublisher(client redis.Cmdable, stream string) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream, maxLen: DefaultStreamMaxLen}
}

func (p *RedisPublisher) PublishFinalized(ctx context.Context, event Finalized) error {
	ctx, span := tracer.Start(ctx, "Redis.PublishFinalized")
	defer span.End()

	span.SetAttributes(
		attribute.String("stream", p.stream),
		attribute.String("marathon.domain", event.Domain),
		attribute.String("participant.reference", event.Reference),
	)

	detail, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to marshal event")
		return err
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"source":      Source,
			"detail-type": DetailTypeFinalized,
			"detail":      string(detail),
		},
	}).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to add event to stream")
		return fmt.Errorf("failed to add event to stream %s: %w", p.stream, err)
	}

	span.SetAttributes(attribute.String("stream.id", id))
	span.SetStatus(codes.Ok, "published finalized event")
	return nil
}
