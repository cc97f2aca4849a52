package events

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/photomarathon/pipeline/internal/queue"
)

// QueuePublisher enqueues envelopes on a work queue
type QueuePublisher struct {
	queuer queue.Queuer
}

var _ Publisher = (*QueuePublisher)(nil)

func NewQueuePublisher(queuer queue.Queuer) *QueuePublisher {
	return &QueuePublisher{queuer: queuer}
}

func (p *QueuePublisher) PublishFinalized(ctx context.Context, event Finalized) error {
	ctx, span := tracer.Start(ctx, "Queue.PublishFinalized")
	defer span.End()

	span.SetAttributes(
		attribute.String("marathon.domain", event.Domain),
		attribute.String("participant.reference", event.Reference),
	)

	if err := p.queuer.Enqueue(ctx, NewEnvelope(event)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to enqueue finalized event")
		return err
	}

	span.SetStatus(codes.Ok, "published finalized event")
	return nil
}
