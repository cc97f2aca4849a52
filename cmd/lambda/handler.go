package main

import (
	"context"
	"errors"

	"github.com/aws/aws-lambda-go/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/photomarathon/pipeline/internal/logger"
	"github.com/photomarathon/pipeline/internal/queue"
)

// sqsHandler adapts a MessageHandler to SQS batches with partial batch responses. Poisoned records are acknowledged,
// any other failure is reported back so SQS redelivers only that record.
type sqsHandler struct {
	handler queue.MessageHandler
}

func newSQSHandler(handler queue.MessageHandler) *sqsHandler {
	return &sqsHandler{handler: handler}
}

func (h *sqsHandler) Handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	ctx, span := tracer.Start(ctx, "Lambda.Handle", trace.WithAttributes(
		attribute.Int("records", len(event.Records)),
	))
	defer span.End()

	resp := events.SQSEventResponse{BatchItemFailures: []events.SQSBatchItemFailure{}}

	for _, record := range event.Records {
		err := h.handler.Handle(ctx, []byte(record.Body))
		if err == nil {
			continue
		}

		var pe *queue.PoisonError
		if errors.As(err, &pe) {
			logger.Logger.ErrorContext(ctx, "dropping poisoned message",
				"messageID", record.MessageId,
				"error", err,
			)
			continue
		}

		logger.Logger.WarnContext(ctx, "failed to handle message, reporting it for redelivery",
			"messageID", record.MessageId,
			"error", err,
		)
		resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
			ItemIdentifier: record.MessageId,
		})
	}

	if len(resp.BatchItemFailures) > 0 {
		span.SetStatus(codes.Error, "some messages failed")
		return resp, nil
	}

	span.SetStatus(codes.Ok, "handled messages")
	return resp, nil
}
