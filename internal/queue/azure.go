package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/photomarathon/pipeline/internal/logger"
)

// Azure storage queues hand out at most 32 messages per request
const MaxBatchSize = 32

// Azure storage queues backed queuer
type AzureQueuer struct {
	az            *azqueue.QueueClient
	batchSize     int32
	pollInterval  time.Duration
	maxDeliveries int64
}

var _ Queuer = (*AzureQueuer)(nil)

// `queueName` must exist in the storage account
func NewAzureQueuer(storageAccountName string,
	storageAccountKey string,
	queueServiceURL string,
	queueName string,
) (*AzureQueuer, error) {
	azureCred, err := azqueue.NewSharedKeyCredential(storageAccountName, storageAccountKey)
	if err != nil {
		return nil, err
	}
	serviceClient, err := azqueue.NewServiceClientWithSharedKeyCredential(
		queueServiceURL,
		azureCred,
		&azqueue.ClientOptions{
			ClientOptions: policy.ClientOptions{
				Retry: policy.RetryOptions{
					MaxRetries: 5,
					RetryDelay: 500 * time.Millisecond,
				},
			},
		},
	)
	if err != nil {
		return nil, err
	}

	client := serviceClient.NewQueueClient(queueName)

	return &AzureQueuer{az: client, batchSize: 1, pollInterval: 30 * time.Second}, nil
}

// Number of messages taken per dequeue, clamped to [1, MaxBatchSize]
func (q *AzureQueuer) WithBatchSize(n int) *AzureQueuer {
	n = max(1, min(n, MaxBatchSize))
	q.batchSize = int32(n) //nolint:gosec // clamped above
	return q
}

// How long to wait before polling an empty queue again
func (q *AzureQueuer) WithPollInterval(d time.Duration) *AzureQueuer {
	q.pollInterval = d
	return q
}

// Deliveries after which a message is deleted unhandled. Zero keeps redelivering forever.
func (q *AzureQueuer) WithMaxDeliveries(n int64) *AzureQueuer {
	q.maxDeliveries = max(0, n)
	return q
}

func exhausted(msg *azqueue.DequeuedMessage, maxDeliveries int64) bool {
	return maxDeliveries > 0 && msg.DequeueCount != nil && *msg.DequeueCount > maxDeliveries
}

func (q *AzureQueuer) Enqueue(ctx context.Context, message any) error {
	ctx, span := tracer.Start(ctx, "Azure.Enqueue")
	defer span.End()

	msgJSON, err := json.Marshal(message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to marshal message")
		return err
	}

	span.AddEvent("serialized_message", trace.WithAttributes(
		attribute.String("message", string(msgJSON)),
	))

	_, err = q.az.EnqueueMessage(ctx, string(msgJSON), &azqueue.EnqueueMessageOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to enqueue message")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "enqueued message")
	return nil
}

// Dequeue waits for at least one message, then handles up to the batch size concurrently. Each message gets its own
// `timeout`. Messages are deleted when handled or poisoned; on any other handler error they stay invisible until the
// visibility timeout lapses and the queue redelivers them. A message delivered more than the max deliveries is
// deleted without being handled.
func (q *AzureQueuer) Dequeue(
	ctx context.Context,
	timeout time.Duration,
	handler MessageHandler,
) error {
	ctx, span := tracer.Start(ctx, "Azure.Dequeue", trace.WithAttributes(
		attribute.Int64("timeoutSecs", int64(timeout.Seconds())),
		attribute.Int("batchSize", int(q.batchSize)),
	))
	defer span.End()

	// Gives us a bit of time to stop work before it is released after cancelling the context
	timeoutSeconds := int32(timeout.Seconds()) + 5

	var resp azqueue.DequeueMessagesResponse
	for {
		var err error
		resp, err = q.az.DequeueMessages(ctx, &azqueue.DequeueMessagesOptions{
			NumberOfMessages:  &q.batchSize,
			VisibilityTimeout: &timeoutSeconds,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to dequeue messages")
			return err
		}

		if len(resp.Messages) > 0 {
			break
		}

		select {
		// Allow early bail from sleep if context becomes cancelled
		case <-ctx.Done():
			span.RecordError(ctx.Err())
			span.SetStatus(codes.Error, "context cancelled")
			return ctx.Err()
		case <-time.After(q.pollInterval):
		}
	}

	span.AddEvent("got_messages", trace.WithAttributes(
		attribute.Int("count", len(resp.Messages)),
	))

	var (
		mu        sync.Mutex
		deleteErr error
	)

	eg := errgroup.Group{}
	for _, msg := range resp.Messages {
		if msg == nil || msg.MessageText == nil || msg.MessageID == nil || msg.PopReceipt == nil {
			continue
		}

		eg.Go(func() error {
			handlerCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			var err error
			if exhausted(msg, q.maxDeliveries) {
				logger.Logger.ErrorContext(ctx, "dropping message after too many deliveries",
					"messageID", *msg.MessageID,
					"dequeueCount", *msg.DequeueCount,
					"message", *msg.MessageText,
				)
			} else {
				err = handler.Handle(handlerCtx, []byte(*msg.MessageText))
			}
			if err != nil {
				var pe *PoisonError
				if !errors.As(err, &pe) {
					// let the visibility timeout expire and the message go back to the queue
					logger.Logger.WarnContext(ctx, "failed to handle message, leaving it for redelivery",
						"messageID", *msg.MessageID,
						"error", err,
					)
					return nil
				}
				logger.Logger.ErrorContext(ctx, "dropping poisoned message",
					"messageID", *msg.MessageID,
					"error", err,
				)
			}

			_, err = q.az.DeleteMessage(ctx, *msg.MessageID, *msg.PopReceipt, nil)
			if err != nil {
				mu.Lock()
				deleteErr = errors.Join(deleteErr, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()

	if deleteErr != nil {
		span.RecordError(deleteErr)
		span.SetStatus(codes.Error, "failed to remove messages")
		return deleteErr
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "dequeued messages")
	return nil
}
