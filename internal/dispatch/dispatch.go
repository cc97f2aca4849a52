package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/photomarathon/pipeline/internal/audit"
	"github.com/photomarathon/pipeline/internal/keys"
	"github.com/photomarathon/pipeline/internal/logger"
	"github.com/photomarathon/pipeline/internal/metrics"
	"github.com/photomarathon/pipeline/internal/models"
	"github.com/photomarathon/pipeline/internal/queue"
	workererrors "github.com/photomarathon/pipeline/internal/worker_errors"
)

var tracer = otel.Tracer("github.com/photomarathon/pipeline/internal/dispatch")

const DefaultConcurrency = 8

//go:generate mockgen -destination ./mock/mock.go -package mock . Processor,ErrorRecorder

type Processor interface {
	Process(ctx context.Context, key keys.Key) error
}

// Records failures for keys that never reach the processor
type ErrorRecorder interface {
	RecordErrors(ctx context.Context, rows []models.SubmissionError) error
}

type ItemResult struct {
	Err     error
	Key     string
	Skipped bool
}

// Retryable reports whether another delivery of the item could succeed
func (r ItemResult) Retryable() bool {
	return workererrors.IsRetryable(r.Err)
}

// Report is the outcome of one batch. Items are in the order they were dispatched.
type Report struct {
	Items     []ItemResult
	Succeeded int
	Failed    int
	Skipped   int
}

func (r Report) Retryable() []ItemResult {
	var out []ItemResult
	for _, item := range r.Items {
		if item.Retryable() {
			out = append(out, item)
		}
	}
	return out
}

type Dispatcher struct {
	processor   Processor
	recorder    ErrorRecorder
	concurrency int
}

var _ queue.MessageHandler = (*Dispatcher)(nil)

func NewDispatcher(processor Processor, recorder ErrorRecorder, concurrency int) *Dispatcher {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Dispatcher{processor: processor, recorder: recorder, concurrency: concurrency}
}

// Dispatch processes every key of a batch with bounded concurrency. A failing item never affects the others.
func (d *Dispatcher) Dispatch(ctx context.Context, rawKeys []string) Report {
	ctx, span := tracer.Start(ctx, "Dispatch")
	defer span.End()

	span.SetAttributes(
		attribute.Int("batch.size", len(rawKeys)),
		attribute.Int("batch.concurrency", d.concurrency),
	)

	results := make([]ItemResult, len(rawKeys))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, raw := range rawKeys {
		g.Go(func() error {
			results[i] = d.dispatchOne(ctx, raw)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Items: results}
	for _, r := range results {
		switch {
		case r.Skipped:
			report.Skipped++
		case r.Err != nil:
			report.Failed++
		default:
			report.Succeeded++
		}
	}

	span.SetAttributes(
		attribute.Int("batch.succeeded", report.Succeeded),
		attribute.Int("batch.failed", report.Failed),
		attribute.Int("batch.skipped", report.Skipped),
	)
	if report.Failed > 0 {
		span.SetStatus(codes.Error, "batch had failures")
	} else {
		span.SetStatus(codes.Ok, "batch processed")
	}

	return report
}

func (d *Dispatcher) dispatchOne(ctx context.Context, raw string) (result ItemResult) {
	start := time.Now()
	result.Key = raw

	defer func() {
		if r := recover(); r != nil {
			logger.Logger.ErrorContext(ctx, "panic while processing item",
				"key", raw, "panic", r, "stack", string(debug.Stack()))
			result.Err = workererrors.Wrap(workererrors.CodeUnknown, fmt.Errorf("panic: %v", r), "key", raw)
		}

		outcome := metrics.ResultSucceeded
		switch {
		case result.Skipped:
			outcome = metrics.ResultSkipped
		case result.Err != nil:
			outcome = metrics.ResultFailed
		}
		metrics.ItemsTotal.WithLabelValues(outcome).Inc()
		metrics.ItemDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	key, err := keys.FromEventKey(raw)
	if err != nil {
		result.Err = workererrors.Wrap(workererrors.CodeInvalidKeyFormat, err, "key", raw)
		d.recordInvalidKey(ctx, raw)
		return result
	}
	result.Key = key.String()

	// variant writes land in the same bucket and notify us too
	if key.Category != keys.CategoryOriginal {
		logger.Logger.DebugContext(ctx, "skipping non original object", "key", result.Key)
		result.Skipped = true
		return result
	}

	result.Err = d.processor.Process(ctx, key)
	return result
}

func (d *Dispatcher) recordInvalidKey(ctx context.Context, raw string) {
	entry := workererrors.Lookup(workererrors.CodeInvalidKeyFormat)
	metrics.ProcessingErrorsTotal.WithLabelValues(string(entry.Code)).Inc()
	logger.Logger.WarnContext(ctx, "invalid object key", "key", raw)
	audit.LogSubmissionKeyRejected(raw)

	err := d.recorder.RecordErrors(ctx, []models.SubmissionError{{
		SubmissionKey: raw,
		Code:          string(entry.Code),
		Message:       entry.Message,
		Severity:      string(entry.Severity),
		Description:   entry.Description,
		Context:       map[string]string{"key": raw},
	}})
	if err != nil {
		logger.Logger.ErrorContext(ctx, "failed to record invalid key", "key", raw, "error", err)
	}
}

// Handle processes one queued notification. Undecodable bodies are poison. When any item failed in a way another
// delivery could fix the whole message is returned to the queue; items that already finished are no-ops on redelivery.
func (d *Dispatcher) Handle(ctx context.Context, message []byte) error {
	ctx, span := tracer.Start(ctx, "Handle")
	defer span.End()

	rawKeys, err := Decode(message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode message")
		return queue.WrapPoisonError(err)
	}

	report := d.Dispatch(ctx, rawKeys)
	logger.Logger.InfoContext(ctx, "dispatched batch",
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)

	retry := report.Retryable()
	if len(retry) == 0 {
		span.SetStatus(codes.Ok, "handled message")
		return nil
	}

	errs := make([]error, 0, len(retry))
	for _, item := range retry {
		errs = append(errs, fmt.Errorf("%s: %w", item.Key, item.Err))
	}
	err = errors.Join(errs...)
	span.RecordError(err)
	span.SetStatus(codes.Error, "message has retryable failures")
	return err
}
