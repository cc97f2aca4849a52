package finalize

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/photomarathon/pipeline/internal/audit"
	"github.com/photomarathon/pipeline/internal/events"
	"github.com/photomarathon/pipeline/internal/logger"
	"github.com/photomarathon/pipeline/internal/metrics"
	"github.com/photomarathon/pipeline/internal/models"
	"github.com/photomarathon/pipeline/internal/store"
)

var tracer = otel.Tracer("github.com/photomarathon/pipeline/internal/finalize")

//go:generate mockgen -destination ./mock/mock.go -package mock . Store

type Store interface {
	LoadParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error)
	CountFinishedSubmissions(ctx context.Context, participantID uuid.UUID) (int64, error)
}

var _ Store = (*store.Store)(nil)

type Finalizer struct {
	store     Store
	publisher events.Publisher
}

func NewFinalizer(store Store, publisher events.Publisher) *Finalizer {
	return &Finalizer{store: store, publisher: publisher}
}

// Check publishes the finalized event when the participant's finished submissions reach the count required by their
// competition class. It reports whether an event was published.
func (f *Finalizer) Check(ctx context.Context, participantID uuid.UUID) (bool, error) {
	ctx, span := tracer.Start(ctx, "Check")
	defer span.End()

	span.SetAttributes(attribute.String("participant.id", participantID.String()))

	participant, err := f.store.LoadParticipant(ctx, participantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load participant")
		return false, err
	}

	if participant.CompetitionClass == nil {
		logger.Logger.WarnContext(ctx, "participant has no competition class, not finalizing",
			"participantID", participantID)
		span.SetStatus(codes.Ok, "no competition class")
		return false, nil
	}

	required := int64(participant.CompetitionClass.NumberOfPhotos)
	finished, err := f.store.CountFinishedSubmissions(ctx, participantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to count submissions")
		return false, err
	}

	span.SetAttributes(
		attribute.Int64("submissions.required", required),
		attribute.Int64("submissions.finished", finished),
	)

	if finished != required {
		span.SetStatus(codes.Ok, "participant not finished")
		return false, nil
	}

	event := events.Finalized{
		Domain:    participant.Marathon.Domain,
		Reference: participant.Reference,
	}
	if err := f.publisher.PublishFinalized(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to publish finalized event")
		return false, fmt.Errorf("failed to publish finalized event: %w", err)
	}

	metrics.FinalizedTotal.Inc()
	audit.LogParticipantFinalized(
		audit.Context{ParticipantID: &participantID, Domain: event.Domain},
		event.Reference, finished,
	)
	logger.Logger.InfoContext(ctx, "participant finalized",
		"domain", event.Domain, "reference", event.Reference, "photos", finished)

	span.SetStatus(codes.Ok, "published finalized event")
	return true, nil
}
