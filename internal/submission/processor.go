package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/photomarathon/pipeline/internal/audit"
	"github.com/photomarathon/pipeline/internal/common"
	"github.com/photomarathon/pipeline/internal/exif"
	"github.com/photomarathon/pipeline/internal/fetch"
	"github.com/photomarathon/pipeline/internal/keys"
	"github.com/photomarathon/pipeline/internal/logger"
	"github.com/photomarathon/pipeline/internal/metrics"
	"github.com/photomarathon/pipeline/internal/models"
	"github.com/photomarathon/pipeline/internal/rules"
	"github.com/photomarathon/pipeline/internal/store"
	"github.com/photomarathon/pipeline/internal/variants"
	workererrors "github.com/photomarathon/pipeline/internal/worker_errors"
)

var tracer = otel.Tracer("github.com/photomarathon/pipeline/internal/submission")

//go:generate mockgen -destination ./mock/mock.go -package mock . Store,VariantGenerator,Finalizer

type Store interface {
	ClaimSubmission(ctx context.Context, key string) (*models.Submission, error)
	CompleteSubmission(ctx context.Context, key string, c store.Completion, evaluate store.Evaluate) error
	FailSubmission(ctx context.Context, key string) error
	RecordErrors(ctx context.Context, rows []models.SubmissionError) error
	LoadParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error)
	ListRuleConfigs(ctx context.Context, marathonID uuid.UUID) ([]models.RuleConfig, error)
	RevalidateParticipant(ctx context.Context, participantID uuid.UUID, evaluate store.Evaluate) error
}

var _ Store = (*store.Store)(nil)

type VariantGenerator interface {
	Generate(ctx context.Context, original []byte, key keys.Key) (variants.Result, error)
}

var _ VariantGenerator = (*variants.Generator)(nil)

type Finalizer interface {
	Check(ctx context.Context, participantID uuid.UUID) (bool, error)
}

// Processor takes one uploaded original from claimed to completed
type Processor struct {
	store     Store
	fetcher   fetch.Fetcher
	variants  VariantGenerator
	finalizer Finalizer
}

func NewProcessor(
	store Store,
	fetcher fetch.Fetcher,
	variants VariantGenerator,
	finalizer Finalizer,
) *Processor {
	return &Processor{
		store:     store,
		fetcher:   fetcher,
		variants:  variants,
		finalizer: finalizer,
	}
}

// Process runs the pipeline for the original stored under key.
//
// A submission that is already processing, completed or verified is left alone and nil is returned. On failure the
// cataloged errors are recorded against the key, the submission is marked failed and the returned error carries the
// taxonomy codes. A key with no submission row fails terminally, since no redelivery can create the row.
//
// Variants are generated before anything is written. Completion and validation then run in one store transaction
// holding the participant lock.
func (p *Processor) Process(ctx context.Context, key keys.Key) error {
	keyStr := key.String()

	ctx, span := tracer.Start(ctx, "Process")
	defer span.End()

	span.SetAttributes(
		attribute.String("submission.key", keyStr),
		attribute.String("marathon.domain", key.Domain),
	)

	sub, err := p.store.ClaimSubmission(ctx, keyStr)
	if err != nil {
		if errors.Is(err, store.ErrSubmissionNotFound) {
			err = workererrors.WrapTerminal(workererrors.CodeSubmissionPersistenceFailure, err,
				"key", keyStr, "step", "claim")
		} else {
			err = workererrors.Wrap(workererrors.CodeSubmissionPersistenceFailure, err, "key", keyStr, "step", "claim")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to claim submission")
		p.recordFailure(ctx, audit.Context{Domain: key.Domain}, keyStr, err, false)
		return err
	}
	if sub == nil {
		logger.Logger.InfoContext(ctx, "submission already claimed, skipping", "key", keyStr)
		span.AddEvent("duplicate_delivery")
		span.SetStatus(codes.Ok, "duplicate delivery")
		return nil
	}

	span.SetAttributes(attribute.String("participant.id", sub.ParticipantID.String()))

	if err := p.process(ctx, key, sub); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to process submission")
		p.recordFailure(ctx, audit.Context{ParticipantID: &sub.ParticipantID, Domain: key.Domain}, keyStr, err, true)
		return err
	}

	logger.Logger.InfoContext(ctx, "processed submission", "key", keyStr, "participantID", sub.ParticipantID)

	if _, err := p.finalizer.Check(ctx, sub.ParticipantID); err != nil {
		span.RecordError(err)
		logger.Logger.ErrorContext(ctx, "failed to check participant for finalization",
			"key", keyStr, "participantID", sub.ParticipantID, "error", err)
	}

	span.SetStatus(codes.Ok, "processed submission")
	return nil
}

func (p *Processor) process(ctx context.Context, key keys.Key, sub *models.Submission) error {
	keyStr := key.String()

	body, err := p.fetch(ctx, keyStr)
	if err != nil {
		return workererrors.Wrap(workererrors.CodeFetchFailure, err, "key", keyStr)
	}

	data, err := exif.ExtractBytes(ctx, body)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return workererrors.Wrap(workererrors.CodeMissingMetadata, err, "key", keyStr)
		}
		return err
	}

	mimeType := detectMimeType(body)

	stored, err := p.store.ListRuleConfigs(ctx, sub.MarathonID)
	if err != nil {
		return workererrors.Wrap(
			workererrors.CodeSubmissionPersistenceFailure, err,
			"key", keyStr, "step", "validate",
		)
	}
	configs := ParseRuleConfigs(ctx, stored)

	generated, err := p.variants.Generate(ctx, body, key)
	if err != nil {
		return workererrors.Wrap(workererrors.CodeVariantGenerationFailure, err, "key", keyStr)
	}

	var ev evaluation
	err = p.store.CompleteSubmission(ctx, keyStr, store.Completion{
		Exif:          data,
		MimeType:      mimeType,
		ThumbnailKey:  generated.Thumbnail.String(),
		PreviewKey:    generated.Preview.String(),
		Size:          int64(len(body)),
		ParticipantID: sub.ParticipantID,
	}, p.evaluator(sub.ParticipantID, configs, &ev))
	if err != nil {
		return workererrors.Wrap(
			workererrors.CodeSubmissionPersistenceFailure, err,
			"key", keyStr, "step", "complete",
		)
	}

	ev.report(ctx, sub.ParticipantID)
	audit.LogSubmissionCompleted(
		audit.Context{ParticipantID: &sub.ParticipantID, Domain: key.Domain},
		keyStr, mimeType, generated.Thumbnail.String(), generated.Preview.String(), int64(len(body)),
	)

	return nil
}

func (p *Processor) fetch(ctx context.Context, key string) ([]byte, error) {
	rc, err := p.fetcher.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	return body, nil
}

func detectMimeType(body []byte) string {
	m := mimetype.Detect(body).String()
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.TrimSpace(m)
}

// Revalidate reruns the marathon's rules over a participant's finished submissions without touching any objects
func (p *Processor) Revalidate(ctx context.Context, participantID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "Revalidate")
	defer span.End()

	span.SetAttributes(attribute.String("participant.id", participantID.String()))

	participant, err := p.store.LoadParticipant(ctx, participantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load participant")
		return err
	}

	stored, err := p.store.ListRuleConfigs(ctx, participant.MarathonID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list rule configs")
		return err
	}

	var ev evaluation
	err = p.store.RevalidateParticipant(ctx, participantID,
		p.evaluator(participantID, ParseRuleConfigs(ctx, stored), &ev))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to revalidate participant")
		return err
	}

	ev.report(ctx, participantID)
	span.SetStatus(codes.Ok, "revalidated participant")
	return nil
}

// What the last evaluation saw and produced, reported once its transaction commits
type evaluation struct {
	inputs  int
	results []rules.Result
}

func (ev *evaluation) report(ctx context.Context, participantID uuid.UUID) {
	for _, r := range ev.results {
		metrics.ValidationResultsTotal.WithLabelValues(string(r.RuleKey), string(r.Outcome)).Inc()
	}

	logger.Logger.DebugContext(ctx, "evaluated participant",
		"participantID", participantID, "inputs", ev.inputs, "results", len(ev.results))
	audit.LogValidationEvaluated(audit.Context{ParticipantID: &participantID}, ev.inputs, ev.results)
}

// evaluator runs configs over whatever the store hands it as the participant's finished submissions
func (p *Processor) evaluator(participantID uuid.UUID, configs []rules.Config, ev *evaluation) store.Evaluate {
	return func(ctx context.Context, finished []models.Submission) []models.ValidationResult {
		inputs := make([]rules.Input, 0, len(finished))
		for i := range finished {
			inputs = append(inputs, inputFromSubmission(ctx, &finished[i]))
		}
		sort.SliceStable(inputs, func(i, j int) bool {
			return inputs[i].OrderIndex < inputs[j].OrderIndex
		})

		results := rules.Run(configs, inputs)

		rows := make([]models.ValidationResult, 0, len(results))
		for _, r := range results {
			rows = append(rows, models.ValidationResult{
				FileName:      models.NewNull(r.FileName),
				RuleKey:       r.RuleKey,
				Severity:      r.Severity,
				Outcome:       r.Outcome,
				Message:       r.Message,
				ParticipantID: participantID,
			})
		}

		ev.inputs = len(inputs)
		ev.results = results
		return rows
	}
}

// ParseRuleConfigs turns stored rule configs into engine configs. Rows that do not parse are logged and left out.
func ParseRuleConfigs(ctx context.Context, stored []models.RuleConfig) []rules.Config {
	configs := make([]rules.Config, 0, len(stored))
	for _, rc := range stored {
		cfg, err := rules.ParseConfig(rc.RuleKey, rc.Enabled, string(rc.Severity), rc.Params)
		if err != nil {
			logger.Logger.WarnContext(ctx, "skipping malformed rule config",
				"ruleConfigID", rc.ID, "ruleKey", rc.RuleKey, "error", err)
			continue
		}
		configs = append(configs, cfg)
	}
	return configs
}

func inputFromSubmission(ctx context.Context, sub *models.Submission) rules.Input {
	in := rules.Input{
		Exif:          sub.Exif,
		FileName:      sub.Key,
		MimeType:      sub.MimeType.V,
		FileSize:      sub.Size.V,
		ParticipantID: sub.ParticipantID,
	}

	key, err := keys.Parse(sub.Key)
	if err != nil {
		logger.Logger.WarnContext(ctx, "stored submission key does not parse", "key", sub.Key, "error", err)
		return in
	}

	in.FileName = key.FileName
	in.OrderIndex = key.OrderIndex
	return in
}

// recordFailure writes the cataloged errors for key. claimed marks the submission failed as well.
func (p *Processor) recordFailure(ctx context.Context, ac audit.Context, key string, err error, claimed bool) {
	codeList, errCtx := workererrors.Classify(err)

	rows := make([]models.SubmissionError, 0, len(codeList))
	for _, code := range codeList {
		entry := workererrors.Lookup(code)
		rows = append(rows, models.SubmissionError{
			SubmissionKey: key,
			Code:          string(entry.Code),
			Message:       entry.Message,
			Severity:      string(entry.Severity),
			Description:   entry.Description,
			Context:       errCtx,
		})
		metrics.ProcessingErrorsTotal.WithLabelValues(string(entry.Code)).Inc()
	}

	logger.Logger.ErrorContext(ctx, "failed to process submission", "key", key, "codes", codeList, "error", err)
	audit.LogSubmissionFailed(ac, key, common.Strings(codeList), errCtx, claimed)

	if rerr := p.store.RecordErrors(ctx, rows); rerr != nil {
		logger.Logger.ErrorContext(ctx, "failed to record submission errors", "key", key, "error", rerr)
	}

	if !claimed {
		return
	}

	if ferr := p.store.FailSubmission(ctx, key); ferr != nil {
		logger.Logger.ErrorContext(ctx, "failed to mark submission failed", "key", key, "error", ferr)
	}
}
