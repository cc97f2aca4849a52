package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/photomarathon/pipeline/internal/exif"
	"github.com/photomarathon/pipeline/internal/models"
	"github.com/photomarathon/pipeline/internal/types"
)

var tracer = otel.Tracer("github.com/photomarathon/pipeline/internal/store")

var (
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrParticipantNotFound = errors.New("participant not found")
	// the row left processing while this worker held it
	ErrClaimLost = errors.New("submission is no longer claimed")
)

// Statuses that count towards a participant's finished set
var finishedStatuses = []types.SubmissionStatus{
	types.SubmissionStatusCompleted,
	types.SubmissionStatusVerified,
}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ClaimSubmission moves the submission into processing when its status allows it.
// A nil submission with a nil error means another delivery already owns or finished it.
func (s *Store) ClaimSubmission(ctx context.Context, key string) (*models.Submission, error) {
	ctx, span := tracer.Start(ctx, "ClaimSubmission")
	defer span.End()

	span.SetAttributes(attribute.String("submission.key", key))

	var submission models.Submission
	result := s.db.WithContext(ctx).
		Model(&submission).
		Clauses(clause.Returning{}).
		Where("key = ? AND status IN ?", key, types.ClaimableStatuses).
		Update("status", types.SubmissionStatusProcessing)
	if result.Error != nil {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, "failed to claim submission")
		return nil, fmt.Errorf("failed to claim submission: %w", result.Error)
	}

	if result.RowsAffected == 1 {
		span.AddEvent("claimed")
		span.SetStatus(codes.Ok, "claimed submission")
		return &submission, nil
	}

	exists, err := models.Exists[models.Submission](ctx, s.db, "key = ?", key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check for submission")
		return nil, err
	}
	if !exists {
		span.RecordError(ErrSubmissionNotFound)
		span.SetStatus(codes.Error, "submission not found")
		return nil, ErrSubmissionNotFound
	}

	span.AddEvent("already_claimed")
	span.SetStatus(codes.Ok, "submission not claimable")
	return nil, nil
}

// Fields written when a submission completes
type Completion struct {
	Exif          *exif.Data
	MimeType      string
	ThumbnailKey  string
	PreviewKey    string
	Size          int64
	ParticipantID uuid.UUID
}

// Evaluate builds a participant's validation results from their finished submissions. It is called with the
// participant row locked.
type Evaluate func(ctx context.Context, finished []models.Submission) []models.ValidationResult

// CompleteSubmission marks the claimed submission completed and revalidates its participant in one transaction.
//
// The participant row is locked first, so completions of sibling submissions are evaluated one after another and
// each evaluation sees every sibling that completed before it.
func (s *Store) CompleteSubmission(ctx context.Context, key string, c Completion, evaluate Evaluate) error {
	ctx, span := tracer.Start(ctx, "CompleteSubmission")
	defer span.End()

	span.SetAttributes(
		attribute.String("submission.key", key),
		attribute.String("participant.id", c.ParticipantID.String()),
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockParticipant(tx, c.ParticipantID); err != nil {
			return err
		}

		result := tx.
			Model(&models.Submission{}).
			Where("key = ? AND participant_id = ? AND status = ?",
				key, c.ParticipantID, types.SubmissionStatusProcessing).
			Select("status", "exif", "size", "mime_type", "thumbnail_key", "preview_key").
			Updates(&models.Submission{
				Status:       types.SubmissionStatusCompleted,
				Exif:         c.Exif,
				Size:         models.NewNullFromData(c.Size),
				MimeType:     models.NewNullFromData(c.MimeType),
				ThumbnailKey: models.NewNullFromData(c.ThumbnailKey),
				PreviewKey:   models.NewNullFromData(c.PreviewKey),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to complete submission: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrClaimLost
		}

		return evaluateLocked(ctx, tx, c.ParticipantID, evaluate)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to complete submission")
		return err
	}

	span.SetStatus(codes.Ok, "completed submission")
	return nil
}

// RevalidateParticipant reruns evaluate over the participant's finished submissions under the participant lock
func (s *Store) RevalidateParticipant(ctx context.Context, participantID uuid.UUID, evaluate Evaluate) error {
	ctx, span := tracer.Start(ctx, "RevalidateParticipant")
	defer span.End()

	span.SetAttributes(attribute.String("participant.id", participantID.String()))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockParticipant(tx, participantID); err != nil {
			return err
		}
		return evaluateLocked(ctx, tx, participantID, evaluate)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to revalidate participant")
		return err
	}

	span.SetStatus(codes.Ok, "revalidated participant")
	return nil
}

func lockParticipant(tx *gorm.DB, participantID uuid.UUID) error {
	var participant models.Participant
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Take(&participant, "id = ?", participantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrParticipantNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock participant: %w", err)
	}
	return nil
}

func evaluateLocked(ctx context.Context, tx *gorm.DB, participantID uuid.UUID, evaluate Evaluate) error {
	finished, err := finishedSubmissions(tx, participantID)
	if err != nil {
		return err
	}

	return replaceValidationResults(tx, participantID, evaluate(ctx, finished))
}

func (s *Store) FailSubmission(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "FailSubmission")
	defer span.End()

	span.SetAttributes(attribute.String("submission.key", key))

	err := s.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("key = ? AND status = ?", key, types.SubmissionStatusProcessing).
		Update("status", types.SubmissionStatusFailed).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to mark submission failed")
		return fmt.Errorf("failed to mark submission failed: %w", err)
	}

	return nil
}

func (s *Store) RecordErrors(ctx context.Context, rows []models.SubmissionError) error {
	ctx, span := tracer.Start(ctx, "RecordErrors")
	defer span.End()

	if len(rows) == 0 {
		return nil
	}

	span.SetAttributes(
		attribute.String("submission.key", rows[0].SubmissionKey),
		attribute.Int("count", len(rows)),
	)

	err := s.db.WithContext(ctx).Create(&rows).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to record submission errors")
		return fmt.Errorf("failed to record submission errors: %w", err)
	}

	return nil
}

func (s *Store) ListSubmissionErrors(ctx context.Context, key string) ([]models.SubmissionError, error) {
	var rows []models.SubmissionError
	err := s.db.WithContext(ctx).Where("submission_key = ?", key).Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submission errors: %w", err)
	}
	return rows, nil
}

// LoadParticipant fetches the participant along with its marathon and competition class
func (s *Store) LoadParticipant(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	ctx, span := tracer.Start(ctx, "LoadParticipant")
	defer span.End()

	span.SetAttributes(attribute.String("participant.id", id.String()))

	var participant models.Participant
	err := s.db.WithContext(ctx).
		Preload("Marathon").
		Preload("CompetitionClass").
		First(&participant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(ErrParticipantNotFound)
		span.SetStatus(codes.Error, "participant not found")
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load participant")
		return nil, fmt.Errorf("failed to load participant: %w", err)
	}

	return &participant, nil
}

func (s *Store) ListRuleConfigs(ctx context.Context, marathonID uuid.UUID) ([]models.RuleConfig, error) {
	ctx, span := tracer.Start(ctx, "ListRuleConfigs")
	defer span.End()

	span.SetAttributes(attribute.String("marathon.id", marathonID.String()))

	var configs []models.RuleConfig
	err := s.db.WithContext(ctx).
		Where("marathon_id = ?", marathonID).
		Order("id").
		Find(&configs).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list rule configs")
		return nil, fmt.Errorf("failed to list rule configs: %w", err)
	}

	return configs, nil
}

// Completed and verified submissions ordered by key
func finishedSubmissions(db *gorm.DB, participantID uuid.UUID) ([]models.Submission, error) {
	var submissions []models.Submission
	err := db.
		Where("participant_id = ? AND status IN ?", participantID, finishedStatuses).
		Order("key").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

func (s *Store) CountFinishedSubmissions(ctx context.Context, participantID uuid.UUID) (int64, error) {
	ctx, span := tracer.Start(ctx, "CountFinishedSubmissions")
	defer span.End()

	span.SetAttributes(attribute.String("participant.id", participantID.String()))

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("participant_id = ? AND status IN ?", participantID, finishedStatuses).
		Count(&count).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to count submissions")
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	return count, nil
}

type resultIdentity struct {
	ruleKey  types.RuleKey
	fileName string
	hasFile  bool
	outcome  types.Outcome
}

func identityOf(r *models.ValidationResult) resultIdentity {
	return resultIdentity{
		ruleKey:  r.RuleKey,
		fileName: r.FileName.V,
		hasFile:  r.FileName.Valid,
		outcome:  r.Outcome,
	}
}

// replaceValidationResults swaps the participant's results for a fresh set.
// A new row keeps the overruled flag of an old row with the same rule, file and outcome.
func replaceValidationResults(tx *gorm.DB, participantID uuid.UUID, results []models.ValidationResult) error {
	var overruled []models.ValidationResult
	err := tx.Where("participant_id = ? AND overruled", participantID).Find(&overruled).Error
	if err != nil {
		return fmt.Errorf("failed to read overruled results: %w", err)
	}

	keep := make(map[resultIdentity]bool, len(overruled))
	for i := range overruled {
		keep[identityOf(&overruled[i])] = true
	}

	err = tx.Where("participant_id = ?", participantID).Delete(&models.ValidationResult{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear results: %w", err)
	}

	if len(results) == 0 {
		return nil
	}

	for i := range results {
		results[i].ParticipantID = participantID
		if keep[identityOf(&results[i])] {
			results[i].Overruled = true
		}
	}

	if err := tx.Create(&results).Error; err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	return nil
}

func (s *Store) ListValidationResults(
	ctx context.Context,
	participantID uuid.UUID,
) ([]models.ValidationResult, error) {
	var results []models.ValidationResult
	err := s.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("id").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list validation results: %w", err)
	}
	return results, nil
}
