package cmds

import (
	"errors"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/photomarathon/pipeline/internal/logger"
	"github.com/photomarathon/pipeline/internal/store"
	"github.com/photomarathon/pipeline/internal/types"
	workererrors "github.com/photomarathon/pipeline/internal/worker_errors"
)

var (
	revalidateParticipantID string
	revalidateFinalize      bool
)

var revalidateCmd = &cobra.Command{
	Use:   "revalidate",
	Short: "Rerun the marathon's rules over a participant's finished photos",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, span := tracer.Start(cmd.Context(), "revalidateCmd")
		defer span.End()

		participantID, err := uuid.Parse(revalidateParticipantID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid participant id")
			return workererrors.ExitErrorWrap(types.ExitInvalidInput, err)
		}
		span.SetAttributes(attribute.String("participant.id", participantID.String()))

		a, err := loadApp(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to initialize pipeline")
			return err
		}
		defer closeApp(ctx, a)

		if err := a.Processor.Revalidate(ctx, participantID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to revalidate")
			if errors.Is(err, store.ErrParticipantNotFound) {
				return workererrors.ExitErrorWrap(types.ExitInvalidInput, err)
			}
			return workererrors.ExitErrorWrap(types.ExitErrored, err)
		}

		logger.Logger.InfoContext(ctx, "revalidated participant", "participantID", participantID)

		if revalidateFinalize {
			published, err := a.Finalizer.Check(ctx, participantID)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to check finalization")
				return workererrors.ExitErrorWrap(types.ExitErrored, err)
			}
			logger.Logger.InfoContext(ctx, "checked finalization", "participantID", participantID, "published", published)
		}

		span.SetStatus(codes.Ok, "revalidated participant")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(revalidateCmd)

	revalidateCmd.Flags().StringVar(&revalidateParticipantID, "participant-id", "", "Participant id (required)")
	revalidateCmd.Flags().BoolVar(&revalidateFinalize, "finalize", false,
		"Publish the finalized event again when the participant is complete")
	if err := revalidateCmd.MarkFlagRequired("participant-id"); err != nil {
		panic(errors.Join(errors.New("failed to mark participant-id flag required"), err))
	}
}
